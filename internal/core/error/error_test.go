package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestInvalidCarriesMessageVerbatim(t *testing.T) {
	err := Invalid("total days must be greater than 0 (got %d)", 0)

	assert.Equal(t, "total days must be greater than 0 (got 0)", err.Error())
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.True(t, IsInvalid(fmt.Errorf("validate: %w", err)))
}

func TestUpstreamUnwraps(t *testing.T) {
	err := Upstream(ErrEmptyResponse)

	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.Nil(t, Upstream(nil))
}

func TestWrapRedis(t *testing.T) {
	assert.Nil(t, WrapRedis(nil))

	notFound := WrapRedis(redis.Nil)
	assert.ErrorIs(t, notFound, ErrNotFound)
	assert.Equal(t, http.StatusNotFound, StatusOf(notFound))

	other := WrapRedis(errors.New("connection refused"))
	assert.Equal(t, http.StatusBadGateway, StatusOf(other))
	assert.NotErrorIs(t, other, ErrNotFound)
}

func TestStatusOfPlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("boom")))
}
