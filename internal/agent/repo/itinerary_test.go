package repo

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypoint-agents/server/internal/agent/model"
	errx "github.com/waypoint-agents/server/internal/core/error"
	logx "github.com/waypoint-agents/server/pkg/logger"
)

func init() {
	logx.Silence()
}

func newRepo(t *testing.T, ttl time.Duration, limit int) (*RedisItineraryRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisItineraryRepository(rdb, ttl, limit), mr
}

func itinerary(id string) *model.Itinerary {
	return &model.Itinerary{
		ID:        id,
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Request: model.TripRequest{
			StartLocation:      "Kolkata",
			TouristDestination: "Sikkim",
			EndLocation:        "Kolkata",
			Budget:             model.Budget{Amount: 1000, Currency: "USD"},
			TotalDays:          2,
			NumberOfPeople:     2,
		},
		Days: []model.DayResult{
			{Day: 1, From: "Kolkata", Place: "Sikkim", Transport: "$50 by car", NextDestination: "Gangtok", Success: true},
		},
		Narrative: "Day: 1\n",
		Summary:   "Two days in Sikkim",
		CostUSD:   0.0123,
	}
}

func TestSaveAndGet(t *testing.T) {
	r, mr := newRepo(t, time.Hour, 10)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, itinerary("a1")))

	got, err := r.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, itinerary("a1"), got)

	assert.True(t, mr.Exists("itinerary:a1"))
	assert.Equal(t, time.Hour, mr.TTL("itinerary:a1"))
}

func TestGet_Missing(t *testing.T) {
	r, _ := newRepo(t, time.Hour, 10)

	_, err := r.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, errx.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, errx.StatusOf(err))
}

func TestGet_ExpiredAfterTTL(t *testing.T) {
	r, mr := newRepo(t, time.Minute, 10)
	ctx := context.Background()
	require.NoError(t, r.Save(ctx, itinerary("a1")))

	mr.FastForward(2 * time.Minute)

	_, err := r.Get(ctx, "a1")
	assert.ErrorIs(t, err, errx.ErrNotFound)
}

func TestListRecent(t *testing.T) {
	r, mr := newRepo(t, time.Hour, 3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, r.Save(ctx, itinerary(fmt.Sprintf("id-%d", i))))
	}

	all, err := r.ListRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "id-5", all[0].ID)
	assert.Equal(t, "id-3", all[2].ID)

	two, err := r.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, two, 2)

	// Expired payloads are skipped.
	mr.Del("itinerary:id-4")
	left, err := r.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, "id-5", left[0].ID)
	assert.Equal(t, "id-3", left[1].ID)
}

func TestListRecent_Empty(t *testing.T) {
	r, _ := newRepo(t, time.Hour, 10)

	got, err := r.ListRecent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSave_ResavingDoesNotDuplicate(t *testing.T) {
	r, _ := newRepo(t, time.Hour, 10)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, itinerary("a1")))
	require.NoError(t, r.Save(ctx, itinerary("a2")))
	require.NoError(t, r.Save(ctx, itinerary("a1")))

	got, err := r.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a1", got[0].ID)
}

func TestSave_RequiresID(t *testing.T) {
	r, _ := newRepo(t, time.Hour, 10)
	assert.Error(t, r.Save(context.Background(), &model.Itinerary{}))
}
