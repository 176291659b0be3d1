package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/waypoint-agents/server/internal/core/error"
)

type fakeBinding struct {
	name     string
	probeErr error
	openErr  error
	closeErr error
	opened   int
	closed   *int
}

func (f *fakeBinding) Name() string                    { return f.name }
func (f *fakeBinding) Probe(ctx context.Context) error { return f.probeErr }
func (f *fakeBinding) Open(ctx context.Context) (Session, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened++
	return &fakeSession{closeErr: f.closeErr, closed: f.closed}, nil
}

type fakeSession struct {
	closeErr error
	closed   *int
}

func (s *fakeSession) Tools(ctx context.Context) ([]tool.BaseTool, error) { return nil, nil }
func (s *fakeSession) Close() error {
	if s.closed != nil {
		*s.closed++
	}
	return s.closeErr
}

func TestProbe_ReturnsFirstFailure(t *testing.T) {
	ctx := context.Background()
	ok := &fakeBinding{name: "ok"}
	bad := &fakeBinding{name: "maps", probeErr: errors.New("npx not found")}

	assert.NoError(t, Probe(ctx, ok))

	err := Probe(ctx, ok, bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, errx.ErrToolUnavailable)
	assert.Contains(t, err.Error(), "maps")
}

func TestOpenAll_RollsBackOnFailure(t *testing.T) {
	closed := 0
	first := &fakeBinding{name: "search", closed: &closed}
	second := &fakeBinding{name: "maps", openErr: errors.New("spawn failed")}

	sessions, err := OpenAll(context.Background(), []Binding{first, second})

	require.Error(t, err)
	assert.Nil(t, sessions)
	assert.ErrorIs(t, err, errx.ErrToolUnavailable)
	assert.Equal(t, 1, first.opened)
	assert.Equal(t, 1, closed, "already opened session must be released")
}

func TestSessionsClose_ClosesAllAndJoinsErrors(t *testing.T) {
	closed := 0
	s := Sessions{
		&fakeSession{closed: &closed, closeErr: errors.New("a")},
		&fakeSession{closed: &closed},
		&fakeSession{closed: &closed, closeErr: errors.New("b")},
	}

	err := s.Close()

	require.Error(t, err)
	assert.Equal(t, 3, closed)
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
}
