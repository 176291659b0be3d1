package trip

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypoint-agents/server/internal/agent/agenttest"
	"github.com/waypoint-agents/server/internal/agent/model"
	"github.com/waypoint-agents/server/internal/agent/planner"
	"github.com/waypoint-agents/server/internal/agent/proxy"
	"github.com/waypoint-agents/server/internal/agent/repo"
	"github.com/waypoint-agents/server/internal/agent/roles"
	"github.com/waypoint-agents/server/internal/agent/summary"
	errx "github.com/waypoint-agents/server/internal/core/error"
	logx "github.com/waypoint-agents/server/pkg/logger"
)

func init() {
	logx.Silence()
}

type fixedRole string

func (f fixedRole) Run(context.Context, roles.Params) (roles.Outcome, error) {
	return roles.Outcome{Text: string(f), Variant: roles.VariantPrimary, CostUSD: 0.001}, nil
}

type failingRepo struct{ model.ItineraryRepository }

func (failingRepo) Save(context.Context, *model.Itinerary) error {
	return errx.WrapRedis(errors.New("connection refused"))
}

func request() model.TripRequest {
	return model.TripRequest{
		StartLocation:      "Kolkata",
		TouristDestination: "Sikkim",
		EndLocation:        "Kolkata",
		Budget:             model.Budget{Amount: 1000, Currency: "USD"},
		TotalDays:          2,
		NumberOfPeople:     2,
	}
}

type failingRole struct{}

func (failingRole) Run(context.Context, roles.Params) (roles.Outcome, error) {
	return roles.Outcome{}, errors.New("maps unavailable")
}

func newService(t *testing.T, summaryModel *agenttest.ChatModel, store model.ItineraryRepository) *Service {
	t.Helper()
	return newServiceWithRoles(t, planner.Roles{
		Transport:       fixedRole("Transport: $50 by car"),
		Sightseeing:     fixedRole("Sightseeing: Lake viewpoint"),
		Hotel:           fixedRole("Hotel: Budget Inn $20/night"),
		NextDestination: fixedRole("Gangtok"),
	}, summaryModel, store)
}

func newServiceWithRoles(t *testing.T, r planner.Roles, summaryModel *agenttest.ChatModel, store model.ItineraryRepository) *Service {
	t.Helper()
	orch, err := planner.New(r, planner.Config{}, nil)
	require.NoError(t, err)

	agent, err := proxy.New(proxy.Config{Name: "summary", Model: summaryModel})
	require.NoError(t, err)
	sum, err := summary.New(agent)
	require.NoError(t, err)

	svc, err := NewService(Config{
		Planner:    orch,
		Summarizer: sum,
		Repo:       store,
		Now:        func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) },
		NewID:      func() string { return "trip-1" },
	})
	require.NoError(t, err)
	return svc
}

func newRedisRepo(t *testing.T) *repo.RedisItineraryRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return repo.NewRedisItineraryRepository(rdb, time.Hour, 10)
}

func TestGenerate_PersistsItinerary(t *testing.T) {
	store := newRedisRepo(t)
	svc := newService(t, agenttest.NewChatModel(agenttest.Text("Day 1: drive to Sikkim")), store)

	it, err := svc.Generate(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, "trip-1", it.ID)
	assert.Equal(t, "Day 1: drive to Sikkim", it.Summary)
	assert.Len(t, it.Days, 2)
	assert.False(t, it.Aborted)
	assert.Contains(t, it.Narrative, "Transport: $50 by car")
	assert.Empty(t, it.Notice)
	assert.Equal(t, it.Summary, it.Text())
	assert.InDelta(t, 0.007, it.CostUSD, 1e-9)

	got, err := svc.Get(context.Background(), "trip-1")
	require.NoError(t, err)
	assert.Equal(t, it.Summary, got.Summary)

	list, err := svc.List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "trip-1", list[0].ID)
}

func TestGenerate_PersistenceFailureIsNotFatal(t *testing.T) {
	svc := newService(t, agenttest.NewChatModel(agenttest.Text("ok")), failingRepo{})

	it, err := svc.Generate(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "ok", it.Summary)
}

func TestText_Success(t *testing.T) {
	svc := newService(t, agenttest.NewChatModel(agenttest.Text("  Your Sikkim itinerary  ")), nil)
	assert.Equal(t, "Your Sikkim itinerary", svc.Text(context.Background(), request()))
}

func TestText_PreconditionFailure(t *testing.T) {
	m := agenttest.NewChatModel(agenttest.Text("unused"))
	svc := newService(t, m, nil)

	req := request()
	req.TotalDays = 0
	assert.Equal(t, "Error in trip planning: total days must be greater than 0", svc.Text(context.Background(), req))
	assert.Empty(t, m.Calls())
}

func TestText_SummaryFailure(t *testing.T) {
	svc := newService(t, agenttest.NewChatModel(agenttest.Fail(errors.New("401 unauthorized"))), nil)

	out := svc.Text(context.Background(), request())
	assert.Contains(t, out, "Error in trip planning: ")
	assert.Contains(t, out, "401 unauthorized")
}

func TestGetAndList_WithoutRepo(t *testing.T) {
	svc := newService(t, agenttest.NewChatModel(agenttest.Text("ok")), nil)

	_, err := svc.Get(context.Background(), "x")
	assert.ErrorIs(t, err, errx.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, errx.StatusOf(err))

	list, err := svc.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFailureText(t *testing.T) {
	assert.Equal(t, "Error in trip planning: boom", FailureText(errors.New("boom")))
}

func TestGenerate_AbortNoticeLeadsOutput(t *testing.T) {
	var failing failingRole
	svc := newServiceWithRoles(t, planner.Roles{
		Transport:       failing,
		Sightseeing:     failing,
		Hotel:           failing,
		NextDestination: failing,
	}, agenttest.NewChatModel(agenttest.Text("Stay in Kolkata and rest.")), nil)

	req := request()
	req.TotalDays = 4

	it, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	require.True(t, it.Aborted)
	assert.Equal(t, planner.AbortNotice(planner.DefaultMaxConsecutiveFailures, 3), it.Notice)
	assert.Equal(t, it.Notice+"\n\nStay in Kolkata and rest.", it.Text())

	text := svc.Text(context.Background(), req)
	assert.True(t, strings.HasPrefix(text, "NOTICE: Trip planning stopped early after 3 consecutive days"), text)
	assert.True(t, strings.HasSuffix(text, "Stay in Kolkata and rest."))
}
