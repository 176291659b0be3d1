package trip

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/waypoint-agents/server/internal/agent/model"
	"github.com/waypoint-agents/server/internal/agent/planner"
	"github.com/waypoint-agents/server/internal/agent/summary"
	errx "github.com/waypoint-agents/server/internal/core/error"
	"github.com/waypoint-agents/server/internal/metrics"
	logx "github.com/waypoint-agents/server/pkg/logger"
)

const failurePrefix = "Error in trip planning: "

// FailureText renders err the way it is shown to the traveller.
func FailureText(err error) string {
	return failurePrefix + err.Error()
}

// Planner runs the day loop.
type Planner interface {
	Plan(ctx context.Context, req model.TripRequest) (*planner.Plan, error)
}

// Summarizer writes the final itinerary.
type Summarizer interface {
	Summarize(ctx context.Context, req model.TripRequest, narrative string) (summary.Result, error)
}

type Config struct {
	Planner    Planner
	Summarizer Summarizer
	// Repo is optional; without it itineraries are not persisted.
	Repo    model.ItineraryRepository
	Metrics *metrics.Collector
	Now     func() time.Time
	NewID   func() string
}

// Service generates itineraries end to end.
type Service struct {
	cfg Config
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Planner == nil || cfg.Summarizer == nil {
		return nil, fmt.Errorf("planner and summarizer are required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.NewString() }
	}
	return &Service{cfg: cfg}, nil
}

// Generate validates req, runs the day loop, summarizes the notes and stores
// the result. A persistence failure is logged and does not fail the call.
func (s *Service) Generate(ctx context.Context, req model.TripRequest) (*model.Itinerary, error) {
	id := s.cfg.NewID()
	logx.Info().
		Str("itineraryID", id).
		Str("start", req.StartLocation).
		Str("destination", req.TouristDestination).
		Int("days", req.TotalDays).
		Msg("Planning trip")

	if err := req.Validate(); err != nil {
		s.cfg.Metrics.RecordItinerary(metrics.StatusInvalid, 0)
		return nil, err
	}

	plan, err := s.cfg.Planner.Plan(ctx, req)
	if err != nil {
		s.cfg.Metrics.RecordItinerary(metrics.StatusError, costOf(plan))
		return nil, err
	}

	sum, err := s.cfg.Summarizer.Summarize(ctx, req, plan.Narrative)
	if err != nil {
		s.cfg.Metrics.RecordItinerary(metrics.StatusError, plan.CostUSD)
		return nil, err
	}

	it := &model.Itinerary{
		ID:        id,
		CreatedAt: s.cfg.Now().UTC(),
		Request:   req,
		Days:      plan.Days,
		Narrative: plan.Narrative,
		Summary:   sum.Text,
		Aborted:   plan.Aborted,
		Notice:    plan.Notice,
		CostUSD:   plan.CostUSD + sum.CostUSD,
	}

	status := metrics.StatusOK
	if it.Aborted {
		status = metrics.StatusAborted
	}
	s.cfg.Metrics.RecordItinerary(status, it.CostUSD)

	if s.cfg.Repo != nil {
		if err := s.cfg.Repo.Save(ctx, it); err != nil {
			logx.Error().Err(err).Str("itineraryID", id).Msg("Failed to persist itinerary")
		}
	}

	logx.Info().
		Str("itineraryID", id).
		Int("days", len(it.Days)).
		Bool("aborted", it.Aborted).
		Float64("cost_usd", it.CostUSD).
		Msg("Itinerary ready")
	return it, nil
}

// Text is Generate rendered for display: the itinerary, or an error line.
func (s *Service) Text(ctx context.Context, req model.TripRequest) string {
	it, err := s.Generate(ctx, req)
	if err != nil {
		return FailureText(err)
	}
	return it.Text()
}

func (s *Service) Get(ctx context.Context, id string) (*model.Itinerary, error) {
	if s.cfg.Repo == nil {
		return nil, errx.New(errx.ErrNotFound, http.StatusNotFound, "persistence is disabled")
	}
	return s.cfg.Repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, limit int) ([]*model.Itinerary, error) {
	if s.cfg.Repo == nil {
		return []*model.Itinerary{}, nil
	}
	return s.cfg.Repo.ListRecent(ctx, limit)
}

func costOf(p *planner.Plan) float64 {
	if p == nil {
		return 0
	}
	return p.CostUSD
}
