package planner

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/waypoint-agents/server/internal/agent/model"
	"github.com/waypoint-agents/server/internal/agent/roles"
	"github.com/waypoint-agents/server/internal/metrics"
	logx "github.com/waypoint-agents/server/pkg/logger"
)

const DefaultMaxConsecutiveFailures = 3

// RoleAgent answers one role step of a day.
type RoleAgent interface {
	Run(ctx context.Context, p roles.Params) (roles.Outcome, error)
}

// Roles are the four agents consulted every day.
type Roles struct {
	Transport       RoleAgent
	Sightseeing     RoleAgent
	Hotel           RoleAgent
	NextDestination RoleAgent
}

// RolesFromSet adapts a built role set.
func RolesFromSet(s *roles.Set) Roles {
	return Roles{
		Transport:       s.Transport,
		Sightseeing:     s.Sightseeing,
		Hotel:           s.Hotel,
		NextDestination: s.NextDestination,
	}
}

type Config struct {
	// MaxConsecutiveFailures stops the loop after this many unsuccessful days in a row.
	MaxConsecutiveFailures int
	// ParallelLookups runs transport, sightseeing and hotel concurrently.
	ParallelLookups bool
	// RejectRevisits fails the next-destination step when it suggests a visited place.
	RejectRevisits bool
}

// Plan is the result of the day loop.
type Plan struct {
	Days      []model.DayResult
	Narrative string
	Aborted   bool
	Notice    string // abort banner, empty unless Aborted
	Final     model.TripState
	CostUSD   float64
}

// Orchestrator runs the day-by-day loop. It owns the trip state; role agents
// only see copies of it.
type Orchestrator struct {
	roles   Roles
	cfg     Config
	metrics *metrics.Collector
}

func New(r Roles, cfg Config, m *metrics.Collector) (*Orchestrator, error) {
	if r.Transport == nil || r.Sightseeing == nil || r.Hotel == nil || r.NextDestination == nil {
		return nil, fmt.Errorf("all four role agents are required")
	}
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = DefaultMaxConsecutiveFailures
	}
	return &Orchestrator{roles: r, cfg: cfg, metrics: m}, nil
}

// Plan validates req and runs one iteration per day until the days run out or
// too many consecutive days fail. Cancellation is observed between days: the
// partial plan is returned together with ctx.Err().
func (o *Orchestrator) Plan(ctx context.Context, req model.TripRequest) (*Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	state := model.NewTripState(req)
	plan := &Plan{}

	for day := 1; state.DaysRemaining > 0; day++ {
		if err := ctx.Err(); err != nil {
			o.finish(plan, state)
			return plan, err
		}

		result, cost := o.runDay(ctx, day, req, &state)
		plan.Days = append(plan.Days, result)
		plan.CostUSD += cost
		o.metrics.RecordDay(result.Success)

		if result.Success {
			state.ConsecutiveFailures = 0
		} else {
			state.ConsecutiveFailures++
		}
		state.DaysRemaining--

		logx.Info().
			Int("day", day).
			Str("place", result.Place).
			Bool("success", result.Success).
			Int("consecutive_failures", state.ConsecutiveFailures).
			Int("days_remaining", state.DaysRemaining).
			Msg("Day planned")

		if state.DaysRemaining > 0 && state.ConsecutiveFailures >= o.cfg.MaxConsecutiveFailures {
			plan.Aborted = true
			logx.Warn().
				Int("day", day).
				Int("consecutive_failures", state.ConsecutiveFailures).
				Msg("Too many consecutive failed days - stopping")
			break
		}
	}

	o.finish(plan, state)
	return plan, nil
}

func (o *Orchestrator) finish(plan *Plan, state model.TripState) {
	plan.Final = state
	if plan.Aborted {
		plan.Notice = AbortNotice(o.cfg.MaxConsecutiveFailures, len(plan.Days))
	}
	plan.Narrative = renderNarrative(plan.Days, plan.Notice)
}

type stepResult struct {
	text   string
	failed bool
	cost   float64
}

func (o *Orchestrator) step(ctx context.Context, kind model.RoleKind, agent RoleAgent, p roles.Params) stepResult {
	out, err := agent.Run(ctx, p)
	if err != nil {
		logx.Warn().Err(err).Str("role", string(kind)).Str("place", p.Place).Msg("Role step failed")
		return stepResult{text: unavailable(err.Error()), failed: true}
	}
	return stepResult{text: out.Text, cost: out.CostUSD}
}

// runDay walks Transport, Sightseeing, Hotel and NextDestination for the
// current leg and applies the state update once every step has resolved.
func (o *Orchestrator) runDay(ctx context.Context, day int, req model.TripRequest, state *model.TripState) (model.DayResult, float64) {
	from := state.CurrentLocation
	place := state.NextLocation
	visited := append(append([]string(nil), state.Visited...), place)

	params := roles.Params{
		From:     from,
		To:       place,
		Place:    place,
		People:   req.NumberOfPeople,
		DaysLeft: state.DaysRemaining,
		Visited:  visited,
	}

	var transport, sightseeing, hotel stepResult
	if o.cfg.ParallelLookups {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			transport = o.step(gctx, model.RoleTransport, o.roles.Transport, params)
			return nil
		})
		g.Go(func() error {
			sightseeing = o.step(gctx, model.RoleSightseeing, o.roles.Sightseeing, params)
			return nil
		})
		g.Go(func() error {
			hotel = o.step(gctx, model.RoleHotel, o.roles.Hotel, params)
			return nil
		})
		_ = g.Wait()
	} else {
		transport = o.step(ctx, model.RoleTransport, o.roles.Transport, params)
		sightseeing = o.step(ctx, model.RoleSightseeing, o.roles.Sightseeing, params)
		hotel = o.step(ctx, model.RoleHotel, o.roles.Hotel, params)
	}

	result := model.DayResult{
		Day:         day,
		From:        from,
		Place:       place,
		Transport:   transport.text,
		Sightseeing: sightseeing.text,
		Hotel:       hotel.text,
	}
	cost := transport.cost + sightseeing.cost + hotel.cost
	for _, s := range []struct {
		kind model.RoleKind
		res  stepResult
	}{
		{model.RoleTransport, transport},
		{model.RoleSightseeing, sightseeing},
		{model.RoleHotel, hotel},
	} {
		if s.res.failed {
			result.FailedSteps = append(result.FailedSteps, s.kind)
		}
	}

	next := place
	if state.DaysRemaining == 1 {
		next = req.EndLocation
		result.NextDestination = req.EndLocation
	} else {
		nd := o.step(ctx, model.RoleNextDestination, o.roles.NextDestination, roles.Params{
			From:     place,
			Place:    place,
			People:   req.NumberOfPeople,
			DaysLeft: state.DaysRemaining - 1,
			Visited:  visited,
		})
		cost += nd.cost
		name := ""
		if !nd.failed {
			name = DestinationName(nd.text)
			switch {
			case name == "":
				nd = stepResult{text: unavailable("no destination in response"), failed: true}
			case o.cfg.RejectRevisits && (state.HasVisited(name) || strings.EqualFold(strings.TrimSpace(place), name)):
				nd = stepResult{text: unavailable(fmt.Sprintf("%s was already visited", name)), failed: true}
			}
		}
		if nd.failed {
			result.NextDestination = nd.text
			result.FailedSteps = append(result.FailedSteps, model.RoleNextDestination)
		} else {
			next = name
			result.NextDestination = name
		}
	}

	result.Success = len(result.FailedSteps) == 0

	state.CurrentLocation = place
	state.NextLocation = next
	state.Visited = visited

	return result, cost
}

func unavailable(reason string) string {
	return fmt.Sprintf("information not available (error: %s)", reason)
}
