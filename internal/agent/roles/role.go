package roles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/callbacks"

	"github.com/waypoint-agents/server/internal/agent/model"
	"github.com/waypoint-agents/server/internal/agent/observers"
	"github.com/waypoint-agents/server/internal/agent/prompts"
	"github.com/waypoint-agents/server/internal/agent/proxy"
	"github.com/waypoint-agents/server/internal/agent/tools"
	errx "github.com/waypoint-agents/server/internal/core/error"
	"github.com/waypoint-agents/server/internal/metrics"
	logx "github.com/waypoint-agents/server/pkg/logger"
)

const (
	VariantPrimary  = "primary"
	VariantFallback = "fallback"

	fallbackNotice = "\nYou have no tools in this conversation. Answer from your own knowledge and say when figures are estimates."
)

// Params are the per-call values substituted into a role's templates.
type Params struct {
	From     string
	To       string
	Place    string
	People   int
	DaysLeft int
	Visited  []string
}

// Outcome is the text a role produced and which variant produced it.
type Outcome struct {
	Text    string
	Variant string
	CostUSD float64
}

// Config wires one role. Primary carries the tool bindings; Fallback runs
// without tools on a different hosted model.
type Config struct {
	Kind         model.RoleKind
	Primary      *proxy.Agent
	Fallback     *proxy.Agent
	ProbeTimeout time.Duration
	Metrics      *metrics.Collector
}

// Role is one of the four per-day agents with its fallback.
type Role struct {
	cfg Config
}

func New(cfg Config) (*Role, error) {
	if cfg.Primary == nil || cfg.Fallback == nil {
		return nil, fmt.Errorf("role %s: primary and fallback agents are required", cfg.Kind)
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 15 * time.Second
	}
	return &Role{cfg: cfg}, nil
}

func (r *Role) Kind() model.RoleKind {
	return r.cfg.Kind
}

// Run renders the role templates and asks the primary agent. The primary is
// skipped when its tools fail the probe, and the fallback is asked whenever
// the primary errors or answers with nothing. The probe runs on every call.
func (r *Role) Run(ctx context.Context, p Params) (Outcome, error) {
	kind := string(r.cfg.Kind)

	rctx := callbacks.InitCallbacks(ctx, &callbacks.RunInfo{Name: kind}, observers.NewPromptCallbacks())
	rendered, err := prompts.RenderRole(rctx, r.cfg.Kind, prompts.RoleVars{
		From:     p.From,
		To:       p.To,
		Place:    p.Place,
		People:   p.People,
		DaysLeft: p.DaysLeft,
		Visited:  p.Visited,
	})
	if err != nil {
		return Outcome{}, err
	}

	call := proxy.Call{Instructions: rendered.System, Prompt: rendered.User}

	var primaryErr error
	reason := "probe"
	if perr := r.probe(ctx); perr != nil {
		primaryErr = perr
	} else {
		res, err := r.cfg.Primary.Do(ctx, call)
		r.cfg.Metrics.RecordAgentCall(kind, VariantPrimary, res.Duration, err)
		if err == nil {
			return Outcome{Text: res.Text, Variant: VariantPrimary, CostUSD: res.CostUSD}, nil
		}
		primaryErr = err
		reason = "error"
		if errors.Is(err, errx.ErrEmptyResponse) {
			reason = "empty"
		}
	}

	if ctx.Err() != nil {
		return Outcome{}, ctx.Err()
	}

	logx.Info().
		Str("role", kind).
		Str("reason", reason).
		Err(primaryErr).
		Msg("Falling back")
	r.cfg.Metrics.RecordFallback(kind, reason)

	call.Instructions += fallbackNotice
	res, err := r.cfg.Fallback.Do(ctx, call)
	r.cfg.Metrics.RecordAgentCall(kind, VariantFallback, res.Duration, err)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: primary: %v; fallback: %w", kind, primaryErr, err)
	}
	return Outcome{Text: res.Text, Variant: VariantFallback, CostUSD: res.CostUSD}, nil
}

func (r *Role) probe(ctx context.Context) error {
	bindings := r.cfg.Primary.Bindings()
	if len(bindings) == 0 {
		return nil
	}
	pctx, cancel := context.WithTimeout(ctx, r.cfg.ProbeTimeout)
	defer cancel()
	return tools.Probe(pctx, bindings...)
}
