package summary

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/callbacks"

	"github.com/waypoint-agents/server/internal/agent/model"
	"github.com/waypoint-agents/server/internal/agent/observers"
	"github.com/waypoint-agents/server/internal/agent/prompts"
	"github.com/waypoint-agents/server/internal/agent/proxy"
)

// Result is the final itinerary text and what it cost to produce.
type Result struct {
	Text    string
	CostUSD float64
}

// Summarizer turns the accumulated day notes into the itinerary shown to the
// traveller. It makes exactly one model call: no retry and no fallback.
type Summarizer struct {
	agent *proxy.Agent
}

func New(agent *proxy.Agent) (*Summarizer, error) {
	if agent == nil {
		return nil, fmt.Errorf("summary agent is nil")
	}
	return &Summarizer{agent: agent}, nil
}

func (s *Summarizer) Summarize(ctx context.Context, req model.TripRequest, narrative string) (Result, error) {
	rctx := callbacks.InitCallbacks(ctx, &callbacks.RunInfo{Name: "summary"}, observers.NewPromptCallbacks())
	rendered, err := prompts.RenderSummary(rctx, req, narrative)
	if err != nil {
		return Result{}, err
	}

	res, err := s.agent.Do(ctx, proxy.Call{Instructions: rendered.System, Prompt: rendered.User})
	if err != nil {
		return Result{}, fmt.Errorf("summarize itinerary: %w", err)
	}
	return Result{Text: res.Text, CostUSD: res.CostUSD}, nil
}
