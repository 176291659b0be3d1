package proxy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/waypoint-agents/server/internal/agent/observers"
	"github.com/waypoint-agents/server/internal/agent/tools"
	errx "github.com/waypoint-agents/server/internal/core/error"
	logx "github.com/waypoint-agents/server/pkg/logger"
)

// Config describes one hosted-model agent. It is treated as immutable once
// passed to New.
type Config struct {
	Name         string
	ModelName    string
	Model        model.ToolCallingChatModel
	Instructions string
	Bindings     []tools.Binding
	MaxToolCalls int
}

// Call is one request to an agent. Empty Instructions fall back to Config.Instructions.
type Call struct {
	Instructions string
	Prompt       string
}

// Result is the trimmed model answer plus accounting for the call.
type Result struct {
	Text      string
	CostUSD   float64
	ToolCalls int
	Duration  time.Duration
}

// Agent wraps one model configuration. It holds no per-call state, so one
// Agent may serve concurrent calls.
type Agent struct {
	cfg Config
}

func New(cfg Config) (*Agent, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("agent %q: chat model is nil", cfg.Name)
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, errors.New("agent name is required")
	}
	if cfg.ModelName == "" {
		cfg.ModelName = cfg.Name
	}
	cfg.Bindings = append([]tools.Binding(nil), cfg.Bindings...)
	return &Agent{cfg: cfg}, nil
}

func (a *Agent) Name() string {
	return a.cfg.Name
}

func (a *Agent) Bindings() []tools.Binding {
	return a.cfg.Bindings
}

// Invoke sends prompt with the configured instructions.
func (a *Agent) Invoke(ctx context.Context, prompt string) (Result, error) {
	return a.Do(ctx, Call{Prompt: prompt})
}

// Run is Invoke with failures logged and reported as ok == false.
func (a *Agent) Run(ctx context.Context, prompt string) (string, bool) {
	res, err := a.Invoke(ctx, prompt)
	if err != nil {
		return "", false
	}
	return res.Text, true
}

// Do acquires the agent's tool bindings for the duration of the call, runs the
// model/tool loop and returns the trimmed answer. Sessions are released on
// every path; a close failure is logged and never replaces the call result.
func (a *Agent) Do(ctx context.Context, call Call) (res Result, err error) {
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		ev := logx.Debug()
		if err != nil {
			ev = logx.Warn().Err(err)
		}
		ev.Str("agent", a.cfg.Name).
			Str("model", a.cfg.ModelName).
			Dur("took", res.Duration).
			Int("tool_calls", res.ToolCalls).
			Float64("cost_usd", res.CostUSD).
			Msg("Agent call finished")
	}()

	sessions, err := tools.OpenAll(ctx, a.cfg.Bindings)
	if err != nil {
		return Result{}, errx.Upstream(err)
	}
	defer func() {
		if cerr := sessions.Close(); cerr != nil {
			logx.Warn().Err(cerr).Str("agent", a.cfg.Name).Msg("Error closing tool sessions")
		}
	}()

	toolList, err := sessions.Tools(ctx)
	if err != nil {
		return Result{}, errx.Upstream(fmt.Errorf("list tools: %w", err))
	}

	runnable, err := buildGraph(ctx, &a.cfg, toolList)
	if err != nil {
		return Result{}, err
	}

	out, err := runnable.Invoke(ctx, a.messages(call), compose.WithCallbacks(observers.NewAllCallbacks(a.cfg.Name)))
	if err != nil {
		return Result{}, errx.Upstream(err)
	}
	if out == nil {
		return Result{}, errx.Upstream(errx.ErrEmptyResponse)
	}

	res = Result{
		Text:      strings.TrimSpace(out.Content),
		CostUSD:   extraFloat(out.Extra, extraCostTotal),
		ToolCalls: extraInt(out.Extra, extraToolCalls),
	}
	if res.Text == "" {
		return res, errx.Upstream(errx.ErrEmptyResponse)
	}
	return res, nil
}

func (a *Agent) messages(call Call) []*schema.Message {
	instructions := call.Instructions
	if instructions == "" {
		instructions = a.cfg.Instructions
	}

	msgs := make([]*schema.Message, 0, 2)
	if strings.TrimSpace(instructions) != "" {
		msgs = append(msgs, schema.SystemMessage(instructions))
	}
	return append(msgs, schema.UserMessage(call.Prompt))
}

func extraFloat(extra map[string]any, key string) float64 {
	if v, ok := extra[key].(float64); ok {
		return v
	}
	return 0
}

func extraInt(extra map[string]any, key string) int {
	if v, ok := extra[key].(int); ok {
		return v
	}
	return 0
}
