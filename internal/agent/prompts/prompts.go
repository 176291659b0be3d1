package prompts

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/waypoint-agents/server/internal/agent/model"
)

//go:embed template/*.txt
var templates embed.FS

// Rendered is a resolved instruction/message pair ready to be sent to an agent.
type Rendered struct {
	System string
	User   string
}

// RoleVars are the per-call parameters of a role template.
type RoleVars struct {
	From     string
	To       string
	Place    string
	People   int
	DaysLeft int
	Visited  []string
}

func load(name string) (string, error) {
	b, err := templates.ReadFile("template/" + name + ".txt")
	if err != nil {
		return "", fmt.Errorf("load template %s: %w", name, err)
	}
	return string(b), nil
}

// render formats a system/user template pair via the Eino prompt component so
// that prompt callbacks fire for every render.
func render(ctx context.Context, name string, vars map[string]any) (Rendered, error) {
	sys, err := load(name + "_system")
	if err != nil {
		return Rendered{}, err
	}
	user, err := load(name + "_user")
	if err != nil {
		return Rendered{}, err
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(sys),
		schema.UserMessage(user),
	)
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return Rendered{}, fmt.Errorf("%s prompt render: %w", name, err)
	}
	if len(msgs) != 2 || msgs[0] == nil || msgs[1] == nil {
		return Rendered{}, fmt.Errorf("%s prompt render: empty result", name)
	}

	return Rendered{
		System: strings.TrimSpace(msgs[0].Content),
		User:   strings.TrimSpace(msgs[1].Content),
	}, nil
}

// RenderRole renders the instructions and the message of one role agent.
func RenderRole(ctx context.Context, kind model.RoleKind, v RoleVars) (Rendered, error) {
	switch kind {
	case model.RoleTransport, model.RoleSightseeing, model.RoleHotel, model.RoleNextDestination:
	default:
		return Rendered{}, fmt.Errorf("unknown role %q", kind)
	}

	return render(ctx, string(kind), map[string]any{
		"From":     v.From,
		"To":       v.To,
		"Place":    v.Place,
		"People":   v.People,
		"DaysLeft": v.DaysLeft,
		"Visited":  strings.Join(v.Visited, ", "),
	})
}

// RenderSummary renders the summarizer instructions with the trip constraints
// and wraps the accumulated narrative as the user message.
func RenderSummary(ctx context.Context, req model.TripRequest, narrative string) (Rendered, error) {
	return render(ctx, "summary", map[string]any{
		"Start":       req.StartLocation,
		"Destination": req.TouristDestination,
		"End":         req.EndLocation,
		"TotalDays":   req.TotalDays,
		"People":      req.NumberOfPeople,
		"Budget":      req.Budget.String(),
		"Narrative":   narrative,
	})
}
