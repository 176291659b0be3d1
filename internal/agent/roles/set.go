package roles

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cloudwego/eino/components/model"

	amodel "github.com/waypoint-agents/server/internal/agent/model"
	"github.com/waypoint-agents/server/internal/agent/proxy"
	"github.com/waypoint-agents/server/internal/agent/tools"
	"github.com/waypoint-agents/server/internal/metrics"
)

// Bindings are the shared tool bindings handed to the primary agents.
// Airbnb is optional and may be nil.
type Bindings struct {
	Search tools.Binding
	Maps   tools.Binding
	Airbnb tools.Binding
}

// NewBindings builds the real bindings from configuration.
func NewBindings(cfg amodel.ToolConfig) Bindings {
	b := Bindings{
		Search: tools.NewWebSearchBinding(cfg.WebSearchEndpoint, cfg.WebSearchMaxResults, &http.Client{Timeout: 20 * time.Second}),
		Maps: tools.NewMCPCommandBinding(tools.BindingMaps, cfg.MapsCommand, map[string]string{
			"GOOGLE_MAPS_API_KEY": cfg.MapsAPIKey,
		}),
	}
	if cfg.AirbnbEnabled {
		b.Airbnb = tools.NewMCPCommandBinding(tools.BindingAirbnb, cfg.AirbnbCommand, nil)
	}
	return b
}

// SetConfig is everything needed to build the four roles. It is read once.
type SetConfig struct {
	Primary           model.ToolCallingChatModel
	PrimaryModelName  string
	Fallback          model.ToolCallingChatModel
	FallbackModelName string
	Bindings          Bindings
	MaxToolCalls      int
	ProbeTimeout      time.Duration
	Metrics           *metrics.Collector
}

// Set holds the four role agents used for every day.
type Set struct {
	Transport       *Role
	Sightseeing     *Role
	Hotel           *Role
	NextDestination *Role
}

func (b Bindings) forRole(kind amodel.RoleKind) []tools.Binding {
	var out []tools.Binding
	add := func(bs ...tools.Binding) {
		for _, x := range bs {
			if x != nil {
				out = append(out, x)
			}
		}
	}
	switch kind {
	case amodel.RoleTransport:
		add(b.Search, b.Maps)
	case amodel.RoleSightseeing:
		add(b.Maps)
	case amodel.RoleHotel:
		add(b.Maps, b.Search, b.Airbnb)
	case amodel.RoleNextDestination:
		add(b.Maps, b.Search)
	}
	return out
}

// NewSet builds the four roles from cfg.
func NewSet(cfg SetConfig) (*Set, error) {
	build := func(kind amodel.RoleKind) (*Role, error) {
		primary, err := proxy.New(proxy.Config{
			Name:         string(kind) + "/" + VariantPrimary,
			ModelName:    cfg.PrimaryModelName,
			Model:        cfg.Primary,
			Bindings:     cfg.Bindings.forRole(kind),
			MaxToolCalls: cfg.MaxToolCalls,
		})
		if err != nil {
			return nil, err
		}
		fallback, err := proxy.New(proxy.Config{
			Name:      string(kind) + "/" + VariantFallback,
			ModelName: cfg.FallbackModelName,
			Model:     cfg.Fallback,
		})
		if err != nil {
			return nil, err
		}
		return New(Config{
			Kind:         kind,
			Primary:      primary,
			Fallback:     fallback,
			ProbeTimeout: cfg.ProbeTimeout,
			Metrics:      cfg.Metrics,
		})
	}

	var (
		s   Set
		err error
	)
	if s.Transport, err = build(amodel.RoleTransport); err != nil {
		return nil, fmt.Errorf("build transport role: %w", err)
	}
	if s.Sightseeing, err = build(amodel.RoleSightseeing); err != nil {
		return nil, fmt.Errorf("build sightseeing role: %w", err)
	}
	if s.Hotel, err = build(amodel.RoleHotel); err != nil {
		return nil, fmt.Errorf("build hotel role: %w", err)
	}
	if s.NextDestination, err = build(amodel.RoleNextDestination); err != nil {
		return nil, fmt.Errorf("build next destination role: %w", err)
	}
	return &s, nil
}
