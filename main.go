package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"

	"github.com/waypoint-agents/server/internal/agent/llm"
	"github.com/waypoint-agents/server/internal/agent/model"
	"github.com/waypoint-agents/server/internal/agent/planner"
	"github.com/waypoint-agents/server/internal/agent/proxy"
	"github.com/waypoint-agents/server/internal/agent/repo"
	"github.com/waypoint-agents/server/internal/agent/roles"
	"github.com/waypoint-agents/server/internal/agent/summary"
	"github.com/waypoint-agents/server/internal/agent/trip"
	"github.com/waypoint-agents/server/internal/core"
	"github.com/waypoint-agents/server/internal/metrics"
	logx "github.com/waypoint-agents/server/pkg/logger"
	pkgredis "github.com/waypoint-agents/server/pkg/redis"
)

// BaseConfig is needed by every command.
type BaseConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`

	// Infrastructure
	Redis pkgredis.Config
	Store model.StoreConfig
}

// AgentConfig holds provider credentials and agent tuning. Only commands that
// call hosted models load it, so show/list work without API keys.
type AgentConfig struct {
	model.ProviderConfig
	model.ToolConfig

	Primary  model.PrimaryModelConfig
	Fallback model.FallbackModelConfig
	Summary  model.SummaryModelConfig
	Planner  model.PlannerConfig
}

func loadBaseConfig() (BaseConfig, error) {
	var cfg BaseConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to process environment config: %w", err)
	}
	return cfg, nil
}

func loadAgentConfig() (AgentConfig, error) {
	var cfg AgentConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to process agent config: %w", err)
	}
	return cfg, nil
}

// app is the wired planner plus the resources to release on exit.
type app struct {
	service *trip.Service
	metrics *metrics.Collector
	rdb     *redis.Client
}

func (a *app) Close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			logx.Warn().Err(err).Msg("Error closing Redis client")
		}
	}
}

func openStore(ctx context.Context, base BaseConfig) (*redis.Client, model.ItineraryRepository, error) {
	if !base.Redis.Enabled() {
		logx.Info().Msg("REDIS_URL not set - itineraries will not be persisted")
		return nil, nil, nil
	}
	rdb, err := base.Redis.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise Redis client: %w", err)
	}
	logx.Debug().Msg("Connected to Redis successfully")
	return rdb, repo.NewRedisItineraryRepository(rdb, base.Store.TTL, base.Store.RecentLimit), nil
}

// buildApp wires models, tools, roles, planner, summarizer and storage.
func buildApp(ctx context.Context, base BaseConfig, agents AgentConfig, withRuntimeMetrics bool) (*app, error) {
	mcfg := metrics.DefaultConfig()
	mcfg.IncludeRuntime = withRuntimeMetrics
	collector := metrics.New(mcfg)

	models, err := llm.NewChatModels(ctx, llm.ChatModelConfig{
		Providers: agents.ProviderConfig,
		Primary:   agents.Primary,
		Fallback:  agents.Fallback,
		Summary:   agents.Summary,
	})
	if err != nil {
		return nil, err
	}

	set, err := roles.NewSet(roles.SetConfig{
		Primary:           models.Primary,
		PrimaryModelName:  models.PrimaryModelName,
		Fallback:          models.Fallback,
		FallbackModelName: models.FallbackModelName,
		Bindings:          roles.NewBindings(agents.ToolConfig),
		MaxToolCalls:      agents.Planner.ToolMaxCalls,
		ProbeTimeout:      agents.ProbeTimeout,
		Metrics:           collector,
	})
	if err != nil {
		return nil, err
	}

	orch, err := planner.New(planner.RolesFromSet(set), planner.Config{
		MaxConsecutiveFailures: agents.Planner.MaxConsecutiveFailures,
		ParallelLookups:        agents.Planner.ParallelLookups,
		RejectRevisits:         agents.Planner.RejectRevisits,
	}, collector)
	if err != nil {
		return nil, err
	}

	summaryAgent, err := proxy.New(proxy.Config{
		Name:      "summary",
		ModelName: models.SummaryModelName,
		Model:     models.Summary,
	})
	if err != nil {
		return nil, err
	}
	sum, err := summary.New(summaryAgent)
	if err != nil {
		return nil, err
	}

	rdb, store, err := openStore(ctx, base)
	if err != nil {
		return nil, err
	}

	svc, err := trip.NewService(trip.Config{
		Planner:    orch,
		Summarizer: sum,
		Repo:       store,
		Metrics:    collector,
	})
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}

	return &app{service: svc, metrics: collector, rdb: rdb}, nil
}

func initLogger(base BaseConfig) {
	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(base.Environment)})
}

func main() {
	// Load .env file
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Could not load .env file: %v\n", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
