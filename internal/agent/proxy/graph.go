package proxy

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/waypoint-agents/server/internal/agent/model"
	logx "github.com/waypoint-agents/server/pkg/logger"
)

// graphBuilder composes the per-call agent graph:
//
//	START -> chat_model -> END
//	              ^   \
//	              |    v (tool calls)
//	           tool_executor
//
// The tool executor is only wired when the call has tools.
type graphBuilder struct {
	cfg   *Config
	graph *compose.Graph[[]*schema.Message, *schema.Message]
}

func buildGraph(ctx context.Context, cfg *Config, tools []tool.BaseTool) (compose.Runnable[[]*schema.Message, *schema.Message], error) {
	b := &graphBuilder{
		cfg: cfg,
		graph: compose.NewGraph[[]*schema.Message, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.AgentState {
				return &model.AgentState{AgentName: cfg.Name}
			}),
		),
	}

	chatModel := cfg.Model
	if len(tools) > 0 {
		infos, err := toolInfos(ctx, tools)
		if err != nil {
			return nil, err
		}
		chatModel, err = cfg.Model.WithTools(infos)
		if err != nil {
			logx.Error().Err(err).Str("agent", cfg.Name).Msg("Failed to bind tools")
			return nil, fmt.Errorf("failed to bind tools: %w", err)
		}
	}

	if err := b.graph.AddChatModelNode(NodeChatModel, chatModel,
		compose.WithStatePreHandler(newChatModelPreHandler(cfg.MaxToolCalls)),
		compose.WithStatePostHandler(newChatModelPostHandler(cfg.ModelName)),
	); err != nil {
		return nil, fmt.Errorf("add chat model node: %w", err)
	}
	if err := b.graph.AddEdge(compose.START, NodeChatModel); err != nil {
		return nil, err
	}

	if len(tools) == 0 {
		if err := b.graph.AddEdge(NodeChatModel, compose.END); err != nil {
			return nil, err
		}
		return b.compile(ctx)
	}

	if err := b.setupTools(ctx, tools); err != nil {
		return nil, err
	}
	return b.compile(ctx)
}

func toolInfos(ctx context.Context, tools []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (b *graphBuilder) setupTools(ctx context.Context, tools []tool.BaseTool) error {
	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               tools,
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			logx.Warn().
				Str("agent", b.cfg.Name).
				Str("tool_name", name).
				Str("arguments", input).
				Msg("Unknown or invalid tool call; returning fallback result")
			return fmt.Sprintf("{\"error\":\"unknown_tool\",\"name\":%q,\"note\":\"ignored\"}", name), nil
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}

	if err := b.graph.AddToolsNode(NodeToolExecutor, toolsNode,
		compose.WithStatePreHandler(newToolExecutorPreHandler(b.cfg.MaxToolCalls)),
	); err != nil {
		return fmt.Errorf("add tools node: %w", err)
	}
	if err := b.graph.AddEdge(NodeToolExecutor, NodeChatModel); err != nil {
		return err
	}

	decision := compose.NewGraphBranch(
		newToolExecutorCondition(),
		map[string]bool{
			NodeToolExecutor: true,
			compose.END:      true,
		},
	)
	if err := b.graph.AddBranch(NodeChatModel, decision); err != nil {
		logx.Error().Err(err).Msg("Error adding decision branch")
		return fmt.Errorf("error adding decision branch: %w", err)
	}
	return nil
}

func (b *graphBuilder) compile(ctx context.Context) (compose.Runnable[[]*schema.Message, *schema.Message], error) {
	// Bound total run steps so a model that keeps asking for tools cannot loop forever.
	maxSteps := 10 + normalizeMaxToolCalls(b.cfg.MaxToolCalls)*2
	if maxSteps < 20 {
		maxSteps = 20
	}

	runnable, err := b.graph.Compile(ctx,
		compose.WithGraphName(b.cfg.Name),
		compose.WithMaxRunSteps(maxSteps),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}
	return runnable, nil
}
