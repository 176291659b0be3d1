package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/tool"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/waypoint-agents/server/pkg/logger"
)

func newToolHandler(agent string) *callbackHelper.ToolCallbackHandler {
	return &callbackHelper.ToolCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *tool.CallbackInput) context.Context {
			ev := logx.Debug().Str("agent", agent).Str("tool", info.Name)
			if input != nil {
				ev = ev.Str("arguments", preview(input.ArgumentsInJSON))
			}
			ev.Msg("Tool start")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *tool.CallbackOutput) context.Context {
			ev := logx.Debug().Str("agent", agent).Str("tool", info.Name)
			if output != nil {
				ev = ev.Str("response", preview(output.Response))
			}
			ev.Msg("Tool end")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Warn().Str("agent", agent).Str("tool", info.Name).Err(err).Msg("Tool execution failed")
			return ctx
		},
	}
}
