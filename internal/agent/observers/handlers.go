package observers

import (
	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// NewAllCallbacks aggregates the prompt, model and tool observers into one callbacks.Handler.
// agent is attached to every log line so interleaved calls stay attributable.
func NewAllCallbacks(agent string) einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		Tool(newToolHandler(agent)).
		ChatModel(newModelHandler(agent)).
		Prompt(newPromptHandler()).
		Handler()
}
