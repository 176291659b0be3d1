package model

import (
	"github.com/cloudwego/eino/schema"
)

// AgentState stores per-invocation state for one agent proxy graph run.
// Concurrency model:
//   - Registered as Graph Local State via compose.WithGenLocalState, so every
//     Invoke gets a fresh value and nothing leaks between calls.
//   - All reads/writes happen inside Eino state handlers or compose.ProcessState,
//     which Eino serializes; no mutex is needed.
type AgentState struct {
	AgentName            string
	History              []*schema.Message // mutated only inside Eino state handlers
	ToolCallCount        int               // tool node executions in this run
	ToolCallLimitReached bool              // set when the tool call cap is exceeded
	ToolCallIDSeq        int               // local sequence to synthesize tool_call_id when provider omits

	// Accumulated LLM cost (USD) across model turns of this run
	TotalCostUSD float64
}
