// Package agenttest provides deterministic stand-ins for hosted models and
// tool bindings.
package agenttest

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/waypoint-agents/server/internal/agent/tools"
)

// ErrScriptExhausted is returned when a ChatModel has no reply left.
var ErrScriptExhausted = errors.New("agenttest: script exhausted")

// Reply answers one model turn.
type Reply func(in []*schema.Message) (*schema.Message, error)

// Text always answers with content.
func Text(content string) Reply {
	return func([]*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage(content, nil), nil
	}
}

// Fail always answers with err.
func Fail(err error) Reply {
	return func([]*schema.Message) (*schema.Message, error) {
		return nil, err
	}
}

// ToolCall asks for one tool invocation with the given JSON arguments.
func ToolCall(id, name, args string) Reply {
	return func([]*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage("", []schema.ToolCall{{
			ID:       id,
			Type:     "function",
			Function: schema.FunctionCall{Name: name, Arguments: args},
		}}), nil
	}
}

// ChatModel is a scripted model.ToolCallingChatModel. Replies are consumed in
// order; once only one remains it is reused for every later turn.
type ChatModel struct {
	mu      sync.Mutex
	replies []Reply
	calls   [][]*schema.Message
	tools   []*schema.ToolInfo
}

var _ model.ToolCallingChatModel = (*ChatModel)(nil)

func NewChatModel(replies ...Reply) *ChatModel {
	return &ChatModel{replies: replies}
}

func (m *ChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	cp := make([]*schema.Message, len(in))
	copy(cp, in)
	m.calls = append(m.calls, cp)
	if len(m.replies) == 0 {
		m.mu.Unlock()
		return nil, ErrScriptExhausted
	}
	next := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	m.mu.Unlock()

	return next(in)
}

func (m *ChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// WithTools records the bound tools and returns the same scripted model.
func (m *ChatModel) WithTools(infos []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	m.mu.Lock()
	m.tools = infos
	m.mu.Unlock()
	return m, nil
}

// Calls returns the messages received by each Generate call.
func (m *ChatModel) Calls() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]*schema.Message(nil), m.calls...)
}

// BoundTools returns the tool infos passed to the last WithTools call.
func (m *ChatModel) BoundTools() []*schema.ToolInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tools
}

// Binding is an in-memory tools.Binding.
type Binding struct {
	BindingName string
	ProbeErr    error
	OpenErr     error
	CloseErr    error
	Tools       []tool.BaseTool

	mu     sync.Mutex
	probes int
	opened int
	closed int
}

var _ tools.Binding = (*Binding)(nil)

func (b *Binding) Name() string { return b.BindingName }

func (b *Binding) Probe(ctx context.Context) error {
	b.mu.Lock()
	b.probes++
	b.mu.Unlock()
	return b.ProbeErr
}

func (b *Binding) Open(ctx context.Context) (tools.Session, error) {
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}
	b.mu.Lock()
	b.opened++
	b.mu.Unlock()
	return &session{b: b}, nil
}

// Counts reports how often the binding was probed, opened and closed.
func (b *Binding) Counts() (probes, opened, closed int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.probes, b.opened, b.closed
}

type session struct {
	b *Binding
}

func (s *session) Tools(ctx context.Context) ([]tool.BaseTool, error) {
	return s.b.Tools, nil
}

func (s *session) Close() error {
	s.b.mu.Lock()
	s.b.closed++
	s.b.mu.Unlock()
	return s.b.CloseErr
}
