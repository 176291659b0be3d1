package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertMessages(t *testing.T) {
	msgs := []*schema.Message{
		schema.SystemMessage("You are a travel agent."),
		schema.UserMessage("Find trains from Kolkata to Sikkim"),
		nil,
		{
			Role:    schema.Assistant,
			Content: "",
			ToolCalls: []schema.ToolCall{{
				ID:       "call_1",
				Function: schema.FunctionCall{Name: "web_search", Arguments: `{"query":"train"}`},
			}},
		},
		schema.ToolMessage(`{"results":[]}`, "call_1"),
	}

	result := convertMessages(msgs)

	require.Len(t, result, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, result[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, result[1].Role)
	assert.Equal(t, "Find trains from Kolkata to Sikkim", result[1].Content)
	assert.Equal(t, openai.ChatMessageRoleAssistant, result[2].Role)
	require.Len(t, result[2].ToolCalls, 1)
	assert.Equal(t, "web_search", result[2].ToolCalls[0].Function.Name)
	assert.Equal(t, openai.ChatMessageRoleTool, result[3].Role)
	assert.Equal(t, "call_1", result[3].ToolCallID)
}

func newFakeCompletions(t *testing.T, content string, seen *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:    "cmpl-1",
			Model: seen.Model,
			Choices: []openai.ChatCompletionChoice{{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: "assistant", Content: content},
				FinishReason: openai.FinishReasonStop,
			}},
			Usage: openai.Usage{PromptTokens: 12, CompletionTokens: 5, TotalTokens: 17},
		})
	}))
}

func TestOpenAIChatModel_Generate(t *testing.T) {
	var seen openai.ChatCompletionRequest
	srv := newFakeCompletions(t, "Gangtok", &seen)
	defer srv.Close()

	m := NewOpenAIChatModel(OpenAIConfig{
		APIKey:      "test",
		BaseURL:     srv.URL,
		Model:       "llama-3.3-70b-versatile",
		Temperature: 0.2,
		MaxTokens:   256,
		HTTPClient:  srv.Client(),
	})

	out, err := m.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("pick the next city"),
		schema.UserMessage("from Sikkim"),
	}, model.WithTemperature(0.7))
	require.NoError(t, err)

	assert.Equal(t, schema.Assistant, out.Role)
	assert.Equal(t, "Gangtok", out.Content)
	require.NotNil(t, out.ResponseMeta)
	assert.Equal(t, 17, out.ResponseMeta.Usage.TotalTokens)

	assert.Equal(t, "llama-3.3-70b-versatile", seen.Model)
	assert.InDelta(t, 0.7, seen.Temperature, 1e-6)
	assert.Equal(t, 256, seen.MaxTokens)
	require.Len(t, seen.Messages, 2)
}

func TestOpenAIChatModel_StreamWrapsGenerate(t *testing.T) {
	var seen openai.ChatCompletionRequest
	srv := newFakeCompletions(t, "Lake viewpoint", &seen)
	defer srv.Close()

	m := NewOpenAIChatModel(OpenAIConfig{APIKey: "k", BaseURL: srv.URL, Model: "gpt-4o-mini", HTTPClient: srv.Client()})
	sr, err := m.Stream(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)
	defer sr.Close()

	msg, err := sr.Recv()
	require.NoError(t, err)
	assert.Equal(t, "Lake viewpoint", msg.Content)
}

func TestOpenAIChatModel_WithTools(t *testing.T) {
	m := NewOpenAIChatModel(OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini"})

	same, err := m.WithTools(nil)
	require.NoError(t, err)
	assert.Equal(t, m, same)

	_, err = m.WithTools([]*schema.ToolInfo{{Name: "web_search"}})
	assert.ErrorIs(t, err, ErrToolsUnsupported)
}
