package observers

import (
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestLastUserContent(t *testing.T) {
	msgs := []*schema.Message{
		schema.SystemMessage("sys"),
		schema.UserMessage("  first  "),
		nil,
		schema.AssistantMessage("reply", nil),
		schema.UserMessage(" second "),
		schema.ToolMessage("{}", "call_1"),
	}
	assert.Equal(t, "second", lastUserContent(msgs))
	assert.Equal(t, "", lastUserContent(nil))
}

func TestPreviewTruncatesRunes(t *testing.T) {
	assert.Equal(t, "short", preview("  short "))

	long := strings.Repeat("é", previewLen+10)
	got := preview(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, previewLen, len([]rune(strings.TrimSuffix(got, "..."))))
}

func TestNewAllCallbacksNotNil(t *testing.T) {
	assert.NotNil(t, NewAllCallbacks("transport/primary"))
	assert.NotNil(t, NewPromptCallbacks())
}
