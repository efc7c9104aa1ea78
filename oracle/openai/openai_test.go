package openai

import (
	"encoding/json"
	"testing"

	sdk "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/acc-agent/oracle"
)

func TestToMessages(t *testing.T) {
	call := oracle.ToolCall{ID: "c1", Name: "search_memory", Arguments: json.RawMessage(`{"query":"x"}`)}
	msgs := toMessages(&oracle.Request{
		System: "sys",
		Messages: []oracle.Message{
			oracle.UserMessage("hi"),
			oracle.AssistantMessage("", call),
			oracle.ToolResult(call, "found"),
		},
	})

	require.Len(t, msgs, 4)
	assert.Equal(t, sdk.ChatMessageRoleSystem, msgs[0].Role)
	assert.Equal(t, `{"query":"x"}`, msgs[2].ToolCalls[0].Function.Arguments)
	assert.Equal(t, sdk.ChatMessageRoleTool, msgs[3].Role)
	assert.Equal(t, "c1", msgs[3].ToolCallID)
}

func TestNew_RequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := New(oracle.Config{})
	assert.Error(t, err)

	o, err := New(oracle.Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, o.model)
}
