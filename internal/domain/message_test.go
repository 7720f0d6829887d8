package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueryMessage(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantText string
		wantConv string
	}{
		{
			name:     "flat message",
			body:     `{"message":"earthquakes in Japan"}`,
			wantText: "earthquakes in Japan",
		},
		{
			name:     "prompt with conversation",
			body:     `{"prompt":"show 5","conversationId":"c-1"}`,
			wantText: "show 5",
			wantConv: "c-1",
		},
		{
			name:     "message key wins over prompt",
			body:     `{"prompt":"second","message":"first"}`,
			wantText: "first",
		},
		{
			name: "json-rpc parts",
			body: `{"jsonrpc":"2.0","id":"1","method":"message/send","params":{"message":{"role":"user","contextId":"ctx-9",
				"parts":[{"kind":"data","data":{}},{"kind":"text","text":"  m5+ near Chile "}]}}}`,
			wantText: "m5+ near Chile",
			wantConv: "ctx-9",
		},
		{
			name:     "top-level message object",
			body:     `{"message":{"parts":[{"kind":"text","text":"help"}]}}`,
			wantText: "help",
		},
		{
			name:     "nested text part anywhere",
			body:     `{"params":{"history":[{"parts":[{"type":"text","text":"today"}]}]}}`,
			wantText: "today",
		},
		{
			name:     "blank text falls back to default",
			body:     `{"message":"   "}`,
			wantText: DefaultQuery,
		},
		{
			name:     "empty object falls back to default",
			body:     `{}`,
			wantText: DefaultQuery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseQueryMessage([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, msg.Text)
			assert.Equal(t, tt.wantConv, msg.ConversationID)
		})
	}
}

func TestParseQueryMessage_InvalidJSON(t *testing.T) {
	msg, err := ParseQueryMessage([]byte("not json"))
	require.Error(t, err)
	assert.Equal(t, DefaultQuery, msg.Text)
}

func TestFindTextPart_StableOrder(t *testing.T) {
	body := map[string]any{
		"b": map[string]any{"kind": "text", "text": "from b"},
		"a": map[string]any{"kind": "text", "text": "from a"},
	}
	for range 10 {
		assert.Equal(t, "from a", findTextPart(body))
	}
}
