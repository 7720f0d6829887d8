package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// DefaultQuery is answered when no text can be recovered from a message.
const DefaultQuery = "recent"

// textKeys are checked in order for a plain top-level message string.
var textKeys = []string{"message", "prompt", "text", "query", "content", "input"}

// QueryMessage is the text extracted from an inbound payload.
type QueryMessage struct {
	Text           string
	ConversationID string
}

// ParseQueryMessage extracts the query text from either a flat payload
// ({"message": "..."}) or a JSON-RPC style payload
// ({"params": {"message": {"parts": [{"kind": "text", "text": "..."}]}}}).
// A payload without recoverable text yields DefaultQuery. Only invalid JSON
// returns an error.
func ParseQueryMessage(data []byte) (QueryMessage, error) {
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return QueryMessage{Text: DefaultQuery}, fmt.Errorf("parse query message: %w", err)
	}

	msg := QueryMessage{
		Text:           extractText(body),
		ConversationID: extractConversationID(body),
	}
	if msg.Text == "" {
		msg.Text = DefaultQuery
	}
	return msg, nil
}

func extractText(body map[string]any) string {
	if s := pickStr(body, textKeys...); s != "" {
		return s
	}
	if m, ok := body["message"].(map[string]any); ok {
		if s := partsText(m); s != "" {
			return s
		}
	}
	if params, ok := body["params"].(map[string]any); ok {
		if s := pickStr(params, textKeys...); s != "" {
			return s
		}
		if m, ok := params["message"].(map[string]any); ok {
			if s := partsText(m); s != "" {
				return s
			}
		}
	}
	return findTextPart(body)
}

func extractConversationID(body map[string]any) string {
	if s := pickStr(body, "conversationId", "contextId"); s != "" {
		return s
	}
	if params, ok := body["params"].(map[string]any); ok {
		if s := pickStr(params, "conversationId", "contextId"); s != "" {
			return s
		}
		if m, ok := params["message"].(map[string]any); ok {
			return pickStr(m, "contextId", "conversationId")
		}
	}
	return ""
}

// partsText returns the first non-empty text part of a message object.
func partsText(msg map[string]any) string {
	parts, ok := msg["parts"].([]any)
	if !ok {
		return ""
	}
	for _, p := range parts {
		part, ok := p.(map[string]any)
		if !ok {
			continue
		}
		if isTextPart(part) {
			if s := pickStr(part, "text"); s != "" {
				return s
			}
		}
	}
	return ""
}

// findTextPart walks the payload depth-first for any text-kind part. Object
// keys are visited in sorted order so the result is stable.
func findTextPart(v any) string {
	switch node := v.(type) {
	case map[string]any:
		if isTextPart(node) {
			if s := pickStr(node, "text"); s != "" {
				return s
			}
		}
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s := findTextPart(node[k]); s != "" {
				return s
			}
		}
	case []any:
		for _, item := range node {
			if s := findTextPart(item); s != "" {
				return s
			}
		}
	}
	return ""
}

func isTextPart(part map[string]any) bool {
	kind, _ := part["kind"].(string)
	if kind == "" {
		kind, _ = part["type"].(string)
	}
	return kind == "text"
}

// pickStr returns the first non-empty string value among keys.
func pickStr(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}
