package claudecli

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rawMessage is used for initial type discrimination of NDJSON lines.
type rawMessage struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype"`
}

// systemMessage represents session initialization.
// Example: {"type":"system","subtype":"init","session_id":"...","model":"...","cwd":"..."}
type systemMessage struct {
	Type      string `json:"type"`
	Subtype   string `json:"subtype"`
	SessionID string `json:"session_id"`
	Model     string `json:"model"`
	CWD       string `json:"cwd"`
}

// usage tracks token counts on assistant and result messages.
type usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// contentBlock is one entry of a message's content array. The shape is a
// tagged union: "text", "tool_use" and "tool_result" are relevant here,
// anything else (thinking, images) is skipped.
type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     map[string]any  `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   *bool           `json:"is_error,omitempty"`
}

// resultText renders a tool_result content field, which may be a plain
// string or an array of content blocks.
func (b contentBlock) resultText() string {
	if len(b.Content) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(b.Content, &s); err == nil {
		return s
	}
	var blocks []contentBlock
	if err := json.Unmarshal(b.Content, &blocks); err == nil {
		var parts []string
		for _, inner := range blocks {
			if inner.Type == "text" && inner.Text != "" {
				parts = append(parts, inner.Text)
			}
		}
		return strings.Join(parts, "\n")
	}
	return string(b.Content)
}

// assistantMessage carries complete assistant content blocks.
// Example: {"type":"assistant","message":{"role":"assistant","content":[
// {"type":"text","text":"..."}],"usage":{...}},"session_id":"..."}
type assistantMessage struct {
	Type      string       `json:"type"`
	Message   messageInner `json:"message"`
	SessionID string       `json:"session_id"`
}

// userMessage echoes tool results back into the transcript.
type userMessage struct {
	Type      string       `json:"type"`
	Message   messageInner `json:"message"`
	SessionID string       `json:"session_id"`
}

type messageInner struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
	Usage   usage          `json:"usage"`
}

// resultMessage terminates the call.
// Example: {"type":"result","subtype":"success","is_error":false,
// "result":"...","session_id":"...","usage":{"input_tokens":5,"output_tokens":2}}
type resultMessage struct {
	Type       string `json:"type"`
	Subtype    string `json:"subtype"`
	IsError    bool   `json:"is_error"`
	Result     string `json:"result"`
	SessionID  string `json:"session_id"`
	DurationMs int64  `json:"duration_ms"`
	Usage      usage  `json:"usage"`
}

func (m *resultMessage) errorText() string {
	if m.Result != "" {
		return m.Result
	}
	if m.Subtype != "" && m.Subtype != "success" {
		return m.Subtype
	}
	return "claude error"
}

// message is the decoded union returned by parseMessage.
type message interface {
	sessionID() string
}

func (m *systemMessage) sessionID() string    { return m.SessionID }
func (m *assistantMessage) sessionID() string { return m.SessionID }
func (m *userMessage) sessionID() string      { return m.SessionID }
func (m *resultMessage) sessionID() string    { return m.SessionID }

// parseMessage decodes one line into a typed message. Unknown types
// (stream_event, control traffic) return (nil, nil) and are skipped.
func parseMessage(line string) (message, error) {
	var raw rawMessage
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return nil, fmt.Errorf("discriminating message: %w", err)
	}

	switch raw.Type {
	case "system":
		if raw.Subtype != "init" {
			return nil, nil
		}
		var msg systemMessage
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			return nil, fmt.Errorf("parsing system message: %w", err)
		}
		return &msg, nil
	case "assistant":
		var msg assistantMessage
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			return nil, fmt.Errorf("parsing assistant message: %w", err)
		}
		return &msg, nil
	case "user":
		var msg userMessage
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			return nil, fmt.Errorf("parsing user message: %w", err)
		}
		return &msg, nil
	case "result":
		var msg resultMessage
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			return nil, fmt.Errorf("parsing result message: %w", err)
		}
		return &msg, nil
	default:
		return nil, nil
	}
}
