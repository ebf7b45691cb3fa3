package opencodecli

import (
	"encoding/json"
	"fmt"
)

// rawEvent is used for initial type discrimination of NDJSON lines.
type rawEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionID"`
}

// textEvent carries a cumulative snapshot of one text part.
// Example: {"type":"text","sessionID":"s1","part":{"id":"prt_1","text":"Hel"}}
type textEvent struct {
	Type      string   `json:"type"`
	SessionID string   `json:"sessionID"`
	Part      textPart `json:"part"`
}

type textPart struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// toolEvent carries a tool part state transition.
// Example: {"type":"tool","sessionID":"s1","part":{"callID":"call_1","tool":"bash",
// "state":{"status":"running","input":{"command":"ls"},"title":"List files"}}}
type toolEvent struct {
	Type      string   `json:"type"`
	SessionID string   `json:"sessionID"`
	Part      toolPart `json:"part"`
}

type toolPart struct {
	ID     string    `json:"id"`
	CallID string    `json:"callID"`
	Tool   string    `json:"tool"`
	State  toolState `json:"state"`
}

type toolState struct {
	Status string         `json:"status"` // pending, running, completed, error
	Input  map[string]any `json:"input"`
	Output string         `json:"output"`
	Title  string         `json:"title"`
	Error  string         `json:"error"`
}

// stepFinishEvent closes one model step. Reason "tool-calls" means the
// turn continues with tool execution; "stop" is terminal.
// Example: {"type":"step_finish","sessionID":"s1","reason":"stop",
// "tokens":{"input":5,"output":2}}
type stepFinishEvent struct {
	Type      string     `json:"type"`
	SessionID string     `json:"sessionID"`
	Reason    string     `json:"reason"`
	Tokens    stepTokens `json:"tokens"`
}

type stepTokens struct {
	Input     int64 `json:"input"`
	Output    int64 `json:"output"`
	Reasoning int64 `json:"reasoning"`
}

// errorEvent signals a structured failure.
// Example: {"type":"error","sessionID":"s1","error":{"name":"APIError",
// "data":{"message":"overloaded"}}}
type errorEvent struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionID"`
	Error     errorDetail `json:"error"`
}

type errorDetail struct {
	Name string `json:"name"`
	Data struct {
		Message string `json:"message"`
	} `json:"data"`
}

func (d errorDetail) message() string {
	if d.Data.Message != "" {
		return d.Data.Message
	}
	if d.Name != "" {
		return d.Name
	}
	return "opencode error"
}

// event is the decoded union returned by parseEvent.
type event interface {
	sessionID() string
}

func (e *textEvent) sessionID() string       { return e.SessionID }
func (e *toolEvent) sessionID() string       { return e.SessionID }
func (e *stepFinishEvent) sessionID() string { return e.SessionID }
func (e *errorEvent) sessionID() string      { return e.SessionID }

// parseEvent decodes one line into a typed event. Unknown event types
// (step_start, snapshot, file edits) return (nil, nil) and are skipped.
func parseEvent(line string) (event, error) {
	var raw rawEvent
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return nil, fmt.Errorf("discriminating event: %w", err)
	}

	switch raw.Type {
	case "text":
		var ev textEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, fmt.Errorf("parsing text event: %w", err)
		}
		return &ev, nil
	case "tool":
		var ev toolEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, fmt.Errorf("parsing tool event: %w", err)
		}
		return &ev, nil
	case "step_finish":
		var ev stepFinishEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, fmt.Errorf("parsing step_finish event: %w", err)
		}
		return &ev, nil
	case "error":
		var ev errorEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, fmt.Errorf("parsing error event: %w", err)
		}
		return &ev, nil
	default:
		return nil, nil
	}
}
