package codexcli

import (
	"encoding/json"
	"fmt"
)

// rawEvent is used for initial type discrimination of NDJSON lines.
type rawEvent struct {
	Type string `json:"type"`
}

// threadStartedEvent opens a thread.
// Example: {"type":"thread.started","thread_id":"0199a213-81ef"}
type threadStartedEvent struct {
	Type     string `json:"type"`
	ThreadID string `json:"thread_id"`
}

// deltaEvent carries an append-only text fragment for the current
// agent message. Codex is genuinely incremental; deltas never restate
// earlier text.
// Example: {"type":"agent_message.delta","item_id":"item_1","delta":"Hel"}
type deltaEvent struct {
	Type   string `json:"type"`
	ItemID string `json:"item_id"`
	Delta  string `json:"delta"`
}

// itemEvent wraps item lifecycle transitions (item.started,
// item.completed). item.updated is intentionally ignored.
type itemEvent struct {
	Type string `json:"type"`
	Item item   `json:"item"`
}

type item struct {
	ID       string `json:"id"`
	ItemType string `json:"item_type"` // agent_message, command_execution, reasoning
	Text     string `json:"text"`

	// command_execution fields.
	Command          string `json:"command"`
	Cwd              string `json:"cwd"`
	AggregatedOutput string `json:"aggregated_output"`
	ExitCode         *int   `json:"exit_code"`
	Status           string `json:"status"` // in_progress, completed, failed
}

// turnCompletedEvent closes the turn and carries the authoritative
// usage totals for it.
// Example: {"type":"turn.completed","usage":{"input_tokens":5,
// "cached_input_tokens":2,"output_tokens":3}}
type turnCompletedEvent struct {
	Type  string    `json:"type"`
	Usage turnUsage `json:"usage"`
}

type turnUsage struct {
	InputTokens       int64 `json:"input_tokens"`
	CachedInputTokens int64 `json:"cached_input_tokens"`
	OutputTokens      int64 `json:"output_tokens"`
}

// turnFailedEvent reports a turn that ended in error.
// Example: {"type":"turn.failed","error":{"message":"rate limited"}}
type turnFailedEvent struct {
	Type  string `json:"type"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// errorEvent is a stream-level fatal error outside any turn.
type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *turnFailedEvent) message() string {
	if e.Error.Message != "" {
		return e.Error.Message
	}
	return "codex turn failed"
}

func (e *errorEvent) message() string {
	if e.Message != "" {
		return e.Message
	}
	return "codex error"
}

// event is the decoded union returned by parseEvent.
type event interface{ eventType() string }

func (e *threadStartedEvent) eventType() string { return e.Type }
func (e *deltaEvent) eventType() string         { return e.Type }
func (e *itemEvent) eventType() string          { return e.Type }
func (e *turnCompletedEvent) eventType() string { return e.Type }
func (e *turnFailedEvent) eventType() string    { return e.Type }
func (e *errorEvent) eventType() string         { return e.Type }

// parseEvent decodes one line into a typed event. Unknown event types
// (turn.started, item.updated, token_count) return (nil, nil) and are
// skipped.
func parseEvent(line string) (event, error) {
	var raw rawEvent
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return nil, fmt.Errorf("discriminating event: %w", err)
	}

	switch raw.Type {
	case "thread.started":
		var ev threadStartedEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, fmt.Errorf("parsing thread.started event: %w", err)
		}
		return &ev, nil
	case "agent_message.delta":
		var ev deltaEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, fmt.Errorf("parsing agent_message.delta event: %w", err)
		}
		return &ev, nil
	case "item.started", "item.completed":
		var ev itemEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, fmt.Errorf("parsing %s event: %w", raw.Type, err)
		}
		return &ev, nil
	case "turn.completed":
		var ev turnCompletedEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, fmt.Errorf("parsing turn.completed event: %w", err)
		}
		return &ev, nil
	case "turn.failed":
		var ev turnFailedEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, fmt.Errorf("parsing turn.failed event: %w", err)
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
