// Package narrate formats tool-call activity as inline transcript text.
//
// The consuming protocol has a single text stream and no side channel for
// tool events, so tool invocations are rendered into the same open text
// block as assistant prose, interleaved in arrival order: one announcement
// when a call enters pending/running state, one completion line when it
// reaches a terminal status.
package narrate

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// DefaultResultLimit caps the completion narration length.
	DefaultResultLimit = 800

	// inputLimit gates whether tool arguments are rendered as a fenced
	// block. Inputs are never truncated, only included or skipped whole.
	inputLimit = 600

	truncationMarker = "… [truncated]"
)

// Tracker tracks pending tool calls by vendor-assigned call id, so a call
// is announced exactly once and its completion pairs with its start.
// Records are removed when the tool reaches a terminal status. Call-local:
// one Tracker per call, no locking.
type Tracker struct {
	pending     map[string]string // call id → tool name
	ResultLimit int
}

// NewTracker creates a tracker with the given result truncation limit.
// A non-positive limit selects DefaultResultLimit.
func NewTracker(resultLimit int) *Tracker {
	if resultLimit <= 0 {
		resultLimit = DefaultResultLimit
	}
	return &Tracker{
		pending:     make(map[string]string),
		ResultLimit: resultLimit,
	}
}

// Announce returns the start narration for a tool call, or ok=false when
// the call id was already announced.
func (t *Tracker) Announce(callID, name string, input map[string]any) (string, bool) {
	if callID == "" {
		return "", false
	}
	if _, seen := t.pending[callID]; seen {
		return "", false
	}
	t.pending[callID] = name

	var b strings.Builder
	b.WriteString("\n\n[tool: ")
	b.WriteString(displayName(name))
	b.WriteString("]")
	if args := formatInput(input); args != "" {
		b.WriteString("\n```json\n")
		b.WriteString(args)
		b.WriteString("\n```")
	}
	b.WriteString("\n")
	return b.String(), true
}

// Complete returns the completion narration for a tracked call and drops
// its record. ok=false when the call id was never announced.
func (t *Tracker) Complete(callID string, result any, isError bool) (string, bool) {
	name, seen := t.pending[callID]
	if !seen {
		return "", false
	}
	delete(t.pending, callID)

	label := "done"
	if isError {
		label = "error"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n[tool: %s %s]", displayName(name), label)
	if text := Truncate(formatResult(result), t.ResultLimit); text != "" {
		b.WriteString("\n```\n")
		b.WriteString(text)
		b.WriteString("\n```")
	}
	b.WriteString("\n")
	return b.String(), true
}

// Pending reports whether callID is currently tracked.
func (t *Tracker) Pending(callID string) bool {
	_, ok := t.pending[callID]
	return ok
}

// Truncate caps s at max characters, appending a marker when cut.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + truncationMarker
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	return name
}

// formatInput serializes tool arguments as compact JSON, or returns ""
// when the input is empty or too large to inline.
func formatInput(input map[string]any) string {
	if len(input) == 0 {
		return ""
	}
	data, err := json.Marshal(input)
	if err != nil || len(data) > inputLimit {
		return ""
	}
	return string(data)
}

func formatResult(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case error:
		return v.Error()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
