package bridge

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/relayops/agentbridge/internal/narrate"
)

// Normalizer owns the cross-vendor normalization policy for one call. The
// vendor adapters decode their own event taxonomy and drive the Normalizer;
// it guarantees the output invariants regardless of vendor quirks:
//
//   - exactly one TextStart before the first delta, TextEnd closes it once;
//   - cumulative vendor text is diffed into suffix deltas;
//   - tool calls are narrated once on start and once on completion, into
//     the same open text block;
//   - usage is monotonically accumulated until a terminal override;
//   - exactly one Finish or Error ends the sequence, further input is
//     ignored.
//
// All state is call-local; no synchronization needed.
type Normalizer struct {
	emit   func(StreamEvent)
	logger *slog.Logger
	tools  *narrate.Tracker

	blockID    string
	cumulative string // last-seen vendor cumulative text, for diffing
	transcript string // everything emitted, including tool narration
	usage      Usage
	textOpen   bool
	textSeen   bool
	done       bool
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithResultLimit sets the tool-result truncation limit.
func WithResultLimit(limit int) NormalizerOption {
	return func(n *Normalizer) {
		n.tools = narrate.NewTracker(limit)
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) NormalizerOption {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// NewNormalizer creates a Normalizer emitting through emit.
func NewNormalizer(emit func(StreamEvent), opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		emit:   emit,
		logger: slog.Default(),
		tools:  narrate.NewTracker(0),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// WriteDelta forwards a genuine text delta from a delta-based vendor.
func (n *Normalizer) WriteDelta(delta string) {
	if n.done || delta == "" {
		return
	}
	n.cumulative += delta
	n.transcript += delta
	n.writeText(delta)
}

// WriteCumulative reconciles a cumulative full-text update. When the new
// string extends the last-seen one, only the grown suffix is emitted. A
// non-extending update (vendor-side reset, or a fresh message after tool
// use) is emitted whole.
func (n *Normalizer) WriteCumulative(full string) {
	if n.done || full == "" {
		return
	}

	delta := full
	if len(full) > len(n.cumulative) && full[:len(n.cumulative)] == n.cumulative {
		delta = full[len(n.cumulative):]
	} else if full == n.cumulative {
		return
	}
	n.cumulative = full
	n.transcript += delta
	n.writeText(delta)
}

// ToolPending narrates a tool call entering pending/running state. A call
// id already announced is ignored.
func (n *Normalizer) ToolPending(callID, name string, input map[string]any) {
	if n.done {
		return
	}
	text, ok := n.tools.Announce(callID, name, input)
	if !ok {
		return
	}
	n.transcript += text
	n.writeText(text)
}

// ToolDone narrates a tracked tool call reaching a terminal status and
// drops its record. Unannounced call ids are ignored.
func (n *Normalizer) ToolDone(callID string, result any, isError bool) {
	if n.done {
		return
	}
	text, ok := n.tools.Complete(callID, result, isError)
	if !ok {
		return
	}
	n.transcript += text
	n.writeText(text)
}

// AddUsage accumulates incremental token counts.
func (n *Normalizer) AddUsage(input, output int64) {
	if n.done {
		return
	}
	if input > 0 {
		n.usage.InputTokens += input
	}
	if output > 0 {
		n.usage.OutputTokens += output
	}
}

// OverrideUsage replaces accumulated totals with terminal-result totals,
// avoiding double counting when a vendor reports both incrementally and in
// its final payload. A zero terminal report keeps the accumulated totals.
func (n *Normalizer) OverrideUsage(input, output int64) {
	if n.done {
		return
	}
	if input == 0 && output == 0 {
		return
	}
	n.usage = Usage{InputTokens: input, OutputTokens: output}
}

// Finish closes any open text block and terminates the sequence.
// Subsequent input is ignored.
func (n *Normalizer) Finish(reason FinishReason) {
	if n.done {
		return
	}
	n.closeText()
	n.done = true
	n.emit(FinishEvent{Reason: reason, Usage: n.usage})
}

// Fail terminates the sequence with an error. An open text block is closed
// first so consumers see a well-formed block.
func (n *Normalizer) Fail(err error) {
	if n.done {
		return
	}
	n.closeText()
	n.done = true
	n.emit(ErrorEvent{Err: err})
}

// Done reports whether the sequence has terminated.
func (n *Normalizer) Done() bool { return n.done }

// TextSeen reports whether any text was emitted during the call.
func (n *Normalizer) TextSeen() bool { return n.textSeen }

// Text returns the full accumulated text, including tool narration.
func (n *Normalizer) Text() string { return n.transcript }

// Usage returns the current accumulated usage.
func (n *Normalizer) Usage() Usage { return n.usage }

func (n *Normalizer) writeText(delta string) {
	if !n.textOpen {
		n.blockID = uuid.NewString()
		n.textOpen = true
		n.emit(TextStartEvent{ID: n.blockID})
	}
	n.textSeen = true
	n.emit(TextDeltaEvent{ID: n.blockID, Delta: delta})
}

func (n *Normalizer) closeText() {
	if !n.textOpen {
		return
	}
	n.textOpen = false
	n.emit(TextEndEvent{ID: n.blockID})
}
