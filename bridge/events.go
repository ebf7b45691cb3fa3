package bridge

// EventKind identifies the uniform event category.
type EventKind int

const (
	// KindTextStart opens a logical text block.
	KindTextStart EventKind = iota
	// KindTextDelta carries an incremental text chunk for the open block.
	KindTextDelta
	// KindTextEnd closes the open text block.
	KindTextEnd
	// KindFinish terminates the sequence successfully.
	KindFinish
	// KindError terminates the sequence with an error.
	KindError
)

// StreamEvent is the uniform event union emitted by every adapter.
type StreamEvent interface {
	Kind() EventKind
}

// Usage accumulates token counts for one call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Add returns the component-wise sum of two usages.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
	}
}

// FinishReason describes why a call ended.
type FinishReason string

const (
	// FinishReasonStop is a normal vendor-signaled completion.
	FinishReasonStop FinishReason = "stop"
	// FinishReasonError indicates the call terminated with an error event.
	FinishReasonError FinishReason = "error"
	// FinishReasonAborted indicates caller-initiated cancellation.
	FinishReasonAborted FinishReason = "aborted"
)

// TextStartEvent opens a text block. At most one block is open at a time;
// a block is never reopened after TextEndEvent.
type TextStartEvent struct {
	ID string
}

// Kind returns the event kind.
func (e TextStartEvent) Kind() EventKind { return KindTextStart }

// TextDeltaEvent carries a suffix of the open text block.
type TextDeltaEvent struct {
	ID    string
	Delta string
}

// Kind returns the event kind.
func (e TextDeltaEvent) Kind() EventKind { return KindTextDelta }

// TextEndEvent closes the open text block.
type TextEndEvent struct {
	ID string
}

// Kind returns the event kind.
func (e TextEndEvent) Kind() EventKind { return KindTextEnd }

// FinishEvent terminates the sequence with accumulated usage.
type FinishEvent struct {
	Reason FinishReason
	Usage  Usage
}

// Kind returns the event kind.
func (e FinishEvent) Kind() EventKind { return KindFinish }

// ErrorEvent terminates the sequence with an error.
type ErrorEvent struct {
	Err error
}

// Kind returns the event kind.
func (e ErrorEvent) Kind() EventKind { return KindError }
