package bridge

import "context"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a structured conversation.
// Content holds one or more text segments; multi-part messages are
// concatenated when flattened into the CLI prompt.
type Message struct {
	Role    Role
	Content []string
}

// UserMessage builds a single-part user message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: []string{text}}
}

// SystemMessage builds a single-part system message.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: []string{text}}
}

// Request describes one call. WorkDir and SessionKey are per-call context:
// when empty they fall back to the provider-level defaults set via
// SetWorkDir/SetSessionKey, but they are snapshotted once at call start so
// a concurrent call can never observe a mid-call change.
type Request struct {
	Messages   []Message
	WorkDir    string
	SessionKey string
}

// Result is the resolved outcome of a buffered Generate call.
type Result struct {
	Text   string
	Reason FinishReason
	Usage  Usage
}

// Model is the generative-model surface exposed to consumers. All adapters
// (and any cloud providers living outside this module) implement it, so the
// consuming layer treats them uniformly.
type Model interface {
	// Generate runs one buffered call: the full event pipeline executes,
	// incremental events are discarded, and the latest full text plus
	// summed usage resolve once the process closes.
	Generate(ctx context.Context, req Request) (*Result, error)

	// Stream runs one incremental call. The returned channel closes after
	// exactly one FinishEvent or ErrorEvent. Callers must drain the
	// channel or cancel ctx; abandoning an undrained channel leaks the
	// reader and the child process.
	Stream(ctx context.Context, req Request) (<-chan StreamEvent, error)
}

// ModelInfo describes one selectable model for listing UIs.
type ModelInfo struct {
	ModelName   string
	DisplayName string
	Provider    string
}

// Provider is the registration contract each vendor adapter implements.
type Provider interface {
	// Name returns the provider identifier (e.g. "claude").
	Name() string

	// IsAvailable reports whether the backing CLI binary can be invoked.
	// It runs a version-check invocation and fails fast when missing.
	IsAvailable(ctx context.Context) bool

	// Version returns the CLI version string, or an error when the probe
	// fails.
	Version(ctx context.Context) (string, error)

	// Model returns a Model bound to the given model identifier. An empty
	// id means the vendor default.
	Model(id string) Model

	// ListModels returns the selectable models for this provider.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// SetWorkDir sets the default working directory for subsequent calls.
	SetWorkDir(dir string)

	// SetSessionKey sets the default session key for subsequent calls.
	SetSessionKey(key string)

	// ClearSession drops the continuation token stored for key, so the
	// next call starts a fresh vendor session.
	ClearSession(key string)
}
