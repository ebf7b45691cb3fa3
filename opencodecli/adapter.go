package opencodecli

import (
	"context"
	"sync"

	"github.com/relayops/agentbridge/bridge"
	"github.com/relayops/agentbridge/internal/cliproc"
	"github.com/relayops/agentbridge/internal/ndjson"
	"github.com/relayops/agentbridge/internal/prompt"
	"github.com/relayops/agentbridge/internal/runner"
)

// ProviderName identifies this adapter in the registry.
const ProviderName = "opencode"

// stdoutNoise matches the log lines `--print-logs` interleaves with JSON.
var stdoutNoise = ndjson.NewNoiseFilter("INFO ", "WARN ", "DEBUG ", "ERROR ")

var (
	_ bridge.Provider = (*Provider)(nil)
	_ bridge.Model    = (*model)(nil)
)

// Provider adapts the OpenCode CLI.
type Provider struct {
	opts     Options
	sessions *bridge.SessionStore

	mu         sync.Mutex
	workDir    string
	sessionKey string
}

// New creates an OpenCode provider.
func New(opts ...Option) *Provider {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Provider{
		opts:     o,
		sessions: bridge.NewSessionStore(),
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether the opencode binary answers a version probe.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	_, err := p.Version(ctx)
	return err == nil
}

// Version runs `opencode --version` and returns its output.
func (p *Provider) Version(ctx context.Context) (string, error) {
	return cliproc.Output(ctx, p.opts.CLIPath, "--version")
}

// SetWorkDir sets the default working directory for subsequent calls.
func (p *Provider) SetWorkDir(dir string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.workDir = dir
}

// SetSessionKey sets the default session key for subsequent calls.
func (p *Provider) SetSessionKey(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessionKey = key
}

// ClearSession drops the continuation token stored for key.
func (p *Provider) ClearSession(key string) {
	p.sessions.Clear(key)
}

// Model returns a Model bound to the given provider/model id. An empty id
// selects the configured default (or OpenCode's own default).
func (p *Provider) Model(id string) bridge.Model {
	if id == "" {
		id = p.opts.DefaultModel
	}
	return &model{provider: p, id: id}
}

type model struct {
	provider *Provider
	id       string
}

// callState is the immutable per-call snapshot of the mutable provider
// defaults, taken once at call start.
type callState struct {
	workDir    string
	sessionKey string
	token      string
}

func (m *model) snapshot(req bridge.Request) callState {
	p := m.provider
	p.mu.Lock()
	st := callState{workDir: p.workDir, sessionKey: p.sessionKey}
	p.mu.Unlock()

	if req.WorkDir != "" {
		st.workDir = req.WorkDir
	}
	if req.SessionKey != "" {
		st.sessionKey = req.SessionKey
	}
	st.token, _ = p.sessions.Token(st.sessionKey)
	return st
}

// buildArgs constructs the argument vector: machine-readable output mode
// always, plus model-selection and session-resume flags when applicable.
func (m *model) buildArgs(promptText string, st callState) []string {
	args := []string{"run", promptText, "--print-logs", "--format", "json"}
	if m.id != "" {
		args = append(args, "--model", m.id)
	}
	if st.token != "" {
		args = append(args, "--session", st.token)
	}
	return append(args, m.provider.opts.ExtraArgs...)
}

func (m *model) runnerOptions(req bridge.Request) runner.Options {
	st := m.snapshot(req)
	p := m.provider

	return runner.Options{
		Proc: cliproc.Config{
			Path:   p.opts.CLIPath,
			Args:   m.buildArgs(prompt.Flatten(req.Messages), st),
			Dir:    st.workDir,
			Env:    p.opts.Env,
			Noise:  stdoutNoise,
			Logger: p.opts.Logger,
		},
		Handler:     p.newHandler(st),
		Noise:       stdoutNoise,
		Logger:      p.opts.Logger,
		ResultLimit: p.opts.ResultLimit,
	}
}

// Generate runs one buffered call.
func (m *model) Generate(ctx context.Context, req bridge.Request) (*bridge.Result, error) {
	return runner.Generate(ctx, m.runnerOptions(req))
}

// Stream runs one incremental call.
func (m *model) Stream(ctx context.Context, req bridge.Request) (<-chan bridge.StreamEvent, error) {
	return runner.Stream(ctx, m.runnerOptions(req))
}

// newHandler builds the per-call line decoder. The first event carrying a
// session id populates the session map for the call's key; later ids
// (subagent sessions) are ignored by the store's first-wins capture.
func (p *Provider) newHandler(st callState) runner.LineHandler {
	return func(line string, n *bridge.Normalizer) error {
		ev, err := parseEvent(line)
		if err != nil {
			return err
		}
		if ev == nil {
			return nil // known-irrelevant event type
		}

		if id := ev.sessionID(); id != "" {
			p.sessions.Capture(st.sessionKey, id)
		}

		switch e := ev.(type) {
		case *textEvent:
			n.WriteCumulative(e.Part.Text)

		case *toolEvent:
			switch e.Part.State.Status {
			case "pending", "running":
				name := e.Part.State.Title
				if name == "" {
					name = e.Part.Tool
				}
				n.ToolPending(e.Part.CallID, name, e.Part.State.Input)
			case "completed":
				n.ToolDone(e.Part.CallID, e.Part.State.Output, false)
			case "error":
				result := e.Part.State.Error
				if result == "" {
					result = e.Part.State.Output
				}
				n.ToolDone(e.Part.CallID, result, true)
			}

		case *stepFinishEvent:
			n.AddUsage(e.Tokens.Input, e.Tokens.Output)
			// "tool-calls" is an interim step reason; the turn stays open
			// for further steps. Only "stop" terminates.
			if e.Reason == "stop" {
				n.Finish(bridge.FinishReasonStop)
			}

		case *errorEvent:
			n.Fail(&bridge.ProtocolError{Message: e.Error.message()})
		}
		return nil
	}
}
