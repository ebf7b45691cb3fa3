package claudecli

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
const ProviderName = "claude"

// stderrNoise matches startup banners and node runtime warnings that are
// not worth a warn-level log line.
var stderrNoise = ndjson.NewNoiseFilter("(node:", "Welcome to Claude")

var (
	_ bridge.Provider = (*Provider)(nil)
	_ bridge.Model    = (*model)(nil)
)

// Provider adapts the Claude Code CLI.
type Provider struct {
	opts     Options
	sessions *bridge.SessionStore

	mu         sync.Mutex
	workDir    string
	sessionKey string
}

// New creates a Claude Code provider.
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

// IsAvailable reports whether the claude binary answers a version probe.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	_, err := p.Version(ctx)
	return err == nil
}

// Version runs `claude --version` and returns its output.
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

// Model returns a Model bound to the given model id. An empty id selects
// the configured default (or the CLI's own default).
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

func (m *model) buildArgs(promptText string, st callState) []string {
	args := []string{"-p", promptText, "--output-format", "stream-json", "--verbose"}
	if m.id != "" {
		args = append(args, "--model", m.id)
	}
	if st.token != "" {
		args = append(args, "--resume", st.token)
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
			Noise:  stderrNoise,
			Logger: p.opts.Logger,
		},
		Handler:     p.newHandler(st),
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

// newHandler builds the per-call line decoder.
func (p *Provider) newHandler(st callState) runner.LineHandler {
	return func(line string, n *bridge.Normalizer) error {
		msg, err := parseMessage(line)
		if err != nil {
			return err
		}
		if msg == nil {
			return nil
		}

		// First id wins; subagent session ids later in the call are
		// ignored by the store's capture semantics.
		if id := msg.sessionID(); id != "" {
			p.sessions.Capture(st.sessionKey, id)
		}

		switch m := msg.(type) {
		case *assistantMessage:
			n.AddUsage(m.Message.Usage.InputTokens, m.Message.Usage.OutputTokens)
			for _, block := range m.Message.Content {
				switch block.Type {
				case "text":
					n.WriteCumulative(block.Text)
				case "tool_use":
					n.ToolPending(block.ID, block.Name, block.Input)
				}
			}

		case *userMessage:
			for _, block := range m.Message.Content {
				if block.Type != "tool_result" {
					continue
				}
				isErr := block.IsError != nil && *block.IsError
				n.ToolDone(block.ToolUseID, block.resultText(), isErr)
			}

		case *resultMessage:
			// A terminal payload reporting a different session id
			// overwrites the stored continuation token.
			if m.SessionID != "" {
				p.sessions.Replace(st.sessionKey, m.SessionID)
			}
			n.OverrideUsage(m.Usage.InputTokens, m.Usage.OutputTokens)
			if m.IsError {
				n.Fail(&bridge.ProtocolError{Message: m.errorText()})
			} else {
				n.Finish(bridge.FinishReasonStop)
			}
		}
		return nil
	}
}
