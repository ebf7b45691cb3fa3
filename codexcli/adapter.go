package codexcli

import (
	"context"
	"strings"
	"sync"

	"github.com/relayops/agentbridge/bridge"
	"github.com/relayops/agentbridge/internal/cliproc"
	"github.com/relayops/agentbridge/internal/ndjson"
	"github.com/relayops/agentbridge/internal/prompt"
	"github.com/relayops/agentbridge/internal/runner"
)

// ProviderName identifies this adapter in the registry.
const ProviderName = "codex"

// stderrNoise matches the banner and progress lines codex writes to stderr.
var stderrNoise = ndjson.NewNoiseFilter("OpenAI Codex", "----", "Reading prompt")

var (
	_ bridge.Provider = (*Provider)(nil)
	_ bridge.Model    = (*model)(nil)
)

// Provider adapts the Codex CLI.
type Provider struct {
	opts     Options
	sessions *bridge.SessionStore

	mu         sync.Mutex
	workDir    string
	sessionKey string
}

// New creates a Codex provider.
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

// IsAvailable reports whether the codex binary answers a version probe.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	_, err := p.Version(ctx)
	return err == nil
}

// Version runs `codex --version` and returns its output.
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

// ClearSession drops the resume marker stored for key.
func (p *Provider) ClearSession(key string) {
	p.sessions.Clear(key)
}

// Model returns a Model bound to the given model id. An empty id selects
// the configured default (or Codex's own default).
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
	resume     bool
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
	_, st.resume = p.sessions.Token(st.sessionKey)
	return st
}

// buildArgs constructs the argument vector. Codex cannot address sessions
// by id; when the key has completed a turn before, the call resumes the
// most recent session in the working directory instead.
func (m *model) buildArgs(promptText string, st callState) []string {
	args := []string{"exec"}
	if st.resume {
		args = append(args, "resume", "--last")
	}
	args = append(args, promptText, "--json")
	if m.id != "" {
		args = append(args, "--model", m.id)
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

// newHandler builds the per-call line decoder. Text arrives as true deltas
// and is forwarded unchanged; the completed agent_message item restates that
// item's full text, so it is reconciled per item id: skipped when its deltas
// already carried the text, emitted whole when none were seen.
func (p *Provider) newHandler(st callState) runner.LineHandler {
	streamed := make(map[string]string) // item id -> text carried by deltas
	return func(line string, n *bridge.Normalizer) error {
		ev, err := parseEvent(line)
		if err != nil {
			return err
		}
		if ev == nil {
			return nil // known-irrelevant event type
		}

		switch e := ev.(type) {
		case *threadStartedEvent:
			// The thread id is not addressable from the CLI, so there is
			// nothing to store; resume eligibility is recorded when the
			// turn completes.

		case *deltaEvent:
			streamed[e.ItemID] += e.Delta
			n.WriteDelta(e.Delta)

		case *itemEvent:
			switch {
			case e.Item.ItemType == "command_execution" && e.Type == "item.started":
				input := map[string]any{"command": e.Item.Command}
				if e.Item.Cwd != "" {
					input["cwd"] = e.Item.Cwd
				}
				n.ToolPending(e.Item.ID, "shell", input)
			case e.Item.ItemType == "command_execution" && e.Type == "item.completed":
				failed := e.Item.Status == "failed" ||
					(e.Item.ExitCode != nil && *e.Item.ExitCode != 0)
				n.ToolDone(e.Item.ID, e.Item.AggregatedOutput, failed)
			case e.Item.ItemType == "agent_message" && e.Type == "item.completed":
				if got, ok := streamed[e.Item.ID]; ok {
					// Deltas already carried this item; forward only a
					// tail the stream missed.
					if tail, found := strings.CutPrefix(e.Item.Text, got); found {
						n.WriteDelta(tail)
					}
					delete(streamed, e.Item.ID)
				} else {
					n.WriteDelta(e.Item.Text)
				}
			}

		case *turnCompletedEvent:
			p.sessions.Capture(st.sessionKey, bridge.ResumeLatest)
			n.OverrideUsage(e.Usage.InputTokens, e.Usage.OutputTokens)
			n.Finish(bridge.FinishReasonStop)

		case *turnFailedEvent:
			n.Fail(&bridge.ProtocolError{Message: e.message()})

		case *errorEvent:
			n.Fail(&bridge.ProtocolError{Message: e.message()})
		}
		return nil
	}
}
