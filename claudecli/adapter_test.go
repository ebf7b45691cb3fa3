package claudecli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayops/agentbridge/bridge"
)

func TestBuildArgs_Default(t *testing.T) {
	p := New()
	m := p.Model("").(*model)

	args := m.buildArgs("hello world", callState{})

	assert.Equal(t, []string{
		"-p", "hello world", "--output-format", "stream-json", "--verbose",
	}, args)
}

func TestBuildArgs_WithModel(t *testing.T) {
	p := New()
	m := p.Model("claude-opus-4-5").(*model)

	args := m.buildArgs("test", callState{})

	assert.Contains(t, args, "--model")
	assert.Contains(t, args, "claude-opus-4-5")
}

func TestBuildArgs_WithResumeToken(t *testing.T) {
	p := New()
	m := p.Model("").(*model)

	args := m.buildArgs("test", callState{token: "sess_123"})

	assert.Contains(t, args, "--resume")
	assert.Contains(t, args, "sess_123")
}

func TestBuildArgs_NoResumeWithoutToken(t *testing.T) {
	p := New()
	m := p.Model("").(*model)

	args := m.buildArgs("test", callState{})

	assert.NotContains(t, args, "--resume")
}

func driveHandler(t *testing.T, p *Provider, st callState, lines ...string) []bridge.StreamEvent {
	t.Helper()
	var events []bridge.StreamEvent
	n := bridge.NewNormalizer(func(ev bridge.StreamEvent) {
		events = append(events, ev)
	})
	handler := p.newHandler(st)
	for _, line := range lines {
		require.NoError(t, handler(line, n))
	}
	return events
}

func TestHandler_CumulativeAssistantText(t *testing.T) {
	p := New()
	events := driveHandler(t, p, callState{sessionKey: "task-1"},
		`{"type":"system","subtype":"init","session_id":"sess_1","model":"claude-sonnet-4-5"}`,
		`{"type":"assistant","session_id":"sess_1","message":{"role":"assistant","content":[{"type":"text","text":"Hel"}],"usage":{"input_tokens":3,"output_tokens":1}}}`,
		`{"type":"assistant","session_id":"sess_1","message":{"role":"assistant","content":[{"type":"text","text":"Hello"}],"usage":{"output_tokens":1}}}`,
		`{"type":"result","subtype":"success","is_error":false,"result":"Hello","session_id":"sess_1","usage":{"input_tokens":5,"output_tokens":2}}`,
	)

	require.Len(t, events, 5)
	assert.Equal(t, "Hel", events[1].(bridge.TextDeltaEvent).Delta)
	assert.Equal(t, "lo", events[2].(bridge.TextDeltaEvent).Delta)

	finish := events[4].(bridge.FinishEvent)
	assert.Equal(t, bridge.FinishReasonStop, finish.Reason)
	// The terminal usage report overrides the incremental counts.
	assert.Equal(t, bridge.Usage{InputTokens: 5, OutputTokens: 2}, finish.Usage)
}

func TestHandler_ToolUseNarration(t *testing.T) {
	p := New()
	events := driveHandler(t, p, callState{},
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","id":"toolu_1","name":"Bash","input":{"command":"ls"}}]}}`,
		`{"type":"user","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"toolu_1","content":"main.go"}]}}`,
	)

	var text string
	for _, ev := range events {
		if d, ok := ev.(bridge.TextDeltaEvent); ok {
			text += d.Delta
		}
	}
	assert.Contains(t, text, "[tool: Bash]")
	assert.Contains(t, text, `"command":"ls"`)
	assert.Contains(t, text, "[tool: Bash done]")
	assert.Contains(t, text, "main.go")
}

func TestHandler_ToolResultErrorFlag(t *testing.T) {
	p := New()
	events := driveHandler(t, p, callState{},
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","id":"toolu_1","name":"Bash","input":{}}]}}`,
		`{"type":"user","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"toolu_1","content":"not found","is_error":true}]}}`,
	)

	var text string
	for _, ev := range events {
		if d, ok := ev.(bridge.TextDeltaEvent); ok {
			text += d.Delta
		}
	}
	assert.Contains(t, text, "[tool: Bash error]")
}

func TestHandler_ResultErrorFailsCall(t *testing.T) {
	p := New()
	events := driveHandler(t, p, callState{},
		`{"type":"result","subtype":"error_during_execution","is_error":true,"result":"credit exhausted","session_id":"sess_1"}`,
	)

	require.Len(t, events, 1)
	errEv := events[0].(bridge.ErrorEvent)

	var perr *bridge.ProtocolError
	require.True(t, errors.As(errEv.Err, &perr))
	assert.Contains(t, perr.Message, "credit exhausted")
}

func TestHandler_ResultReplacesSessionToken(t *testing.T) {
	p := New()
	p.sessions.Capture("task-1", "sess_old")

	driveHandler(t, p, callState{sessionKey: "task-1"},
		`{"type":"result","subtype":"success","is_error":false,"session_id":"sess_new"}`,
	)

	tok, _ := p.sessions.Token("task-1")
	assert.Equal(t, "sess_new", tok)
}

func TestHandler_CapturesInitSessionID(t *testing.T) {
	p := New()
	driveHandler(t, p, callState{sessionKey: "task-1"},
		`{"type":"system","subtype":"init","session_id":"sess_1","model":"claude-sonnet-4-5"}`,
	)

	tok, ok := p.sessions.Token("task-1")
	require.True(t, ok)
	assert.Equal(t, "sess_1", tok)
}

func TestHandler_UnknownTypeSkipped(t *testing.T) {
	p := New()
	events := driveHandler(t, p, callState{},
		`{"type":"stream_event","event":{}}`,
		`{"type":"system","subtype":"compact_boundary"}`,
	)

	assert.Empty(t, events)
}

func TestResultText_StringAndBlockForms(t *testing.T) {
	plain := contentBlock{Content: []byte(`"just text"`)}
	assert.Equal(t, "just text", plain.resultText())

	blocks := contentBlock{Content: []byte(`[{"type":"text","text":"a"},{"type":"text","text":"b"}]`)}
	assert.Equal(t, "a\nb", blocks.resultText())

	assert.Equal(t, "", contentBlock{}.resultText())
}

func TestListModels_StaticCatalog(t *testing.T) {
	p := New()

	models, err := p.ListModels(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, models)
	for _, m := range models {
		assert.Equal(t, ProviderName, m.Provider)
		assert.NotEmpty(t, m.ModelName)
		assert.NotEmpty(t, m.DisplayName)
	}

	// The returned slice is a copy; mutating it must not corrupt the catalog.
	models[0].ModelName = "mutated"
	fresh, err := p.ListModels(t.Context())
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", fresh[0].ModelName)
}
