package codexcli

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

	assert.Equal(t, []string{"exec", "hello world", "--json"}, args)
}

func TestBuildArgs_WithModel(t *testing.T) {
	p := New()
	m := p.Model("gpt-5.2-codex").(*model)

	args := m.buildArgs("test", callState{})

	assert.Contains(t, args, "--model")
	assert.Contains(t, args, "gpt-5.2-codex")
}

func TestBuildArgs_ResumeLatest(t *testing.T) {
	p := New()
	m := p.Model("").(*model)

	args := m.buildArgs("continue please", callState{resume: true})

	assert.Equal(t, []string{"exec", "resume", "--last", "continue please", "--json"}, args)
}

func TestSnapshot_ResumeAfterCompletedTurn(t *testing.T) {
	p := New()
	m := p.Model("").(*model)

	st := m.snapshot(bridge.Request{SessionKey: "task-1"})
	assert.False(t, st.resume, "fresh key starts a new session")

	p.sessions.Capture("task-1", bridge.ResumeLatest)

	st = m.snapshot(bridge.Request{SessionKey: "task-1"})
	assert.True(t, st.resume)
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

func TestHandler_TrueDeltas(t *testing.T) {
	p := New()
	events := driveHandler(t, p, callState{sessionKey: "task-1"},
		`{"type":"thread.started","thread_id":"0199a213"}`,
		`{"type":"agent_message.delta","item_id":"item_0","delta":"Hel"}`,
		`{"type":"agent_message.delta","item_id":"item_0","delta":"lo"}`,
		`{"type":"item.completed","item":{"id":"item_0","item_type":"agent_message","text":"Hello"}}`,
		`{"type":"turn.completed","usage":{"input_tokens":5,"cached_input_tokens":2,"output_tokens":3}}`,
	)

	require.Len(t, events, 5)
	assert.Equal(t, bridge.KindTextStart, events[0].Kind())
	assert.Equal(t, "Hel", events[1].(bridge.TextDeltaEvent).Delta)
	assert.Equal(t, "lo", events[2].(bridge.TextDeltaEvent).Delta)
	assert.Equal(t, bridge.KindTextEnd, events[3].Kind())

	finish := events[4].(bridge.FinishEvent)
	assert.Equal(t, bridge.FinishReasonStop, finish.Reason)
	assert.Equal(t, bridge.Usage{InputTokens: 5, OutputTokens: 3}, finish.Usage)
}

func TestHandler_SecondStreamedMessageNotRestated(t *testing.T) {
	p := New()
	events := driveHandler(t, p, callState{},
		`{"type":"agent_message.delta","item_id":"item_0","delta":"First."}`,
		`{"type":"item.completed","item":{"id":"item_0","item_type":"agent_message","text":"First."}}`,
		`{"type":"agent_message.delta","item_id":"item_1","delta":"Sec"}`,
		`{"type":"agent_message.delta","item_id":"item_1","delta":"ond."}`,
		`{"type":"item.completed","item":{"id":"item_1","item_type":"agent_message","text":"Second."}}`,
		`{"type":"turn.completed","usage":{"input_tokens":1,"output_tokens":1}}`,
	)

	// Each restatement is reconciled against its own item's deltas, so a
	// later message is not re-emitted whole.
	var text string
	for _, ev := range events {
		if d, ok := ev.(bridge.TextDeltaEvent); ok {
			text += d.Delta
		}
	}
	assert.Equal(t, "First.Second.", text)
}

func TestHandler_RestatementCarriesMissedTail(t *testing.T) {
	p := New()
	events := driveHandler(t, p, callState{},
		`{"type":"agent_message.delta","item_id":"item_0","delta":"Hel"}`,
		`{"type":"item.completed","item":{"id":"item_0","item_type":"agent_message","text":"Hello"}}`,
		`{"type":"turn.completed","usage":{"input_tokens":1,"output_tokens":1}}`,
	)

	var text string
	for _, ev := range events {
		if d, ok := ev.(bridge.TextDeltaEvent); ok {
			text += d.Delta
		}
	}
	assert.Equal(t, "Hello", text)
}

func TestHandler_CompletedMessageWithoutDeltas(t *testing.T) {
	p := New()
	events := driveHandler(t, p, callState{},
		`{"type":"item.completed","item":{"id":"item_0","item_type":"agent_message","text":"Hello"}}`,
		`{"type":"turn.completed","usage":{"input_tokens":1,"output_tokens":1}}`,
	)

	// With no deltas seen, the restated full text is emitted whole.
	assert.Equal(t, "Hello", events[1].(bridge.TextDeltaEvent).Delta)
}

func TestHandler_CommandExecutionNarration(t *testing.T) {
	p := New()
	events := driveHandler(t, p, callState{},
		`{"type":"item.started","item":{"id":"item_1","item_type":"command_execution","command":"ls -la","cwd":"/work"}}`,
		`{"type":"item.completed","item":{"id":"item_1","item_type":"command_execution","aggregated_output":"main.go","exit_code":0,"status":"completed"}}`,
	)

	var text string
	for _, ev := range events {
		if d, ok := ev.(bridge.TextDeltaEvent); ok {
			text += d.Delta
		}
	}
	assert.Contains(t, text, "[tool: shell]")
	assert.Contains(t, text, `"command":"ls -la"`)
	assert.Contains(t, text, "[tool: shell done]")
	assert.Contains(t, text, "main.go")
}

func TestHandler_FailedCommandNarratedAsError(t *testing.T) {
	p := New()
	events := driveHandler(t, p, callState{},
		`{"type":"item.started","item":{"id":"item_1","item_type":"command_execution","command":"missing-bin"}}`,
		`{"type":"item.completed","item":{"id":"item_1","item_type":"command_execution","aggregated_output":"not found","exit_code":127,"status":"failed"}}`,
	)

	var text string
	for _, ev := range events {
		if d, ok := ev.(bridge.TextDeltaEvent); ok {
			text += d.Delta
		}
	}
	assert.Contains(t, text, "[tool: shell error]")
}

func TestHandler_TurnCompletedMarksResumable(t *testing.T) {
	p := New()
	driveHandler(t, p, callState{sessionKey: "task-1"},
		`{"type":"turn.completed","usage":{"input_tokens":1,"output_tokens":1}}`,
	)

	tok, ok := p.sessions.Token("task-1")
	require.True(t, ok)
	assert.Equal(t, bridge.ResumeLatest, tok)
}

func TestHandler_ThreadStartedDoesNotMarkResumable(t *testing.T) {
	p := New()
	driveHandler(t, p, callState{sessionKey: "task-1"},
		`{"type":"thread.started","thread_id":"0199a213"}`,
	)

	_, ok := p.sessions.Token("task-1")
	assert.False(t, ok, "resume eligibility requires a completed turn")
}

func TestHandler_TurnFailed(t *testing.T) {
	p := New()
	events := driveHandler(t, p, callState{sessionKey: "task-1"},
		`{"type":"agent_message.delta","item_id":"item_0","delta":"partial"}`,
		`{"type":"turn.failed","error":{"message":"rate limited"}}`,
	)

	last := events[len(events)-1].(bridge.ErrorEvent)
	var perr *bridge.ProtocolError
	require.True(t, errors.As(last.Err, &perr))
	assert.Contains(t, perr.Message, "rate limited")

	_, ok := p.sessions.Token("task-1")
	assert.False(t, ok, "failed turn does not become resumable")
}

func TestHandler_StreamError(t *testing.T) {
	p := New()
	events := driveHandler(t, p, callState{},
		`{"type":"error","message":"stream disconnected"}`,
	)

	require.Len(t, events, 1)
	assert.Equal(t, bridge.KindError, events[0].Kind())
}

func TestHandler_IgnoredEventTypes(t *testing.T) {
	p := New()
	events := driveHandler(t, p, callState{},
		`{"type":"turn.started"}`,
		`{"type":"item.updated","item":{"id":"item_1","item_type":"command_execution"}}`,
		`{"type":"item.started","item":{"id":"item_2","item_type":"reasoning"}}`,
	)

	assert.Empty(t, events)
}

func TestListModels_StaticCatalog(t *testing.T) {
	p := New()

	models, err := p.ListModels(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, models)
	for _, m := range models {
		assert.Equal(t, ProviderName, m.Provider)
	}
}
