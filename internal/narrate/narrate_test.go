package narrate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnounce_FormatsNameAndInput(t *testing.T) {
	tr := NewTracker(0)

	text, ok := tr.Announce("call_1", "bash", map[string]any{"command": "ls -la"})
	require.True(t, ok)
	assert.Contains(t, text, "[tool: bash]")
	assert.Contains(t, text, "```json")
	assert.Contains(t, text, `"command":"ls -la"`)
	assert.True(t, tr.Pending("call_1"))
}

func TestAnnounce_SecondCallWithSameIDIgnored(t *testing.T) {
	tr := NewTracker(0)

	_, ok := tr.Announce("call_1", "bash", nil)
	require.True(t, ok)

	_, ok = tr.Announce("call_1", "bash", nil)
	assert.False(t, ok)
}

func TestAnnounce_EmptyCallIDIgnored(t *testing.T) {
	tr := NewTracker(0)

	_, ok := tr.Announce("", "bash", nil)
	assert.False(t, ok)
}

func TestAnnounce_NoInputOmitsFence(t *testing.T) {
	tr := NewTracker(0)

	text, ok := tr.Announce("call_1", "read_file", nil)
	require.True(t, ok)
	assert.NotContains(t, text, "```")
}

func TestAnnounce_OversizedInputSkipped(t *testing.T) {
	tr := NewTracker(0)

	big := map[string]any{"content": strings.Repeat("x", 2000)}
	text, ok := tr.Announce("call_1", "write_file", big)
	require.True(t, ok)
	// Inputs are included whole or not at all, never truncated.
	assert.NotContains(t, text, "```")
	assert.NotContains(t, text, "xxx")
}

func TestComplete_PairsWithAnnounce(t *testing.T) {
	tr := NewTracker(0)
	tr.Announce("call_1", "bash", nil)

	text, ok := tr.Complete("call_1", "total 12\ndrwxr-xr-x", false)
	require.True(t, ok)
	assert.Contains(t, text, "[tool: bash done]")
	assert.Contains(t, text, "total 12")
	assert.False(t, tr.Pending("call_1"), "record dropped on completion")
}

func TestComplete_ErrorLabel(t *testing.T) {
	tr := NewTracker(0)
	tr.Announce("call_1", "bash", nil)

	text, ok := tr.Complete("call_1", "command not found", true)
	require.True(t, ok)
	assert.Contains(t, text, "[tool: bash error]")
}

func TestComplete_UnannouncedIgnored(t *testing.T) {
	tr := NewTracker(0)

	_, ok := tr.Complete("never-seen", "output", false)
	assert.False(t, ok)
}

func TestComplete_ResultTruncated(t *testing.T) {
	tr := NewTracker(100)
	tr.Announce("call_1", "bash", nil)

	text, ok := tr.Complete("call_1", strings.Repeat("y", 500), false)
	require.True(t, ok)
	assert.Contains(t, text, truncationMarker)
	assert.Less(t, len(text), 300)
}

func TestComplete_ErrorResultRendered(t *testing.T) {
	tr := NewTracker(0)
	tr.Announce("call_1", "fetch", nil)

	text, ok := tr.Complete("call_1", errors.New("connection refused"), true)
	require.True(t, ok)
	assert.Contains(t, text, "connection refused")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 100))
	assert.Equal(t, "ab"+truncationMarker, Truncate("abcdef", 2))
	assert.Equal(t, "anything", Truncate("anything", 0), "non-positive limit disables truncation")
}

func TestNewTracker_DefaultLimit(t *testing.T) {
	assert.Equal(t, DefaultResultLimit, NewTracker(0).ResultLimit)
	assert.Equal(t, DefaultResultLimit, NewTracker(-1).ResultLimit)
	assert.Equal(t, 50, NewTracker(50).ResultLimit)
}
