//go:build unix

package cliproc

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayops/agentbridge/bridge"
)

func shProcess(t *testing.T, script string) *Process {
	t.Helper()
	p, err := Start(Config{Path: "/bin/sh", Args: []string{"-c", script}})
	require.NoError(t, err)
	t.Cleanup(p.Stop)
	return p
}

func TestStart_MissingBinary(t *testing.T) {
	_, err := Start(Config{Path: "definitely-not-a-real-binary-4242"})

	var notFound *bridge.CLINotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "definitely-not-a-real-binary-4242", notFound.Path)
}

func TestProcess_ReadsStdoutLines(t *testing.T) {
	p := shProcess(t, `printf '{"a":1}\n{"b":2}\n'`)

	line, err := p.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, line)

	line, err = p.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, line)

	_, err = p.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 0, p.Wait())
}

func TestProcess_FinalUnterminatedLine(t *testing.T) {
	p := shProcess(t, `printf '{"result":"ok"}'`)

	line, err := p.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, `{"result":"ok"}`, line)

	_, err = p.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestProcess_NonZeroExitAndStderr(t *testing.T) {
	p := shProcess(t, `echo boom >&2; exit 3`)

	for {
		if _, err := p.ReadLine(); err != nil {
			break
		}
	}
	assert.Equal(t, 3, p.Wait())
	assert.Equal(t, "boom", p.StderrTail())
}

func TestProcess_StopTerminatesGroup(t *testing.T) {
	p := shProcess(t, `sleep 30`)

	p.Stop()

	assert.Equal(t, -1, p.Wait(), "signal-killed child reports -1")
}

func TestOutput(t *testing.T) {
	out, err := Output(t.Context(), "/bin/sh", "-c", "echo 1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", out)
}

func TestOutput_MissingBinary(t *testing.T) {
	_, err := Output(t.Context(), "definitely-not-a-real-binary-4242")

	var notFound *bridge.CLINotFoundError
	assert.ErrorAs(t, err, &notFound)
}
