// Package cliproc spawns vendor CLI processes with stdio wired as
// [ignored, piped, piped], line-buffered stdout, bounded stderr capture
// and process-group termination.
package cliproc

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/relayops/agentbridge/bridge"
	"github.com/relayops/agentbridge/internal/ndjson"
	"github.com/relayops/agentbridge/internal/procattr"
)

const (
	// termGrace is how long Stop waits after SIGTERM before SIGKILL.
	termGrace = 500 * time.Millisecond

	// stderrTailLimit bounds the captured stderr used for diagnostics.
	stderrTailLimit = 4096
)

// Config describes one process launch.
type Config struct {
	// Path is the executable name or path.
	Path string
	// Args is the full argument vector (without the program name).
	Args []string
	// Dir is the working directory; empty means the parent's own.
	Dir string
	// Env is appended to the parent environment.
	Env map[string]string
	// Noise recognizes stderr banner lines dropped from warn logs.
	Noise *ndjson.NoiseFilter
	// Logger receives diagnostics; nil selects slog.Default.
	Logger *slog.Logger
}

// Process is a running CLI child.
type Process struct {
	cmd     *exec.Cmd
	reader  *ndjson.Reader
	stdoutR *os.File
	logger  *slog.Logger

	waitCh      chan struct{}
	drainCh     chan struct{}
	waitErr     error
	stderrMu    sync.Mutex
	stderr      strings.Builder
	stopOnce    sync.Once
	closeStdout sync.Once
}

// Start spawns the process. A missing executable surfaces as
// *bridge.CLINotFoundError; any other spawn failure is returned as-is.
//
// Output pipes are created manually rather than via StdoutPipe so the
// background Wait cannot close them while lines are still being read.
func Start(cfg Config) (*Process, error) {
	cmd := exec.Command(cfg.Path, cfg.Args...)
	cmd.Stdin = nil
	cmd.Env = os.Environ()
	for k, v := range cfg.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	if cfg.Dir != "" {
		cmd.Dir = cfg.Dir
	}
	procattr.Set(cmd)

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return nil, err
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Process{
		cmd:     cmd,
		reader:  ndjson.NewReader(stdoutR),
		logger:  logger,
		waitCh:  make(chan struct{}),
		drainCh: make(chan struct{}),
	}

	if err := cmd.Start(); err != nil {
		stdoutR.Close()
		stdoutW.Close()
		stderrR.Close()
		stderrW.Close()
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return nil, &bridge.CLINotFoundError{Path: cfg.Path, Cause: err}
		}
		return nil, err
	}

	// The child holds its own copies of the write ends; release ours so
	// the read ends see EOF when the child exits.
	stdoutW.Close()
	stderrW.Close()

	p.stdoutR = stdoutR

	go p.drainStderr(stderrR, cfg.Noise)
	go func() {
		p.waitErr = cmd.Wait()
		close(p.waitCh)
	}()

	return p, nil
}

// ReadLine returns the next stdout line, then io.EOF once the pipe closes
// (after the final unterminated line, if any). The read end is released on
// the first error.
func (p *Process) ReadLine() (string, error) {
	line, err := p.reader.ReadLine()
	if err != nil {
		p.closeStdout.Do(func() { p.stdoutR.Close() })
	}
	return line, err
}

// Stop terminates the process group: SIGTERM, a short grace period, then
// SIGKILL. Safe to call multiple times; only the first call signals.
func (p *Process) Stop() {
	p.stopOnce.Do(func() {
		if p.cmd.Process == nil {
			return
		}
		_ = procattr.SignalGroup(p.cmd.Process, syscall.SIGTERM)
		select {
		case <-p.waitCh:
			return
		case <-time.After(termGrace):
		}
		_ = procattr.KillGroup(p.cmd.Process)
		<-p.waitCh
	})
}

// Wait blocks until the process exits and stderr is fully drained, then
// returns the exit code. A child killed by a signal reports -1.
func (p *Process) Wait() int {
	<-p.waitCh
	<-p.drainCh
	if p.waitErr == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(p.waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// StderrTail returns the captured stderr diagnostics, bounded to the most
// recent stderrTailLimit bytes.
func (p *Process) StderrTail() string {
	p.stderrMu.Lock()
	defer p.stderrMu.Unlock()
	s := p.stderr.String()
	if len(s) > stderrTailLimit {
		s = s[len(s)-stderrTailLimit:]
	}
	return strings.TrimSpace(s)
}

// drainStderr captures stderr for diagnostics. Recognized startup/auth
// banners are filtered from warn-level logs but still captured.
func (p *Process) drainStderr(r *os.File, noise *ndjson.NoiseFilter) {
	defer close(p.drainCh)
	defer r.Close()
	reader := ndjson.NewReader(r)
	for {
		line, err := reader.ReadLine()
		if err != nil {
			return
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		p.stderrMu.Lock()
		p.stderr.WriteString(trimmed)
		p.stderr.WriteString("\n")
		p.stderrMu.Unlock()

		if noise != nil && noise.Match(trimmed) {
			continue
		}
		p.logger.Warn("agent CLI stderr", "line", trimmed)
	}
}

// Output runs a short-lived invocation (version probes, model listings)
// and returns its trimmed stdout.
func Output(ctx context.Context, path string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return "", &bridge.CLINotFoundError{Path: path, Cause: err}
		}
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
