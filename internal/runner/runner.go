// Package runner executes one adapter call end to end: it spawns the
// vendor CLI, feeds stdout lines through the vendor's decoder into a
// bridge.Normalizer, and finalizes deterministically on process close.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/relayops/agentbridge/bridge"
	"github.com/relayops/agentbridge/internal/cliproc"
	"github.com/relayops/agentbridge/internal/ndjson"
)

const eventBufferSize = 64

// LineHandler decodes one trimmed, non-noise stdout line and drives the
// normalizer. Returning an error marks the line unrecognized; it is logged
// at debug level and dropped, never surfaced.
type LineHandler func(line string, n *bridge.Normalizer) error

// Options configures one call.
type Options struct {
	Proc        cliproc.Config
	Handler     LineHandler
	Noise       *ndjson.NoiseFilter
	Logger      *slog.Logger
	ResultLimit int
}

// Stream spawns the process and returns the uniform event channel. The
// channel closes after exactly one finish or error event. Cancelling ctx
// terminates the process group; the call then settles through close
// handling without synthesizing a finish.
//
// Callers must either drain the channel or cancel ctx: abandoning an
// undrained channel with a live ctx blocks the reader once the buffer
// fills, leaking the goroutine and the child process.
func Stream(ctx context.Context, opts Options) (<-chan bridge.StreamEvent, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	proc, err := cliproc.Start(opts.Proc)
	if err != nil {
		return nil, err
	}

	events := make(chan bridge.StreamEvent, eventBufferSize)
	n := bridge.NewNormalizer(func(ev bridge.StreamEvent) {
		// Prefer delivery: with buffer space the event always lands, even
		// after cancellation, so the terminal abort error is not lost.
		select {
		case events <- ev:
			return
		default:
		}
		select {
		case events <- ev:
		case <-ctx.Done():
			// Consumer gone and buffer full; drop.
		}
	}, bridge.WithResultLimit(opts.ResultLimit), bridge.WithLogger(logger))

	// Push-based cancellation: the abort signal kills the process group;
	// the read loop then winds down through EOF.
	stopWatch := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			proc.Stop()
		case <-stopWatch:
		}
	}()

	go func() {
		defer close(events)
		defer close(stopWatch)

		for {
			line, err := proc.ReadLine()
			if err != nil {
				break
			}
			handleLine(line, n, opts, logger)
		}

		exitCode := proc.Wait()
		finalize(ctx, n, exitCode, proc.StderrTail(), logger)
	}()

	return events, nil
}

// Generate runs the identical pipeline in buffered mode: incremental
// events are folded away, and the call resolves once on process close with
// the accumulated text and usage.
func Generate(ctx context.Context, opts Options) (*bridge.Result, error) {
	events, err := Stream(ctx, opts)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	var usage bridge.Usage
	var reason bridge.FinishReason

	for ev := range events {
		switch e := ev.(type) {
		case bridge.TextDeltaEvent:
			text.WriteString(e.Delta)
		case bridge.FinishEvent:
			usage = e.Usage
			reason = e.Reason
		case bridge.ErrorEvent:
			// Buffered callers have no partial-result channel other than
			// the return value: when output was already captured and the
			// failure is only a non-zero exit, return what we have and
			// log the exit context instead of surfacing a hard error.
			var exitErr *bridge.ExitError
			if errors.As(e.Err, &exitErr) && text.Len() > 0 {
				logger := opts.Logger
				if logger == nil {
					logger = slog.Default()
				}
				logger.Warn("returning partial output after abnormal exit",
					"exit_code", exitErr.ExitCode, "stderr", exitErr.Stderr)
				return &bridge.Result{
					Text:   text.String(),
					Reason: bridge.FinishReasonStop,
					Usage:  usage,
				}, nil
			}
			return nil, e.Err
		}
	}

	if reason == "" {
		return nil, fmt.Errorf("event stream closed without a terminal event")
	}
	return &bridge.Result{Text: text.String(), Reason: reason, Usage: usage}, nil
}

// handleLine applies the shared tolerance policy: blank lines and known
// banners are dropped silently, anything that fails to decode is logged at
// debug level and dropped. Vendor CLIs interleave free-text diagnostics
// with JSON on the same stream; losing a diagnostic line is preferable to
// corrupting the event sequence.
func handleLine(raw string, n *bridge.Normalizer, opts Options, logger *slog.Logger) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return
	}
	if opts.Noise != nil && opts.Noise.Match(line) {
		return
	}
	if !ndjson.IsJSONObject(line) {
		logger.Debug("dropping non-JSON output line", "line", line)
		return
	}
	if err := opts.Handler(line, n); err != nil {
		logger.Debug("dropping unrecognized line", "line", line, "error", err)
	}
}

// finalize settles a call whose process closed before (or after) a
// terminal event. A recognized terminal event has already marked the
// normalizer done; otherwise exit 0 is an implicit successful finish and
// anything else is an error — except cancellation, which is reported as a
// distinct aborted outcome.
func finalize(ctx context.Context, n *bridge.Normalizer, exitCode int, stderr string, logger *slog.Logger) {
	if n.Done() {
		return
	}
	if ctx.Err() != nil {
		n.Fail(fmt.Errorf("%w: %w", bridge.ErrAborted, ctx.Err()))
		return
	}
	if exitCode == 0 {
		n.Finish(bridge.FinishReasonStop)
		return
	}
	logger.Debug("process closed without terminal event", "exit_code", exitCode)
	n.Fail(&bridge.ExitError{ExitCode: exitCode, Stderr: stderr})
}
