package opencodecli

import "log/slog"

// Options holds adapter configuration.
type Options struct {
	Logger       *slog.Logger
	Env          map[string]string
	CLIPath      string // path to the opencode binary (default: "opencode")
	DefaultModel string // provider/model used when the caller picks none
	ExtraArgs    []string
	ResultLimit  int // tool-result narration cap, 0 selects the default
}

// Option is a functional option for configuring the adapter.
type Option func(*Options)

// WithCLIPath sets a custom CLI binary path (default: "opencode").
func WithCLIPath(path string) Option {
	return func(o *Options) { o.CLIPath = path }
}

// WithDefaultModel sets the provider/model used when a call specifies none.
func WithDefaultModel(model string) Option {
	return func(o *Options) { o.DefaultModel = model }
}

// WithEnv sets additional environment variables for the CLI process.
func WithEnv(env map[string]string) Option {
	return func(o *Options) { o.Env = env }
}

// WithExtraArgs sets additional CLI arguments (escape hatch).
func WithExtraArgs(args ...string) Option {
	return func(o *Options) { o.ExtraArgs = args }
}

// WithResultLimit sets the tool-result narration truncation limit.
func WithResultLimit(limit int) Option {
	return func(o *Options) { o.ResultLimit = limit }
}

// WithLogger sets the logger for adapter diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

func defaultOptions() Options {
	return Options{
		CLIPath: "opencode",
		Logger:  slog.Default(),
	}
}
