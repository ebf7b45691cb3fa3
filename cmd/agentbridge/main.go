// Command agentbridge drives coding-agent CLIs through one uniform
// streaming protocol.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relayops/agentbridge/bridge"
	"github.com/relayops/agentbridge/claudecli"
	"github.com/relayops/agentbridge/codexcli"
	"github.com/relayops/agentbridge/internal/config"
	"github.com/relayops/agentbridge/opencodecli"
)

var (
	configPath   string
	providerName string
	modelID      string
	workDir      string
	sessionKey   string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "agentbridge",
	Short: "Uniform streaming interface over coding-agent CLIs",
	Long: `Agentbridge runs Claude Code, OpenCode, or Codex as a subprocess and
normalizes their line-delimited JSON output into one event protocol:
text deltas, inline tool narration, and a single terminal result.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config (default: agentbridge.yaml if present)")
	rootCmd.PersistentFlags().StringVarP(&providerName, "provider", "p", claudecli.ProviderName, "Provider to use: claude, opencode, codex")
	rootCmd.PersistentFlags().StringVarP(&modelID, "model", "m", "", "Model id (provider default if unset)")
	rootCmd.PersistentFlags().StringVarP(&workDir, "dir", "C", "", "Working directory for the CLI process")
	rootCmd.PersistentFlags().StringVarP(&sessionKey, "session", "s", "", "Session key for conversation continuity")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

func main() {
	// Ctrl-C cancels the in-flight call; the adapter terminates the child
	// process group and the call settles as aborted.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configured (or conventional) YAML file with
// environment overrides applied.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = "agentbridge.yaml"
	}
	return config.Load(path)
}

// newLogger creates a structured logger with the configured verbosity.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildRegistry wires every adapter with its configured options. Names are
// static and distinct, so registration cannot fail.
func buildRegistry(cfg *config.Config, log *slog.Logger) *bridge.Registry {
	reg := bridge.NewRegistry()
	for _, p := range []bridge.Provider{
		claudecli.New(claudeOptions(cfg.Claude, cfg.ResultLimit, log)...),
		opencodecli.New(opencodeOptions(cfg.OpenCode, cfg.ResultLimit, log)...),
		codexcli.New(codexOptions(cfg.Codex, cfg.ResultLimit, log)...),
	} {
		if err := reg.Register(p); err != nil {
			panic(err)
		}
	}
	return reg
}

func claudeOptions(v config.Vendor, limit int, log *slog.Logger) []claudecli.Option {
	opts := []claudecli.Option{claudecli.WithLogger(log)}
	if v.Path != "" {
		opts = append(opts, claudecli.WithCLIPath(v.Path))
	}
	if v.Model != "" {
		opts = append(opts, claudecli.WithDefaultModel(v.Model))
	}
	if len(v.Env) > 0 {
		opts = append(opts, claudecli.WithEnv(v.Env))
	}
	if len(v.ExtraArgs) > 0 {
		opts = append(opts, claudecli.WithExtraArgs(v.ExtraArgs...))
	}
	if limit > 0 {
		opts = append(opts, claudecli.WithResultLimit(limit))
	}
	return opts
}

func opencodeOptions(v config.Vendor, limit int, log *slog.Logger) []opencodecli.Option {
	opts := []opencodecli.Option{opencodecli.WithLogger(log)}
	if v.Path != "" {
		opts = append(opts, opencodecli.WithCLIPath(v.Path))
	}
	if v.Model != "" {
		opts = append(opts, opencodecli.WithDefaultModel(v.Model))
	}
	if len(v.Env) > 0 {
		opts = append(opts, opencodecli.WithEnv(v.Env))
	}
	if len(v.ExtraArgs) > 0 {
		opts = append(opts, opencodecli.WithExtraArgs(v.ExtraArgs...))
	}
	if limit > 0 {
		opts = append(opts, opencodecli.WithResultLimit(limit))
	}
	return opts
}

func codexOptions(v config.Vendor, limit int, log *slog.Logger) []codexcli.Option {
	opts := []codexcli.Option{codexcli.WithLogger(log)}
	if v.Path != "" {
		opts = append(opts, codexcli.WithCLIPath(v.Path))
	}
	if v.Model != "" {
		opts = append(opts, codexcli.WithDefaultModel(v.Model))
	}
	if len(v.Env) > 0 {
		opts = append(opts, codexcli.WithEnv(v.Env))
	}
	if len(v.ExtraArgs) > 0 {
		opts = append(opts, codexcli.WithExtraArgs(v.ExtraArgs...))
	}
	if limit > 0 {
		opts = append(opts, codexcli.WithResultLimit(limit))
	}
	return opts
}

// selectedModel resolves the --provider/--model flags against the registry
// and probes the backing CLI before spawning anything.
func selectedModel(ctx context.Context, reg *bridge.Registry) (bridge.Model, error) {
	p, ok := reg.Provider(providerName)
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %s)",
			providerName, strings.Join(reg.Names(), ", "))
	}
	if !p.IsAvailable(ctx) {
		return nil, fmt.Errorf("%w: %s (try `agentbridge doctor`)",
			bridge.ErrUnavailable, providerName)
	}
	return p.Model(modelID), nil
}

// newRequest builds the per-call request from the prompt args and flags.
func newRequest(args []string) bridge.Request {
	var msgs []bridge.Message
	for _, a := range args {
		msgs = append(msgs, bridge.UserMessage(a))
	}
	return bridge.Request{
		Messages:   msgs,
		WorkDir:    workDir,
		SessionKey: sessionKey,
	}
}
