package opencodecli

import (
	"context"
	"strings"

	"github.com/relayops/agentbridge/bridge"
	"github.com/relayops/agentbridge/internal/cliproc"
)

// ListModels invokes `opencode models` and parses its slash-delimited
// provider/model lines. OpenCode is the only vendor here whose CLI can
// enumerate models; the others ship curated catalogs.
func (p *Provider) ListModels(ctx context.Context) ([]bridge.ModelInfo, error) {
	out, err := cliproc.Output(ctx, p.opts.CLIPath, "models")
	if err != nil {
		return nil, err
	}
	return parseModelList(out), nil
}

// parseModelList converts "provider/model" lines into display entries.
// Lines without a slash (headers, blank lines) are skipped.
func parseModelList(out string) []bridge.ModelInfo {
	var models []bridge.ModelInfo
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		vendor, name, ok := strings.Cut(line, "/")
		if !ok || vendor == "" || name == "" {
			continue
		}
		models = append(models, bridge.ModelInfo{
			ModelName:   line,
			DisplayName: displayName(vendor, name),
			Provider:    ProviderName,
		})
	}
	return models
}

// displayName turns "anthropic/claude-sonnet-4-5" into
// "Claude Sonnet 4 5 (anthropic)".
func displayName(vendor, name string) string {
	words := strings.Split(strings.ReplaceAll(name, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ") + " (" + vendor + ")"
}
