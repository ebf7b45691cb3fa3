package codexcli

import (
	"context"

	"github.com/relayops/agentbridge/bridge"
)

// catalog is the static model list. Codex has no machine-readable model
// listing, so the known ids are compiled in.
var catalog = []bridge.ModelInfo{
	{ModelName: "gpt-5.2-codex", DisplayName: "GPT-5.2 Codex", Provider: ProviderName},
	{ModelName: "gpt-5.1-codex", DisplayName: "GPT-5.1 Codex", Provider: ProviderName},
	{ModelName: "gpt-5.1-codex-mini", DisplayName: "GPT-5.1 Codex Mini", Provider: ProviderName},
}

// ListModels returns the static Codex catalog.
func (p *Provider) ListModels(ctx context.Context) ([]bridge.ModelInfo, error) {
	out := make([]bridge.ModelInfo, len(catalog))
	copy(out, catalog)
	return out, nil
}
