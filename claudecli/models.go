package claudecli

import (
	"context"

	"github.com/relayops/agentbridge/bridge"
)

// catalog is the curated model list. The claude CLI exposes no
// list-models command, so the catalog is static.
var catalog = []bridge.ModelInfo{
	{ModelName: "claude-opus-4-5", DisplayName: "Claude Opus 4.5", Provider: ProviderName},
	{ModelName: "claude-sonnet-4-5", DisplayName: "Claude Sonnet 4.5", Provider: ProviderName},
	{ModelName: "claude-haiku-4-5", DisplayName: "Claude Haiku 4.5", Provider: ProviderName},
}

// ListModels returns the curated catalog.
func (p *Provider) ListModels(ctx context.Context) ([]bridge.ModelInfo, error) {
	models := make([]bridge.ModelInfo, len(catalog))
	copy(models, catalog)
	return models, nil
}
