package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider is a minimal Provider for registry tests.
type stubProvider struct {
	name    string
	models  []ModelInfo
	listErr error
}

func (p *stubProvider) Name() string                       { return p.name }
func (p *stubProvider) IsAvailable(context.Context) bool   { return true }
func (p *stubProvider) Version(context.Context) (string, error) {
	return "stub 1.0.0", nil
}
func (p *stubProvider) Model(string) Model { return nil }
func (p *stubProvider) ListModels(context.Context) ([]ModelInfo, error) {
	return p.models, p.listErr
}
func (p *stubProvider) SetWorkDir(string)    {}
func (p *stubProvider) SetSessionKey(string) {}
func (p *stubProvider) ClearSession(string)  {}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(&stubProvider{name: "alpha"}))

	p, ok := reg.Provider("alpha")
	assert.True(t, ok)
	assert.Equal(t, "alpha", p.Name())

	_, ok = reg.Provider("missing")
	assert.False(t, ok)
}

func TestRegistry_DuplicateNameRejected(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(&stubProvider{name: "alpha"}))
	err := reg.Register(&stubProvider{name: "alpha"})
	assert.Error(t, err)
}

func TestRegistry_NilAndUnnamedRejected(t *testing.T) {
	reg := NewRegistry()

	assert.Error(t, reg.Register(nil))
	assert.Error(t, reg.Register(&stubProvider{name: ""}))
}

func TestRegistry_NamesSorted(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(&stubProvider{name: "zeta"}))
	require.NoError(t, reg.Register(&stubProvider{name: "alpha"}))

	assert.Equal(t, []string{"alpha", "zeta"}, reg.Names())
}

func TestRegistry_MustProviderPanicsWhenMissing(t *testing.T) {
	reg := NewRegistry()
	assert.Panics(t, func() { reg.MustProvider("missing") })
}

func TestRegistry_ListModelsAggregates(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&stubProvider{
		name:   "alpha",
		models: []ModelInfo{{ModelName: "m1", Provider: "alpha"}},
	}))
	require.NoError(t, reg.Register(&stubProvider{
		name:   "beta",
		models: []ModelInfo{{ModelName: "m2", Provider: "beta"}},
	}))

	models, err := reg.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "m1", models[0].ModelName)
	assert.Equal(t, "m2", models[1].ModelName)
}

func TestRegistry_ListModelsPartialFailure(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&stubProvider{
		name:    "alpha",
		listErr: errors.New("cli missing"),
	}))
	require.NoError(t, reg.Register(&stubProvider{
		name:   "beta",
		models: []ModelInfo{{ModelName: "m2", Provider: "beta"}},
	}))

	models, err := reg.ListModels(context.Background())
	assert.Error(t, err)
	require.Len(t, models, 1, "the healthy provider still contributes")
	assert.Equal(t, "m2", models[0].ModelName)
}
