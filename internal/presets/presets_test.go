package presets

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nulzo/registry-sync/internal/store/model"
)

func TestAll_SortedAndWellFormed(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)

	assert.True(t, sort.SliceIsSorted(all, func(i, j int) bool {
		return all[i].Slug < all[j].Slug
	}))

	for _, p := range all {
		assert.NotEmpty(t, p.Slug)
		assert.NotEmpty(t, p.BaseURL)
		assert.Contains(t, []string{model.KindOllama, model.KindOpenAI, model.KindAlias}, p.Kind)
	}
}

func TestBySlug(t *testing.T) {
	p, ok := BySlug("ollama-local")
	require.True(t, ok)
	assert.Equal(t, model.KindOllama, p.Kind)
	assert.False(t, p.RequiresAPIKey)

	_, ok = BySlug("does-not-exist")
	assert.False(t, ok)
}

func TestProviderMaterialization(t *testing.T) {
	p, _ := BySlug("openrouter")
	prov := p.Provider()

	assert.Empty(t, prov.ID)
	assert.Equal(t, "https://openrouter.ai/api/v1", prov.BaseURL)
	assert.Equal(t, "openrouter/", prov.Prefix)
	assert.True(t, prov.SyncEnabled)
}
