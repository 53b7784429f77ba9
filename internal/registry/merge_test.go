package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_Provenance(t *testing.T) {
	one := &Item{Name: "button", Meta: map[string]any{"owner": "design"}}
	two := &Item{Name: "button", Meta: map[string]any{"variant": "outline"}}

	results := []FetchResult{
		{URL: "https://one.dev/r.json", Data: &Registry{Name: "one", Homepage: "https://one.dev"}, Items: []*Item{one}},
		{URL: "https://two.dev/r.json", Data: &Registry{Name: "two", Homepage: "https://two.dev"}, Items: []*Item{two}},
	}
	idx := Merge(results)

	require.Len(t, idx.Items, 2, "name collisions are kept")
	assert.Equal(t, "one", idx.Items[0].RegistryName())
	assert.Equal(t, "https://one.dev", idx.Items[0].RegistryHomepage())
	assert.Equal(t, "design", idx.Items[0].Meta["owner"])
	assert.Equal(t, "two", idx.Items[1].RegistryName())
	assert.Equal(t, "outline", idx.Items[1].Meta["variant"])
	assert.NotContains(t, idx.Items[1].Meta, "owner")

	assert.NotContains(t, one.Meta, MetaRegistryName, "inputs are not modified")
	assert.Equal(t, []Source{
		{URL: "https://one.dev/r.json", Name: "one", Homepage: "https://one.dev", Items: 1},
		{URL: "https://two.dev/r.json", Name: "two", Homepage: "https://two.dev", Items: 1},
	}, idx.Sources)

	item, ok := idx.LookupIn("two", "button")
	require.True(t, ok)
	assert.Equal(t, "outline", item.Meta["variant"])
	assert.Len(t, idx.Candidates("button"), 2)
}

func TestMerge_KeepsExistingProvenance(t *testing.T) {
	item := &Item{Name: "x", Meta: map[string]any{MetaRegistryName: "upstream"}}
	idx := Merge([]FetchResult{{Data: &Registry{Name: "mirror", Homepage: "https://m.dev"}, Items: []*Item{item}}})

	assert.Equal(t, "upstream", idx.Items[0].RegistryName())
	assert.Equal(t, "https://m.dev", idx.Items[0].RegistryHomepage())
}

func TestMerge_DegradedSource(t *testing.T) {
	idx := Merge([]FetchResult{degraded("https://down.dev", assert.AnError)})
	assert.Empty(t, idx.Items)
	require.Len(t, idx.Sources, 1)
	assert.Equal(t, "Unknown", idx.Sources[0].Name)
	assert.NotEmpty(t, idx.Sources[0].Error)
}
