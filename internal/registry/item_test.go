package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItemType(t *testing.T) {
	tests := []struct {
		in   string
		want ItemType
		ok   bool
	}{
		{"ui", TypeUI, true},
		{"registry:ui", TypeUI, true},
		{"hook", TypeHook, true},
		{"registry:item", TypeItem, true},
		{"widget", "", false},
		{"registry:widget", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseItemType(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestItemType_UnmarshalJSON(t *testing.T) {
	var item Item
	require.NoError(t, json.Unmarshal([]byte(`{"name":"x","type":"lib","files":[{"path":"a.ts","type":"registry:lib"}]}`), &item))
	assert.Equal(t, TypeLib, item.Type)
	assert.Equal(t, TypeLib, item.Files[0].Type)
	assert.Equal(t, "lib", item.Type.Short())
}

func TestItem_Clone(t *testing.T) {
	orig := &Item{
		Name:                 "button",
		RegistryDependencies: []string{"utils"},
		Files:                []File{{Path: "button.tsx"}},
		Meta: map[string]any{
			"nested": map[string]any{"k": "v"},
			"list":   []any{"a"},
		},
	}

	c := orig.Clone()
	c.RegistryDependencies[0] = "changed"
	c.Files[0].Path = "changed"
	c.Meta["nested"].(map[string]any)["k"] = "changed"
	c.Meta["list"].([]any)[0] = "changed"
	c.Meta["new"] = true

	assert.Equal(t, "utils", orig.RegistryDependencies[0])
	assert.Equal(t, "button.tsx", orig.Files[0].Path)
	assert.Equal(t, "v", orig.Meta["nested"].(map[string]any)["k"])
	assert.Equal(t, "a", orig.Meta["list"].([]any)[0])
	assert.NotContains(t, orig.Meta, "new")

	assert.Nil(t, (*Item)(nil).Clone())
}

func TestRegistry_Lookup(t *testing.T) {
	reg := &Registry{Name: "acme", Items: []*Item{{Name: "a"}, {Name: "b"}}}

	item, ok := reg.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "b", item.Name)

	_, ok = reg.Lookup("c")
	assert.False(t, ok)

	_, ok = reg.LookupIn("acme", "a")
	assert.True(t, ok)
	_, ok = reg.LookupIn("other", "a")
	assert.False(t, ok)
}
