package registry

import (
	"encoding/json"
	"strings"
)

// ItemType is the closed set of registry item and file kinds.
type ItemType string

const (
	TypeLib       ItemType = "registry:lib"
	TypeBlock     ItemType = "registry:block"
	TypeComponent ItemType = "registry:component"
	TypeUI        ItemType = "registry:ui"
	TypeHook      ItemType = "registry:hook"
	TypeTheme     ItemType = "registry:theme"
	TypePage      ItemType = "registry:page"
	TypeFile      ItemType = "registry:file"
	TypeStyle     ItemType = "registry:style"
	TypeItem      ItemType = "registry:item"
)

const typePrefix = "registry:"

// ItemTypes lists every valid item type.
var ItemTypes = []ItemType{
	TypeLib, TypeBlock, TypeComponent, TypeUI, TypeHook,
	TypeTheme, TypePage, TypeFile, TypeStyle, TypeItem,
}

// ParseItemType normalizes s ("ui" or "registry:ui") to an ItemType.
func ParseItemType(s string) (ItemType, bool) {
	t := ItemType(s)
	if !strings.HasPrefix(s, typePrefix) {
		t = ItemType(typePrefix + s)
	}
	for _, known := range ItemTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// Short returns the type without the "registry:" prefix.
func (t ItemType) Short() string {
	return strings.TrimPrefix(string(t), typePrefix)
}

// UnmarshalJSON accepts both the bare and the prefixed form.
func (t *ItemType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if parsed, ok := ParseItemType(s); ok {
		*t = parsed
		return nil
	}
	// Schema validation rejects unknown types before decoding; keep the raw
	// value for callers that decode without validating.
	*t = ItemType(s)
	return nil
}

// Provenance meta keys injected by Merge.
const (
	MetaRegistryName     = "registryName"
	MetaRegistryHomepage = "registryHomepage"
)

// LocalRegistry names the provenance of items that came with none.
const LocalRegistry = "local"

// File describes one installable file of an item.
type File struct {
	// Path is the file's path inside the registry.
	Path string `json:"path"`

	// Content is the file source.
	Content string `json:"content,omitempty"`

	// Type decides the install directory.
	Type ItemType `json:"type,omitempty"`

	// Target overrides the install path relative to the project root.
	Target string `json:"target,omitempty"`
}

// Item is a named, typed unit of installable source.
type Item struct {
	Name                 string         `json:"name"`
	Type                 ItemType       `json:"type"`
	Title                string         `json:"title,omitempty"`
	Description          string         `json:"description,omitempty"`
	Author               string         `json:"author,omitempty"`
	Dependencies         []string       `json:"dependencies,omitempty"`
	DevDependencies      []string       `json:"devDependencies,omitempty"`
	RegistryDependencies []string       `json:"registryDependencies,omitempty"`
	Files                []File         `json:"files,omitempty"`
	Categories           []string       `json:"categories,omitempty"`
	Meta                 map[string]any `json:"meta,omitempty"`
	Docs                 string         `json:"docs,omitempty"`
}

// RegistryName returns the provenance registry name, or "".
func (i *Item) RegistryName() string {
	s, _ := i.Meta[MetaRegistryName].(string)
	return s
}

// RegistryHomepage returns the provenance registry homepage, or "".
func (i *Item) RegistryHomepage() string {
	s, _ := i.Meta[MetaRegistryHomepage].(string)
	return s
}

// Clone returns a deep copy of the item.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	c := *i
	c.Dependencies = cloneStrings(i.Dependencies)
	c.DevDependencies = cloneStrings(i.DevDependencies)
	c.RegistryDependencies = cloneStrings(i.RegistryDependencies)
	c.Categories = cloneStrings(i.Categories)
	if i.Files != nil {
		c.Files = append([]File(nil), i.Files...)
	}
	if i.Meta != nil {
		c.Meta = cloneValue(i.Meta).(map[string]any)
	}
	return &c
}

// Registry is a named collection of items sharing one style variant.
type Registry struct {
	Name     string  `json:"name"`
	Homepage string  `json:"homepage"`
	Items    []*Item `json:"items"`
}

// Lookup returns the first item with the given name.
func (r *Registry) Lookup(name string) (*Item, bool) {
	for _, item := range r.Items {
		if item.Name == name {
			return item, true
		}
	}
	return nil, false
}

// LookupIn returns the item when registry matches r's name.
func (r *Registry) LookupIn(registry, name string) (*Item, bool) {
	if registry != r.Name {
		return nil, false
	}
	return r.Lookup(name)
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// cloneValue deep-copies values produced by encoding/json.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	default:
		return v
	}
}
