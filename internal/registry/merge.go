package registry

// FetchResult is the outcome of fetching one registry URL. A failed fetch
// still yields a result: Data is a placeholder registry and Error is set.
type FetchResult struct {
	URL   string    `json:"url"`
	Data  *Registry `json:"data"`
	Items []*Item   `json:"items"`
	Error string    `json:"error,omitempty"`
}

// OK reports whether the fetch succeeded.
func (r FetchResult) OK() bool {
	return r.Error == ""
}

// degraded builds the placeholder result for a failed fetch.
func degraded(url string, err error) FetchResult {
	return FetchResult{
		URL: url,
		Data: &Registry{
			Name:     "Unknown",
			Homepage: url,
			Items:    []*Item{},
		},
		Items: []*Item{},
		Error: err.Error(),
	}
}

// Source summarizes one input registry of a merged index.
type Source struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Homepage string `json:"homepage"`
	Items    int    `json:"items"`
	Error    string `json:"error,omitempty"`
}

// MergedIndex is the flattened item list of several registries, each item
// tagged with the registry it came from. Items with equal names from
// different registries are all kept.
type MergedIndex struct {
	Items   []*Item  `json:"items"`
	Sources []Source `json:"sources"`
}

// Merge concatenates the items of every result in input order. Items are
// copied before provenance is injected, so results are never modified.
// Provenance keys an item already carries in its meta are left as they are.
func Merge(results []FetchResult) *MergedIndex {
	idx := &MergedIndex{Items: []*Item{}}
	for _, res := range results {
		src := Source{URL: res.URL, Error: res.Error}
		if res.Data != nil {
			src.Name = res.Data.Name
			src.Homepage = res.Data.Homepage
		}
		for _, item := range res.Items {
			c := item.Clone()
			if c.Meta == nil {
				c.Meta = make(map[string]any, 2)
			}
			setDefault(c.Meta, MetaRegistryName, src.Name)
			setDefault(c.Meta, MetaRegistryHomepage, src.Homepage)
			idx.Items = append(idx.Items, c)
			src.Items++
		}
		idx.Sources = append(idx.Sources, src)
	}
	return idx
}

func setDefault(meta map[string]any, key, value string) {
	if _, ok := meta[key]; !ok {
		meta[key] = value
	}
}

// Lookup returns the first item named name, in merge order.
func (m *MergedIndex) Lookup(name string) (*Item, bool) {
	for _, item := range m.Items {
		if item.Name == name {
			return item, true
		}
	}
	return nil, false
}

// LookupIn returns the item named name whose provenance is registry.
func (m *MergedIndex) LookupIn(registry, name string) (*Item, bool) {
	for _, item := range m.Items {
		if item.Name == name && item.RegistryName() == registry {
			return item, true
		}
	}
	return nil, false
}

// Candidates returns every item named name.
func (m *MergedIndex) Candidates(name string) []*Item {
	var out []*Item
	for _, item := range m.Items {
		if item.Name == name {
			out = append(out, item)
		}
	}
	return out
}
