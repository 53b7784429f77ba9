package registry

import (
	"strings"

	"github.com/vango-dev/uikit/internal/errors"
)

// DefaultMaxDepth bounds how deep registryDependencies are expanded.
const DefaultMaxDepth = 64

// Index looks items up by name. Implemented by *Registry and *MergedIndex.
type Index interface {
	// Lookup returns the first item named name.
	Lookup(name string) (*Item, bool)

	// LookupIn returns the item named name from the given source registry.
	LookupIn(registry, name string) (*Item, bool)
}

// Resolver computes the transitive closure of an item's
// registryDependencies.
type Resolver struct {
	Index    Index
	MaxDepth int
}

// NewResolver returns a resolver over idx with the default depth bound.
func NewResolver(idx Index) *Resolver {
	return &Resolver{Index: idx, MaxDepth: DefaultMaxDepth}
}

// Resolution is the outcome of resolving one root item.
type Resolution struct {
	// Root is the requested item.
	Root *Item

	// Items holds every resolved item exactly once, dependencies before
	// their dependents, Root last.
	Items []*Item

	// Missing lists dependency refs no registry provides.
	Missing []string

	// Remote lists dependency refs that are URLs to standalone items.
	Remote []string

	// Cycles lists the dependency loops that were cut, each as a path
	// from the repeated item back to itself.
	Cycles [][]string

	// Truncated is set when the depth bound stopped expansion.
	Truncated bool
}

// Dependencies returns the union of external package dependencies.
func (r *Resolution) Dependencies() []string {
	return r.collect(func(i *Item) []string { return i.Dependencies })
}

// DevDependencies returns the union of external dev dependencies.
func (r *Resolution) DevDependencies() []string {
	return r.collect(func(i *Item) []string { return i.DevDependencies })
}

func (r *Resolution) collect(field func(*Item) []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range r.Items {
		for _, dep := range field(item) {
			if !seen[dep] {
				seen[dep] = true
				out = append(out, dep)
			}
		}
	}
	return out
}

// Resolve expands name and its registryDependencies. A cycle is not an
// error: an item already visited is skipped and the loop is recorded.
func (r *Resolver) Resolve(name string) (*Resolution, error) {
	root, ok := r.lookupRef(name, "")
	if !ok {
		return nil, errors.New("E112").
			WithDetail("Item '" + name + "' not found in any registry").
			WithSuggestion("Run 'uikit registry search " + name + "' to find similar items")
	}

	maxDepth := r.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	res := &Resolution{Root: root}
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var stack []string
	missing := make(map[string]bool)
	remote := make(map[string]bool)

	var visit func(item *Item, depth int)
	visit = func(item *Item, depth int) {
		key := itemKey(item)
		visited[key] = true
		onStack[key] = true
		stack = append(stack, item.Name)

		for _, ref := range item.RegistryDependencies {
			if isURL(ref) {
				if !remote[ref] {
					remote[ref] = true
					res.Remote = append(res.Remote, ref)
				}
				continue
			}
			dep, ok := r.lookupRef(ref, item.RegistryName())
			if !ok {
				if !missing[ref] {
					missing[ref] = true
					res.Missing = append(res.Missing, ref)
				}
				continue
			}
			depKey := itemKey(dep)
			if onStack[depKey] {
				res.Cycles = append(res.Cycles, cyclePath(stack, dep.Name))
				continue
			}
			if visited[depKey] {
				continue
			}
			if depth+1 > maxDepth {
				res.Truncated = true
				continue
			}
			visit(dep, depth+1)
		}

		stack = stack[:len(stack)-1]
		onStack[key] = false
		res.Items = append(res.Items, item)
	}

	visit(root, 0)
	return res, nil
}

// ResolveAll resolves several roots into one deduplicated resolution.
// The first unknown root aborts with E112.
func (r *Resolver) ResolveAll(names []string) (*Resolution, error) {
	out := &Resolution{}
	seen := make(map[string]bool)
	seenRef := make(map[string]bool)

	for _, name := range names {
		res, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		if out.Root == nil {
			out.Root = res.Root
		}
		for _, item := range res.Items {
			if k := itemKey(item); !seen[k] {
				seen[k] = true
				out.Items = append(out.Items, item)
			}
		}
		for _, m := range res.Missing {
			if !seenRef["m:"+m] {
				seenRef["m:"+m] = true
				out.Missing = append(out.Missing, m)
			}
		}
		for _, u := range res.Remote {
			if !seenRef["r:"+u] {
				seenRef["r:"+u] = true
				out.Remote = append(out.Remote, u)
			}
		}
		out.Cycles = append(out.Cycles, res.Cycles...)
		out.Truncated = out.Truncated || res.Truncated
	}
	return out, nil
}

// lookupRef finds a dependency ref. "@reg/name" is scoped to reg; a bare
// name prefers the parent's registry and falls back to any registry.
func (r *Resolver) lookupRef(ref, parentRegistry string) (*Item, bool) {
	if reg, name, ok := splitScoped(ref); ok {
		return r.Index.LookupIn(reg, name)
	}
	if parentRegistry != "" {
		if item, ok := r.Index.LookupIn(parentRegistry, ref); ok {
			return item, true
		}
	}
	return r.Index.Lookup(ref)
}

// splitScoped splits "@registry/name".
func splitScoped(ref string) (registry, name string, ok bool) {
	if !strings.HasPrefix(ref, "@") {
		return "", "", false
	}
	registry, name, ok = strings.Cut(ref[1:], "/")
	if !ok || registry == "" || name == "" {
		return "", "", false
	}
	return registry, name, true
}

func isURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://") ||
		strings.HasPrefix(ref, "file://")
}

func itemKey(item *Item) string {
	return item.RegistryName() + "\x00" + item.Name
}

func cyclePath(stack []string, name string) []string {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == name {
			path := append([]string(nil), stack[i:]...)
			return append(path, name)
		}
	}
	return []string{name, name}
}
