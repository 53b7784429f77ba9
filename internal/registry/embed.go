package registry

import (
	"embed"
	"sync"
)

//go:embed builtin/registry.json
var builtinFS embed.FS

var (
	builtinOnce sync.Once
	builtinReg  *Registry
	builtinErr  error
)

// BuiltinRegistryName is the provenance name of items shipped with uikit.
const BuiltinRegistryName = "builtin"

// Builtin returns the registry embedded in the binary. It carries the
// helpers every component depends on, so they resolve without a network.
func Builtin() (*Registry, error) {
	builtinOnce.Do(func() {
		data, err := builtinFS.ReadFile("builtin/registry.json")
		if err != nil {
			builtinErr = err
			return
		}
		builtinReg, builtinErr = ParseRegistry(data)
	})
	return builtinReg, builtinErr
}

// WithBuiltin appends the builtin items to idx as a last-resort source.
// The result is a new index; idx is not modified.
func WithBuiltin(idx *MergedIndex) (*MergedIndex, error) {
	b, err := Builtin()
	if err != nil {
		return nil, err
	}
	builtin := Merge([]FetchResult{{URL: b.Homepage, Data: b, Items: b.Items}})
	return &MergedIndex{
		Items:   append(append([]*Item(nil), idx.Items...), builtin.Items...),
		Sources: append(append([]Source(nil), idx.Sources...), builtin.Sources...),
	}, nil
}
