package install

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/vango-dev/uikit/internal/config"
)

// Installed is a file written by Add, found by its header.
type Installed struct {
	Path     string
	Item     string
	Registry string
	Homepage string
	Checksum string

	// Modified is set when the body changed since install.
	Modified bool
}

// ListInstalled scans the alias directories of cfg for installed files.
func ListInstalled(cfg *config.Config) ([]Installed, error) {
	seen := make(map[string]bool)
	var out []Installed

	for _, dir := range []string{
		cfg.UIComponentsPath(),
		cfg.ComponentsPath(),
		cfg.LibPath(),
		cfg.HooksPath(),
	} {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}

		matches, err := doublestar.Glob(os.DirFS(dir), "**/*.{ts,tsx,js,jsx,mts,cts}", doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			path := filepath.Join(dir, filepath.FromSlash(m))
			if seen[path] {
				continue
			}
			seen[path] = true

			content, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			h, body, ok := parseHeader(content)
			if !ok {
				continue
			}
			out = append(out, Installed{
				Path:     path,
				Item:     h.Item,
				Registry: h.Registry,
				Homepage: h.Homepage,
				Checksum: h.Checksum,
				Modified: h.modified(body),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
