package migrate

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/vango-dev/uikit/internal/errors"
)

// SourcePattern matches the component sources a directory migration visits.
const SourcePattern = "**/*.{tsx,jsx,ts}"

// Discover returns the files named by target, sorted. Target is a file, a
// directory (every source under it) or a glob that may use `**`.
// Declaration files and anything under node_modules are skipped. Finding
// nothing is E130.
func Discover(target string) ([]string, error) {
	if target == "" {
		return nil, errors.New("E103")
	}

	var files []string
	switch info, err := os.Stat(target); {
	case err == nil && !info.IsDir():
		files = []string{target}

	case err == nil && info.IsDir():
		matches, gerr := glob(target, SourcePattern)
		if gerr != nil {
			return nil, errors.New("E130").WithDetail(gerr.Error())
		}
		files = matches

	case hasMeta(target):
		base, pattern := doublestar.SplitPattern(filepath.ToSlash(target))
		matches, gerr := glob(filepath.FromSlash(base), pattern)
		if gerr != nil {
			return nil, errors.New("E130").WithDetail(gerr.Error())
		}
		files = matches
	}

	files = filterSources(files)
	if len(files) == 0 {
		return nil, errors.New("E130").
			WithDetail("No files matched " + target)
	}
	sort.Strings(files)
	return files, nil
}

func glob(dir, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = filepath.Join(dir, filepath.FromSlash(m))
	}
	return out, nil
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

func filterSources(files []string) []string {
	out := files[:0]
	for _, f := range files {
		if strings.HasSuffix(f, ".d.ts") {
			continue
		}
		if inNodeModules(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func inNodeModules(p string) bool {
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part == "node_modules" {
			return true
		}
	}
	return false
}
