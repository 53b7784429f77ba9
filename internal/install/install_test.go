package install

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/uikit/internal/config"
	"github.com/vango-dev/uikit/internal/errors"
	"github.com/vango-dev/uikit/internal/registry"
	"github.com/vango-dev/uikit/internal/telemetry"
)

const acmeRegistry = `{
  "name": "acme",
  "homepage": "https://ui.acme.dev",
  "items": [
    {
      "name": "button",
      "type": "registry:ui",
      "registryDependencies": ["utils"],
      "dependencies": ["@radix-ui/react-slot"],
      "files": [{
        "path": "ui/button.tsx",
        "type": "registry:ui",
        "content": "export function Button() {\n  return <Trigger asChild><a className=\"ml-2\">x</a></Trigger>\n}\n"
      }]
    },
    {
      "name": "utils",
      "type": "registry:lib",
      "dependencies": ["clsx"],
      "files": [{"path": "lib/utils.ts", "type": "registry:lib", "content": "export const cn = () => \"\"\n"}]
    },
    {
      "name": "use-toggle",
      "type": "registry:hook",
      "files": [{"path": "hooks/use-toggle.ts", "content": "export {}\n"}]
    },
    {
      "name": "login",
      "type": "registry:block",
      "registryDependencies": ["button", "ghost"],
      "files": [
        {"path": "blocks/login/form.tsx", "type": "registry:component", "content": "export {}\n"},
        {"path": "blocks/login/page.tsx", "type": "registry:page", "target": "app/login/page.tsx", "content": "export {}\n"},
        {"path": "blocks/login/theme.css", "type": "registry:file", "content": ".a{}\n"}
      ]
    },
    {"name": "loop-a", "type": "registry:ui", "registryDependencies": ["loop-b"]},
    {"name": "loop-b", "type": "registry:ui", "registryDependencies": ["loop-a"]}
  ]
}`

func setup(t *testing.T, mutate func(*config.Config)) (string, *config.Config, *registry.MergedIndex) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.New()
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.SaveTo(filepath.Join(dir, config.ConfigFileName)))

	reg, err := registry.ParseRegistry([]byte(acmeRegistry))
	require.NoError(t, err)
	idx := registry.Merge([]registry.FetchResult{{URL: "https://ui.acme.dev/r/registry.json", Data: reg, Items: reg.Items}})
	return dir, cfg, idx
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestAdd(t *testing.T) {
	dir, cfg, idx := setup(t, nil)
	in := New(cfg, idx, WithLogger(telemetry.Discard()))

	res, err := in.Add(context.Background(), []string{"button"}, Options{})
	require.NoError(t, err)

	require.Len(t, res.Files, 2)
	assert.Equal(t, "utils", res.Files[0].Item)
	assert.Equal(t, filepath.Join(dir, "lib", "utils.ts"), res.Files[0].Path)
	assert.Equal(t, "button", res.Files[1].Item)
	assert.Equal(t, filepath.Join(dir, "components", "ui", "button.tsx"), res.Files[1].Path)
	assert.Equal(t, ActionCreate, res.Files[1].Action)
	assert.Equal(t, "acme", res.Files[1].Registry)
	assert.Equal(t, []string{"clsx", "@radix-ui/react-slot"}, res.Dependencies)

	button := readFile(t, res.Files[1].Path)
	body := "export function Button() {\n  return <Trigger asChild><a className=\"ml-2\">x</a></Trigger>\n}\n"
	assert.Equal(t,
		"// Source: acme/button\n// Registry: https://ui.acme.dev\n// Checksum: sha256:"+Checksum([]byte(body))+"\n\n"+body,
		button)

	again, err := in.Add(context.Background(), []string{"button"}, Options{})
	require.NoError(t, err)
	assert.Empty(t, again.Written())
	for _, f := range again.Files {
		assert.Equal(t, ActionUnchanged, f.Action)
	}
}

func TestAdd_AppliesProjectTransforms(t *testing.T) {
	_, cfg, idx := setup(t, func(c *config.Config) {
		c.RTL = true
		c.Style = "base-nova"
	})
	in := New(cfg, idx, WithLogger(telemetry.Discard()))

	res, err := in.Add(context.Background(), []string{"button"}, Options{})
	require.NoError(t, err)

	button := readFile(t, res.Files[1].Path)
	assert.Contains(t, button, `<Trigger render={<a className="ms-2" />} nativeButton={false}>x</Trigger>`)
}

func TestAdd_TargetsByType(t *testing.T) {
	dir, cfg, idx := setup(t, nil)
	in := New(cfg, idx, WithLogger(telemetry.Discard()))

	res, err := in.Add(context.Background(), []string{"login", "use-toggle"}, Options{DryRun: true})
	require.NoError(t, err)

	paths := make(map[string]string)
	for _, f := range res.Files {
		paths[filepath.Base(f.Path)] = f.Path
	}
	assert.Equal(t, filepath.Join(dir, "components", "login", "form.tsx"), paths["form.tsx"])
	assert.Equal(t, filepath.Join(dir, "app", "login", "page.tsx"), paths["page.tsx"])
	assert.Equal(t, filepath.Join(dir, "components", "login", "theme.css"), paths["theme.css"])
	assert.Equal(t, filepath.Join(dir, "hooks", "use-toggle.ts"), paths["use-toggle.ts"])
	assert.Equal(t, []string{"ghost"}, res.Resolution.Missing)

	// Dry runs write nothing.
	_, err = os.Stat(paths["form.tsx"])
	assert.True(t, os.IsNotExist(err))
}

func TestAdd_NoHeaderForNonSource(t *testing.T) {
	_, cfg, idx := setup(t, nil)
	in := New(cfg, idx, WithLogger(telemetry.Discard()))

	res, err := in.Add(context.Background(), []string{"login"}, Options{})
	require.NoError(t, err)
	for _, f := range res.Files {
		if filepath.Ext(f.Path) == ".css" {
			assert.Equal(t, ".a{}\n", readFile(t, f.Path))
		}
	}
}

func TestAdd_ModifiedFilesNeedOverwrite(t *testing.T) {
	_, cfg, idx := setup(t, nil)
	in := New(cfg, idx, WithLogger(telemetry.Discard()))

	res, err := in.Add(context.Background(), []string{"utils"}, Options{})
	require.NoError(t, err)
	path := res.Files[0].Path

	edited := readFile(t, path) + "export const extra = 1\n"
	require.NoError(t, os.WriteFile(path, []byte(edited), 0644))

	res, err = in.Add(context.Background(), []string{"utils"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, ActionSkipModified, res.Files[0].Action)
	assert.Equal(t, edited, readFile(t, path))

	res, err = in.Add(context.Background(), []string{"utils"}, Options{Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, ActionUpdate, res.Files[0].Action)
	assert.NotContains(t, readFile(t, path), "extra")
}

func TestAdd_ForeignFileNeedsOverwrite(t *testing.T) {
	dir, cfg, idx := setup(t, nil)
	path := filepath.Join(dir, "lib", "utils.ts")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("mine\n"), 0644))

	in := New(cfg, idx, WithLogger(telemetry.Discard()))
	res, err := in.Add(context.Background(), []string{"utils"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, ActionSkipModified, res.Files[0].Action)
	assert.Equal(t, "mine\n", readFile(t, path))
}

func TestAdd_Errors(t *testing.T) {
	_, cfg, idx := setup(t, nil)
	in := New(cfg, idx, WithLogger(telemetry.Discard()))

	_, err := in.Add(context.Background(), []string{"nope"}, Options{})
	assert.True(t, errors.HasCode(err, "E112"))

	_, err = in.Add(context.Background(), []string{"login"}, Options{Strict: true, DryRun: true})
	assert.True(t, errors.HasCode(err, "E112"))

	_, err = in.Add(context.Background(), []string{"loop-a"}, Options{Strict: true, DryRun: true})
	assert.True(t, errors.HasCode(err, "E116"))

	res, err := in.Add(context.Background(), []string{"loop-a"}, Options{DryRun: true})
	require.NoError(t, err)
	assert.Len(t, res.Resolution.Items, 2)
}

func TestTargetPath_UIUnconfigured(t *testing.T) {
	_, cfg, _ := setup(t, func(c *config.Config) {
		c.Aliases.UI = ""
	})
	item := &registry.Item{Name: "x", Type: registry.TypeUI}
	_, err := TargetPath(cfg, item, registry.File{Path: "ui/x.tsx"})
	assert.True(t, errors.HasCode(err, "E103"))
}

func TestListInstalled(t *testing.T) {
	dir, cfg, idx := setup(t, nil)
	in := New(cfg, idx, WithLogger(telemetry.Discard()))
	_, err := in.Add(context.Background(), []string{"button"}, Options{})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "components", "ui", "own.tsx"), []byte("export {}\n"), 0644))
	utils := filepath.Join(dir, "lib", "utils.ts")
	require.NoError(t, os.WriteFile(utils, []byte(readFile(t, utils)+"// edit\n"), 0644))

	list, err := ListInstalled(cfg)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, filepath.Join(dir, "components", "ui", "button.tsx"), list[0].Path)
	assert.Equal(t, "button", list[0].Item)
	assert.Equal(t, "acme", list[0].Registry)
	assert.Equal(t, "https://ui.acme.dev", list[0].Homepage)
	assert.False(t, list[0].Modified)

	assert.Equal(t, utils, list[1].Path)
	assert.True(t, list[1].Modified)
}

func TestParseHeader(t *testing.T) {
	body := []byte("export {}\n")
	content := withHeader("builtin", "utils", "", body)

	h, got, ok := parseHeader(content)
	require.True(t, ok)
	assert.Equal(t, Header{Registry: "builtin", Item: "utils", Checksum: Checksum(body)}, h)
	assert.Equal(t, body, got)
	assert.False(t, h.modified(got))

	_, _, ok = parseHeader([]byte("// just a comment\n\nexport {}"))
	assert.False(t, ok)
	_, _, ok = parseHeader([]byte("// Source: a/b\nexport {}"))
	assert.False(t, ok)
}
