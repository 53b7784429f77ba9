package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/uikit/internal/config"
	"github.com/vango-dev/uikit/internal/errors"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func initProject(t *testing.T, extra ...string) string {
	t.Helper()
	dir := t.TempDir()
	_, err := runCLI(t, "", append([]string{"init", "-C", dir}, extra...)...)
	require.NoError(t, err)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func loadConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	return cfg
}

func TestInit(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, "", "init", "-C", dir, "--style", "base-nova", "--rtl")
	require.NoError(t, err)
	assert.Contains(t, out, "Created")

	cfg := loadConfig(t, dir)
	assert.Equal(t, "base-nova", cfg.Style)
	assert.True(t, cfg.RTL)

	_, err = runCLI(t, "", "init", "-C", dir)
	assert.True(t, errors.HasCode(err, "E102"))

	_, err = runCLI(t, "", "init", "-C", dir, "--force")
	require.NoError(t, err)
	assert.False(t, loadConfig(t, dir).RTL)
}

func TestMigrateRTL(t *testing.T) {
	dir := initProject(t)
	button := filepath.Join(dir, "components", "ui", "button.tsx")
	writeFile(t, button, `export const B = () => <button className="ml-2 pr-4">x</button>`+"\n")
	sidebar := filepath.Join(dir, "components", "ui", "sidebar.tsx")
	writeFile(t, sidebar, "export {}\n")

	out, err := runCLI(t, "", "migrate", "rtl", "-C", dir, "--yes")
	require.NoError(t, err)

	assert.Equal(t, `export const B = () => <button className="ms-2 pe-4">x</button>`+"\n", readFile(t, button))
	assert.Contains(t, out, "1 transformed")
	assert.Contains(t, out, "manual review")
	assert.Contains(t, out, sidebar)
	assert.True(t, loadConfig(t, dir).RTL)
}

func TestMigrateRTL_Declined(t *testing.T) {
	dir := initProject(t)
	button := filepath.Join(dir, "components", "ui", "button.tsx")
	src := `export const B = () => <button className="ml-2">x</button>` + "\n"
	writeFile(t, button, src)

	out, err := runCLI(t, "n\n", "migrate", "rtl", "-C", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "Proceed? [y/N]")
	assert.Contains(t, out, "no files were changed")
	assert.Equal(t, src, readFile(t, button))
	assert.False(t, loadConfig(t, dir).RTL)
}

func TestMigrateRTL_Confirmed(t *testing.T) {
	dir := initProject(t)
	button := filepath.Join(dir, "components", "ui", "button.tsx")
	writeFile(t, button, `export const B = () => <button className="ml-2">x</button>`+"\n")

	_, err := runCLI(t, "yes\n", "migrate", "rtl", "-C", dir, button)
	require.NoError(t, err)
	assert.Contains(t, readFile(t, button), "ms-2")
}

func TestMigrate_NoFiles(t *testing.T) {
	dir := initProject(t)
	_, err := runCLI(t, "", "migrate", "rtl", "-C", dir, "--yes")
	assert.True(t, errors.HasCode(err, "E130"))
	assert.False(t, loadConfig(t, dir).RTL)
}

func TestMigrate_UIUnconfigured(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ConfigFileName), `{"style": "new-york", "aliases": {}}`)

	_, err := runCLI(t, "", "migrate", "render", "-C", dir, "--yes")
	assert.True(t, errors.HasCode(err, "E103"))
}

func TestMigrateRender(t *testing.T) {
	dir := initProject(t, "--style", "base-nova")
	trigger := filepath.Join(dir, "components", "ui", "menu.tsx")
	writeFile(t, trigger, `const M = () => <Trigger asChild><a href="/">Home</a></Trigger>`+"\n")

	_, err := runCLI(t, "", "migrate", "render", "-C", dir, "-y")
	require.NoError(t, err)
	assert.Equal(t,
		`const M = () => <Trigger render={<a href="/" />} nativeButton={false}>Home</Trigger>`+"\n",
		readFile(t, trigger))
}

func TestMigrateRender_NoManualReview(t *testing.T) {
	dir := initProject(t, "--style", "base-nova")
	writeFile(t, filepath.Join(dir, "components", "ui", "sidebar.tsx"), `const S = () => <Trigger asChild><a>x</a></Trigger>`+"\n")

	out, err := runCLI(t, "", "migrate", "render", "-C", dir, "-y")
	require.NoError(t, err)
	assert.NotContains(t, out, "manual review")

	_, err = runCLI(t, "", "migrate", "render", "-C", dir, "-y", "--manual-review", "sidebar")
	require.Error(t, err)
}

func TestRegistryBuildAndAdd(t *testing.T) {
	dir := initProject(t)

	regPath := filepath.Join(dir, "acme.json")
	writeFile(t, regPath, `{
  "name": "acme",
  "homepage": "https://ui.acme.dev",
  "items": [{
    "name": "badge",
    "type": "registry:ui",
    "description": "Small status label",
    "registryDependencies": ["utils"],
    "files": [{"path": "ui/badge.tsx", "type": "registry:ui", "content": "export const Badge = () => <span className=\"pl-1\" />\n"}]
  }]
}`)
	urls, err := json.Marshal([]string{regPath, filepath.Join(dir, "missing.json")})
	require.NoError(t, err)
	writeFile(t, filepath.Join(dir, config.DefaultRegistriesFile), string(urls))

	metrics := filepath.Join(dir, "metrics.prom")
	out, err := runCLI(t, "", "registry", "build", "-C", dir, "--metrics-file", metrics)
	require.NoError(t, err)
	assert.Contains(t, out, "acme")
	assert.Contains(t, out, "1 item(s) from 2 registries")
	assert.Contains(t, readFile(t, metrics), `uikit_registry_fetch_total{status="error"} 1`)

	out, err = runCLI(t, "", "registry", "search", "-C", dir, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "badge")

	out, err = runCLI(t, "", "add", "-C", dir, "badge")
	require.NoError(t, err)
	assert.Contains(t, out, "clsx tailwind-merge")

	badge := readFile(t, filepath.Join(dir, "components", "ui", "badge.tsx"))
	assert.True(t, strings.HasPrefix(badge, "// Source: acme/badge\n"))
	assert.Contains(t, badge, `className="pl-1"`)
	assert.FileExists(t, filepath.Join(dir, "lib", "utils.ts"))

	out, err = runCLI(t, "", "info", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "badge")
	assert.Contains(t, out, "builtin")
}

func TestAdd_BuiltinOnly(t *testing.T) {
	dir := initProject(t)
	assert.Equal(t, "[]\n", readFile(t, filepath.Join(dir, config.DefaultRegistriesFile)))

	_, err := runCLI(t, "", "add", "-C", dir, "badge")
	assert.True(t, errors.HasCode(err, "E112"))

	_, err = runCLI(t, "", "add", "-C", dir, "utils")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "lib", "utils.ts"))
}

func TestAdd_ItemDocument(t *testing.T) {
	dir := initProject(t)
	doc := filepath.Join(t.TempDir(), "card.json")
	writeFile(t, doc, `{
  "name": "card",
  "type": "registry:ui",
  "registryDependencies": ["utils"],
  "files": [{"path": "ui/card.tsx", "content": "export const Card = () => <div className=\"mr-2\" />\n"}]
}`)

	_, err := runCLI(t, "", "add", "-C", dir, doc)
	require.NoError(t, err)

	card := readFile(t, filepath.Join(dir, "components", "ui", "card.tsx"))
	assert.True(t, strings.HasPrefix(card, "// Source: local/card\n"))
	assert.FileExists(t, filepath.Join(dir, "lib", "utils.ts"))

	_, err = runCLI(t, "", "add", "-C", dir, filepath.Join(t.TempDir(), "gone.json"))
	assert.True(t, errors.HasCode(err, "E111"))
}

func TestAdd_NoRegistryList(t *testing.T) {
	dir := initProject(t)
	require.NoError(t, os.Remove(filepath.Join(dir, config.DefaultRegistriesFile)))

	_, err := runCLI(t, "", "add", "-C", dir, "badge")
	assert.True(t, errors.HasCode(err, "E114"))
}

func TestRun_ErrorFormat(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer

	code := run(context.Background(), []string{"migrate", "rtl", "-C", dir, "--error-format", "json"}, strings.NewReader(""), &out, &errOut)
	assert.Equal(t, 1, code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(errOut.Bytes(), &got), errOut.String())
	assert.Equal(t, "E100", got["code"])

	errOut.Reset()
	code = run(context.Background(), []string{"migrate", "rtl", "-C", dir, "--error-format", "compact", "--no-color"}, strings.NewReader(""), &out, &errOut)
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(errOut.String(), "E100: Not a uikit project"), errOut.String())

	errOut.Reset()
	code = run(context.Background(), []string{"version", "--error-format", "yaml"}, strings.NewReader(""), &out, &errOut)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), `invalid error format "yaml"`)
}

func TestReadYes(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{" yes \n", true},
		{"yes", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yeah\n", false},
	}
	for _, tt := range tests {
		got, err := readYes(strings.NewReader(tt.in))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "", "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)
}
