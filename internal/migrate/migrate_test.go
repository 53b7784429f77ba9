package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/uikit/internal/errors"
	"github.com/vango-dev/uikit/internal/telemetry"
	"github.com/vango-dev/uikit/internal/transform"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func rtlOptions(path string) Options {
	return Options{
		Path:       path,
		Yes:        true,
		Transforms: []transform.Transform{transform.Direction{}},
		Config:     transform.Config{RTL: true},
		Logger:     telemetry.Discard(),
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"button.tsx":                 "",
		"nested/card.jsx":            "",
		"lib/utils.ts":               "",
		"types.d.ts":                 "",
		"node_modules/pkg/index.tsx": "",
		"styles.css":                 "",
		"nested/deeper/sidebar.tsx":  "",
	})

	files, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "button.tsx"),
		filepath.Join(dir, "lib", "utils.ts"),
		filepath.Join(dir, "nested", "card.jsx"),
		filepath.Join(dir, "nested", "deeper", "sidebar.tsx"),
	}, files)

	files, err = Discover(filepath.Join(dir, "nested", "**", "*.tsx"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "nested", "deeper", "sidebar.tsx")}, files)

	files, err = Discover(filepath.Join(dir, "styles.css"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestDiscover_NoMatches(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"readme.md": ""})

	_, err := Discover(dir)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, "E130"))

	_, err = Discover(filepath.Join(dir, "*.tsx"))
	assert.True(t, errors.HasCode(err, "E130"))

	_, err = Discover(filepath.Join(dir, "missing.tsx"))
	assert.True(t, errors.HasCode(err, "E130"))

	_, err = Discover("")
	assert.True(t, errors.HasCode(err, "E103"))
}

func TestRun_WritesOnlyChangedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"button.tsx":  `export const B = () => <button className="ml-2 pl-4" />`,
		"plain.tsx":   `export const P = () => <p className="mt-2" />`,
		"sidebar.tsx": `export const S = () => <aside className="mt-1" />`,
		"broken.tsx":  `export const X = () => <div className="ml-2">`,
	})

	old := time.Now().Add(-time.Hour)
	plain := filepath.Join(dir, "plain.tsx")
	require.NoError(t, os.Chtimes(plain, old, old))

	rep, err := Run(context.Background(), rtlOptions(dir))
	require.NoError(t, err)
	assert.NotEmpty(t, rep.RunID)
	assert.False(t, rep.Declined)
	assert.Equal(t, 4, rep.Total)
	assert.Equal(t, 1, rep.Transformed)
	assert.Equal(t, 2, rep.Unchanged)
	assert.Equal(t, []string{filepath.Join(dir, "button.tsx")}, rep.Written)
	require.Len(t, rep.Failed, 1)
	assert.Equal(t, filepath.Join(dir, "broken.tsx"), rep.Failed[0].Path)
	assert.True(t, errors.HasCode(rep.Failed[0].Err, "E120"))
	assert.Equal(t, []string{filepath.Join(dir, "sidebar.tsx")}, rep.ManualReview)

	data, err := os.ReadFile(filepath.Join(dir, "button.tsx"))
	require.NoError(t, err)
	assert.Equal(t, `export const B = () => <button className="ms-2 ps-4" />`, string(data))

	info, err := os.Stat(plain)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old), "unchanged file is not rewritten")

	broken, err := os.ReadFile(filepath.Join(dir, "broken.tsx"))
	require.NoError(t, err)
	assert.Equal(t, `export const X = () => <div className="ml-2">`, string(broken))

	second, err := Run(context.Background(), rtlOptions(dir))
	require.NoError(t, err)
	assert.Equal(t, 0, second.Transformed)
	assert.Empty(t, second.Written)
	assert.NotEqual(t, rep.RunID, second.RunID)
}

func TestRun_Declined(t *testing.T) {
	dir := t.TempDir()
	src := `export const B = () => <button className="ml-2" />`
	writeFiles(t, dir, map[string]string{"button.tsx": src})

	var seen Plan
	opts := rtlOptions(dir)
	opts.Yes = false
	opts.Confirm = func(p Plan) (bool, error) {
		seen = p
		return false, nil
	}

	rep, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, rep.Declined)
	assert.Equal(t, 0, rep.Transformed)
	assert.Equal(t, dir, seen.Target)
	assert.Equal(t, []string{filepath.Join(dir, "button.tsx")}, seen.Files)
	assert.Equal(t, []string{"direction"}, seen.Transforms)

	data, err := os.ReadFile(filepath.Join(dir, "button.tsx"))
	require.NoError(t, err)
	assert.Equal(t, src, string(data))
}

func TestRun_ConfirmError(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"button.tsx": `<b className="ml-2" />`})

	opts := rtlOptions(dir)
	opts.Yes = false
	opts.Confirm = func(Plan) (bool, error) { return false, fmt.Errorf("stdin closed") }

	_, err := Run(context.Background(), opts)
	require.Error(t, err)
}

func TestRun_YesSkipsConfirm(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"button.tsx": `<b className="ml-2" />`})

	opts := rtlOptions(dir)
	opts.Confirm = func(Plan) (bool, error) {
		t.Fatal("confirm called with Yes set")
		return false, nil
	}
	rep, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Transformed)
}

func TestRun_NoFiles(t *testing.T) {
	_, err := Run(context.Background(), rtlOptions(t.TempDir()))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, "E130"))
}

func TestRun_ExtraManualReview(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"drawer.tsx": `<b />`})

	opts := rtlOptions(dir)
	opts.ManualReview = []string{"drawer"}
	rep, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "drawer.tsx")}, rep.ManualReview)
}

func TestRun_ManualReviewFollowsTransforms(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"sidebar.tsx": `<T asChild><a>x</a></T>`,
		"drawer.tsx":  `<b />`,
	})

	opts := rtlOptions(dir)
	opts.ManualReview = []string{"drawer"}
	opts.Transforms = []transform.Transform{transform.RenderDelegate{}}
	opts.Config = transform.Config{Style: "base-nova"}
	rep, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Empty(t, rep.ManualReview)
	assert.Equal(t, 1, rep.Transformed)
}

func TestWriteFile_KeepsMode(t *testing.T) {
	p := filepath.Join(t.TempDir(), "x.tsx")
	require.NoError(t, os.WriteFile(p, []byte("a"), 0o600))
	require.NoError(t, writeFile(p, []byte("b")))

	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	data, _ := os.ReadFile(p)
	assert.Equal(t, "b", string(data))
}
