package errors

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "config error",
			code:    "E100",
			wantMsg: "Not a uikit project",
			wantCat: CategoryConfig,
		},
		{
			name:    "registry error",
			code:    "E112",
			wantMsg: "Item not found",
			wantCat: CategoryRegistry,
		},
		{
			name:    "transform error",
			code:    "E120",
			wantMsg: "Source parse failed",
			wantCat: CategoryTransform,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestError_IncludesCodeAndDetail(t *testing.T) {
	err := New("E112").WithDetail(`Item "button" not found`)
	assert.Equal(t, `E112: Item not found: Item "button" not found`, err.Error())

	plain := Newf(CategoryCLI, "file %q not found", "a.tsx")
	assert.Equal(t, `file "a.tsx" not found`, plain.Error())
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil, "E111"))

	base := fmt.Errorf("dial tcp: refused")
	wrapped := FromError(base, "E111")
	require.NotNil(t, wrapped)
	assert.Equal(t, "E111", wrapped.Code)
	assert.ErrorIs(t, wrapped, base)

	coded := New("E130")
	assert.Same(t, coded, FromError(fmt.Errorf("outer: %w", coded), "E111"))
}

func TestHasCode(t *testing.T) {
	inner := New("E120")
	outer := New("E121").Wrap(inner)

	assert.True(t, HasCode(outer, "E121"))
	assert.True(t, HasCode(outer, "E120"))
	assert.True(t, HasCode(fmt.Errorf("ctx: %w", outer), "E120"))
	assert.False(t, HasCode(outer, "E130"))
	assert.False(t, HasCode(fmt.Errorf("plain"), "E120"))
}

func TestWithLocation(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "button.tsx")
	src := "line1\nline2\nline3\nline4\nline5\n"
	require.NoError(t, os.WriteFile(file, []byte(src), 0644))

	err := New("E120").WithLocation(file, 3, 2)
	require.NotNil(t, err.Location)
	assert.Equal(t, file+":3:2", err.Location.String())
	assert.Equal(t, []string{"line1", "line2", "line3", "line4", "line5"}, err.Context)
}

func TestWithSourceLocation(t *testing.T) {
	src := []byte("a\nb\nc\nd\ne\nf\ng\n")
	err := New("E120").WithSourceLocation("card.tsx", src, 4, 1)

	assert.Equal(t, "card.tsx:4:1", err.Location.String())
	assert.Equal(t, []string{"b", "c", "d", "e", "f"}, err.Context)
}

func TestLocationString(t *testing.T) {
	var nilLoc *Location
	assert.Equal(t, "", nilLoc.String())
	assert.Equal(t, "a.tsx:10", (&Location{File: "a.tsx", Line: 10}).String())
}

func TestFormat(t *testing.T) {
	noColor(t)

	err := New("E103").
		WithSuggestion(`Set "paths.ui" in uikit.json`).
		Wrap(fmt.Errorf("paths.ui is empty"))
	out := err.Format()

	assert.Contains(t, out, "ERROR E103: UI directory not configured")
	assert.Contains(t, out, "Hint: Set \"paths.ui\" in uikit.json")
	assert.Contains(t, out, "Cause: paths.ui is empty")
	assert.Contains(t, out, "Learn more: https://vango.dev/docs/uikit/errors/E103")
}

func TestFormatWithContext(t *testing.T) {
	noColor(t)

	src := []byte("<div>\n  <Button asChild>\n</div>\n")
	out := New("E120").WithSourceLocation("x.tsx", src, 2, 3).Format()

	assert.Contains(t, out, "x.tsx:2:3")
	assert.Contains(t, out, "→    2 │   <Button asChild>")
	assert.True(t, strings.Contains(out, "^"), "column marker missing:\n%s", out)
}

func TestFormatCompact(t *testing.T) {
	err := New("E130").WithDetail("No files matched app/**/*.tsx")
	assert.Equal(t, "E130: No files matched (No files matched app/**/*.tsx)", err.FormatCompact())

	err = Newf(CategoryTransform, "bad tag").WithSourceLocation("a.tsx", nil, 1, 4)
	assert.Equal(t, "a.tsx:1:4: bad tag", err.FormatCompact())
}

func TestFormatJSON(t *testing.T) {
	err := New("E111").WithDetail("status 503").Wrap(fmt.Errorf("boom"))

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(err.FormatJSON()), &got))
	assert.Equal(t, "E111", got["code"])
	assert.Equal(t, "registry", got["category"])
	assert.Equal(t, "status 503", got["detail"])
	assert.Equal(t, "boom", got["cause"])
}

func noColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	DisableColors()
	t.Cleanup(func() { color.NoColor = prev })
}

func TestFprint(t *testing.T) {
	noColor(t)
	err := fmt.Errorf("add: %w", New("E112").WithDetail(`Item "chip" not found`))

	var b strings.Builder
	Fprint(&b, err, OutputCompact)
	assert.Equal(t, "E112: Item not found (Item \"chip\" not found)\n", b.String())

	b.Reset()
	Fprint(&b, err, OutputJSON)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(b.String()), &got))
	assert.Equal(t, "E112", got["code"])

	b.Reset()
	Fprint(&b, err, "")
	assert.Contains(t, b.String(), "ERROR E112: Item not found")

	b.Reset()
	Fprint(&b, fmt.Errorf("unknown flag: --nope"), OutputCompact)
	assert.Equal(t, "unknown flag: --nope\n", b.String())
}

func TestValidOutput(t *testing.T) {
	for _, f := range []string{"", OutputPretty, OutputCompact, OutputJSON} {
		assert.True(t, ValidOutput(f), f)
	}
	assert.False(t, ValidOutput("yaml"))
}

func TestWrapText(t *testing.T) {
	assert.Nil(t, wrapText("", 10))
	assert.Equal(t, []string{"short"}, wrapText("short", 10))
	assert.Equal(t, []string{"one two", "three four"}, wrapText("one two three four", 10))
}

func TestLookup(t *testing.T) {
	tpl, ok := Lookup("E114")
	require.True(t, ok)
	assert.Equal(t, CategoryRegistry, tpl.Category)

	_, ok = Lookup("E001")
	assert.False(t, ok)
}
