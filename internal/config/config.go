package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/tailscale/hujson"

	"github.com/vango-dev/uikit/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "uikit.json"

	// DefaultStyle is the style variant used when uikit.json does not name one.
	DefaultStyle = "new-york"

	// DefaultRegistriesFile is the registry URL list read by `uikit registry build`.
	DefaultRegistriesFile = "registries.json"

	// DefaultSchema is written into new configuration files.
	DefaultSchema = "https://vango.dev/schema/uikit.json"
)

// Config represents uikit.json.
type Config struct {
	// Schema is the JSON schema URL for editor support.
	Schema string `json:"$schema,omitempty"`

	// Style is the registry style variant (e.g. "new-york", "base-nova").
	Style string `json:"style,omitempty"`

	// TSX selects TypeScript sources.
	TSX bool `json:"tsx"`

	// RTL records that the project opted into right-to-left layouts.
	// Read by `uikit add` to decide whether installed files are mirrored.
	RTL bool `json:"rtl"`

	// IconLibrary is the icon package used by installed components.
	IconLibrary string `json:"iconLibrary,omitempty"`

	// Tailwind contains Tailwind CSS settings.
	Tailwind TailwindConfig `json:"tailwind"`

	// Aliases contains import aliases for installed files.
	Aliases AliasesConfig `json:"aliases"`

	// Paths contains filesystem overrides for aliases.
	Paths *PathsConfig `json:"paths,omitempty"`

	// Registries is the path to a JSON array of registry URLs.
	Registries string `json:"registries,omitempty"`

	// ManualReview lists extra file names that always need a human look
	// after a direction migration.
	ManualReview []string `json:"manualReview,omitempty"`

	// ClassFunctions lists extra class-merging helpers whose string
	// arguments hold utility classes.
	ClassFunctions []string `json:"classFunctions,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// TailwindConfig contains Tailwind CSS settings.
type TailwindConfig struct {
	// CSS is the global stylesheet path.
	CSS string `json:"css,omitempty"`

	// BaseColor is the neutral palette name.
	BaseColor string `json:"baseColor,omitempty"`

	// Prefix is the utility class prefix (e.g. "tw-").
	Prefix string `json:"prefix,omitempty"`
}

// AliasesConfig contains import aliases.
type AliasesConfig struct {
	Components string `json:"components,omitempty"`
	UI         string `json:"ui,omitempty"`
	Utils      string `json:"utils,omitempty"`
	Lib        string `json:"lib,omitempty"`
	Hooks      string `json:"hooks,omitempty"`
}

// PathsConfig contains filesystem paths that override alias resolution.
type PathsConfig struct {
	// UI is the directory holding installed UI components.
	UI string `json:"ui,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Schema: DefaultSchema,
		Style:  DefaultStyle,
		TSX:    true,
		Tailwind: TailwindConfig{
			CSS:       "app/globals.css",
			BaseColor: "neutral",
		},
		Aliases: AliasesConfig{
			Components: "@/components",
			UI:         "@/components/ui",
			Utils:      "@/lib/utils",
			Lib:        "@/lib",
			Hooks:      "@/hooks",
		},
		Registries: DefaultRegistriesFile,
	}
}

// Load reads configuration from the specified directory.
// It looks for uikit.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path. Comments and
// trailing commas are accepted.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E100").
				WithDetail("No uikit.json found in " + filepath.Dir(path)).
				WithSuggestion("Run 'uikit init' or create uikit.json at the project root")
		}
		return nil, errors.New("E101").Wrap(err)
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, errors.New("E101").
			WithDetail("Failed to parse uikit.json: " + err.Error()).
			WithSuggestion("Check that uikit.json is valid JSON")
	}

	cfg := &Config{}
	if err := json.Unmarshal(std, cfg); err != nil {
		e := errors.New("E101").
			WithDetail("Failed to parse uikit.json: " + err.Error()).
			WithSuggestion("Check that uikit.json is valid JSON")
		if off, ok := jsonOffset(err); ok {
			line, col := lineColumn(data, off)
			e = e.WithLocation(path, line, col)
		}
		return nil, e
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path. The write holds an
// exclusive lock on a sibling .lock file and replaces the file atomically.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E102").Wrap(err)
	}
	data = append(data, '\n')

	err = updateFile(path, func([]byte) ([]byte, error) { return data, nil })
	if err != nil {
		return err
	}
	c.configPath = path
	return nil
}

// SetRTL records the direction flag and persists it. Only the rtl member of
// the file changes; comments and the rest of the file are kept as written.
func (c *Config) SetRTL(enabled bool) error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	err := updateFile(c.configPath, func(current []byte) ([]byte, error) {
		if current == nil {
			saved := *c
			saved.RTL = enabled
			data, err := json.MarshalIndent(&saved, "", "  ")
			return append(data, '\n'), err
		}
		return patchRTL(current, enabled)
	})
	if err != nil {
		return err
	}
	c.RTL = enabled
	return nil
}

func patchRTL(data []byte, enabled bool) ([]byte, error) {
	root, err := hujson.Parse(data)
	if err != nil {
		return nil, errors.New("E101").
			WithDetail("Failed to parse uikit.json: " + err.Error())
	}
	if v := root.Find("/rtl"); v != nil {
		v.Value = hujson.Bool(enabled)
		return root.Pack(), nil
	}
	patch := fmt.Sprintf(`[{"op": "add", "path": "/rtl", "value": %t}]`, enabled)
	if err := root.Patch([]byte(patch)); err != nil {
		return nil, errors.New("E102").Wrap(err)
	}
	root.Format()
	return root.Pack(), nil
}

// updateFile rewrites path under an exclusive lock on a sibling .lock file.
// update receives the current contents, or nil when the file is missing,
// and the result replaces the file atomically.
func updateFile(path string, update func(current []byte) ([]byte, error)) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return errors.New("E102").
			WithDetail("Could not lock " + path).
			Wrap(err)
	}
	defer func() { _ = lock.Unlock() }()

	current, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.New("E102").
			WithDetail("Could not read " + path).
			Wrap(err)
	}
	data, err := update(current)
	if err != nil {
		var ue *errors.UIKitError
		if stderrors.As(err, &ue) {
			return err
		}
		return errors.New("E102").Wrap(err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.New("E102").
			WithDetail("Could not write " + path).
			WithSuggestion("Check the file permissions of the project directory").
			Wrap(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.New("E102").
			WithDetail("Could not replace " + path).
			Wrap(err)
	}
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields. The UI path is
// left alone: without paths.ui or aliases.ui there is no migration target.
func (c *Config) applyDefaults() {
	if c.Style == "" {
		c.Style = DefaultStyle
	}
	if c.Registries == "" {
		c.Registries = DefaultRegistriesFile
	}
	if c.Aliases.Lib == "" && c.Aliases.Utils != "" {
		c.Aliases.Lib = parentAlias(c.Aliases.Utils)
	}
}

// AliasPath resolves an import alias such as "@/components/ui" to a
// directory under the project root.
func (c *Config) AliasPath(alias string) string {
	if alias == "" {
		return ""
	}
	p := alias
	for _, prefix := range []string{"@/", "~/", "#/"} {
		if strings.HasPrefix(p, prefix) {
			p = strings.TrimPrefix(p, prefix)
			break
		}
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir(), filepath.FromSlash(p))
}

// UIComponentsPath returns the absolute path to the UI components
// directory, or "" when neither paths.ui nor aliases.ui is configured.
func (c *Config) UIComponentsPath() string {
	if c.Paths != nil && c.Paths.UI != "" {
		if filepath.IsAbs(c.Paths.UI) {
			return c.Paths.UI
		}
		return filepath.Join(c.Dir(), c.Paths.UI)
	}
	return c.AliasPath(c.Aliases.UI)
}

// ComponentsPath returns the absolute path for registry:component and
// registry:block files.
func (c *Config) ComponentsPath() string {
	return c.AliasPath(c.Aliases.Components)
}

// LibPath returns the absolute path for registry:lib files.
func (c *Config) LibPath() string {
	return c.AliasPath(c.Aliases.Lib)
}

// HooksPath returns the absolute path for registry:hook files.
func (c *Config) HooksPath() string {
	return c.AliasPath(c.Aliases.Hooks)
}

// RegistriesPath returns the absolute path of the registry URL list.
func (c *Config) RegistriesPath() string {
	if filepath.IsAbs(c.Registries) {
		return c.Registries
	}
	return filepath.Join(c.Dir(), c.Registries)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing uikit.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E100").
				WithDetail("No uikit.json found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'uikit init' to create one")
		}
		dir = parent
	}
}

func parentAlias(alias string) string {
	i := strings.LastIndex(alias, "/")
	if i <= 0 {
		return alias
	}
	return alias[:i]
}

func resolveUnder(root, p string) string {
	if filepath.IsAbs(p) || root == "" {
		return p
	}
	return filepath.Join(root, p)
}

// jsonOffset returns the byte offset a decoding error points at. Standardize
// keeps offsets, so it is also an offset into the original file.
func jsonOffset(err error) (int64, bool) {
	var syn *json.SyntaxError
	if stderrors.As(err, &syn) {
		return syn.Offset, true
	}
	var typ *json.UnmarshalTypeError
	if stderrors.As(err, &typ) {
		return typ.Offset, true
	}
	return 0, false
}

// lineColumn converts a byte offset to a 1-based line and column.
func lineColumn(data []byte, off int64) (line, col int) {
	if off > int64(len(data)) {
		off = int64(len(data))
	}
	line, col = 1, 1
	for _, c := range data[:off] {
		if c == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
