package install

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vango-dev/uikit/internal/config"
	"github.com/vango-dev/uikit/internal/errors"
	"github.com/vango-dev/uikit/internal/registry"
	"github.com/vango-dev/uikit/internal/telemetry"
	"github.com/vango-dev/uikit/internal/transform"
)

// LocalRegistryName is recorded for items without provenance.
const LocalRegistryName = registry.LocalRegistry

// Action is what Add does with one file.
type Action string

const (
	ActionCreate    Action = "create"
	ActionUpdate    Action = "update"
	ActionUnchanged Action = "unchanged"

	// ActionSkipModified marks a file edited since install. It is only
	// replaced with Overwrite.
	ActionSkipModified Action = "skip-modified"
)

// FileChange is one planned or performed file write.
type FileChange struct {
	Item     string
	Registry string
	Path     string
	Action   Action

	content []byte
}

// Result describes an Add.
type Result struct {
	Resolution      *registry.Resolution
	Files           []FileChange
	Dependencies    []string
	DevDependencies []string
}

// Written returns the files whose action writes to disk.
func (r *Result) Written() []FileChange {
	var out []FileChange
	for _, f := range r.Files {
		if f.Action == ActionCreate || f.Action == ActionUpdate {
			out = append(out, f)
		}
	}
	return out
}

// Options controls an Add.
type Options struct {
	// DryRun plans without writing.
	DryRun bool

	// Overwrite replaces files edited since install.
	Overwrite bool

	// Strict fails when a dependency is missing or a cycle was cut.
	Strict bool
}

// Installer writes registry items into a project.
type Installer struct {
	cfg      *config.Config
	resolver *registry.Resolver
	pipeline *transform.Pipeline
	logger   *slog.Logger
}

// Option configures an Installer.
type Option func(*installerOptions)

type installerOptions struct {
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *installerOptions) { o.logger = l }
}

// WithMetrics sets the metrics recorder for file transforms.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *installerOptions) { o.metrics = m }
}

// New creates an Installer for the project described by cfg, resolving
// items from idx.
func New(cfg *config.Config, idx registry.Index, opts ...Option) *Installer {
	o := installerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	tcfg, transforms := ProjectTransforms(cfg)
	return &Installer{
		cfg:      cfg,
		resolver: registry.NewResolver(idx),
		pipeline: transform.NewPipeline(tcfg, transforms,
			transform.WithLogger(o.logger),
			transform.WithMetrics(o.metrics),
		),
		logger: o.logger,
	}
}

// ProjectTransforms returns the transform configuration for cfg. The
// transforms themselves decide from it whether they apply.
func ProjectTransforms(cfg *config.Config) (transform.Config, []transform.Transform) {
	return transform.Config{
			RTL:            cfg.RTL,
			Style:          cfg.Style,
			ClassFunctions: cfg.ClassFunctions,
		}, []transform.Transform{
			transform.Direction{},
			transform.RenderDelegate{},
		}
}

// Add resolves names and installs every resolved item's files,
// dependencies first.
func (in *Installer) Add(ctx context.Context, names []string, opts Options) (*Result, error) {
	res, err := in.resolver.ResolveAll(names)
	if err != nil {
		return nil, err
	}
	if opts.Strict {
		if err := strictCheck(res); err != nil {
			return nil, err
		}
	}

	out := &Result{
		Resolution:      res,
		Dependencies:    res.Dependencies(),
		DevDependencies: res.DevDependencies(),
	}
	for _, item := range res.Items {
		for _, f := range item.Files {
			change, err := in.plan(ctx, item, f, opts)
			if err != nil {
				return nil, err
			}
			out.Files = append(out.Files, change)
		}
	}

	if opts.DryRun {
		return out, nil
	}
	for _, change := range out.Written() {
		if err := writeFile(change.Path, change.content); err != nil {
			return nil, err
		}
		in.logger.DebugContext(ctx, "installed file", "item", change.Item, "path", change.Path, "action", change.Action)
	}
	return out, nil
}

func strictCheck(res *registry.Resolution) error {
	if len(res.Missing) > 0 {
		return errors.New("E112").
			WithDetail("Missing dependencies: " + strings.Join(res.Missing, ", ")).
			WithSuggestion("Add the registry that provides them to the registry list, or drop --strict")
	}
	if len(res.Cycles) > 0 {
		return errors.New("E116").
			WithDetail("Dependency cycle: " + strings.Join(res.Cycles[0], " -> "))
	}
	return nil
}

func (in *Installer) plan(ctx context.Context, item *registry.Item, f registry.File, opts Options) (FileChange, error) {
	regName := item.RegistryName()
	if regName == "" {
		regName = LocalRegistryName
	}
	target, err := TargetPath(in.cfg, item, f)
	if err != nil {
		return FileChange{}, err
	}
	change := FileChange{Item: item.Name, Registry: regName, Path: target}

	body := []byte(f.Content)
	if transformable(target) {
		out, err := in.pipeline.Source(ctx, target, body)
		if err != nil {
			return FileChange{}, fmt.Errorf("item %s file %s: %w", item.Name, f.Path, err)
		}
		body = out
	}
	content := body
	if hasHeader(target) {
		content = withHeader(regName, item.Name, item.RegistryHomepage(), body)
	}
	change.content = content

	existing, err := os.ReadFile(target)
	switch {
	case os.IsNotExist(err):
		change.Action = ActionCreate
		return change, nil
	case err != nil:
		return FileChange{}, errors.New("E132").WithDetail("Could not read " + target).Wrap(err)
	}

	if bytes.Equal(existing, content) {
		change.Action = ActionUnchanged
		return change, nil
	}

	change.Action = ActionUpdate
	if locallyModified(existing) && !opts.Overwrite {
		change.Action = ActionSkipModified
	}
	return change, nil
}

// locallyModified reports whether an existing file must not be replaced
// without Overwrite: a headed file whose body no longer matches its
// checksum, or a file uikit did not write.
func locallyModified(existing []byte) bool {
	h, body, ok := parseHeader(existing)
	if !ok {
		return true
	}
	return h.modified(body)
}

func transformable(path string) bool {
	switch filepath.Ext(path) {
	case ".tsx", ".jsx", ".ts", ".js":
		return !strings.HasSuffix(path, ".d.ts")
	}
	return false
}

// TargetPath returns where file f of item is installed. An explicit
// target is relative to the project root; otherwise the file type picks
// the alias directory.
func TargetPath(cfg *config.Config, item *registry.Item, f registry.File) (string, error) {
	if f.Target != "" {
		t := strings.TrimPrefix(f.Target, "~/")
		return filepath.Join(cfg.Dir(), filepath.FromSlash(t)), nil
	}

	typ := f.Type
	if typ == "" {
		typ = item.Type
	}
	name := filepath.FromSlash(f.Path)

	var dir string
	switch typ {
	case registry.TypeUI:
		dir = cfg.UIComponentsPath()
		if dir == "" {
			return "", errors.New("E103").
				WithSuggestion("Set aliases.ui or paths.ui in uikit.json")
		}
		name = filepath.Base(name)
	case registry.TypeHook:
		dir, name = cfg.HooksPath(), filepath.Base(name)
	case registry.TypeLib:
		dir, name = cfg.LibPath(), filepath.Base(name)
	default:
		dir, name = cfg.ComponentsPath(), stripFirstDir(name)
	}
	if dir == "" {
		dir = cfg.Dir()
	}
	return filepath.Join(dir, name), nil
}

func stripFirstDir(p string) string {
	parts := strings.SplitN(filepath.ToSlash(p), "/", 2)
	if len(parts) == 2 {
		return filepath.FromSlash(parts[1])
	}
	return p
}

func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.New("E132").WithDetail("Could not create " + filepath.Dir(path)).Wrap(err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return errors.New("E132").WithDetail("Could not write " + path).Wrap(err)
	}
	return nil
}
