package transform

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/uikit/internal/errors"
	"github.com/vango-dev/uikit/internal/markup"
	"github.com/vango-dev/uikit/internal/telemetry"
)

// DirectionMode selects how the direction transform rewrites tokens.
type DirectionMode string

const (
	// Logical replaces physical left/right tokens with start/end tokens.
	Logical DirectionMode = "logical"

	// Mirror swaps left and right. Applying it twice restores the input.
	Mirror DirectionMode = "mirror"
)

// Config is the project configuration a transform may read.
type Config struct {
	// RTL enables the direction transform.
	RTL bool

	// Direction selects the direction rewrite; empty means Logical.
	Direction DirectionMode

	// Style is the registry style variant, e.g. "new-york" or "base-nova".
	Style string

	// ClassFunctions are extra helpers whose string arguments are class
	// lists, in addition to DefaultClassFunctions.
	ClassFunctions []string

	// NonInteractive are extra tags that need the native-behavior
	// override when used as a render delegate.
	NonInteractive []string
}

// Transform is a rewrite pass over a parsed source. A transform that has
// nothing to change returns its input tree.
type Transform interface {
	Name() string
	Apply(tree *markup.Tree, cfg Config) (*markup.Tree, error)
}

// Reviewer is implemented by transforms that know which files their
// rewrite cannot handle safely.
type Reviewer interface {
	NeedsReview(path string, extra []string) bool
}

// Pipeline runs transforms in order over sources.
type Pipeline struct {
	cfg         Config
	transforms  []Transform
	concurrency int
	logger      *slog.Logger
	metrics     *telemetry.Metrics
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithConcurrency bounds the number of files transformed at once.
func WithConcurrency(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *telemetry.Metrics) PipelineOption {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// NewPipeline creates a pipeline running transforms in the given order.
func NewPipeline(cfg Config, transforms []Transform, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		cfg:         cfg,
		transforms:  transforms,
		concurrency: 8,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Transforms returns the names of the configured transforms.
func (p *Pipeline) Transforms() []string {
	names := make([]string, len(p.transforms))
	for i, t := range p.transforms {
		names[i] = t.Name()
	}
	return names
}

// Source parses src, runs every transform and returns the new source.
// Parse failures are E120 and transform failures E121.
func (p *Pipeline) Source(ctx context.Context, name string, src []byte) ([]byte, error) {
	if len(p.transforms) == 0 {
		return src, nil
	}

	_, span := telemetry.StartSpan(ctx, "transform.file", attribute.String("uikit.file", name))
	out, err := p.run(name, src)
	telemetry.EndSpan(span, err)
	return out, err
}

func (p *Pipeline) run(name string, src []byte) ([]byte, error) {
	tree, err := markup.Parse(name, src)
	if err != nil {
		return nil, errors.FromError(err, "E120")
	}
	for _, t := range p.transforms {
		next, err := t.Apply(tree, p.cfg)
		if err != nil {
			if errors.HasCode(err, "E120") {
				return nil, err
			}
			return nil, errors.New("E121").
				WithDetail(fmt.Sprintf("%s: %s transform failed", name, t.Name())).
				Wrap(err)
		}
		tree = next
	}
	return tree.Src, nil
}

// File is a source to transform.
type File struct {
	Path    string
	Content []byte
}

// Result is the outcome of transforming one file. Output equals the input
// when nothing changed or Err is set.
type Result struct {
	Path    string
	Output  []byte
	Changed bool
	Err     error
}

// Files transforms every file. A file that fails to parse or transform
// is reported in its Result and does not affect the others.
func (p *Pipeline) Files(ctx context.Context, files []File) []Result {
	results := make([]Result, len(files))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, f := range files {
		g.Go(func() error {
			results[i] = p.File(ctx, f)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// File transforms one file.
func (p *Pipeline) File(ctx context.Context, f File) Result {
	out, err := p.Source(ctx, f.Path, f.Content)
	if err != nil {
		p.logger.DebugContext(ctx, "transform failed", "file", f.Path, "error", err)
		p.metrics.RecordTransform(telemetry.ResultFailed)
		return Result{Path: f.Path, Output: f.Content, Err: err}
	}
	changed := string(out) != string(f.Content)
	if changed {
		p.metrics.RecordTransform(telemetry.ResultChanged)
	} else {
		p.metrics.RecordTransform(telemetry.ResultUnchanged)
	}
	return Result{Path: f.Path, Output: out, Changed: changed}
}
