package migrate

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"dario.cat/mergo"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/uikit/internal/errors"
	"github.com/vango-dev/uikit/internal/telemetry"
	"github.com/vango-dev/uikit/internal/transform"
)

// DefaultConcurrency is the number of files migrated at once.
const DefaultConcurrency = 8

// Plan is what the user is asked to approve.
type Plan struct {
	RunID      string
	Target     string
	Files      []string
	Transforms []string
}

// Options configures a migration run.
type Options struct {
	// Path is a file, directory or glob.
	Path string

	// Yes skips the confirmation step.
	Yes bool

	Concurrency int

	// ManualReview lists file names reported for review in addition to the
	// ones the transforms name. Only transforms implementing
	// transform.Reviewer report files.
	ManualReview []string

	// Confirm approves the plan. A nil Confirm approves every plan.
	Confirm func(Plan) (bool, error)

	Transforms []transform.Transform
	Config     transform.Config

	Logger  *slog.Logger
	Metrics *telemetry.Metrics
}

func defaultOptions() Options {
	return Options{
		Concurrency: DefaultConcurrency,
		Logger:      slog.Default(),
	}
}

// FileError is a file that could not be migrated.
type FileError struct {
	Path string
	Err  error
}

// Report summarizes a run.
type Report struct {
	RunID string

	// Declined is set when the plan was not approved. Nothing was written.
	Declined bool

	Total       int
	Transformed int
	Unchanged   int

	// Written lists the files whose content changed on disk.
	Written []string

	Failed []FileError

	// ManualReview lists discovered files that need a human look whether
	// or not they changed.
	ManualReview []string
}

// Run discovers the files, asks for confirmation, transforms every file
// and writes the ones whose output differs from their content.
//
// Failures to establish the file set are returned as errors. Failures on
// individual files are collected in the report.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if err := mergo.Merge(&opts, defaultOptions(), mergo.WithoutDereference); err != nil {
		return nil, err
	}

	rep := &Report{RunID: uuid.NewString()}
	ctx, span := telemetry.StartSpan(ctx, "migrate.run",
		attribute.String("uikit.run_id", rep.RunID),
		attribute.String("uikit.path", opts.Path),
	)
	err := run(ctx, opts, rep)
	telemetry.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	return rep, nil
}

func run(ctx context.Context, opts Options, rep *Report) error {
	files, err := Discover(opts.Path)
	if err != nil {
		return err
	}
	rep.Total = len(files)

	pipeline := transform.NewPipeline(opts.Config, opts.Transforms,
		transform.WithLogger(opts.Logger),
		transform.WithMetrics(opts.Metrics),
	)

	if !opts.Yes && opts.Confirm != nil {
		ok, err := opts.Confirm(Plan{
			RunID:      rep.RunID,
			Target:     opts.Path,
			Files:      files,
			Transforms: pipeline.Transforms(),
		})
		if err != nil {
			return err
		}
		if !ok {
			opts.Logger.InfoContext(ctx, "migration declined", "run_id", rep.RunID)
			rep.Declined = true
			return nil
		}
	}

	for _, f := range files {
		if needsReview(opts.Transforms, f, opts.ManualReview) {
			rep.ManualReview = append(rep.ManualReview, f)
		}
	}

	outcomes := make([]outcome, len(files))
	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for i, path := range files {
		g.Go(func() error {
			outcomes[i] = migrateFile(ctx, pipeline, path)
			return nil
		})
	}
	_ = g.Wait()

	for i, o := range outcomes {
		switch {
		case o.err != nil:
			rep.Failed = append(rep.Failed, FileError{Path: files[i], Err: o.err})
		case o.written:
			rep.Transformed++
			rep.Written = append(rep.Written, files[i])
		default:
			rep.Unchanged++
		}
	}
	sort.Slice(rep.Failed, func(a, b int) bool { return rep.Failed[a].Path < rep.Failed[b].Path })

	opts.Logger.InfoContext(ctx, "migration finished",
		"run_id", rep.RunID,
		"total", rep.Total,
		"transformed", rep.Transformed,
		"failed", len(rep.Failed),
	)
	return nil
}

type outcome struct {
	written bool
	err     error
}

func migrateFile(ctx context.Context, p *transform.Pipeline, path string) outcome {
	content, err := os.ReadFile(path)
	if err != nil {
		return outcome{err: errors.New("E132").WithDetail("Could not read " + path).Wrap(err)}
	}

	res := p.File(ctx, transform.File{Path: path, Content: content})
	if res.Err != nil {
		return outcome{err: res.Err}
	}
	if !res.Changed {
		return outcome{}
	}
	if err := writeFile(path, res.Output); err != nil {
		return outcome{err: err}
	}
	return outcome{written: true}
}

// writeFile replaces path keeping its permissions.
func writeFile(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.New("E132").WithDetail("Could not write " + path).Wrap(err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.New("E132").WithDetail("Could not write " + path).Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.New("E132").WithDetail("Could not write " + path).Wrap(err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		_ = os.Remove(tmpName)
		return errors.New("E132").WithDetail("Could not write " + path).Wrap(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return errors.New("E132").WithDetail("Could not replace " + path).Wrap(err)
	}
	return nil
}

func needsReview(transforms []transform.Transform, path string, extra []string) bool {
	for _, t := range transforms {
		if r, ok := t.(transform.Reviewer); ok && r.NeedsReview(path, extra) {
			return true
		}
	}
	return false
}
