package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vango-dev/uikit/internal/config"
	"github.com/vango-dev/uikit/internal/errors"
	"github.com/vango-dev/uikit/internal/registry"
	"github.com/vango-dev/uikit/internal/telemetry"
)

// app is the state shared by every command of one invocation.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	dir   string
	debug bool

	// errorFormat is how main reports a failed command.
	errorFormat string

	v       *viper.Viper
	rt      config.Runtime
	logger  *slog.Logger
	reg     *prometheus.Registry
	metrics *telemetry.Metrics
}

func (a *app) setup(cmd *cobra.Command) error {
	a.v = config.NewViper()
	if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}
	a.rt = config.LoadRuntime(a.v)
	if !errors.ValidOutput(a.rt.ErrorFormat) {
		return errors.Newf(errors.CategoryCLI, "invalid error format %q", a.rt.ErrorFormat).
			WithSuggestion("Use pretty, compact or json")
	}
	a.errorFormat = a.rt.ErrorFormat
	if a.rt.NoColor || a.errorFormat == errors.OutputJSON {
		errors.DisableColors()
	}
	if a.debug {
		a.rt.LogLevel = slog.LevelDebug
	}

	a.logger = telemetry.NewLogger(a.rt.LogLevel, a.errOut)
	a.reg = prometheus.NewRegistry()
	a.metrics = telemetry.NewMetrics(a.reg)
	return nil
}

func (a *app) finish() error {
	if a.rt.MetricsFile == "" {
		return nil
	}
	return telemetry.WriteFile(a.reg, a.rt.MetricsFile)
}

// loadConfig finds uikit.json in the working directory or a parent.
func (a *app) loadConfig() (*config.Config, error) {
	root, err := config.FindProjectRoot(a.dir)
	if err != nil {
		return nil, err
	}
	return config.Load(root)
}

// resolvePath makes p relative to the --dir directory.
func (a *app) resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.dir, p)
}

func (a *app) fetcher() *registry.Fetcher {
	return registry.NewFetcher(
		registry.WithTimeout(a.rt.FetchTimeout),
		registry.WithRetries(a.rt.FetchRetries),
		registry.WithConcurrency(a.rt.FetchConcurrency),
		registry.WithLogger(a.logger),
		registry.WithMetrics(a.metrics),
	)
}

// fetchIndex fetches every URL and merges the results. Unreachable
// registries are kept as degraded sources.
func (a *app) fetchIndex(ctx context.Context, urls []string) *registry.MergedIndex {
	idx := registry.Merge(a.fetcher().FetchAll(ctx, urls))
	a.metrics.RecordItems(len(idx.Items))
	return idx
}

// index returns the cached merged index, fetching the configured registry
// list when the cache is missing or refresh is set. Builtin items are always
// appended.
func (a *app) index(ctx context.Context, cfg *config.Config, refresh bool) (*registry.MergedIndex, error) {
	var idx *registry.MergedIndex
	if !refresh {
		cached, err := registry.LoadMergedIndex(cfg.CachePath(a.rt))
		if err == nil {
			idx = cached
		} else {
			a.logger.Debug("no cached registry index", "error", err)
		}
	}
	if idx == nil {
		urls, err := registry.ReadURLList(cfg.RegistriesPath())
		if err != nil {
			return nil, err
		}
		idx = a.fetchIndex(ctx, urls)
		if err := a.persist(ctx, cfg, idx); err != nil {
			return nil, err
		}
	}
	return registry.WithBuiltin(idx)
}

func (a *app) persist(ctx context.Context, cfg *config.Config, idx *registry.MergedIndex) error {
	return a.persistTo(ctx, cfg.CachePath(a.rt), idx)
}

// persistTo writes the merged index and its search index into dir.
func (a *app) persistTo(ctx context.Context, dir string, idx *registry.MergedIndex) error {
	sink := &registry.FileSink{Dir: dir}
	return sink.Write(ctx, idx, registry.BuildSearchIndex(idx.Items))
}
