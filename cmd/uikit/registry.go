package main

import (
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/vango-dev/uikit/internal/errors"
	"github.com/vango-dev/uikit/internal/registry"
	"github.com/vango-dev/uikit/internal/registryserver"
)

func registryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Build, search and serve the merged registry index",
		Long: `Build, search and serve the merged registry index.

Commands:
  build      Fetch every registry and write the merged index
  search     Search the merged index
  list       List the merged items
  serve      Serve the merged index over HTTP`,
	}

	cmd.AddCommand(
		registryBuildCmd(a),
		registrySearchCmd(a),
		registryListCmd(a),
		registryServeCmd(a),
	)
	return cmd
}

// cacheDir returns the merged index directory of the project, or the
// runtime cache dir under --dir when there is no project.
func (a *app) cacheDir() (string, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		if errors.HasCode(err, "E100") {
			return a.resolvePath(a.rt.CacheDir), nil
		}
		return "", err
	}
	return cfg.CachePath(a.rt), nil
}

// registrySources returns the cache directory and the registry URL list.
// An explicit list is resolved against --dir and works without uikit.json.
func (a *app) registrySources(urlsFile string) (dir, list string, err error) {
	cfg, err := a.loadConfig()
	if err != nil {
		if urlsFile == "" || !errors.HasCode(err, "E100") {
			return "", "", err
		}
		return a.resolvePath(a.rt.CacheDir), a.resolvePath(urlsFile), nil
	}
	list = cfg.RegistriesPath()
	if urlsFile != "" {
		list = a.resolvePath(urlsFile)
	}
	return cfg.CachePath(a.rt), list, nil
}

func registryBuildCmd(a *app) *cobra.Command {
	var (
		urlsFile string
		publish  string
		s3Opts   registry.S3ClientOptions
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Fetch every registry and write the merged index",
		Long: `Fetch every registry in the URL list, merge them and write
registry.json and search-index.json to the cache directory.

Unreachable or invalid registries are reported and skipped.

Examples:
  uikit registry build
  uikit registry build --urls registries.json --publish s3://bucket/uikit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runID := uuid.NewString()
			logger := a.logger.With("run_id", runID)

			dir, listPath, err := a.registrySources(urlsFile)
			if err != nil {
				return err
			}
			urls, err := registry.ReadURLList(listPath)
			if err != nil {
				return err
			}
			logger.Info("building registry index", "registries", len(urls))

			idx := a.fetchIndex(ctx, urls)
			search := registry.BuildSearchIndex(idx.Items)

			sinks := []registry.Sink{&registry.FileSink{Dir: dir}}
			if publish != "" {
				bucket, prefix, err := registry.ParseS3URL(publish)
				if err != nil {
					return errors.New("E131").WithDetail(err.Error())
				}
				sinks = append(sinks, registry.NewS3Sink(registry.NewS3Client(s3Opts), bucket, prefix))
			}
			for _, sink := range sinks {
				if err := sink.Write(ctx, idx, search); err != nil {
					return err
				}
			}
			logger.Info("registry index written", "items", len(idx.Items), "dir", dir)

			if err := renderSources(a.out, idx.Sources); err != nil {
				return err
			}
			a.success("%d item(s) from %d registr%s written to %s",
				len(idx.Items), len(idx.Sources), plural(len(idx.Sources), "y", "ies"), dir)
			if publish != "" {
				a.success("Published to %s", publish)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&urlsFile, "urls", "", "Registry URL list (default: registries from uikit.json)")
	cmd.Flags().StringVar(&publish, "publish", "", "Also upload the artifacts to s3://bucket/prefix")
	cmd.Flags().StringVar(&s3Opts.Region, "s3-region", "", "S3 region (default: AWS_REGION)")
	cmd.Flags().StringVar(&s3Opts.Endpoint, "s3-endpoint", "", "S3-compatible endpoint URL")
	cmd.Flags().BoolVar(&s3Opts.UsePathStyle, "s3-path-style", false, "Use path-style S3 addressing")

	return cmd
}

func renderSources(w io.Writer, sources []registry.Source) error {
	table := tablewriter.NewWriter(w)
	table.Header("Registry", "URL", "Items", "Status")
	for _, src := range sources {
		status := color.GreenString("ok")
		if src.Error != "" {
			status = color.RedString(src.Error)
		}
		if err := table.Append([]string{src.Name, src.URL, strconv.Itoa(src.Items), status}); err != nil {
			return err
		}
	}
	return table.Render()
}

func registrySearchCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the merged index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.cacheDir()
			if err != nil {
				return err
			}
			idx, err := registry.LoadSearchIndex(filepath.Join(dir, registry.SearchIndexFileName))
			if err != nil {
				return err
			}

			hits := idx.Search(strings.Join(args, " "), limit)
			if len(hits) == 0 {
				a.info("No items match %q", strings.Join(args, " "))
				return nil
			}

			table := tablewriter.NewWriter(a.out)
			table.Header("Name", "Type", "Registry", "Description")
			for _, h := range hits {
				if err := table.Append([]string{h.Name, h.Type, h.RegistryName, h.Description}); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", registryserver.DefaultSearchLimit, "Maximum number of results (0 for all)")
	return cmd
}

func registryListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the merged items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.cacheDir()
			if err != nil {
				return err
			}
			idx, err := registry.LoadMergedIndex(dir)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(a.out)
			table.Header("Name", "Type", "Registry", "Dependencies")
			for _, item := range idx.Items {
				row := []string{item.Name, item.Type.Short(), item.RegistryName(), strings.Join(item.RegistryDependencies, ", ")}
				if err := table.Append(row); err != nil {
					return err
				}
			}
			if err := table.Render(); err != nil {
				return err
			}
			a.info("%d item(s)", len(idx.Items))
			return nil
		},
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
