package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vango-dev/uikit/internal/install"
	"github.com/vango-dev/uikit/internal/registry"
)

func addCmd(a *app) *cobra.Command {
	var (
		opts    install.Options
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "add <names...>",
		Short: "Add components to your project",
		Long: `Add registry items to your project.

Items are copied as source code that you own. Registry dependencies are
installed first. Files edited since they were installed are skipped
unless --overwrite is given.

Names may be scoped to one registry as "@registry/name". An argument that
is a URL or a path to a .json file is fetched as a standalone item document.

Examples:
  uikit add button dialog
  uikit add @acme/button --dry-run
  uikit add https://example.com/r/date-picker.json
  uikit add login --strict --refresh`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			idx, err := a.index(ctx, cfg, refresh)
			if err != nil {
				return err
			}
			idx, names, err := a.withItemRefs(ctx, idx, args)
			if err != nil {
				return err
			}

			in := install.New(cfg, idx,
				install.WithLogger(a.logger),
				install.WithMetrics(a.metrics),
			)
			res, err := in.Add(ctx, names, opts)
			if err != nil {
				return err
			}

			a.printAddResult(cfg.Dir(), res, opts.DryRun)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Fail on missing dependencies and dependency cycles")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the plan without writing files")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "Replace files edited since they were installed")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Fetch the registries instead of using the cached index")

	return cmd
}

// withItemRefs fetches the standalone item documents among args and puts
// them in front of idx, so the scoped names it returns pick them first.
func (a *app) withItemRefs(ctx context.Context, idx *registry.MergedIndex, args []string) (*registry.MergedIndex, []string, error) {
	names := make([]string, 0, len(args))
	var fetched []*registry.Item
	for _, arg := range args {
		if !registry.IsItemRef(arg) {
			names = append(names, arg)
			continue
		}
		item, err := a.fetcher().FetchItem(ctx, arg)
		if err != nil {
			return nil, nil, err
		}
		a.logger.Debug("fetched item document", "url", arg, "name", item.Name)
		fetched = append(fetched, item)
		names = append(names, "@"+item.RegistryName()+"/"+item.Name)
	}
	if len(fetched) == 0 {
		return idx, names, nil
	}
	return &registry.MergedIndex{
		Items:   append(fetched, idx.Items...),
		Sources: idx.Sources,
	}, names, nil
}

func (a *app) printAddResult(root string, res *install.Result, dryRun bool) {
	for _, missing := range res.Resolution.Missing {
		a.warn("Dependency %s not found in any registry", missing)
	}
	for _, ref := range res.Resolution.Remote {
		a.warn("Dependency %s is a standalone item; add it with 'uikit add %s'", ref, ref)
	}
	for _, cycle := range res.Resolution.Cycles {
		a.warn("Dependency cycle: %s", strings.Join(cycle, " -> "))
	}

	for _, f := range res.Files {
		rel, err := filepath.Rel(root, f.Path)
		if err != nil {
			rel = f.Path
		}
		label := color.HiBlackString("(%s/%s)", f.Registry, f.Item)
		switch f.Action {
		case install.ActionCreate:
			a.success("%s %s", rel, label)
		case install.ActionUpdate:
			a.success("%s %s", rel, color.CyanString("updated"))
		case install.ActionSkipModified:
			a.warn("%s was modified locally, skipped (use --overwrite)", rel)
		default:
			a.info("%s unchanged", rel)
		}
	}

	if dryRun {
		a.info("Dry run: %d file(s) would be written", len(res.Written()))
	} else {
		a.success("%d file(s) written", len(res.Written()))
	}

	if len(res.Dependencies) > 0 {
		a.info("Install dependencies: %s", color.CyanString(strings.Join(res.Dependencies, " ")))
	}
	if len(res.DevDependencies) > 0 {
		a.info("Install dev dependencies: %s", color.CyanString(strings.Join(res.DevDependencies, " ")))
	}
}
