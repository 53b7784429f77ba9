package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vango-dev/uikit/internal/config"
	"github.com/vango-dev/uikit/internal/errors"
	"github.com/vango-dev/uikit/internal/migrate"
	"github.com/vango-dev/uikit/internal/transform"
)

type migrateFlags struct {
	yes          bool
	concurrency  int
	manualReview []string
}

func migrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Rewrite installed components in place",
		Long: `Rewrite installed components in place.

Commands:
  rtl        Replace physical direction classes with logical ones
  render     Replace asChild with render delegates

Without a path the configured UI components directory is migrated.`,
	}

	cmd.AddCommand(
		migrateRTLCmd(a),
		migrateRenderCmd(a),
	)
	return cmd
}

func (f *migrateFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", migrate.DefaultConcurrency, "Files migrated at once")
}

// registerReview adds the flag extending the manual-review list, which
// only direction migrations report.
func (f *migrateFlags) registerReview(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.manualReview, "manual-review", nil, "Extra file names that need manual review")
}

func migrateRTLCmd(a *app) *cobra.Command {
	var flags migrateFlags

	cmd := &cobra.Command{
		Use:   "rtl [path]",
		Short: "Replace physical direction classes with logical ones",
		Long: `Rewrite utility classes such as ml-2, pr-4 and text-left to their
logical forms (ms-2, pe-4, text-start) and record rtl: true in uikit.json.

The path may be a file, a directory or a glob.

Examples:
  uikit migrate rtl
  uikit migrate rtl "src/**/*.tsx" --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			tcfg := transform.Config{
				RTL:            true,
				Style:          cfg.Style,
				ClassFunctions: cfg.ClassFunctions,
			}
			rep, err := a.runMigration(cmd, cfg, args, flags, tcfg, transform.Direction{})
			if err != nil || rep.Declined {
				return err
			}

			if !cfg.RTL {
				if err := cfg.SetRTL(true); err != nil {
					return err
				}
				a.success("Recorded rtl: true in %s", cfg.Path())
			}
			return nil
		},
	}

	flags.register(cmd)
	flags.registerReview(cmd)
	return cmd
}

func migrateRenderCmd(a *app) *cobra.Command {
	var flags migrateFlags

	cmd := &cobra.Command{
		Use:   "render [path]",
		Short: "Replace asChild with render delegates",
		Long: `Rewrite <Wrapper asChild><Child .../></Wrapper> to
<Wrapper render={<Child ... />} />. Only styles starting with "base-" use
render delegates; other styles are left unchanged.

Examples:
  uikit migrate render
  uikit migrate render components/ui/button.tsx --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if !strings.HasPrefix(cfg.Style, transform.BaseStylePrefix) {
				a.warn("Style %s does not use render delegates; nothing will change", cfg.Style)
			}

			tcfg := transform.Config{
				RTL:            cfg.RTL,
				Style:          cfg.Style,
				ClassFunctions: cfg.ClassFunctions,
			}
			_, err = a.runMigration(cmd, cfg, args, flags, tcfg, transform.RenderDelegate{})
			return err
		},
	}

	flags.register(cmd)
	return cmd
}

func (a *app) runMigration(cmd *cobra.Command, cfg *config.Config, args []string, flags migrateFlags, tcfg transform.Config, t transform.Transform) (*migrate.Report, error) {
	target, err := a.migrationTarget(cfg, args)
	if err != nil {
		return nil, err
	}

	rep, err := migrate.Run(cmd.Context(), migrate.Options{
		Path:         target,
		Yes:          flags.yes,
		Concurrency:  flags.concurrency,
		ManualReview: append(append([]string(nil), cfg.ManualReview...), flags.manualReview...),
		Confirm:      a.confirm,
		Transforms:   []transform.Transform{t},
		Config:       tcfg,
		Logger:       a.logger,
		Metrics:      a.metrics,
	})
	if err != nil {
		return nil, err
	}

	a.printReport(rep)
	return rep, nil
}

// migrationTarget returns the path argument, or the configured UI
// components directory.
func (a *app) migrationTarget(cfg *config.Config, args []string) (string, error) {
	if len(args) == 1 {
		return a.resolvePath(args[0]), nil
	}
	dir := cfg.UIComponentsPath()
	if dir == "" {
		return "", errors.New("E103").
			WithSuggestion("Pass a path, or set aliases.ui or paths.ui in uikit.json")
	}
	return dir, nil
}

// confirm shows the plan and reads a y/N answer.
func (a *app) confirm(p migrate.Plan) (bool, error) {
	fmt.Fprintf(a.out, "%s %s\n", color.CyanString("Target:"), p.Target)
	fmt.Fprintf(a.out, "%s %s\n", color.CyanString("Transforms:"), strings.Join(p.Transforms, ", "))
	fmt.Fprintf(a.out, "%s %d\n", color.CyanString("Files:"), len(p.Files))
	for _, f := range p.Files {
		fmt.Fprintf(a.out, "  %s\n", color.HiBlackString(f))
	}
	fmt.Fprint(a.out, "Proceed? [y/N] ")
	return readYes(a.in)
}

// readYes reads one line and reports whether it is an explicit yes. End
// of input counts as no.
func readYes(r io.Reader) (bool, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (a *app) printReport(rep *migrate.Report) {
	if rep.Declined {
		a.info("Migration cancelled; no files were changed")
		return
	}

	for _, path := range rep.Written {
		a.success("%s", path)
	}
	for _, f := range rep.Failed {
		a.errorMsg("%s: %v", f.Path, f.Err)
	}
	a.info("%d file(s): %d transformed, %d unchanged, %d failed",
		rep.Total, rep.Transformed, rep.Unchanged, len(rep.Failed))

	if len(rep.ManualReview) > 0 {
		a.warn("These files need a manual review:")
		for _, path := range rep.ManualReview {
			a.info("%s", path)
		}
	}
}
