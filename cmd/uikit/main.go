package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vango-dev/uikit/internal/config"
	"github.com/vango-dev/uikit/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); code != 0 {
		stop()
		os.Exit(code)
	}
}

// run executes one command line and reports a failure on errOut in the
// selected error format.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	a := &app{in: in, out: out, errOut: errOut}
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		errors.Fprint(errOut, err, a.errorFormat)
		return 1
	}
	return 0
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	return (&app{in: in, out: out, errOut: errOut}).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "uikit",
		Short: "Install and migrate UI components from shadcn-style registries",
		Long: `uikit installs UI components from one or more registries as source
code you own, and migrates installed components in place.

  • Registries are merged into one index with per-item provenance
  • Registry dependencies are resolved depth first
  • Installed files are rewritten for right-to-left layouts and for
    render-delegate component libraries`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.finish()
		},
	}
	rootCmd.SetIn(a.in)
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errOut)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.dir, "dir", "C", ".", "Run as if uikit was started in this directory")
	pf.Duration(config.KeyFetchTimeout, config.DefaultFetchTimeout, "Timeout for a single registry fetch")
	pf.Int(config.KeyFetchRetries, 0, "Retries for a failed registry fetch")
	pf.Int(config.KeyFetchConcurrency, config.DefaultFetchConcurrency, "Registries fetched at once")
	pf.String(config.KeyCacheDir, config.DefaultCacheDir, "Merged registry cache directory, relative to the project root")
	pf.String(config.KeyLogLevel, "info", "Log level (debug, info, warn, error)")
	pf.String(config.KeyMetricsFile, "", "Write Prometheus metrics to this file when the command ends")
	pf.String(config.KeyErrorFormat, errors.OutputPretty, "How a failed command is reported (pretty, compact, json)")
	pf.Bool(config.KeyNoColor, false, "Disable colored output")
	pf.BoolVar(&a.debug, "debug", false, "Shorthand for --log-level=debug")

	rootCmd.AddCommand(
		initCmd(a),
		addCmd(a),
		registryCmd(a),
		migrateCmd(a),
		infoCmd(a),
		versionCmd(a),
	)
	return rootCmd
}

// success prints a success message.
func (a *app) success(format string, args ...any) {
	fmt.Fprintf(a.out, "%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func (a *app) info(format string, args ...any) {
	fmt.Fprintf(a.out, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func (a *app) warn(format string, args ...any) {
	fmt.Fprintf(a.out, "%s %s\n", color.YellowString("⚠"), fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func (a *app) errorMsg(format string, args ...any) {
	fmt.Fprintf(a.errOut, "%s %s\n", color.RedString("✗"), fmt.Sprintf(format, args...))
}
