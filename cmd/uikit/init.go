package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/uikit/internal/config"
	"github.com/vango-dev/uikit/internal/errors"
)

func initCmd(a *app) *cobra.Command {
	var (
		style string
		rtl   bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create uikit.json",
		Long: `Create uikit.json in the current directory with default aliases, and
an empty registries.json when there is none.

Examples:
  uikit init
  uikit init --style base-nova --rtl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(a.dir, config.ConfigFileName)
			if config.Exists(a.dir) && !force {
				return errors.New("E102").
					WithDetail(path + " already exists").
					WithSuggestion("Use --force to overwrite it")
			}

			cfg := config.New()
			cfg.Style = style
			cfg.RTL = rtl
			if err := cfg.SaveTo(path); err != nil {
				return err
			}

			a.success("Created %s", path)

			list := cfg.RegistriesPath()
			if _, err := os.Stat(list); os.IsNotExist(err) {
				if err := os.WriteFile(list, []byte("[]\n"), 0644); err != nil {
					return errors.New("E102").WithDetail("Could not write " + list).Wrap(err)
				}
				a.success("Created %s", list)
			}
			a.info("Style: %s", cfg.Style)
			if rtl {
				a.info("Right-to-left layouts enabled")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&style, "style", config.DefaultStyle, "Style variant (e.g. new-york, base-nova)")
	cmd.Flags().BoolVar(&rtl, "rtl", false, "Install components with logical direction classes")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing uikit.json")

	return cmd
}
