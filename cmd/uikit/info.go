package main

import (
	"path/filepath"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/vango-dev/uikit/internal/install"
)

func infoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "List installed components",
		Long: `List the files installed by uikit add, with the registry each came
from and whether it was edited since.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			files, err := install.ListInstalled(cfg)
			if err != nil {
				return err
			}

			a.info("Config: %s", cfg.Path())
			a.info("Style:  %s", cfg.Style)
			a.info("RTL:    %t", cfg.RTL)
			if len(files) == 0 {
				a.info("No installed components")
				return nil
			}

			table := tablewriter.NewWriter(a.out)
			table.Header("File", "Item", "Registry", "Status")
			for _, f := range files {
				rel, err := filepath.Rel(cfg.Dir(), f.Path)
				if err != nil {
					rel = f.Path
				}
				status := "pristine"
				if f.Modified {
					status = color.YellowString("modified")
				}
				if err := table.Append([]string{rel, f.Item, f.Registry, status}); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}
