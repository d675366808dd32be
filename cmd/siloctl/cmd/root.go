// Package cmd provides the CLI commands for siloctl, the local dev harness
// around the silo indexing and search engine.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/siloindex/siloindex/pkg/version"
)

// NewRootCmd creates the root command for the siloctl CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "siloctl",
		Short:   "Inspect and drive a local multi-silo document index",
		Long:    `siloctl is a thin command-line harness around the silo indexing and hybrid search engine: it reads the same TOML configuration the embedding server and watchers use, and exposes indexing, searching, and silo administration as one-shot commands.`,
		Version: version.Version,
	}
	cmd.SetVersionTemplate("siloctl version {{.Version}}\n")

	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newSiloCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newSchemaCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
