package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siloindex/siloindex/internal/config"
)

// newConfigCmd creates the config command and its subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the siloctl configuration file",
	}

	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigBackupCmd())

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the resolved configuration file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file if none exists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.GetUserConfigPath()
			if config.UserConfigExists() && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote default config to %s\n", path)
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")
	return cmd
}

func newConfigBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Create a timestamped backup of the configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.BackupUserConfig()
			if err != nil {
				return err
			}
			if path == "" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "no config file to back up")
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "backed up to %s\n", path)
			return err
		},
	}
}
