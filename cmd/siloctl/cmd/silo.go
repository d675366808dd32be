package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siloindex/siloindex/internal/api"
	"github.com/siloindex/siloindex/internal/config"
)

// newSiloCmd creates the silo administration command group: list, create,
// delete, disconnect, rename, rebuild.
func newSiloCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "silo",
		Short: "Administer configured silos",
	}

	cmd.AddCommand(newSiloListCmd())
	cmd.AddCommand(newSiloCreateCmd())
	cmd.AddCommand(newSiloDeleteCmd())
	cmd.AddCommand(newSiloDisconnectCmd())
	cmd.AddCommand(newSiloRenameCmd())
	cmd.AddCommand(newSiloRebuildCmd())

	return cmd
}

func newSiloListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every configured silo and its status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			var summaries []api.SiloSummary
			for _, s := range a.mgr.List() {
				sc := a.cfg.Silos[s.Name()]
				summary := api.SiloSummaryFromStatus(s.Status(cmd.Context()), sc.Directories, sc.Sleeping, sc.Description, sc.Color, sc.Icon)
				summaries = append(summaries, summary)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(api.ListSilosResponse{Silos: summaries})
			}

			for _, s := range summaries {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-10s files=%-6d chunks=%-6d model=%s\n", s.Name, s.State, s.FileCount, s.ChunkCount, s.ModelName)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newSiloCreateCmd() *cobra.Command {
	var dirs []string
	var dbPath string
	var model string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Add a new silo to the configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			cfg, err := config.LoadUserConfig()
			if err != nil {
				return err
			}
			if _, exists := cfg.Silos[name]; exists {
				return fmt.Errorf("silo %q already exists", name)
			}
			if len(dirs) == 0 {
				return fmt.Errorf("at least one --dir is required")
			}
			if dbPath == "" {
				dbPath = name + ".db"
			}

			cfg.Silos[name] = config.SiloConfig{Directories: dirs, DBPath: dbPath, Model: model}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.Save(config.GetUserConfigPath()); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "added silo %q\n", name)
			return err
		},
	}

	cmd.Flags().StringArrayVar(&dirs, "dir", nil, "Source directory to index (repeatable)")
	cmd.Flags().StringVar(&dbPath, "db-path", "", "Database path, relative to the user-data directory or absolute")
	cmd.Flags().StringVar(&model, "model", "", "Embedding model override for this silo")
	return cmd
}

func newSiloDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Stop a silo and remove its database and configuration entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.mgr.Delete(cmd.Context(), name); err != nil {
				return err
			}
			delete(a.cfg.Silos, name)
			if err := a.cfg.Save(config.GetUserConfigPath()); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted silo %q\n", name)
			return err
		},
	}
}

func newSiloDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect NAME",
		Short: "Stop a silo without deleting its database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.mgr.Disconnect(name); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "disconnected silo %q\n", name)
			return err
		},
	}
}

func newSiloRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename OLD_NAME NEW_NAME",
		Short: "Rename a running silo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldName, newName := args[0], args[1]
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.mgr.Rename(oldName, newName); err != nil {
				return err
			}
			sc := a.cfg.Silos[oldName]
			delete(a.cfg.Silos, oldName)
			a.cfg.Silos[newName] = sc
			if err := a.cfg.Save(config.GetUserConfigPath()); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "renamed silo %q to %q\n", oldName, newName)
			return err
		},
	}
}

func newSiloRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild NAME",
		Short: "Delete and fully reindex a silo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			embedder, queryPrefix, documentPrefix, err := a.embedderFor(cmd.Context(), name)
			if err != nil {
				return err
			}

			s, err := a.mgr.Rebuild(cmd.Context(), name, embedder, queryPrefix, documentPrefix)
			if err != nil {
				return err
			}

			if err := s.Reconcile(cmd.Context(), func() bool { return false }, nil); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "rebuilt silo %q\n", name)
			return err
		},
	}
}
