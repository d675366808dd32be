package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// newStatusCmd creates the status command: print one silo's lifecycle
// state, counts, and in-flight progress.
func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status NAME",
		Short: "Show one silo's lifecycle state and index counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			s, ok := a.mgr.Get(args[0])
			if !ok {
				return fmt.Errorf("silo %q is not open (is it sleeping?)", args[0])
			}
			st := s.Status(cmd.Context())

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "name:        %s\n", st.Name)
			fmt.Fprintf(out, "state:       %s\n", st.State)
			fmt.Fprintf(out, "files:       %d\n", st.FileCount)
			fmt.Fprintf(out, "chunks:      %d\n", st.ChunkCount)
			fmt.Fprintf(out, "db size:     %d bytes\n", st.DBSizeBytes)
			fmt.Fprintf(out, "db path:     %s\n", st.DBPath)
			fmt.Fprintf(out, "model:       %s\n", st.ModelName)
			if st.ModelMismatch {
				fmt.Fprintln(out, "model mismatch: the configured model differs from the one the database was built with")
			}
			if st.ErrorMessage != "" {
				fmt.Fprintf(out, "error:       %s\n", st.ErrorMessage)
			}
			if st.Progress != nil {
				fmt.Fprintf(out, "progress:    [%s] %d/%d\n", st.Progress.Phase, st.Progress.Current, st.Progress.Total)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
