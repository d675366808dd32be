package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siloindex/siloindex/internal/api"
	"github.com/siloindex/siloindex/internal/search"
)

// newSearchCmd creates the search command: run a hybrid query across one
// or every open silo and print the ranked results.
func newSearchCmd() *cobra.Command {
	var siloName string
	var maxResults int
	var preset string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Run a hybrid search across configured silos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			var filter []string
			if siloName != "" {
				filter = []string{siloName}
			}

			weights := search.WeightsForPreset(preset)
			engine := search.NewEngine()
			results, err := engine.Search(cmd.Context(), a.mgr.Indexes(), search.Options{
				Query:      args[0],
				SiloFilter: filter,
				MaxResults: maxResults,
				Weights:    weights,
			})
			if err != nil {
				return err
			}

			apiResults := api.FileResultsToAPI(results, weights)

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(api.SearchResponse{Results: apiResults})
			}

			out := cmd.OutOrStdout()
			for _, r := range apiResults {
				fmt.Fprintf(out, "%.4f  %s  [%s]  (%s)\n", r.Score, r.FilePath, r.SiloName, r.MatchType)
				for _, c := range r.Chunks {
					fmt.Fprintf(out, "    %v:%d-%d\n", c.SectionPath, c.StartLine, c.EndLine)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&siloName, "silo", "", "Restrict the search to one silo")
	cmd.Flags().IntVar(&maxResults, "max", search.DefaultMaxResults, "Maximum number of files to return")
	cmd.Flags().StringVar(&preset, "preset", "balanced", "Weight preset: balanced, semantic, keyword, code")

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
