package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siloindex/siloindex/internal/api"
)

// newSchemaCmd creates the schema command: print the JSON Schema a future
// MCP façade would register for a given request shape.
func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema {search|check-connection}",
		Short: "Print the JSON Schema for a request type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var schema interface{}
			var err error

			switch args[0] {
			case "search":
				schema, err = api.SearchRequestSchema()
			case "check-connection":
				schema, err = api.CheckConnectionRequestSchema()
			default:
				return fmt.Errorf("unknown schema %q (want search or check-connection)", args[0])
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(schema)
		},
	}

	return cmd
}
