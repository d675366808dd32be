package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siloindex/siloindex/internal/reconcile"
	"github.com/siloindex/siloindex/internal/silo"
)

// newIndexCmd creates the index command: run a single reconcile pass over
// one or every configured silo.
func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [NAME]",
		Short: "Reconcile one silo, or every configured silo, against disk",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			var targets []*silo.Silo
			if len(args) == 1 {
				s, ok := a.mgr.Get(args[0])
				if !ok {
					return fmt.Errorf("silo %q is not open (is it sleeping?)", args[0])
				}
				targets = []*silo.Silo{s}
			} else {
				targets = a.mgr.List()
			}

			for _, s := range targets {
				if err := reconcileOne(cmd, s); err != nil {
					return err
				}
			}
			return nil
		},
	}

	return cmd
}

// reconcileOne runs a full reconcile on s, printing phase transitions.
func reconcileOne(cmd *cobra.Command, s *silo.Silo) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "indexing %s...\n", s.Name())

	err := s.Reconcile(cmd.Context(), func() bool { return false }, func(p reconcile.Progress) {
		if p.File != "" {
			fmt.Fprintf(out, "  [%s] %d/%d %s\n", p.Phase, p.Current, p.Total, p.File)
		}
	})
	if err != nil {
		return fmt.Errorf("silo %q: %w", s.Name(), err)
	}

	fmt.Fprintf(out, "%s: done\n", s.Name())
	return nil
}
