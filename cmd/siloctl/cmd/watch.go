package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/siloindex/siloindex/internal/silo"
)

// newWatchCmd creates the watch command: run an initial reconcile then
// start filesystem watchers for one or every configured silo, blocking
// until interrupted.
func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [NAME]",
		Short: "Reconcile then watch one silo, or every configured silo, for changes",
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

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			for _, s := range targets {
				if err := reconcileOne(cmd, s); err != nil {
					return err
				}
				if err := s.StartWatching(ctx); err != nil {
					return fmt.Errorf("silo %q: start watching: %w", s.Name(), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "watching %s\n", s.Name())
			}

			fmt.Fprintln(cmd.OutOrStdout(), "press ctrl-c to stop")
			<-ctx.Done()
			return nil
		},
	}

	return cmd
}
