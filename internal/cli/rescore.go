package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRescoreCmd recomputes breakdowns and feedback for users without touching history.
func NewRescoreCmd(configPath *string) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "rescore USER_ID [USER_ID...]",
		Short: "Recompute scores and feedback of every completed session of the given users",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			if workers < 1 {
				workers = rt.cfg.RescoreWorkers()
			}
			for _, userID := range args {
				report, err := rt.service.RescoreUser(cmd.Context(), userID, workers)
				if err != nil {
					return fmt.Errorf("rescore %s: %w", userID, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: rescored %d, skipped %d\n", userID, report.Rescored, len(report.Skipped))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "sessions rescored in parallel (defaults to scoring.rescore_workers)")
	return cmd
}
