package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ResetCmd returns the reset command
func ResetCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reset [service]",
		Short: "Manually reset a service's circuit to closed",
		Long: `Overwrite a service's circuit record with a closed, zero-failure
record. Use this after fixing the underlying problem by hand, e.g. after
re-authenticating a cloud account. Safe to run at any time, including
while a scheduled sync is in flight.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("provide a service id or --all")
			}

			app, err := buildApp()
			if err != nil {
				return err
			}

			if all {
				if err := app.breaker.ResetAll(); err != nil {
					return fmt.Errorf("resetting circuits: %w", err)
				}
				fmt.Println("All circuits reset.")
				return nil
			}

			if err := app.breaker.Reset(args[0]); err != nil {
				return fmt.Errorf("resetting circuit: %w", err)
			}
			fmt.Printf("Circuit for %s reset.\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "reset every known service")
	return cmd
}
