package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/angeloszaimis/syncguard/internal/circuitbreaker"
)

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the circuit state of every known service",
		Long: `Display the persisted circuit breaker table.

An open circuit means the service is being protected from pointless
retries; the last classified error type explains why. Services sync
again automatically once their reset timeout elapses.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}

			records, err := app.breaker.Status()
			if err != nil {
				return fmt.Errorf("reading circuit state: %w", err)
			}

			if len(records) == 0 {
				fmt.Println("No services have synced yet.")
				return nil
			}

			fmt.Printf("%-16s %-12s %-9s %-15s %s\n",
				"SERVICE", "STATE", "FAILURES", "LAST ERROR", "LAST FAILURE")
			for _, rec := range records {
				fmt.Printf("%-16s %s %-9d %-15s %s\n",
					rec.ServiceID,
					colorState(rec.State),
					rec.FailureCount,
					rec.ErrorType,
					formatLastFailure(rec),
				)
			}
			return nil
		},
	}
}

func colorState(state circuitbreaker.State) string {
	padded := fmt.Sprintf("%-12s", state.String())
	switch state {
	case circuitbreaker.StateClosed:
		return color.GreenString(padded)
	case circuitbreaker.StateHalfOpen:
		return color.YellowString(padded)
	default:
		return color.RedString(padded)
	}
}

func formatLastFailure(rec circuitbreaker.Record) string {
	if rec.LastFailureTime == nil {
		return "never"
	}
	return fmt.Sprintf("%s ago", time.Since(*rec.LastFailureTime).Round(time.Second))
}
