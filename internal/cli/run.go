package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/angeloszaimis/syncguard/internal/controller"
	"github.com/angeloszaimis/syncguard/internal/metrics"
)

// RunCmd returns the run command
func RunCmd() *cobra.Command {
	var only string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a sync cycle for every configured service",
		Long: `Run one synchronization cycle per configured service, in order.

Each cycle checks the service's circuit breaker first: an open circuit
skips the service entirely. Failures are classified, fed through the
recovery engine, and retried with adaptive backoff up to the configured
retry bound. The command exits non-zero if any service needs operator
attention; circuits that are open on purpose do not fail the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}

			services := app.cfg.Services
			if only != "" {
				services = nil
				for _, sc := range app.cfg.Services {
					if sc.ID == only {
						services = append(services, sc)
					}
				}
				if len(services) == 0 {
					return fmt.Errorf("unknown service %q", only)
				}
			}
			if len(services) == 0 {
				return fmt.Errorf("no services configured")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			var results []controller.CycleResult
			for _, sc := range services {
				cycleCtx, cancelCycle := context.WithTimeout(ctx, app.deadline)
				results = append(results, app.ctrl.RunCycle(cycleCtx, app.service(sc)))
				cancelCycle()
			}

			printSummary(cmd.OutOrStdout(), results, app.metrics.Snapshot())

			var needy []string
			for _, res := range results {
				if res.Outcome.NeedsAttention() {
					needy = append(needy, res.ServiceID)
				}
			}
			if len(needy) > 0 {
				return fmt.Errorf("services need attention: %s", strings.Join(needy, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&only, "service", "", "run only the named service")
	return cmd
}

func printSummary(w io.Writer, results []controller.CycleResult, snap metrics.Snapshot) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sync summary:")
	for _, res := range results {
		fmt.Fprintf(w, "  %-16s %s  attempts=%d  %s\n",
			res.ServiceID,
			colorOutcome(res.Outcome),
			res.Attempts,
			res.Duration.Round(time.Millisecond))
	}

	var attempts int64
	for _, sm := range snap.Services {
		attempts += sm.Attempts
	}
	fmt.Fprintf(w, "  %d cycles, %d attempts in %s\n",
		snap.TotalCycles, attempts, snap.Uptime.Round(time.Millisecond))
}

func colorOutcome(outcome controller.Outcome) string {
	padded := fmt.Sprintf("%-20s", string(outcome))
	switch outcome {
	case controller.OutcomeSuccess:
		return color.GreenString(padded)
	case controller.OutcomeSkippedCircuitOpen:
		return color.YellowString(padded)
	default:
		return color.RedString(padded)
	}
}
