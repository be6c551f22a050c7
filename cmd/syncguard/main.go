package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/syncguard/internal/cli"
	"github.com/angeloszaimis/syncguard/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "syncguard",
		Short:   "Reliability engine for cloud document synchronization",
		Version: version.String(),
		Long: `syncguard wraps an external sync tool with a per-service circuit
breaker, error classification, and automated recovery so that one
flaky cloud mount cannot burn every scheduled run on doomed retries.`,
	}

	rootCmd.AddCommand(cli.RunCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.ResetCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
