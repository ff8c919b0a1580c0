package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag   string
	tokenFlag string
	rootCmd   = &cobra.Command{
		Use:   "skylogctl",
		Short: "CLI client for the mood service REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Mood service base URL")
	rootCmd.PersistentFlags().StringVarP(&tokenFlag, "token", "t", "", "Bearer token (sk_dev_<userId> in development)")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the user's derived statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tokenFlag == "" {
				return fmt.Errorf("--token required")
			}
			return runStats(apiFlag, tokenFlag, os.Stdout)
		},
	}
	rootCmd.AddCommand(statsCmd)

	recomputeCmd := &cobra.Command{
		Use:   "recompute",
		Short: "Force a statistics rebuild from the entry set",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tokenFlag == "" {
				return fmt.Errorf("--token required")
			}
			return runRecompute(apiFlag, tokenFlag, os.Stdout)
		},
	}
	rootCmd.AddCommand(recomputeCmd)

	syncStatusCmd := &cobra.Command{
		Use:   "sync-status",
		Short: "Show sync completion state for the user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tokenFlag == "" {
				return fmt.Errorf("--token required")
			}
			return runSyncStatus(apiFlag, tokenFlag, os.Stdout)
		},
	}
	rootCmd.AddCommand(syncStatusCmd)

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(apiFlag, os.Stdout)
		},
	}
	rootCmd.AddCommand(healthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
