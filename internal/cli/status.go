package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := apiClient()
		if err != nil {
			return err
		}

		status, err := client.GetStatus(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Daemon version: %s (%s)\n", status.Version.Version, status.Version.Platform)
		if status.ActiveRun != "" {
			fmt.Printf("Active run:     %s\n", status.ActiveRun)
		} else {
			fmt.Println("Active run:     none")
		}
		if status.LastRun != nil {
			fmt.Printf("Last run:       %s %s (%s)\n", status.LastRun.ID, status.LastRun.Status, status.LastRun.ReportDate)
		}
		if status.NextScheduledRun != "" {
			fmt.Printf("Next scheduled: %s\n", status.NextScheduledRun)
		}
		fmt.Printf("Runs:           %d succeeded, %d failed, %d running, %d pending\n",
			status.Runs["succeeded"], status.Runs["failed"], status.Runs["running"], status.Runs["pending"])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
