package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	runsLimit  int
	runsOffset int
	runsStatus string
)

var runsCmd = &cobra.Command{
	Use:   "runs [id]",
	Short: "List recent runs or show one run in detail.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := apiClient()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			return showRun(cmd.Context(), client, args[0])
		}

		list, err := client.ListRuns(cmd.Context(), runsLimit, runsOffset, runsStatus)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTRIGGER\tSTATUS\tDATE\tSTARTED\tERROR")
		for _, run := range list.Runs {
			started := ""
			if run.StartedAt != nil {
				started = run.StartedAt.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				run.ID, run.Trigger, run.Status, run.ReportDate, started, run.ErrorMessage)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Printf("\n%d of %d runs\n", len(list.Runs), list.Total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	runsCmd.Flags().IntVar(&runsOffset, "offset", 0, "list offset")
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "filter by status (pending, running, succeeded, failed)")
}

func showRun(ctx context.Context, client *Client, id string) error {
	run, err := client.GetRun(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("Run:       %s\n", run.ID)
	fmt.Printf("Trigger:   %s\n", run.Trigger)
	fmt.Printf("Status:    %s\n", run.Status)
	fmt.Printf("Date:      %s\n", run.ReportDate)
	if run.RequestedBy != "" {
		fmt.Printf("Requested: %s\n", run.RequestedBy)
	}
	if run.ErrorMessage != "" {
		fmt.Printf("Error:     %s\n", run.ErrorMessage)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tSTEP\tSTATUS\tERROR")
	for _, step := range run.Steps {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", step.Seq, step.Name, step.Status, step.ErrorMessage)
	}
	return w.Flush()
}
