package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/cchai186/commodity-price-tracker/internal/models"
)

const runPollInterval = 2 * time.Second

var (
	runYes  bool
	runWait bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Dispatch a tracking run.",
	Long:  "Asks the daemon to start a run now. The daemon rejects the request when another run is already in progress.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := apiClient()
		if err != nil {
			return err
		}

		if !runYes {
			proceed := false
			if err := survey.AskOne(&survey.Confirm{
				Message: "Dispatch a tracking run now?",
			}, &proceed); err != nil {
				return err
			}
			if !proceed {
				return errors.New("aborted")
			}
		}

		run, err := client.DispatchRun(cmd.Context(), "")
		if err != nil {
			return err
		}
		fmt.Printf("Run %s dispatched\n", run.ID)

		if !runWait {
			return nil
		}
		return waitForRun(cmd.Context(), client, run.ID)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "skip the confirmation prompt")
	runCmd.Flags().BoolVarP(&runWait, "wait", "w", false, "wait for the run to finish")
}

func waitForRun(ctx context.Context, client *Client, runID string) error {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " waiting for run to finish..."
	s.Start()
	defer s.Stop()

	ticker := time.NewTicker(runPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		run, err := client.GetRun(ctx, runID)
		if err != nil {
			return err
		}

		switch run.Status {
		case models.RunStatusSucceeded:
			s.Stop()
			fmt.Printf("Run %s succeeded\n", run.ID)
			return nil
		case models.RunStatusFailed:
			s.Stop()
			return fmt.Errorf("run %s failed: %s", run.ID, run.ErrorMessage)
		}
	}
}
