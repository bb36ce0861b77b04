// Package cli implements the trackerctl command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cchai186/commodity-price-tracker/internal/version"
)

var serverFlag string

var rootCmd = &cobra.Command{
	Use:          "trackerctl",
	Short:        "Control the commodity price tracker daemon.",
	Long:         "trackerctl drives the tracker daemon: dispatch runs, inspect run history and the most recently fetched quotes.",
	SilenceUsage: true,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "daemon address (default from settings, else http://localhost:8080)")
	rootCmd.Version = version.Get().Version
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// apiClient builds a client from the persisted settings and the --server
// flag.
func apiClient() (*Client, *Settings, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}

	server := settings.Server
	if serverFlag != "" {
		server = serverFlag
	}
	return NewClient(server, settings.Token), settings, nil
}
