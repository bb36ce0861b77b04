package cli

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

var loginUsername string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the tracker daemon.",
	Long:  "Exchanges the admin credentials for a bearer token and stores it in the settings file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, settings, err := apiClient()
		if err != nil {
			return err
		}

		username := loginUsername
		if username == "" {
			if err := survey.AskOne(&survey.Input{Message: "Username:"}, &username, survey.WithValidator(survey.Required)); err != nil {
				return err
			}
		}

		var password string
		if err := survey.AskOne(&survey.Password{Message: "Password:"}, &password, survey.WithValidator(survey.Required)); err != nil {
			return err
		}

		resp, err := client.Login(cmd.Context(), username, password)
		if err != nil {
			return err
		}

		if serverFlag != "" {
			settings.Server = serverFlag
		}
		settings.Token = resp.Token
		settings.ExpiresAt = resp.ExpiresAt
		if err := saveSettings(settings); err != nil {
			return err
		}

		fmt.Printf("Logged in, token valid until %s\n", resp.ExpiresAt)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "username (prompted when omitted)")
}
