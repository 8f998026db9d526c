package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wassi-real/lidforms/internal/client"
)

var formCmd = &cobra.Command{
	Use:     "form",
	Short:   "Inspect forms",
	GroupID: "forms",
}

var formShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an active form and its fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs, err := formsClient.GetForm(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(fs)
		} else {
			printFormSchema(fs)
		}
		return nil
	},
}

var formListCmd = &cobra.Command{
	Use:   "list",
	Short: "List forms owned by the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		forms, err := formsClient.ListOwnerForms(cmd.Context())
		if err != nil {
			return loginHint(err)
		}
		if jsonOutput {
			printJSON(forms)
		} else {
			printFormSummaries(forms)
		}
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Short:   "Show the session the token resolves to",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := formsClient.Me(cmd.Context())
		if err != nil {
			return loginHint(err)
		}
		if jsonOutput {
			printJSON(sess)
			return nil
		}
		fmt.Printf("User:    %s\n", sess.UserID)
		if sess.Email != "" {
			fmt.Printf("Email:   %s\n", sess.Email)
		}
		fmt.Printf("Expires: %s\n", sess.ExpiresAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check that the server and its database are reachable",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := formsClient.Health(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(status)
		return nil
	},
}

func loginHint(err error) error {
	var lr *client.LoginRequiredError
	if errors.As(err, &lr) {
		return fmt.Errorf("%w (pass --token or set LIDFORMS_TOKEN)", err)
	}
	return err
}

func init() {
	formCmd.AddCommand(formShowCmd)
	formCmd.AddCommand(formListCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(healthCmd)
}
