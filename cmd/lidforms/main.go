package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wassi-real/lidforms/internal/client"
)

var (
	httpURL    string
	token      string
	jsonOutput bool

	formsClient client.FormsClient
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var rootCmd = &cobra.Command{
	Use:           "lidforms <command>",
	Short:         "Dynamic form submission service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		formsClient = client.NewHTTPClient(httpURL, token)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if formsClient != nil {
			formsClient.Close()
		}
	},
}

// noClient skips client setup for commands that talk to the database or
// the bus directly.
func noClient(*cobra.Command, []string) error { return nil }

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "url", envOr("LIDFORMS_URL", "http://localhost:8080"), "server URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("LIDFORMS_TOKEN"), "access token for owner commands")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "forms", Title: "Forms:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	rootCmd.AddCommand(formCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(watchCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
