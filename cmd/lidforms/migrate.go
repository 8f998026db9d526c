package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wassi-real/lidforms/internal/config"
	"github.com/wassi-real/lidforms/internal/store/postgres"
)

var migrateCmd = &cobra.Command{
	Use:               "migrate",
	Short:             "Apply pending database migrations",
	GroupID:           "system",
	Args:              cobra.NoArgs,
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		// Opening the store applies migrations.
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()
		fmt.Println("migrations applied")
		return nil
	},
}
