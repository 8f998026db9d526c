package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wassi-real/lidforms/internal/config"
	"github.com/wassi-real/lidforms/internal/logging"
	"github.com/wassi-real/lidforms/internal/seed"
	"github.com/wassi-real/lidforms/internal/store/postgres"
)

var seedCmd = &cobra.Command{
	Use:               "seed <file.yaml>",
	Short:             "Create forms from a YAML definition file",
	GroupID:           "system",
	Args:              cobra.ExactArgs(1),
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		schemas, err := seed.LoadFile(args[0])
		if err != nil {
			return err
		}
		if dryRun {
			for _, s := range schemas {
				fmt.Printf("%s (%d fields, active=%t)\n", s.Form.Title, len(s.Fields), s.Form.IsActive)
			}
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()

		publisher := newPublisher(cfg.NATSURL, log)
		defer publisher.Close()

		if err := seed.Apply(cmd.Context(), store, publisher, log, schemas); err != nil {
			return err
		}
		if jsonOutput {
			printJSON(schemas)
			return nil
		}
		for _, s := range schemas {
			fmt.Printf("%s  %s\n", s.Form.ID, s.Form.Title)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().Bool("dry-run", false, "validate the file without writing")
}
