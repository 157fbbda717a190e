package main

import (
	"context"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the pgvector extension and document tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, settings, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		cfg.Database.AutoMigrate = true
		pg, err := openDatabase(context.Background(), cfg, settings.Embedding.Dimensions, logger)
		if err != nil {
			return err
		}
		defer func() { _ = pg.Close() }()

		cmd.Printf("schema ready (vector dimensions %d)\n", settings.Embedding.Dimensions)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
