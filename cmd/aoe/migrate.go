package main

import (
	"fmt"

	"github.com/abogadosonline/aoe-api/internal/model"
	"github.com/abogadosonline/aoe-api/pkg/database"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	models := model.AllModels()
	if err := database.MigrateModels(db, models...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	log.Info("Schema migrated", zap.String("driver", cfg.DB.Driver), zap.Int("models", len(models)))
	return nil
}
