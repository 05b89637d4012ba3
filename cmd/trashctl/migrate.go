package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gorm-trashbin/internal/app"
	"gorm-trashbin/internal/domain"
	"gorm-trashbin/internal/trash"
)

var migrateCMD = &cobra.Command{
	Use:   "migrate",
	Short: "create live and trash tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(_ context.Context, a *app.App) error {
			if err := trash.AutoMigrate(a.DB, domain.Models()...); err != nil {
				return err
			}
			a.Log.Info("migrate done", zap.Int("models", len(domain.Models())))
			return nil
		})
	},
}

func init() {
	rootCMD.AddCommand(migrateCMD)
}
