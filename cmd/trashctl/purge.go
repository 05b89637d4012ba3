package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gorm-trashbin/internal/app"
)

var (
	purgeTable     string
	purgeOlderThan time.Duration
)

var purgeCMD = &cobra.Command{
	Use:   "purge",
	Short: "permanently delete trashed rows older than --older-than",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if purgeOlderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			ops, err := lookup(a, purgeTable)
			if err != nil {
				return err
			}
			before := time.Now().Add(-purgeOlderThan)
			n, err := ops.purge(ctx, before)
			if err != nil {
				return err
			}
			a.Log.Info("purge done", zap.String("table", purgeTable), zap.Time("before", before), zap.Int64("rows", n))
			return nil
		})
	},
}

func init() {
	purgeCMD.Flags().StringVarP(&purgeTable, "table", "t", "", "live table name, e.g. posts")
	purgeCMD.Flags().DurationVar(&purgeOlderThan, "older-than", 30*24*time.Hour, "trashed-at age threshold")
	_ = purgeCMD.MarkFlagRequired("table")
	rootCMD.AddCommand(purgeCMD)
}
