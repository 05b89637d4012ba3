package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gorm-trashbin/internal/app"
)

var (
	restoreTable string
	restoreIDs   []string
	restoreAll   bool
)

var restoreCMD = &cobra.Command{
	Use:   "restore",
	Short: "move trashed rows back to the live table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if len(restoreIDs) == 0 && !restoreAll {
			return fmt.Errorf("either --id or --all is required")
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			ops, err := lookup(a, restoreTable)
			if err != nil {
				return err
			}
			n, err := ops.restore(ctx, restoreIDs)
			if err != nil {
				return err
			}
			a.Log.Info("restore done", zap.String("table", restoreTable), zap.Int64("rows", n))
			return nil
		})
	},
}

func init() {
	restoreCMD.Flags().StringVarP(&restoreTable, "table", "t", "", "live table name, e.g. posts")
	restoreCMD.Flags().StringSliceVar(&restoreIDs, "id", nil, "primary keys to restore (repeatable)")
	restoreCMD.Flags().BoolVar(&restoreAll, "all", false, "restore every trashed row")
	_ = restoreCMD.MarkFlagRequired("table")
	rootCMD.AddCommand(restoreCMD)
}
