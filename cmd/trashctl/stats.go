package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"gorm-trashbin/internal/app"
	"gorm-trashbin/internal/trash"
)

var statsTables []string

var statsCMD = &cobra.Command{
	Use:   "stats",
	Short: "print live / trashed row counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			tables := statsTables
			if len(tables) == 0 {
				tables = a.Cfg.Trash.Tables
			}
			out := make([]trash.Stats, 0, len(tables))
			for _, t := range tables {
				st, err := trash.TableStats(a.DB.WithContext(ctx), t)
				if err != nil {
					return err
				}
				out = append(out, st)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		})
	},
}

func init() {
	statsCMD.Flags().StringSliceVarP(&statsTables, "table", "t", nil, "tables (default: trash.tables from config)")
	rootCMD.AddCommand(statsCMD)
}
