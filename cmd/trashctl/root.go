package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm/clause"

	"gorm-trashbin/internal/app"
	"gorm-trashbin/internal/trash"
)

var cfgPath string

var rootCMD = &cobra.Command{
	Use:           "trashctl",
	Short:         "trash table maintenance",
	Long:          `migrate, inspect, purge and restore <table>_trash tables`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCMD.PersistentFlags().StringVarP(&cfgPath, "config", "c", os.Getenv("CONFIG_PATH"), "config file path")
}

// withApp 每个子命令独立装配依赖，结束后关闭
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// tableOps 按表名分发到对应的泛型仓库
type tableOps struct {
	purge   func(ctx context.Context, before time.Time) (int64, error)
	restore func(ctx context.Context, ids []string) (int64, error)
}

func opsFor[T any, P trash.Model[T]](r *trash.Repo[T, P]) tableOps {
	return tableOps{
		purge: func(ctx context.Context, before time.Time) (int64, error) {
			return r.Query(ctx).OnlyTrashed().
				Where(clause.Lt{Column: clause.Column{Table: clause.CurrentTable, Name: r.DeletedAtColumn()}, Value: before}).
				Delete()
		},
		restore: func(ctx context.Context, ids []string) (int64, error) {
			q := r.Query(ctx).OnlyTrashed()
			if len(ids) > 0 {
				keys := make([]any, 0, len(ids))
				for _, s := range ids {
					k, err := r.ParseKey(s)
					if err != nil {
						return 0, fmt.Errorf("invalid id %q: %w", s, err)
					}
					keys = append(keys, k)
				}
				q = q.Where(clause.IN{Column: clause.Column{Table: clause.CurrentTable, Name: r.PrimaryKey()}, Values: keys})
			}
			return q.Restore()
		},
	}
}

func tablesOf(a *app.App) map[string]tableOps {
	return map[string]tableOps{
		a.Posts.Posts().Table():   opsFor(a.Posts.Posts()),
		a.Posts.Authors().Table(): opsFor(a.Posts.Authors()),
		a.Users.Trash().Table():   opsFor(a.Users.Trash()),
	}
}

func lookup(a *app.App, table string) (tableOps, error) {
	ops, ok := tablesOf(a)[table]
	if !ok {
		return tableOps{}, fmt.Errorf("unknown table %q", table)
	}
	return ops, nil
}
