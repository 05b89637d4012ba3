package ez

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/clause"

	resp "gorm-trashbin/internal/transport/http/response"
	"gorm-trashbin/internal/trash"
)

// Hook
type TrashHooks[T any, P trash.Model[T]] struct {
	ScopeList   func(c *gin.Context, q *trash.Query[T, P]) *trash.Query[T, P] // 自定义筛选/排序
	AfterGet    func(c *gin.Context, m P)
	AfterChange func(c *gin.Context, keys []any) // 搬表/删除后（清缓存等）
}

type TrashConfig[T any, P trash.Model[T]] struct {
	Repo  *trash.Repo[T, P]
	Group *gin.RouterGroup // 已鉴权分组
	Path  string

	Hooks TrashHooks[T, P]

	// 批量删除单次最多条数，默认 1000
	MaxBulk int
	// 列表排序，为空则按主键 DESC
	OrderBy string
}

func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// trashed=with|only
func scopeTrashed[T any, P trash.Model[T]](c *gin.Context, q *trash.Query[T, P]) *trash.Query[T, P] {
	switch c.Query("trashed") {
	case "with":
		return q.WithTrashed()
	case "only":
		return q.OnlyTrashed()
	}
	return q
}

type bulkIn struct {
	IDs   []string `json:"ids"`
	Limit int      `json:"limit"`
}

// TrashCrud 注册回收站接口：
//
//	GET    {path}               列表（?trashed=with|only&page&size）
//	GET    {path}/stats         live / trash 行数
//	GET    {path}/:id           详情（?trashed=with|only）
//	DELETE {path}/:id           删除（live 行搬进回收站；回收站里的行彻底删除）
//	DELETE {path}/:id/force     两张表都删
//	POST   {path}/:id/restore   从回收站搬回
//	POST   {path}/bulk-delete   {"ids":[...],"limit":n}
//	POST   {path}/bulk-restore  {"ids":[...]}
func TrashCrud[T any, P trash.Model[T]](cfg TrashConfig[T, P]) {
	if cfg.MaxBulk <= 0 {
		cfg.MaxBulk = 1000
	}
	repo := cfg.Repo
	pk := repo.PrimaryKey()

	keyOf := func(c *gin.Context) (any, bool) {
		id, err := repo.ParseKey(c.Param("id"))
		if err != nil {
			fail(c, resp.CodeBadRequest, "invalid id")
			return nil, false
		}
		return id, true
	}
	keysOf := func(ids []string) ([]any, error) {
		keys := make([]any, 0, len(ids))
		for _, s := range ids {
			k, err := repo.ParseKey(s)
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
		}
		return keys, nil
	}
	changed := func(c *gin.Context, keys ...any) {
		if cfg.Hooks.AfterChange != nil && len(keys) > 0 {
			cfg.Hooks.AfterChange(c, keys)
		}
	}

	// List
	cfg.Group.GET(cfg.Path, func(c *gin.Context) {
		page := atoiDefault(c.Query("page"), 1)
		size := atoiDefault(c.Query("size"), 20)
		if size > 100 {
			size = 20
		}

		q := scopeTrashed(c, repo.Query(c))
		if cfg.Hooks.ScopeList != nil {
			q = cfg.Hooks.ScopeList(c, q)
		}
		if cfg.OrderBy != "" {
			q = q.Order(cfg.OrderBy)
		} else {
			q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: pk}, Desc: true})
		}

		items, total, err := q.Paginate(page, size)
		if err != nil {
			writeErr(c, err)
			return
		}
		if cfg.Hooks.AfterGet != nil {
			for _, m := range items {
				cfg.Hooks.AfterGet(c, m)
			}
		}
		c.JSON(http.StatusOK, resp.Paged(items, total, page, size))
	})

	// Stats
	cfg.Group.GET(cfg.Path+"/stats", func(c *gin.Context) {
		st, err := trash.TableStats(repo.DB().WithContext(c), repo.Table())
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(st))
	})

	// Get
	cfg.Group.GET(cfg.Path+"/:id", func(c *gin.Context) {
		id, ok := keyOf(c)
		if !ok {
			return
		}
		m, err := scopeTrashed(c, repo.Query(c)).Key(id).First()
		if err != nil {
			writeErr(c, err)
			return
		}
		if cfg.Hooks.AfterGet != nil {
			cfg.Hooks.AfterGet(c, m)
		}
		c.JSON(http.StatusOK, resp.OK(m))
	})

	// Delete：live → trash；已在 trash 的行再删一次就是彻底删除
	cfg.Group.DELETE(cfg.Path+"/:id", func(c *gin.Context) {
		id, ok := keyOf(c)
		if !ok {
			return
		}
		var trashed bool
		err := repo.Transaction(c, func(tx *trash.Repo[T, P]) error {
			m, err := tx.Query(c).WithTrashed().Key(id).First()
			if err != nil {
				return err
			}
			trashed = m.TrashBinding().IsTrashTable()
			_, err = tx.Delete(c, m)
			return err
		})
		if err != nil {
			writeErr(c, err)
			return
		}
		changed(c, id)
		c.JSON(http.StatusOK, resp.OK(gin.H{"id": c.Param("id"), "purged": trashed}))
	})

	// Force delete
	cfg.Group.DELETE(cfg.Path+"/:id/force", func(c *gin.Context) {
		id, ok := keyOf(c)
		if !ok {
			return
		}
		n, err := repo.Query(c).WithTrashed().Key(id).ForceDelete()
		if err != nil {
			writeErr(c, err)
			return
		}
		if n == 0 {
			fail(c, resp.CodeNotFound, "not found")
			return
		}
		changed(c, id)
		c.JSON(http.StatusOK, resp.OK(gin.H{"id": c.Param("id")}))
	})

	// Restore
	cfg.Group.POST(cfg.Path+"/:id/restore", func(c *gin.Context) {
		id, ok := keyOf(c)
		if !ok {
			return
		}
		var restored bool
		err := repo.Transaction(c, func(tx *trash.Repo[T, P]) error {
			m, err := tx.Query(c).OnlyTrashed().Key(id).First()
			if err != nil {
				return err
			}
			restored, err = tx.Restore(c, m)
			return err
		})
		if err != nil {
			writeErr(c, err)
			return
		}
		if !restored {
			fail(c, resp.CodeForbidden, "restore rejected")
			return
		}
		changed(c, id)
		c.JSON(http.StatusOK, resp.OK(gin.H{"id": c.Param("id")}))
	})

	// Bulk delete
	cfg.Group.POST(cfg.Path+"/bulk-delete", func(c *gin.Context) {
		var in bulkIn
		if err := c.ShouldBindJSON(&in); err != nil {
			fail(c, resp.CodeBadRequest, err.Error())
			return
		}
		if len(in.IDs) == 0 && in.Limit <= 0 {
			fail(c, resp.CodeBadRequest, "ids or limit required")
			return
		}
		keys, err := keysOf(in.IDs)
		if err != nil {
			fail(c, resp.CodeBadRequest, "invalid id")
			return
		}
		limit := in.Limit
		if limit <= 0 || limit > cfg.MaxBulk {
			limit = cfg.MaxBulk
		}

		q := repo.Query(c)
		if len(keys) > 0 {
			q = q.Where(clause.IN{Column: clause.Column{Table: clause.CurrentTable, Name: pk}, Values: keys})
		}
		n, err := q.Order(clause.OrderByColumn{Column: clause.Column{Name: pk}}).Limit(limit).Delete()
		if err != nil {
			writeErr(c, err)
			return
		}
		changed(c, keys...)
		c.JSON(http.StatusOK, resp.OK(gin.H{"rows": n}))
	})

	// Bulk restore
	cfg.Group.POST(cfg.Path+"/bulk-restore", func(c *gin.Context) {
		var in bulkIn
		if err := c.ShouldBindJSON(&in); err != nil {
			fail(c, resp.CodeBadRequest, err.Error())
			return
		}
		keys, err := keysOf(in.IDs)
		if err != nil {
			fail(c, resp.CodeBadRequest, "invalid id")
			return
		}
		q := repo.Query(c).OnlyTrashed()
		if len(keys) > 0 {
			q = q.Where(clause.IN{Column: clause.Column{Table: clause.CurrentTable, Name: pk}, Values: keys})
		}
		n, err := q.Restore()
		if err != nil {
			writeErr(c, err)
			return
		}
		changed(c, keys...)
		c.JSON(http.StatusOK, resp.OK(gin.H{"rows": n}))
	})
}
