package post

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"gorm-trashbin/internal/domain"
	"gorm-trashbin/internal/repo"
	"gorm-trashbin/internal/service"
	"gorm-trashbin/internal/transport/http/ez"
	"gorm-trashbin/internal/trash"
)

// Module 用户端文章读写 + 管理端回收站（posts / authors）
type Module struct {
	db   *gorm.DB
	svc  *service.PostService
	repo *repo.PostRepo
}

func NewModule(db *gorm.DB, svc *service.PostService, r *repo.PostRepo) *Module {
	// 单条 restore / force delete 都会经过事件，统一清缓存
	r.Posts().OnRestored(func(ctx context.Context, p *domain.Post) { svc.Invalidate(ctx, p.ID) })
	r.Posts().OnForceDeleted(func(ctx context.Context, p *domain.Post) { svc.Invalidate(ctx, p.ID) })
	return &Module{db: db, svc: svc, repo: r}
}

func (m *Module) MountAPI(public, authed *gin.RouterGroup) {
	pub := ez.New(public)

	ez.RegisterAction(pub, m.db, ez.Action[listQ, listOut[*domain.Post]]{
		Method: http.MethodGet,
		Path:   "/posts",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, _ *gorm.DB, in *listQ) (listOut[*domain.Post], error) {
			items, total, err := m.svc.List(c, domain.PostListQuery{
				AuthorID: in.AuthorID, HasAuthor: in.HasAuthor, Offset: in.Offset, Limit: in.Limit,
			})
			if err != nil {
				return listOut[*domain.Post]{}, ez.Internal("list posts failed", err)
			}
			return listOut[*domain.Post]{Total: total, Items: items}, nil
		},
	})

	pub.GET("/posts/:id", func(c *gin.Context) (any, error) {
		id, err := parseID(c)
		if err != nil {
			return nil, err
		}
		p, err := m.svc.Get(c, id)
		if err != nil {
			return nil, mapErr(err)
		}
		return p, nil
	})

	auth := ez.New(authed)

	ez.POST(auth, "/posts", func(c *gin.Context, in createIn) (any, error) {
		p := &domain.Post{Title: in.Title, Body: in.Body, AuthorID: in.AuthorID}
		if err := m.svc.Create(c, p); err != nil {
			return nil, ez.Internal("create post failed", err)
		}
		return p, nil
	})

	// 删除 = 进回收站，管理端可恢复
	ez.RegisterAction(auth, m.db, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/posts/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			id, err := parseID(c)
			if err != nil {
				return nil, err
			}
			if err := m.svc.Delete(c, id); err != nil {
				return nil, mapErr(err)
			}
			return gin.H{"id": id}, nil
		},
	})
}

func (m *Module) MountAdmin(admin *gin.RouterGroup) {
	ez.TrashCrud(ez.TrashConfig[domain.Post, *domain.Post]{
		Repo:  m.repo.Posts(),
		Group: admin,
		Path:  "/posts",
		Hooks: ez.TrashHooks[domain.Post, *domain.Post]{
			ScopeList: func(c *gin.Context, q *trash.Query[domain.Post, *domain.Post]) *trash.Query[domain.Post, *domain.Post] {
				if aid, err := strconv.ParseUint(c.Query("authorId"), 10, 64); err == nil {
					q = q.Where("author_id = ?", aid)
				}
				if c.Query("hasAuthor") == "1" {
					authors := m.repo.Authors()
					q = q.WhereHas(authors.Table(), "author_id", authors.PrimaryKey())
				}
				return q
			},
			AfterChange: func(c *gin.Context, keys []any) {
				for _, k := range keys {
					if id, ok := k.(uint64); ok {
						m.svc.Invalidate(c, uint(id))
					}
				}
			},
		},
	})

	ez.TrashCrud(ez.TrashConfig[domain.Author, *domain.Author]{
		Repo:  m.repo.Authors(),
		Group: admin,
		Path:  "/authors",
	})
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, ez.BadRequest("invalid id")
	}
	return uint(id), nil
}

func mapErr(err error) error {
	if errors.Is(err, service.ErrNotFound) {
		return ez.NotFound("post not found")
	}
	return ez.Internal("post action failed", err)
}
