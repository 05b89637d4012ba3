package user

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"gorm-trashbin/internal/domain"
	"gorm-trashbin/internal/service"
	"gorm-trashbin/internal/transport/http/ez"
	mdw "gorm-trashbin/internal/transport/http/middleware"
	"gorm-trashbin/internal/trash"
)

// Module 登录 / 我的信息 / 管理端封禁（封禁 = 搬进 users_trash）
type Module struct {
	db  *gorm.DB
	svc *service.UserService
}

func NewModule(db *gorm.DB, svc *service.UserService) *Module {
	return &Module{db: db, svc: svc}
}

func (m *Module) Priority() int { return 10 }

func (m *Module) MountAPI(public, authed *gin.RouterGroup) {
	// 登录按 IP 限速
	auth := public.Group("/auth", mdw.RateLimitPerIP(1, 10, 10*time.Minute))

	// /auth/login：查不到就自动注册 + 发 JWT
	ez.RegisterAction(ez.New(auth), m.db, ez.Action[loginIn, loginOut]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *loginIn) (loginOut, error) {
			res, err := m.svc.Login(c, in.Email, in.Password, in.Name)
			if err != nil {
				return loginOut{}, mapErr(err)
			}
			return loginOut{Token: res.Token, IsNew: res.IsNew, User: toDTO(res.User)}, nil
		},
	})

	ez.RegisterAction(ez.New(authed), m.db, ez.Action[struct{}, UserDTO]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (UserDTO, error) {
			u, err := m.svc.Me(c, c.GetString(ez.CtxUserID))
			if err != nil {
				return UserDTO{}, mapErr(err)
			}
			return toDTO(u), nil
		},
	})
}

func (m *Module) MountAdmin(admin *gin.RouterGroup) {
	e := ez.New(admin)

	// GET /admin/v1/users
	ez.RegisterAction(e, m.db, ez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, _ *gorm.DB, in *listQ) (listOut, error) {
			us, total, err := m.svc.List(c, domain.UserListQuery{
				Offset: in.Offset, Limit: in.Limit, Q: in.Q, Banned: in.Banned, All: in.All,
			})
			if err != nil {
				return listOut{}, ez.Internal("list users failed", err)
			}
			out := listOut{Total: total, Items: make([]UserDTO, 0, len(us))}
			for _, u := range us {
				out.Items = append(out.Items, toDTO(u))
			}
			return out, nil
		},
	})

	// GET /admin/v1/users/stats  正常 / 封禁 人数
	ez.RegisterAction(e, m.db, ez.Action[struct{}, trash.Stats]{
		Method: http.MethodGet,
		Path:   "/users/stats",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, db *gorm.DB, _ *struct{}) (trash.Stats, error) {
			return trash.TableStats(db, domain.User{}.TableName())
		},
	})

	// POST /admin/v1/users/:id/ban
	ez.RegisterAction(e, m.db, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/:id/ban",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if id == c.GetString(ez.CtxUserID) {
				return nil, ez.BadRequest("cannot ban yourself")
			}
			if err := m.svc.Ban(c, id); err != nil {
				return nil, mapErr(err)
			}
			return gin.H{"id": id}, nil
		},
	})

	// POST /admin/v1/users/:id/unban
	ez.RegisterAction(e, m.db, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/:id/unban",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := m.svc.Unban(c, id); err != nil {
				return nil, mapErr(err)
			}
			return gin.H{"id": id}, nil
		},
	})
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return ez.Unauthorized(err.Error())
	case errors.Is(err, service.ErrBanned):
		return ez.Forbidden(err.Error())
	case errors.Is(err, service.ErrNotFound):
		return ez.NotFound("user not found")
	}
	return ez.Internal("user action failed", err)
}
