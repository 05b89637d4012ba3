package service

import (
	"context"
	"errors"
	"strings"

	"gorm-trashbin/internal/core/auth"
	"gorm-trashbin/internal/domain"
	"gorm-trashbin/pkg/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrBanned             = errors.New("user banned")
)

type UserService struct {
	repo  domain.UserRepository
	jwter *auth.JWTer
}

func NewUserService(repo domain.UserRepository, jwter *auth.JWTer) *UserService {
	return &UserService{repo: repo, jwter: jwter}
}

type LoginResult struct {
	Token string
	IsNew bool
	User  *domain.User
}

// Login 查不到就自动注册 + 发 JWT；被封禁的邮箱不能登录也不能重新注册
func (s *UserService) Login(ctx context.Context, email, password, name string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if u != nil && u.Trashed() {
		return nil, ErrBanned
	}

	isNew := false
	if u == nil {
		hash, err := utils.HashPassword(password)
		if err != nil {
			return nil, err
		}
		u = &domain.User{
			ID:           utils.NewID(),
			Email:        email,
			Name:         defaultName(email, strings.TrimSpace(name)),
			PasswordHash: hash,
			Role:         auth.RoleUser,
		}
		if err := s.repo.Create(ctx, u); err != nil {
			// 并发兜底：唯一冲突 → 再查一次
			if !utils.IsDupKey(err) {
				return nil, err
			}
			if u, err = s.repo.FindByEmail(ctx, email); err != nil || u == nil {
				return nil, ErrInvalidCredentials
			}
			if u.Trashed() || !utils.CheckPassword(password, u.PasswordHash) {
				return nil, ErrInvalidCredentials
			}
		} else {
			isNew = true
		}
	} else if !utils.CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	tok, err := s.jwter.Issue(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: tok, IsNew: isNew, User: u}, nil
}

func (s *UserService) Me(ctx context.Context, uid string) (*domain.User, error) {
	u, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, q domain.UserListQuery) ([]*domain.User, int64, error) {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	return s.repo.List(ctx, q)
}

func (s *UserService) Ban(ctx context.Context, id string) error {
	return found(s.repo.Ban(ctx, id))
}

func (s *UserService) Unban(ctx context.Context, id string) error {
	return found(s.repo.Unban(ctx, id))
}

func found(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func defaultName(email, name string) string {
	if name != "" {
		return name
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return "user"
}
