package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"gorm-trashbin/internal/domain"
	"gorm-trashbin/internal/trash"
)

type UserRepo struct {
	users *trash.Repo[domain.User, *domain.User]
}

func NewUserRepo(db *gorm.DB, opts ...trash.Option) (*UserRepo, error) {
	users, err := trash.NewRepo[domain.User](db, opts...)
	if err != nil {
		return nil, err
	}
	return &UserRepo{users: users}, nil
}

func (r *UserRepo) Trash() *trash.Repo[domain.User, *domain.User] { return r.users }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error { return r.users.Create(ctx, u) }

// FindByID 只查正常用户；被封禁的返回 nil, nil
func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return firstOrNil(r.users.Query(ctx).Key(id).First())
}

// FindByEmail 包含已封禁用户（调用方用 Trashed() 判断）
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return firstOrNil(r.users.Query(ctx).WithTrashed().Where("email = ?", email).First())
}

func (r *UserRepo) List(ctx context.Context, in domain.UserListQuery) ([]*domain.User, int64, error) {
	q := r.users.Query(ctx)
	switch {
	case in.Banned:
		q = q.OnlyTrashed()
	case in.All:
		q = q.WithTrashed()
	}
	if s := strings.TrimSpace(in.Q); s != "" {
		like := "%" + s + "%"
		q = q.Where("email LIKE ? OR name LIKE ?", like, like)
	}

	total, err := q.Count()
	if err != nil {
		return nil, 0, err
	}
	users, err := q.Order("created_at DESC").Offset(in.Offset).Limit(in.Limit).Find()
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error { return r.users.Save(ctx, u) }

// Ban 把用户搬到 users_trash；用户不存在返回 false
func (r *UserRepo) Ban(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := r.users.Transaction(ctx, func(tx *trash.Repo[domain.User, *domain.User]) error {
		u, err := firstOrNil(tx.Query(ctx).Key(id).First())
		if err != nil || u == nil {
			return err
		}
		n, err := tx.Delete(ctx, u)
		ok = n > 0
		return err
	})
	return ok, err
}

// Unban 从 users_trash 搬回
func (r *UserRepo) Unban(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := r.users.Transaction(ctx, func(tx *trash.Repo[domain.User, *domain.User]) error {
		u, err := firstOrNil(tx.Query(ctx).OnlyTrashed().Key(id).First())
		if err != nil || u == nil {
			return err
		}
		ok, err = tx.Restore(ctx, u)
		return err
	})
	return ok, err
}

func firstOrNil[P any](p P, err error) (P, error) {
	var zero P
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return zero, nil
	}
	if err != nil {
		return zero, err
	}
	return p, nil
}

var _ domain.UserRepository = (*UserRepo)(nil)
