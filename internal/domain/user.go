package domain

import (
	"context"
	"time"

	"gorm-trashbin/internal/trash"
)

// User 封禁即搬到 users_trash，解封再搬回
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:191" json:"email"`
	Name         string    `gorm:"size:64" json:"name"`
	PasswordHash string    `gorm:"size:191" json:"-"`
	Role         string    `gorm:"size:16;default:user" json:"role"` // "user"/"admin"
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	trash.SoftDeletes
}

func (User) TableName() string { return "users" }

type UserListQuery struct {
	Offset int
	Limit  int
	Q      string // email/name 模糊搜
	Banned bool   // 只看已封禁
	All    bool   // 正常 + 封禁
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, q UserListQuery) ([]*User, int64, error)
	Update(ctx context.Context, u *User) error
	Ban(ctx context.Context, id string) (bool, error)
	Unban(ctx context.Context, id string) (bool, error)
}
