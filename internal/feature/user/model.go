package user

import (
	"time"

	"gorm-trashbin/internal/domain"
)

// UserDTO 对外输出（不含密码）；BannedAt 非空表示在 users_trash 里
type UserDTO struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	BannedAt  *time.Time `json:"bannedAt,omitempty"`
}

func toDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		BannedAt:  u.DeletedAt,
	}
}

type loginIn struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,max=72"`
	Name     string `json:"name"     binding:"omitempty,max=64"` // 首次注册可用
}

type loginOut struct {
	Token string  `json:"token"`
	IsNew bool    `json:"isNew"`
	User  UserDTO `json:"user"`
}

type listQ struct {
	Offset int    `form:"offset,default=0"`
	Limit  int    `form:"limit,default=20"`
	Q      string `form:"q"`      // 按 email/name 模糊搜
	Banned bool   `form:"banned"` // 只看已封禁
	All    bool   `form:"all"`    // 正常 + 封禁
}

type listOut struct {
	Total int64     `json:"total"`
	Items []UserDTO `json:"items"`
}
