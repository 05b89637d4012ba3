package domain

import (
	"context"
	"time"

	"gorm-trashbin/internal/trash"
)

type Author struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:64" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	trash.SoftDeletes
}

func (Author) TableName() string { return "authors" }

type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:191" json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	AuthorID  uint      `gorm:"index;default:0" json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	trash.SoftDeletes
}

func (Post) TableName() string { return "posts" }

// PostListQuery 列表筛选；WithTrashed / OnlyTrashed 二选一
type PostListQuery struct {
	AuthorID    uint
	WithTrashed bool
	OnlyTrashed bool
	HasAuthor   bool // 只要作者仍在 authors 表里的
	Offset      int
	Limit       int
}

type PostRepository interface {
	Create(ctx context.Context, p *Post) error
	Find(ctx context.Context, id uint, withTrashed bool) (*Post, error)
	List(ctx context.Context, q PostListQuery) ([]*Post, int64, error)
	Delete(ctx context.Context, id uint) (bool, error)
	ForceDelete(ctx context.Context, id uint) (bool, error)
	Restore(ctx context.Context, id uint) (bool, error)
}

// Models 需要建 live + trash 两张表的模型
func Models() []trash.Entity {
	return []trash.Entity{&Author{}, &Post{}, &User{}}
}
