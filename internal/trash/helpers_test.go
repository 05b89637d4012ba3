package trash

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testAuthor struct {
	ID        uint `gorm:"primaryKey"`
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	SoftDeletes
}

func (testAuthor) TableName() string { return "authors" }

type testPost struct {
	ID        uint `gorm:"primaryKey"`
	Title     string
	Body      string
	AuthorID  uint
	CreatedAt time.Time
	UpdatedAt time.Time
	SoftDeletes
}

func (testPost) TableName() string { return "posts" }

type testTag struct {
	Slug string `gorm:"primaryKey"`
	Name string
	SoftDeletes
}

func (testTag) TableName() string { return "tags" }

const (
	seedAuthors = 5
	seedPosts   = 50
)

// newTestDB opens a private in-memory database with the authors/posts fixtures:
// 5 authors and 50 posts spread evenly across them.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db, &testAuthor{}, &testPost{}, &testTag{}))

	authors := make([]testAuthor, 0, seedAuthors)
	for i := 1; i <= seedAuthors; i++ {
		authors = append(authors, testAuthor{Name: fmt.Sprintf("author-%d", i)})
	}
	require.NoError(t, db.Create(&authors).Error)

	posts := make([]testPost, 0, seedPosts)
	for i := 0; i < seedPosts; i++ {
		posts = append(posts, testPost{
			Title:    fmt.Sprintf("post-%d", i+1),
			Body:     "body",
			AuthorID: uint(i%seedAuthors + 1),
		})
	}
	require.NoError(t, db.Create(&posts).Error)
	return db
}

func newPostRepo(t *testing.T, db *gorm.DB, opts ...Option) *Repo[testPost, *testPost] {
	t.Helper()
	r, err := NewRepo[testPost](db, opts...)
	require.NoError(t, err)
	return r
}

func countTable(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}

func idsOf(posts []*testPost) []uint {
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

var bg = context.Background()
