package trash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestQuerySQL(t *testing.T) {
	r := newPostRepo(t, newTestDB(t))

	assert.Equal(t,
		"SELECT * FROM `posts` WHERE author_id > 0",
		r.Query(bg).Where("author_id > ?", 0).ToSQL())

	assert.Equal(t,
		"SELECT * FROM `posts_trash` WHERE author_id > 0",
		r.Query(bg).OnlyTrashed().Where("author_id > ?", 0).ToSQL())

	assert.Contains(t,
		r.Query(bg).OnlyTrashed().WhereHas("authors", "author_id", "id").ToSQL(),
		"EXISTS (SELECT 1 FROM `authors` WHERE `authors`.`id` = `posts_trash`.`author_id`)")
}

func TestQueryExtensionsRebind(t *testing.T) {
	r := newPostRepo(t, newTestDB(t))
	q := r.Query(bg)

	assert.Equal(t, "posts", q.Table())
	assert.Equal(t, "posts_trash", q.OnlyTrashed().Table())
	assert.Equal(t, "posts", q.OnlyTrashed().WithoutTrashed().Table())
	assert.Equal(t, "posts", q.OnlyTrashed().WithTrashed().Table())
	assert.NotContains(t, q.WithTrashed().WithoutTrashed().ToSQL(), "UNION")
	assert.NotContains(t, q.WithTrashed(false).ToSQL(), "UNION")
	assert.NotContains(t, q.WithTrashed().WithoutScope(ScopeWithTrashed).ToSQL(), "UNION")

	// chain methods never mutate the receiver
	_ = q.Where("id = ?", 1).Limit(3).OnlyTrashed()
	assert.Equal(t, "SELECT * FROM `posts`", q.ToSQL())
}

func TestQueryFindBindsResults(t *testing.T) {
	r := newPostRepo(t, newTestDB(t))

	live, err := r.Query(bg).Where("author_id = ?", 2).Find()
	require.NoError(t, err)
	require.Len(t, live, seedPosts/seedAuthors)
	for _, p := range live {
		assert.Equal(t, "posts", p.TrashBinding().Table())
		assert.Equal(t, "posts", p.TrashBinding().OriginalTableName())
	}

	_, err = r.Query(bg).Where("author_id = ?", 2).Limit(2).Delete()
	require.NoError(t, err)

	trashed, err := r.Query(bg).OnlyTrashed().Find()
	require.NoError(t, err)
	require.Len(t, trashed, 2)
	for _, p := range trashed {
		assert.True(t, p.TrashBinding().IsTrashTable())
		assert.True(t, p.TrashBinding().CanDelete())
		assert.Equal(t, "posts", p.TrashBinding().OriginalTableName())
	}
}

func TestQueryFirst(t *testing.T) {
	r := newPostRepo(t, newTestDB(t))

	p, err := r.Query(bg).Where("author_id = ?", 3).First()
	require.NoError(t, err)
	assert.Equal(t, uint(3), p.ID)

	_, err = r.Query(bg).Key(12345).First()
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestQueryGlobalScopes(t *testing.T) {
	db := newTestDB(t)
	r, err := NewRepo[testAuthor](db)
	require.NoError(t, err)

	RegisterScope(&testAuthor{}, GlobalScope{
		Name:  "skip_first",
		Apply: func(db *gorm.DB) *gorm.DB { return db.Where("name <> ?", "author-1") },
	})
	RegisterScope(&testAuthor{}, GlobalScope{
		Name:     "skip_second",
		Priority: 10,
		Apply:    func(db *gorm.DB) *gorm.DB { return db.Where("name <> ?", "author-2") },
	})
	t.Cleanup(func() {
		UnregisterScope(&testAuthor{}, "skip_first")
		UnregisterScope(&testAuthor{}, "skip_second")
	})

	scopes := ScopesFor(testAuthor{})
	require.Len(t, scopes, 2)
	assert.Equal(t, "skip_second", scopes[0].Name)
	assert.Equal(t, 100, scopes[1].Priority)

	n, err := r.Query(bg).Count()
	require.NoError(t, err)
	assert.Equal(t, int64(seedAuthors-2), n)

	n, err = r.Query(bg).WithoutScope("skip_first").Count()
	require.NoError(t, err)
	assert.Equal(t, int64(seedAuthors-1), n)

	// scopes apply to both branches of a union
	_, err = r.Query(bg).WithoutScope("skip_first").Key(1).Delete()
	require.NoError(t, err)
	n, err = r.Query(bg).WithTrashed().Count()
	require.NoError(t, err)
	assert.Equal(t, int64(seedAuthors-2), n)
}

func TestQueryPaginate(t *testing.T) {
	r := newPostRepo(t, newTestDB(t))

	items, total, err := r.Query(bg).Order("id").Paginate(2, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(seedPosts), total)
	require.Len(t, items, 20)
	assert.Equal(t, uint(21), items[0].ID)

	items, total, err = r.Query(bg).Order("id").Paginate(3, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(seedPosts), total)
	assert.Len(t, items, 10)
}
