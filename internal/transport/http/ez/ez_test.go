package ez

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gorm-trashbin/internal/trash"
	resp "gorm-trashbin/internal/transport/http/response"
)

type note struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Text      string `json:"text"`
	CreatedAt time.Time
	UpdatedAt time.Time
	trash.SoftDeletes
}

func (note) TableName() string { return "notes" }

type body struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func init() { gin.SetMode(gin.TestMode) }

func newNotes(t *testing.T, n int) (*gorm.DB, *trash.Repo[note, *note]) {
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

	require.NoError(t, trash.AutoMigrate(db, &note{}))
	rows := make([]note, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, note{Text: fmt.Sprintf("note-%d", i)})
	}
	require.NoError(t, db.Create(&rows).Error)

	r, err := trash.NewRepo[note](db)
	require.NoError(t, err)
	return db, r
}

func call(t *testing.T, r http.Handler, method, path string, payload any) body {
	t.Helper()
	var rd *bytes.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var out body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func page(t *testing.T, b body) resp.Page[note] {
	t.Helper()
	require.Equal(t, resp.CodeOK, b.Code, b.Msg)
	var p resp.Page[note]
	require.NoError(t, json.Unmarshal(b.Data, &p))
	return p
}

func newTrashEngine(t *testing.T, n int) (*gin.Engine, *gorm.DB, *[]any) {
	t.Helper()
	db, repo := newNotes(t, n)
	var changed []any
	r := gin.New()
	TrashCrud(TrashConfig[note, *note]{
		Repo:    repo,
		Group:   r.Group("/admin"),
		Path:    "/notes",
		MaxBulk: 4,
		Hooks: TrashHooks[note, *note]{
			AfterChange: func(_ *gin.Context, keys []any) { changed = append(changed, keys...) },
		},
	})
	return r, db, &changed
}

func TestTrashCrudDeleteRestoreForce(t *testing.T) {
	r, db, changed := newTrashEngine(t, 5)

	b := call(t, r, http.MethodDelete, "/admin/notes/2", nil)
	require.Equal(t, resp.CodeOK, b.Code, b.Msg)
	assert.JSONEq(t, `{"id":"2","purged":false}`, string(b.Data))

	live := page(t, call(t, r, http.MethodGet, "/admin/notes", nil))
	assert.Equal(t, int64(4), live.Total)

	only := page(t, call(t, r, http.MethodGet, "/admin/notes?trashed=only", nil))
	require.Len(t, only.List, 1)
	assert.Equal(t, uint(2), only.List[0].ID)
	assert.NotNil(t, only.List[0].DeletedAt)

	with := page(t, call(t, r, http.MethodGet, "/admin/notes?trashed=with&size=2&page=2", nil))
	assert.Equal(t, int64(5), with.Total)
	assert.Len(t, with.List, 2)

	assert.Equal(t, resp.CodeNotFound, call(t, r, http.MethodGet, "/admin/notes/2", nil).Code)
	assert.Equal(t, resp.CodeOK, call(t, r, http.MethodGet, "/admin/notes/2?trashed=with", nil).Code)

	b = call(t, r, http.MethodPost, "/admin/notes/2/restore", nil)
	require.Equal(t, resp.CodeOK, b.Code, b.Msg)
	assert.Equal(t, resp.CodeNotFound, call(t, r, http.MethodPost, "/admin/notes/2/restore", nil).Code)

	b = call(t, r, http.MethodDelete, "/admin/notes/3/force", nil)
	require.Equal(t, resp.CodeOK, b.Code, b.Msg)
	assert.Equal(t, resp.CodeNotFound, call(t, r, http.MethodDelete, "/admin/notes/3/force", nil).Code)

	var n int64
	require.NoError(t, db.Table("notes").Count(&n).Error)
	assert.Equal(t, int64(4), n)
	require.NoError(t, db.Table("notes_trash").Count(&n).Error)
	assert.Zero(t, n)

	assert.Equal(t, []any{uint64(2), uint64(2), uint64(3)}, *changed)
	assert.Equal(t, resp.CodeBadRequest, call(t, r, http.MethodDelete, "/admin/notes/abc", nil).Code)
}

func TestTrashCrudDeleteTwicePurges(t *testing.T) {
	r, db, _ := newTrashEngine(t, 2)

	require.Equal(t, resp.CodeOK, call(t, r, http.MethodDelete, "/admin/notes/1", nil).Code)
	b := call(t, r, http.MethodDelete, "/admin/notes/1", nil)
	require.Equal(t, resp.CodeOK, b.Code, b.Msg)
	assert.JSONEq(t, `{"id":"1","purged":true}`, string(b.Data))

	var n int64
	require.NoError(t, db.Table("notes_trash").Count(&n).Error)
	assert.Zero(t, n)
}

func TestTrashCrudBulk(t *testing.T) {
	r, _, _ := newTrashEngine(t, 10)

	assert.Equal(t, resp.CodeBadRequest, call(t, r, http.MethodPost, "/admin/notes/bulk-delete", gin.H{}).Code)

	// limit is capped at MaxBulk
	b := call(t, r, http.MethodPost, "/admin/notes/bulk-delete", gin.H{"limit": 50})
	require.Equal(t, resp.CodeOK, b.Code, b.Msg)
	assert.JSONEq(t, `{"rows":4}`, string(b.Data))

	b = call(t, r, http.MethodPost, "/admin/notes/bulk-delete", gin.H{"ids": []string{"9", "10"}})
	require.Equal(t, resp.CodeOK, b.Code, b.Msg)
	assert.JSONEq(t, `{"rows":2}`, string(b.Data))

	only := page(t, call(t, r, http.MethodGet, "/admin/notes?trashed=only&size=100", nil))
	assert.Equal(t, int64(6), only.Total)

	b = call(t, r, http.MethodPost, "/admin/notes/bulk-restore", gin.H{"ids": []string{"1", "9"}})
	require.Equal(t, resp.CodeOK, b.Code, b.Msg)
	assert.JSONEq(t, `{"rows":2}`, string(b.Data))

	b = call(t, r, http.MethodPost, "/admin/notes/bulk-restore", gin.H{})
	require.Equal(t, resp.CodeOK, b.Code, b.Msg)
	assert.JSONEq(t, `{"rows":4}`, string(b.Data))

	st := call(t, r, http.MethodGet, "/admin/notes/stats", nil)
	require.Equal(t, resp.CodeOK, st.Code, st.Msg)
	var stats trash.Stats
	require.NoError(t, json.Unmarshal(st.Data, &stats))
	assert.Equal(t, int64(10), stats.Live)
	assert.Zero(t, stats.Trashed)
}

func TestRegisterActionAuth(t *testing.T) {
	db, _ := newNotes(t, 1)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-Uid"); uid != "" {
			c.Set(CtxUserID, uid)
			c.Set(CtxRole, c.GetHeader("X-Role"))
		}
	})
	RegisterAction(New(r.Group("")), db, Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/secret",
		Binder: BindNone,
		Auth:   true,
		Roles:  []string{"admin"},
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			return gin.H{"uid": c.GetString(CtxUserID)}, nil
		},
	})

	do := func(uid, role string) body {
		req := httptest.NewRequest(http.MethodGet, "/secret", nil)
		req.Header.Set("X-Uid", uid)
		req.Header.Set("X-Role", role)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		var out body
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		return out
	}
	assert.Equal(t, resp.CodeUnauthorized, do("", "").Code)
	assert.Equal(t, resp.CodeForbidden, do("u1", "user").Code)
	ok := do("u1", "admin")
	require.Equal(t, resp.CodeOK, ok.Code)
	assert.JSONEq(t, `{"uid":"u1"}`, string(ok.Data))
}

func TestWriteErrMapping(t *testing.T) {
	r := gin.New()
	e := New(r.Group(""))
	e.GET("/missing", func(*gin.Context) (any, error) { return nil, gorm.ErrRecordNotFound })
	e.GET("/veto", func(*gin.Context) (any, error) { return nil, Forbidden("nope") })
	e.GET("/boom", func(*gin.Context) (any, error) { return nil, fmt.Errorf("boom") })

	assert.Equal(t, resp.CodeNotFound, call(t, r, http.MethodGet, "/missing", nil).Code)
	b := call(t, r, http.MethodGet, "/veto", nil)
	assert.Equal(t, resp.CodeForbidden, b.Code)
	assert.Equal(t, "nope", b.Msg)
	assert.Equal(t, resp.CodeServerError, call(t, r, http.MethodGet, "/boom", nil).Code)
}
