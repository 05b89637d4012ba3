package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorm-trashbin/internal/core/auth"
	"gorm-trashbin/internal/transport/http/ez"
	resp "gorm-trashbin/internal/transport/http/response"
)

func init() { gin.SetMode(gin.TestMode) }

func codeOf(t *testing.T, r http.Handler, req *http.Request) (int, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var out resp.Resp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.Code, w
}

func TestAuthJWT(t *testing.T) {
	j := &auth.JWTer{Secret: []byte("k"), Issuer: "t", TTL: time.Minute}
	r := gin.New()
	r.GET("/admin", AuthJWT(j, auth.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, resp.OK(gin.H{"uid": c.GetString(ez.CtxUserID), "role": c.GetString(ez.CtxRole)}))
	})

	req := func(tok string) *http.Request {
		rq := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if tok != "" {
			rq.Header.Set("Authorization", "Bearer "+tok)
		}
		return rq
	}
	userTok, err := j.Issue("u1", auth.RoleUser)
	require.NoError(t, err)
	adminTok, err := j.Issue("a1", auth.RoleAdmin)
	require.NoError(t, err)

	code, _ := codeOf(t, r, req(""))
	assert.Equal(t, resp.CodeUnauthorized, code)
	code, _ = codeOf(t, r, req("junk"))
	assert.Equal(t, resp.CodeUnauthorized, code)
	code, _ = codeOf(t, r, req(userTok))
	assert.Equal(t, resp.CodeForbidden, code)

	code, w := codeOf(t, r, req(adminTok))
	require.Equal(t, resp.CodeOK, code)
	assert.Contains(t, w.Body.String(), `"uid":"a1"`)
}

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.GET("/login", RateLimitPerIP(0.001, 2, time.Minute), func(c *gin.Context) { c.JSON(http.StatusOK, resp.OK(nil)) })

	for i, want := range []int{resp.CodeOK, resp.CodeOK, resp.CodeTooManyRequests} {
		rq := httptest.NewRequest(http.MethodGet, "/login", nil)
		rq.RemoteAddr = "10.0.0.1:1234"
		code, _ := codeOf(t, r, rq)
		assert.Equal(t, want, code, "request %d", i)
	}

	rq := httptest.NewRequest(http.MethodGet, "/login", nil)
	rq.RemoteAddr = "10.0.0.2:1234"
	code, _ := codeOf(t, r, rq)
	assert.Equal(t, resp.CodeOK, code)
}

func TestConcurrencyLimit(t *testing.T) {
	r := gin.New()
	inside := make(chan struct{})
	release := make(chan struct{})
	r.GET("/slow", ConcurrencyLimit(1), func(c *gin.Context) {
		close(inside)
		<-release
		c.JSON(http.StatusOK, resp.OK(nil))
	})

	done := make(chan int)
	go func() {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
		var out resp.Resp
		_ = json.Unmarshal(w.Body.Bytes(), &out)
		done <- out.Code
	}()
	<-inside

	code, _ := codeOf(t, r, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, resp.CodeUnavailable, code)

	close(release)
	assert.Equal(t, resp.CodeOK, <-done)
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.GET("/wait", Timeout(20*time.Millisecond), func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	code, _ := codeOf(t, r, httptest.NewRequest(http.MethodGet, "/wait", nil))
	assert.Equal(t, resp.CodeTimeout, code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.GET("/", RequestID(), func(c *gin.Context) { c.String(http.StatusOK, c.GetString(KeyRequestID)) })

	rq := httptest.NewRequest(http.MethodGet, "/", nil)
	rq.Header.Set(KeyRequestID, "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, rq)
	assert.Equal(t, "abc", w.Body.String())
	assert.Equal(t, "abc", w.Header().Get(KeyRequestID))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Body.String(), 36)
}
