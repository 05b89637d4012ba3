package router

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type mod struct {
	name  string
	prio  int
	trace *[]string
}

func (m mod) MountAPI(_, _ *gin.RouterGroup) { *m.trace = append(*m.trace, "api:"+m.name) }
func (m mod) MountAdmin(*gin.RouterGroup)    { *m.trace = append(*m.trace, "admin:"+m.name) }
func (m mod) Priority() int                  { return m.prio }

type apiOnly struct{ trace *[]string }

func (a apiOnly) MountAPI(_, _ *gin.RouterGroup) { *a.trace = append(*a.trace, "api:plain") }

func TestRegistryMountOrder(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var trace []string
	reg := NewRegistry(
		apiOnly{&trace},
		mod{"posts", 50, &trace},
		mod{"users", 10, &trace},
		"ignored",
	)

	g := gin.New().Group("")
	reg.MountAllAPI(g, g)
	reg.MountAllAdmin(g)

	assert.Equal(t, []string{
		"api:users", "api:posts", "api:plain",
		"admin:users", "admin:posts",
	}, trace)
}
