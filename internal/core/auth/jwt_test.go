package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueParse(t *testing.T) {
	j := &JWTer{Secret: []byte("k"), Issuer: "trashbin"}

	tok, err := j.Issue("u1", "")
	require.NoError(t, err)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UID)
	assert.Equal(t, RoleUser, c.Role)
	assert.False(t, c.IsAdmin())
	assert.WithinDuration(t, time.Now().Add(defaultTTL), c.ExpiresAt.Time, 5*time.Second)
}

func TestParseRejects(t *testing.T) {
	j := &JWTer{Secret: []byte("k"), Issuer: "trashbin", TTL: time.Hour}
	tok, err := j.Issue("u1", RoleAdmin)
	require.NoError(t, err)

	other := &JWTer{Secret: []byte("other"), Issuer: "trashbin"}
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIss := &JWTer{Secret: []byte("k"), Issuer: "someone-else"}
	_, err = wrongIss.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = j.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
