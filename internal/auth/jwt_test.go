package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	ts := TokenService{
		Secret:   []byte("test-secret"),
		Issuer:   "pantryhub-test",
		Duration: time.Hour,
	}
	u := &User{ID: "u1", Username: "alex", Email: "alex@example.com", TokenVersion: 3}

	token, exp, err := ts.Sign(u)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := ts.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alex", claims.Username)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.Equal(t, "pantryhub-test", claims.Issuer)
}

func TestParse_WrongSecret(t *testing.T) {
	ts := TokenService{Secret: []byte("secret-a"), Issuer: "pantryhub", Duration: time.Hour}
	token, _, err := ts.Sign(&User{ID: "u1"})
	require.NoError(t, err)

	other := TokenService{Secret: []byte("secret-b"), Issuer: "pantryhub", Duration: time.Hour}
	_, err = other.Parse(token)
	assert.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	ts := TokenService{Secret: []byte("secret"), Issuer: "pantryhub", Duration: -time.Minute}
	token, _, err := ts.Sign(&User{ID: "u1"})
	require.NoError(t, err)

	_, err = ts.Parse(token)
	assert.Error(t, err)
}

func TestParse_Garbage(t *testing.T) {
	ts := TokenService{Secret: []byte("secret"), Issuer: "pantryhub", Duration: time.Hour}
	_, err := ts.Parse("not.a.token")
	assert.Error(t, err)
}
