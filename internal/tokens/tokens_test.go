package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdocs/askdocs/internal/models"
)

func TestGenerateAndVerify(t *testing.T) {
	u := &models.User{ID: "user_1", Email: "a@b.c", Name: "Alice"}
	secret := "test-secret-32-bytes-xxxxxxxxxxx"

	raw, err := GenerateAccessToken(secret, u, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	ver := NewJWTVerifier(secret)
	tok, err := ver.Verify(context.Background(), raw)
	require.NoError(t, err)

	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	assert.Equal(t, "user_1", claims["sub"])
	assert.Equal(t, "a@b.c", claims["email"])
}

func TestVerify_WrongSecret(t *testing.T) {
	u := &models.User{ID: "user_1"}
	raw, err := GenerateAccessToken("secret-one", u, time.Hour)
	require.NoError(t, err)

	_, err = NewJWTVerifier("secret-two").Verify(context.Background(), raw)
	assert.Error(t, err)
}

func TestVerify_Expired(t *testing.T) {
	u := &models.User{ID: "user_1"}
	raw, err := GenerateAccessToken("secret", u, -time.Minute)
	require.NoError(t, err)

	_, err = NewJWTVerifier("secret").Verify(context.Background(), raw)
	assert.Error(t, err)
}

func TestVerify_Garbage(t *testing.T) {
	_, err := NewJWTVerifier("secret").Verify(context.Background(), "not.a.jwt")
	assert.Error(t, err)
}
