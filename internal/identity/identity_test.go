package identity

import (
	"context"
	"testing"
	"time"

	"github.com/anoixa/colab/database/dbtest"
	"github.com/anoixa/colab/database/repo/users"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func sign(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":     "google-oauth2|42",
		"name":    "Ada",
		"email":   "ada@example.com",
		"picture": "https://example.com/ada.png",
		"iss":     "https://id.example.com/",
		"exp":     time.Now().Add(time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
}

func TestNewVerifierRejectsShortSecret(t *testing.T) {
	_, err := NewVerifier("short", "")
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	v, err := NewVerifier(testSecret, "https://id.example.com/")
	require.NoError(t, err)

	claims, err := v.Verify(sign(t, jwt.SigningMethodHS256, testSecret, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, &Claims{
		Subject: "google-oauth2|42",
		Name:    "Ada",
		Email:   "ada@example.com",
		Picture: "https://example.com/ada.png",
	}, claims)

	with := func(mutate func(jwt.MapClaims)) jwt.MapClaims {
		c := validClaims()
		mutate(c)
		return c
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "not.a.token", ErrInvalidToken},
		{"wrong secret", sign(t, jwt.SigningMethodHS256, testSecret+"x", validClaims()), ErrInvalidToken},
		{"wrong algorithm", sign(t, jwt.SigningMethodHS512, testSecret, validClaims()), ErrInvalidToken},
		{"expired", sign(t, jwt.SigningMethodHS256, testSecret, with(func(c jwt.MapClaims) {
			c["exp"] = time.Now().Add(-time.Minute).Unix()
		})), ErrInvalidToken},
		{"no expiry", sign(t, jwt.SigningMethodHS256, testSecret, with(func(c jwt.MapClaims) {
			delete(c, "exp")
		})), ErrInvalidToken},
		{"wrong issuer", sign(t, jwt.SigningMethodHS256, testSecret, with(func(c jwt.MapClaims) {
			c["iss"] = "https://evil.example.com/"
		})), ErrInvalidToken},
		{"missing subject", sign(t, jwt.SigningMethodHS256, testSecret, with(func(c jwt.MapClaims) {
			delete(c, "sub")
		})), ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVerifyWithoutIssuer(t *testing.T) {
	v, err := NewVerifier(testSecret, "")
	require.NoError(t, err)

	c := validClaims()
	c["iss"] = "anyone"
	claims, err := v.Verify(sign(t, jwt.SigningMethodHS256, testSecret, c))
	require.NoError(t, err)
	assert.Equal(t, "google-oauth2|42", claims.Subject)
}

func TestServiceSync(t *testing.T) {
	svc := NewService(users.NewRepository(dbtest.NewProvider(t)))
	ctx := context.Background()

	user, err := svc.Sync(ctx, &Claims{Subject: "u1", Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Empty(t, user.Friends)

	_, err = svc.Sync(ctx, &Claims{Subject: "u2", Name: "Bo"})
	require.NoError(t, err)
	_, err = svc.AddFriend(ctx, "u1", "u2")
	require.NoError(t, err)

	// 资料刷新不影响好友
	user, err = svc.Sync(ctx, &Claims{Subject: "u1", Name: "Ada Lovelace", Picture: "p.png"})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", user.Name)
	assert.Equal(t, []string{"u2"}, user.Friends)

	_, err = svc.Sync(ctx, &Claims{})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestServiceFriends(t *testing.T) {
	svc := NewService(users.NewRepository(dbtest.NewProvider(t)))
	ctx := context.Background()
	_, err := svc.Sync(ctx, &Claims{Subject: "u1"})
	require.NoError(t, err)

	_, err = svc.AddFriend(ctx, "u1", "u1")
	assert.ErrorIs(t, err, ErrSelfFriend)

	_, err = svc.AddFriend(ctx, "u1", "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.GetUser(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
