package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chemviz/internal/config"
	"chemviz/internal/security"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	hash, err := security.HashPasswordWithParams("s3cret!",
		security.PasswordParams{N: 1024, R: 8, P: 1, SaltLen: 16, KeyLen: 32})
	require.NoError(t, err)

	return NewAuthService(config.AuthConfig{
		Enabled: true,
		Users: map[string]string{
			"analyst": hash,
			"broken":  "scrypt$not-a-hash",
		},
		TokenTTL: time.Hour,
	}, testLogger())
}

func TestAuthService_Login(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	assert.True(t, svc.Enabled())

	token, err := svc.Login(ctx, "analyst", "s3cret!")
	require.NoError(t, err)
	assert.NotEmpty(t, token.Key)

	// a second login reuses the live token
	again, err := svc.Login(ctx, "analyst", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, token.Key, again.Key)

	user, err := svc.ValidateToken(ctx, token.Key)
	require.NoError(t, err)
	assert.Equal(t, "analyst", user)
}

func TestAuthService_LoginFailures(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "analyst", "nope"},
		{"unknown user", "intruder", "s3cret!"},
		{"empty password", "analyst", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, security.ErrInvalidCredentials)
		})
	}
}

func TestAuthService_MalformedHashIsServerError(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Login(context.Background(), "broken", "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, security.ErrMalformedHash)
	assert.NotErrorIs(t, err, security.ErrInvalidCredentials)
}

func TestAuthService_Logout(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	token, err := svc.Login(ctx, "analyst", "s3cret!")
	require.NoError(t, err)

	svc.Logout(ctx, token.Key)

	_, err = svc.ValidateToken(ctx, token.Key)
	assert.ErrorIs(t, err, security.ErrInvalidToken)
}

func TestAuthService_UsersAreCopied(t *testing.T) {
	users := map[string]string{}
	svc := NewAuthService(config.AuthConfig{Users: users}, testLogger())
	users["late"] = "scrypt$1$1$1$a$b"

	assert.False(t, svc.Enabled())
	_, err := svc.Login(context.Background(), "late", "pw")
	assert.ErrorIs(t, err, security.ErrInvalidCredentials)
}
