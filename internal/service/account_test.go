package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.svc.Accounts.Register(ctx, "  Alice@Example.com ", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		_, err := env.svc.Accounts.Register(ctx, "ALICE@example.com", "another1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrConflict))
		assert.Equal(t, "User already exists", PublicMessage(err))
	})

	t.Run("short password", func(t *testing.T) {
		_, err := env.svc.Accounts.Register(ctx, "bob@example.com", "abc")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidInput))
		assert.Equal(t, "Password must be at least 6 characters.", PublicMessage(err))
	})

	t.Run("malformed email", func(t *testing.T) {
		_, err := env.svc.Accounts.Register(ctx, "not-an-email", "secret123")
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})
}

func TestAccountService_LoginAndAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.seedUser(t, "carol@example.com")

	result, err := env.svc.Accounts.Login(ctx, "Carol@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, userID, result.User.ID)
	assert.Equal(t, "carol@example.com", result.User.Email)

	got, err := env.svc.Accounts.Authenticate(result.Token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	me, err := env.svc.Accounts.Me(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", me.Email)

	t.Run("wrong password", func(t *testing.T) {
		_, err := env.svc.Accounts.Login(ctx, "carol@example.com", "wrong-password")
		assert.True(t, errors.Is(err, ErrUnauthorized))
		assert.Equal(t, "Invalid credentials", PublicMessage(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.svc.Accounts.Login(ctx, "nobody@example.com", "secret123")
		assert.True(t, errors.Is(err, ErrUnauthorized))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := env.svc.Accounts.Authenticate("not.a.token")
		assert.True(t, errors.Is(err, ErrUnauthorized))
		assert.Equal(t, "Invalid or expired token", PublicMessage(err))
	})

	t.Run("deleted user", func(t *testing.T) {
		_, err := env.svc.Accounts.Me(ctx, "missing-user")
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}
