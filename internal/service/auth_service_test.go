package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	env := newDetachEnv(t)
	email := gofakeit.Email()

	user, err := env.auth.Register(ctx, "Dana", email, "s3cret-pass")
	require.NoError(t, err)
	assert.False(t, user.ID.IsZero())
	assert.Empty(t, user.PasswordHash)

	_, err = env.auth.Register(ctx, "Dana again", strings.ToUpper(email), "other")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	_, _, err = env.auth.Login(ctx, email, "wrong")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	_, _, err = env.auth.Login(ctx, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	token, logged, err := env.auth.Login(ctx, email, "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	uid, err := env.auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, uid)

	me, err := env.auth.Me(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "Dana", me.Name)
	assert.Empty(t, me.PasswordHash)

	_, err = env.auth.Me(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	env := newDetachEnv(t)

	_, err := env.auth.Register(ctx, "x", "", "pw")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.auth.Register(ctx, "x", "not-an-email", "pw")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.auth.Register(ctx, "x", gofakeit.Email(), strings.Repeat("p", 73))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.auth.Register(ctx, "x", gofakeit.Email(), strings.Repeat("p", 72))
	assert.NoError(t, err)
}

func TestAuthService_ParseToken(t *testing.T) {
	ctx := context.Background()
	env := newDetachEnv(t)
	email := gofakeit.Email()
	_, err := env.auth.Register(ctx, "", email, "pw")
	require.NoError(t, err)
	token, _, err := env.auth.Login(ctx, email, "pw")
	require.NoError(t, err)

	other := NewAuthService(env.repos.Users, "another-secret", time.Hour)
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = env.auth.ParseToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewAuthService(env.repos.Users, "test-secret", time.Nanosecond)
	token, _, err = expired.Login(ctx, email, "pw")
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	_, err = env.auth.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
