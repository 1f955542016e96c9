package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/logger"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage/memory"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/user"
)

const testSecret = "test-secret"

func newAuth(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(memory.New(), testSecret, time.Hour, logger.Discard())
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuth(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &user.RegisterRequest{Username: "hero", Email: "Hero@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "hero@example.com", resp.User.Email)
	assert.Equal(t, 1, resp.User.Level)
	assert.NotEmpty(t, resp.Token)
	assert.NotEqual(t, "secret1", resp.User.PasswordHash)

	claims, err := svc.ParseToken(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.Subject)
	assert.Equal(t, "hero", claims.Username)

	login, err := svc.Login(ctx, &user.LoginRequest{Email: "hero@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = svc.Register(ctx, &user.RegisterRequest{Username: "HERO", Email: "other@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	svc := newAuth(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &user.RegisterRequest{Username: "hero", Email: "hero@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, &user.LoginRequest{Email: "hero@example.com", Password: "nope123"})
	_, unknownEmail := svc.Login(ctx, &user.LoginRequest{Email: "ghost@example.com", Password: "secret1"})
	require.ErrorIs(t, wrongPassword, apperror.ErrUnauthorized)
	require.ErrorIs(t, unknownEmail, apperror.ErrUnauthorized)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuth(t)
	ctx := context.Background()

	cases := []user.RegisterRequest{
		{Username: "ab", Email: "a@example.com", Password: "secret1"},
		{Username: "hero", Email: "not-an-email", Password: "secret1"},
		{Username: "hero", Email: "a@example.com", Password: "123"},
	}
	for _, req := range cases {
		_, err := svc.Register(ctx, &req)
		assert.ErrorIs(t, err, apperror.ErrValidation, "%+v", req)
	}
}

func TestParseTokenRejectsBadTokens(t *testing.T) {
	svc := newAuth(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &user.RegisterRequest{Username: "hero", Email: "hero@example.com", Password: "secret1"})
	require.NoError(t, err)

	other := NewAuthService(memory.New(), "another-secret", time.Hour, logger.Discard())
	_, err = other.ParseToken(ctx, resp.Token)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.ParseToken(ctx, "garbage")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: resp.User.ID, Issuer: tokenIssuer}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ParseToken(ctx, none)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ParseToken(ctx, resp.Token)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized, "expired")
}

func TestLogoutRevokesToken(t *testing.T) {
	svc := newAuth(t)
	svc.SetRevoker(newTestCache(t))
	ctx := context.Background()

	resp, err := svc.Register(ctx, &user.RegisterRequest{Username: "hero", Email: "hero@example.com", Password: "secret1"})
	require.NoError(t, err)
	claims, err := svc.ParseToken(ctx, resp.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))
	_, err = svc.ParseToken(ctx, resp.Token)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	fresh, err := svc.Login(ctx, &user.LoginRequest{Email: "hero@example.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.ParseToken(ctx, fresh.Token)
	assert.NoError(t, err, "other sessions stay valid")
}

func TestRegisterAddsUserToLeaderboard(t *testing.T) {
	svc := newAuth(t)
	board := newTestCache(t)
	svc.SetLeaderboardCache(board)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &user.RegisterRequest{Username: "hero", Email: "hero@example.com", Password: "secret1"})
	require.NoError(t, err)

	entry, err := board.Position(ctx, resp.User.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "hero", entry.Username)
	assert.Equal(t, 0, entry.XP)
	assert.Equal(t, 1, entry.Rank)
}
