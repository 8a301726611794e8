package services

import (
	"context"
	"testing"

	"github.com/isdelr/smarttools-be/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account, err := env.accounts.Register(ctx, RegisterInput{
		Username: "  alice ",
		Email:    " alice@example.com ",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.NotZero(t, account.ID)
	assert.Equal(t, "alice", account.Username)
	assert.Equal(t, "alice@example.com", account.Email)
	assert.Equal(t, "ar", account.Locale)
	assert.Zero(t, account.Balance)
	assert.False(t, account.IsAdmin)
	assert.NotEqual(t, "secret", account.PasswordHash)
}

func TestRegisterConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")

	_, err := env.accounts.Register(ctx, RegisterInput{Username: "alice", Email: "new@example.com", Password: "x"})
	require.True(t, apperror.Is(err, apperror.KindConflict))
	assert.Equal(t, "username already exists", apperror.PublicMessage(err))

	_, err = env.accounts.Register(ctx, RegisterInput{Username: "newbie", Email: "alice@example.com", Password: "x"})
	require.True(t, apperror.Is(err, apperror.KindConflict))
	assert.Equal(t, "email already exists", apperror.PublicMessage(err))

	// Both taken: the username is reported first.
	_, err = env.accounts.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "x"})
	assert.Equal(t, "username already exists", apperror.PublicMessage(err))
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []RegisterInput{
		{Username: " ", Email: "a@example.com", Password: "x"},
		{Username: "a", Email: "", Password: "x"},
		{Username: "a", Email: "a@example.com", Password: ""},
		{Username: "a", Email: "a@example.com", Password: "x", Locale: "fr"},
	}
	for _, in := range cases {
		_, err := env.accounts.Register(ctx, in)
		assert.True(t, apperror.Is(err, apperror.KindValidation), "%+v", in)
	}

	account, err := env.accounts.Register(ctx, RegisterInput{Username: "b", Email: "b@example.com", Password: "x", Locale: "en"})
	require.NoError(t, err)
	assert.Equal(t, "en", account.Locale)
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	account, err := env.accounts.Authenticate(ctx, "alice", "password")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, account.ID)

	_, wrongPassword := env.accounts.Authenticate(ctx, "alice", "nope")
	_, unknownUser := env.accounts.Authenticate(ctx, "mallory", "password")
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, apperror.PublicMessage(wrongPassword), apperror.PublicMessage(unknownUser))
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	env.register(t, "bob")

	en := "en"
	updated, err := env.accounts.UpdateProfile(ctx, alice.ID, ProfileUpdate{Locale: &en})
	require.NoError(t, err)
	assert.Equal(t, "en", updated.Locale)

	taken := "bob@example.com"
	_, err = env.accounts.UpdateProfile(ctx, alice.ID, ProfileUpdate{Email: &taken})
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	_, err = env.accounts.UpdateProfile(ctx, alice.ID, ProfileUpdate{CurrentPassword: "wrong", NewPassword: "new"})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	_, err = env.accounts.UpdateProfile(ctx, alice.ID, ProfileUpdate{CurrentPassword: "password", NewPassword: "new"})
	require.NoError(t, err)
	_, err = env.accounts.Authenticate(ctx, "alice", "new")
	assert.NoError(t, err)
}

func TestGetAccountByIDNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.accounts.GetAccountByID(context.Background(), 404)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestViewAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.adminAccount(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	_, err := env.accounts.ViewAccount(ctx, nil, alice.ID)
	assert.True(t, apperror.Is(err, apperror.KindUnauthenticated))

	got, err := env.accounts.ViewAccount(ctx, &alice, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = env.accounts.ViewAccount(ctx, &bob, alice.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	got, err = env.accounts.ViewAccount(ctx, &admin, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = env.accounts.ViewAccount(ctx, &admin, 404)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
