package services

import (
	"context"
	"strings"
	"testing"

	"github.com/isdelr/smarttools-be/internal/apperror"
	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) post(t *testing.T) models.Post {
	t.Helper()
	post, err := e.posts.CreatePost(context.Background(), 1, newPostInput("Thread"))
	require.NoError(t, err)
	return post
}

func TestCreateCommentLengthLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	post := env.post(t)

	// Arabic letters are multi-byte; the limit counts characters.
	ok := strings.Repeat("ب", models.MaxCommentLength)
	c, err := env.comments.CreateComment(ctx, &alice, post.ID, ok)
	require.NoError(t, err)
	assert.True(t, c.IsApproved)
	assert.Equal(t, "alice", c.Username)

	_, err = env.comments.CreateComment(ctx, &alice, post.ID, ok+"ب")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = env.comments.CreateComment(ctx, &alice, post.ID, "   ")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = env.comments.CreateComment(ctx, nil, post.ID, "hi")
	assert.True(t, apperror.Is(err, apperror.KindUnauthenticated))
}

func TestCommentOnInactivePostRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	post := env.post(t)

	inactive := false
	_, err := env.posts.UpdatePost(ctx, 1, post.ID, models.PostInput{IsActive: &inactive})
	require.NoError(t, err)

	_, err = env.comments.CreateComment(ctx, &alice, post.ID, "hello")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = env.comments.ListComments(ctx, post.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestUpdateCommentPermissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	admin := env.adminAccount(t)
	post := env.post(t)

	c, err := env.comments.CreateComment(ctx, &alice, post.ID, "first")
	require.NoError(t, err)

	edited := "edited"
	_, err = env.comments.UpdateComment(ctx, &bob, c.ID, CommentUpdate{Content: &edited})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	hidden := false
	_, err = env.comments.UpdateComment(ctx, &alice, c.ID, CommentUpdate{IsApproved: &hidden})
	assert.True(t, apperror.Is(err, apperror.KindForbidden), "authors cannot moderate")

	_, err = env.comments.UpdateComment(ctx, &alice, c.ID, CommentUpdate{})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	got, err := env.comments.UpdateComment(ctx, &alice, c.ID, CommentUpdate{Content: &edited})
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)

	got, err = env.comments.UpdateComment(ctx, &admin, c.ID, CommentUpdate{IsApproved: &hidden})
	require.NoError(t, err)
	assert.False(t, got.IsApproved)

	_, err = env.comments.UpdateComment(ctx, &alice, 999, CommentUpdate{Content: &edited})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestUnapprovedCommentsHiddenFromPublic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	post := env.post(t)

	shown, err := env.comments.CreateComment(ctx, &alice, post.ID, "shown")
	require.NoError(t, err)
	hidden, err := env.comments.CreateComment(ctx, &alice, post.ID, "hidden")
	require.NoError(t, err)
	_, err = env.comments.SetApproval(ctx, hidden.ID, false)
	require.NoError(t, err)

	public, err := env.comments.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, shown.ID, public[0].ID)

	got, err := env.posts.GetPost(ctx, post.ID, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.CommentCount)

	all, page, err := env.comments.ListAllComments(ctx, false, 1, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.EqualValues(t, 2, page.Total)

	approved, _, err := env.comments.ListAllComments(ctx, true, 1, 10)
	require.NoError(t, err)
	assert.Len(t, approved, 1)
}

func TestDeleteCommentPermissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	admin := env.adminAccount(t)
	post := env.post(t)

	c1, err := env.comments.CreateComment(ctx, &alice, post.ID, "one")
	require.NoError(t, err)
	c2, err := env.comments.CreateComment(ctx, &alice, post.ID, "two")
	require.NoError(t, err)

	assert.True(t, apperror.Is(env.comments.DeleteComment(ctx, &bob, c1.ID), apperror.KindForbidden))
	assert.NoError(t, env.comments.DeleteComment(ctx, &alice, c1.ID))
	assert.NoError(t, env.comments.DeleteComment(ctx, &admin, c2.ID))
	assert.True(t, apperror.Is(env.comments.DeleteComment(ctx, &admin, c2.ID), apperror.KindNotFound))
}
