package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/isdelr/smarttools-be/internal/apperror"
	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostInput(title string) models.PostInput {
	return models.PostInput{
		TitleAr:   title + " ar",
		TitleEn:   title + " en",
		ContentAr: "محتوى",
		ContentEn: "content",
	}
}

func TestCreatePostRequiresBothLanguages(t *testing.T) {
	env := newTestEnv(t)
	in := newPostInput("Hello")
	in.ContentAr = "  "

	_, err := env.posts.CreatePost(context.Background(), 1, in)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestInactivePostsAreHidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inactive := false
	in := newPostInput("Draft")
	in.IsActive = &inactive
	draft, err := env.posts.CreatePost(ctx, 1, in)
	require.NoError(t, err)

	_, err = env.posts.GetPost(ctx, draft.ID, false)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	got, err := env.posts.GetPost(ctx, draft.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "Draft en", got.TitleEn)

	page, err := env.posts.ListPosts(ctx, 1, 50)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	for _, p := range page.Posts {
		assert.NotEqual(t, draft.ID, p.ID)
	}

	active := true
	_, err = env.posts.UpdatePost(ctx, 1, draft.ID, models.PostInput{IsActive: &active})
	require.NoError(t, err)
	got, err = env.posts.GetPost(ctx, draft.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "Draft ar", got.TitleAr, "empty fields keep their value")
}

func TestListPostsPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i := 0; i < 9; i++ {
		_, err := env.posts.CreatePost(ctx, 1, newPostInput(fmt.Sprintf("Post %d", i)))
		require.NoError(t, err)
	}

	first, err := env.posts.ListPosts(ctx, 1, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 12, first.Total)
	assert.Equal(t, 3, first.Pages)
	require.Len(t, first.Posts, 5)
	assert.Equal(t, "Post 8 en", first.Posts[0].TitleEn)

	last, err := env.posts.ListPosts(ctx, 3, 5)
	require.NoError(t, err)
	assert.Len(t, last.Posts, 2)

	defaults, err := env.posts.ListPosts(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, defaults.Page.Page)
	assert.Equal(t, DefaultPerPage, defaults.PerPage)
}

func TestDeletePostRecordsEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	post, err := env.posts.CreatePost(ctx, 1, newPostInput("Gone"))
	require.NoError(t, err)
	require.NoError(t, env.posts.DeletePost(ctx, 1, post.ID))
	assert.True(t, apperror.Is(env.posts.DeletePost(ctx, 1, post.ID), apperror.KindNotFound))

	events, err := env.events.GetRecentEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, EventPostChanged, e.Type)
		require.NotNil(t, e.ActorID)
		assert.EqualValues(t, 1, *e.ActorID)
	}
}
