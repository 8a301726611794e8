package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/isdelr/smarttools-be/internal/apperror"
	"github.com/isdelr/smarttools-be/internal/clock"
	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// PostServiceProvider defines the interface for post services.
type PostServiceProvider interface {
	ListPosts(ctx context.Context, page, perPage int) (models.PostPage, error)
	GetPost(ctx context.Context, id int64, includeInactive bool) (models.Post, error)
	CreatePost(ctx context.Context, actorID int64, in models.PostInput) (models.Post, error)
	UpdatePost(ctx context.Context, actorID, id int64, in models.PostInput) (models.Post, error)
	DeletePost(ctx context.Context, actorID, id int64) error
}

// PostService manages bilingual posts.
type PostService struct {
	db     *sqlx.DB
	clock  clock.Clock
	events EventServiceProvider
}

// NewPostService creates a new PostService.
func NewPostService(db *sqlx.DB, clk clock.Clock, events EventServiceProvider) *PostService {
	return &PostService{db: db, clock: clk, events: events}
}

const postSelect = `
	SELECT p.id, p.title_ar, p.title_en, p.content_ar, p.content_en, p.is_active, p.created_at,
		(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id AND c.is_approved = TRUE) AS comment_count
	FROM posts p`

// ListPosts returns one page of active posts, newest first.
func (s *PostService) ListPosts(ctx context.Context, page, perPage int) (models.PostPage, error) {
	page, perPage, offset := normalizePage(page, perPage)

	var total int64
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM posts WHERE is_active = TRUE"); err != nil {
		return models.PostPage{}, fmt.Errorf("failed to count posts: %w", err)
	}

	posts := []models.Post{}
	err := s.db.SelectContext(ctx, &posts, s.db.Rebind(postSelect+`
		WHERE p.is_active = TRUE
		ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?`), perPage, offset)
	if err != nil {
		return models.PostPage{}, fmt.Errorf("failed to list posts: %w", err)
	}
	return models.PostPage{Posts: posts, Page: models.NewPage(page, perPage, total)}, nil
}

// GetPost loads one post. Inactive posts are hidden unless includeInactive.
func (s *PostService) GetPost(ctx context.Context, id int64, includeInactive bool) (models.Post, error) {
	var post models.Post
	err := s.db.GetContext(ctx, &post, s.db.Rebind(postSelect+" WHERE p.id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !post.IsActive && !includeInactive) {
		return models.Post{}, apperror.NotFound("post not found")
	}
	if err != nil {
		return models.Post{}, fmt.Errorf("failed to load post %d: %w", id, err)
	}
	return post, nil
}

func trimPostInput(in models.PostInput) models.PostInput {
	in.TitleAr = strings.TrimSpace(in.TitleAr)
	in.TitleEn = strings.TrimSpace(in.TitleEn)
	in.ContentAr = strings.TrimSpace(in.ContentAr)
	in.ContentEn = strings.TrimSpace(in.ContentEn)
	return in
}

// CreatePost publishes a post. Both languages are mandatory.
func (s *PostService) CreatePost(ctx context.Context, actorID int64, in models.PostInput) (models.Post, error) {
	in = trimPostInput(in)
	if in.TitleAr == "" || in.TitleEn == "" || in.ContentAr == "" || in.ContentEn == "" {
		return models.Post{}, apperror.Validation("title and content are required in both languages")
	}

	post := models.Post{
		TitleAr:   in.TitleAr,
		TitleEn:   in.TitleEn,
		ContentAr: in.ContentAr,
		ContentEn: in.ContentEn,
		IsActive:  in.IsActive == nil || *in.IsActive,
		CreatedAt: clock.Stamp(s.clock.Now()),
	}
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(`
		INSERT INTO posts (title_ar, title_en, content_ar, content_en, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		post.TitleAr, post.TitleEn, post.ContentAr, post.ContentEn, post.IsActive, post.CreatedAt,
	).Scan(&post.ID)
	if err != nil {
		return models.Post{}, fmt.Errorf("failed to create post: %w", err)
	}

	s.audit(ctx, actorID, fmt.Sprintf("Post %d created", post.ID))
	return post, nil
}

// UpdatePost edits a post. Empty fields keep their current value.
func (s *PostService) UpdatePost(ctx context.Context, actorID, id int64, in models.PostInput) (models.Post, error) {
	post, err := s.GetPost(ctx, id, true)
	if err != nil {
		return models.Post{}, err
	}

	in = trimPostInput(in)
	keep := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	keep(&post.TitleAr, in.TitleAr)
	keep(&post.TitleEn, in.TitleEn)
	keep(&post.ContentAr, in.ContentAr)
	keep(&post.ContentEn, in.ContentEn)
	if in.IsActive != nil {
		post.IsActive = *in.IsActive
	}

	_, err = s.db.NamedExecContext(ctx, `
		UPDATE posts SET title_ar = :title_ar, title_en = :title_en,
			content_ar = :content_ar, content_en = :content_en, is_active = :is_active
		WHERE id = :id`, post)
	if err != nil {
		return models.Post{}, fmt.Errorf("failed to update post %d: %w", id, err)
	}

	s.audit(ctx, actorID, fmt.Sprintf("Post %d updated", id))
	return post, nil
}

// DeletePost removes a post and its comments.
func (s *PostService) DeletePost(ctx context.Context, actorID, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM posts WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete post %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("post not found")
	}
	s.audit(ctx, actorID, fmt.Sprintf("Post %d deleted", id))
	return nil
}

func (s *PostService) audit(ctx context.Context, actorID int64, msg string) {
	if s.events == nil {
		return
	}
	if err := s.events.CreateEvent(ctx, EventPostChanged, "info", msg, &actorID); err != nil {
		log.Error().Err(err).Msg("Failed to record post event")
	}
}
