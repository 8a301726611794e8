package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/isdelr/smarttools-be/internal/apperror"
	"github.com/isdelr/smarttools-be/internal/clock"
	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/jmoiron/sqlx"
)

// CommentUpdate is an edit request. Content is reserved to the author and
// IsApproved to admins.
type CommentUpdate struct {
	Content    *string
	IsApproved *bool
}

// CommentServiceProvider defines the interface for comment services.
type CommentServiceProvider interface {
	ListComments(ctx context.Context, postID int64) ([]models.Comment, error)
	ListAllComments(ctx context.Context, approvedOnly bool, page, perPage int) ([]models.Comment, models.Page, error)
	CreateComment(ctx context.Context, author *models.Account, postID int64, content string) (models.Comment, error)
	UpdateComment(ctx context.Context, actor *models.Account, id int64, upd CommentUpdate) (models.Comment, error)
	SetApproval(ctx context.Context, id int64, approved bool) (models.Comment, error)
	DeleteComment(ctx context.Context, actor *models.Account, id int64) error
}

// CommentService manages comments and their moderation.
type CommentService struct {
	db    *sqlx.DB
	clock clock.Clock
	posts PostServiceProvider
}

// NewCommentService creates a new CommentService.
func NewCommentService(db *sqlx.DB, clk clock.Clock, posts PostServiceProvider) *CommentService {
	return &CommentService{db: db, clock: clk, posts: posts}
}

const commentSelect = `
	SELECT c.id, c.post_id, c.account_id, a.username, c.content, c.is_approved, c.created_at
	FROM comments c JOIN accounts a ON a.id = c.account_id`

func cleanContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", apperror.Validation("comment content is required")
	}
	if utf8.RuneCountInString(content) > models.MaxCommentLength {
		return "", apperror.Validation(fmt.Sprintf("comment must be at most %d characters", models.MaxCommentLength))
	}
	return content, nil
}

// ListComments returns the approved comments of an active post, oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID int64) ([]models.Comment, error) {
	if _, err := s.posts.GetPost(ctx, postID, false); err != nil {
		return nil, err
	}
	comments := []models.Comment{}
	err := s.db.SelectContext(ctx, &comments, s.db.Rebind(commentSelect+`
		WHERE c.post_id = ? AND c.is_approved = TRUE
		ORDER BY c.created_at, c.id`), postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// ListAllComments is the moderation view over every post.
func (s *CommentService) ListAllComments(ctx context.Context, approvedOnly bool, page, perPage int) ([]models.Comment, models.Page, error) {
	page, perPage, offset := normalizePage(page, perPage)

	where := ""
	if approvedOnly {
		where = " WHERE c.is_approved = TRUE"
	}

	var total int64
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM comments c"+where); err != nil {
		return nil, models.Page{}, fmt.Errorf("failed to count comments: %w", err)
	}
	comments := []models.Comment{}
	err := s.db.SelectContext(ctx, &comments, s.db.Rebind(commentSelect+where+`
		ORDER BY c.created_at DESC, c.id DESC LIMIT ? OFFSET ?`), perPage, offset)
	if err != nil {
		return nil, models.Page{}, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, models.NewPage(page, perPage, total), nil
}

func (s *CommentService) getComment(ctx context.Context, id int64) (models.Comment, error) {
	var comment models.Comment
	err := s.db.GetContext(ctx, &comment, s.db.Rebind(commentSelect+" WHERE c.id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comment{}, apperror.NotFound("comment not found")
	}
	if err != nil {
		return models.Comment{}, fmt.Errorf("failed to load comment %d: %w", id, err)
	}
	return comment, nil
}

// CreateComment adds an approved comment to an active post.
func (s *CommentService) CreateComment(ctx context.Context, author *models.Account, postID int64, content string) (models.Comment, error) {
	if author == nil {
		return models.Comment{}, apperror.Unauthenticated("login required")
	}
	if _, err := s.posts.GetPost(ctx, postID, false); err != nil {
		return models.Comment{}, err
	}
	content, err := cleanContent(content)
	if err != nil {
		return models.Comment{}, err
	}

	comment := models.Comment{
		PostID:     postID,
		AccountID:  author.ID,
		Username:   author.Username,
		Content:    content,
		IsApproved: true,
		CreatedAt:  clock.Stamp(s.clock.Now()),
	}
	err = s.db.QueryRowxContext(ctx, s.db.Rebind(`
		INSERT INTO comments (post_id, account_id, content, is_approved, created_at)
		VALUES (?, ?, ?, TRUE, ?) RETURNING id`),
		comment.PostID, comment.AccountID, comment.Content, comment.CreatedAt,
	).Scan(&comment.ID)
	if err != nil {
		return models.Comment{}, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

// UpdateComment lets the author change the text and an admin moderate it.
func (s *CommentService) UpdateComment(ctx context.Context, actor *models.Account, id int64, upd CommentUpdate) (models.Comment, error) {
	if actor == nil {
		return models.Comment{}, apperror.Unauthenticated("login required")
	}
	comment, err := s.getComment(ctx, id)
	if err != nil {
		return models.Comment{}, err
	}

	isAuthor := comment.AccountID == actor.ID
	if upd.Content == nil && upd.IsApproved == nil {
		return models.Comment{}, apperror.Validation("nothing to update")
	}
	if upd.Content != nil && !isAuthor {
		return models.Comment{}, apperror.Forbidden("only the author can edit this comment")
	}
	if upd.IsApproved != nil && !actor.IsAdmin {
		return models.Comment{}, apperror.Forbidden("only admins can moderate comments")
	}

	if upd.Content != nil {
		if comment.Content, err = cleanContent(*upd.Content); err != nil {
			return models.Comment{}, err
		}
	}
	if upd.IsApproved != nil {
		comment.IsApproved = *upd.IsApproved
	}

	_, err = s.db.ExecContext(ctx, s.db.Rebind("UPDATE comments SET content = ?, is_approved = ? WHERE id = ?"),
		comment.Content, comment.IsApproved, id)
	if err != nil {
		return models.Comment{}, fmt.Errorf("failed to update comment %d: %w", id, err)
	}
	return comment, nil
}

// SetApproval is the admin moderation shortcut.
func (s *CommentService) SetApproval(ctx context.Context, id int64, approved bool) (models.Comment, error) {
	comment, err := s.getComment(ctx, id)
	if err != nil {
		return models.Comment{}, err
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("UPDATE comments SET is_approved = ? WHERE id = ?"), approved, id); err != nil {
		return models.Comment{}, fmt.Errorf("failed to moderate comment %d: %w", id, err)
	}
	comment.IsApproved = approved
	return comment, nil
}

// DeleteComment removes a comment. Only its author or an admin may do so.
func (s *CommentService) DeleteComment(ctx context.Context, actor *models.Account, id int64) error {
	if actor == nil {
		return apperror.Unauthenticated("login required")
	}
	comment, err := s.getComment(ctx, id)
	if err != nil {
		return err
	}
	if comment.AccountID != actor.ID && !actor.IsAdmin {
		return apperror.Forbidden("not allowed to delete this comment")
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM comments WHERE id = ?"), id); err != nil {
		return fmt.Errorf("failed to delete comment %d: %w", id, err)
	}
	return nil
}
