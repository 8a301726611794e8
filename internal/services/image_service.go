package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/smarttools-be/internal/apperror"
	"github.com/isdelr/smarttools-be/internal/clock"
	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const (
	// MaxImageBytes caps a single upload.
	MaxImageBytes = 5 << 20
	// ImageLifetime is how long an uploaded image stays on display.
	ImageLifetime = 24 * time.Hour
	// ImageURLPrefix is where stored images are served from.
	ImageURLPrefix = "/uploads/"
)

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageServiceProvider defines the interface for user image services.
type ImageServiceProvider interface {
	Upload(ctx context.Context, account *models.Account, r io.Reader) (models.UserImage, error)
	ListDisplayed(ctx context.Context) ([]models.UserImage, error)
	ListForReview(ctx context.Context, status string, page, perPage int) ([]models.UserImage, models.Page, error)
	Approve(ctx context.Context, id int64) (models.UserImage, error)
	Delete(ctx context.Context, id int64) error
	DeleteForAccount(ctx context.Context, accountID int64) (int, error)
	CleanupExpired(ctx context.Context) (int64, int, error)
	CountPending(ctx context.Context) (int64, error)
}

// ImageService stores uploaded images on disk and their metadata in the DB.
type ImageService struct {
	db        *sqlx.DB
	clock     clock.Clock
	tools     ToolServiceProvider
	uploadDir string
}

// NewImageService creates a new ImageService, ensuring the upload directory exists.
func NewImageService(db *sqlx.DB, clk clock.Clock, tools ToolServiceProvider, uploadDir string) (*ImageService, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &ImageService{db: db, clock: clk, tools: tools, uploadDir: uploadDir}, nil
}

const imageSelect = `
	SELECT i.id, i.account_id, a.username, i.path, i.uploaded_at, i.expires_at, i.is_approved, i.is_active
	FROM user_images i JOIN accounts a ON a.id = i.account_id`

func (s *ImageService) diskPath(urlPath string) string {
	return filepath.Join(s.uploadDir, path.Base(urlPath))
}

// Upload stores an image for the account. It stays pending until approved
// and expires after ImageLifetime.
func (s *ImageService) Upload(ctx context.Context, account *models.Account, r io.Reader) (models.UserImage, error) {
	if _, err := s.tools.RequireUsable(ctx, account, models.ToolUserImage); err != nil {
		return models.UserImage{}, err
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return models.UserImage{}, apperror.Validation("failed to read image")
	}
	if len(data) == 0 {
		return models.UserImage{}, apperror.Validation("image is required")
	}
	if len(data) > MaxImageBytes {
		return models.UserImage{}, apperror.Validation("image must be at most 5 MB")
	}
	ext, ok := imageExtensions[http.DetectContentType(data)]
	if !ok {
		return models.UserImage{}, apperror.Validation("unsupported image type")
	}

	name := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(s.uploadDir, name), data, 0644); err != nil {
		return models.UserImage{}, fmt.Errorf("failed to store image: %w", err)
	}

	now := clock.Stamp(s.clock.Now())
	img := models.UserImage{
		AccountID:  account.ID,
		Username:   account.Username,
		Path:       ImageURLPrefix + name,
		UploadedAt: now,
		ExpiresAt:  now.Add(ImageLifetime),
		IsActive:   true,
	}
	err = s.db.QueryRowxContext(ctx, s.db.Rebind(`
		INSERT INTO user_images (account_id, path, uploaded_at, expires_at, is_approved, is_active)
		VALUES (?, ?, ?, ?, FALSE, TRUE) RETURNING id`),
		img.AccountID, img.Path, img.UploadedAt, img.ExpiresAt,
	).Scan(&img.ID)
	if err != nil {
		os.Remove(filepath.Join(s.uploadDir, name)) // Clean up orphaned file
		return models.UserImage{}, fmt.Errorf("failed to record image: %w", err)
	}
	return img, nil
}

// ListDisplayed returns approved images that have not expired.
func (s *ImageService) ListDisplayed(ctx context.Context) ([]models.UserImage, error) {
	images := []models.UserImage{}
	err := s.db.SelectContext(ctx, &images, s.db.Rebind(imageSelect+`
		WHERE i.is_active = TRUE AND i.is_approved = TRUE AND i.expires_at > ?
		ORDER BY i.uploaded_at DESC, i.id DESC`), clock.Stamp(s.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return images, nil
}

// ListForReview lists active images filtered by approval status.
func (s *ImageService) ListForReview(ctx context.Context, status string, page, perPage int) ([]models.UserImage, models.Page, error) {
	page, perPage, offset := normalizePage(page, perPage)

	where := " WHERE i.is_active = TRUE"
	switch status {
	case "", models.ImageStatusPending:
		where += " AND i.is_approved = FALSE"
	case models.ImageStatusApproved:
		where += " AND i.is_approved = TRUE"
	case models.ImageStatusAll:
	default:
		return nil, models.Page{}, apperror.Validation("status must be pending, approved or all")
	}

	var total int64
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM user_images i"+where); err != nil {
		return nil, models.Page{}, fmt.Errorf("failed to count images: %w", err)
	}
	images := []models.UserImage{}
	err := s.db.SelectContext(ctx, &images, s.db.Rebind(imageSelect+where+`
		ORDER BY i.uploaded_at DESC, i.id DESC LIMIT ? OFFSET ?`), perPage, offset)
	if err != nil {
		return nil, models.Page{}, fmt.Errorf("failed to list images: %w", err)
	}
	return images, models.NewPage(page, perPage, total), nil
}

func (s *ImageService) getImage(ctx context.Context, id int64) (models.UserImage, error) {
	var img models.UserImage
	err := s.db.GetContext(ctx, &img, s.db.Rebind(imageSelect+" WHERE i.id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserImage{}, apperror.NotFound("image not found")
	}
	if err != nil {
		return models.UserImage{}, fmt.Errorf("failed to load image %d: %w", id, err)
	}
	return img, nil
}

// Approve publishes a pending image.
func (s *ImageService) Approve(ctx context.Context, id int64) (models.UserImage, error) {
	img, err := s.getImage(ctx, id)
	if err != nil {
		return models.UserImage{}, err
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("UPDATE user_images SET is_approved = TRUE WHERE id = ?"), id); err != nil {
		return models.UserImage{}, fmt.Errorf("failed to approve image %d: %w", id, err)
	}
	img.IsApproved = true
	return img, nil
}

// Delete removes an image row and its file.
func (s *ImageService) Delete(ctx context.Context, id int64) error {
	img, err := s.getImage(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM user_images WHERE id = ?"), id); err != nil {
		return fmt.Errorf("failed to delete image %d: %w", id, err)
	}
	if err := os.Remove(s.diskPath(img.Path)); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Int64("image_id", id).Msg("Failed to remove image file")
	}
	return nil
}

// DeleteForAccount removes every image row and file owned by the account.
// It returns the number of files removed.
func (s *ImageService) DeleteForAccount(ctx context.Context, accountID int64) (int, error) {
	var paths []string
	if err := s.db.SelectContext(ctx, &paths, s.db.Rebind("SELECT path FROM user_images WHERE account_id = ?"), accountID); err != nil {
		return 0, fmt.Errorf("failed to find images of account %d: %w", accountID, err)
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM user_images WHERE account_id = ?"), accountID); err != nil {
		return 0, fmt.Errorf("failed to delete images of account %d: %w", accountID, err)
	}
	return s.removeFiles(paths), nil
}

func (s *ImageService) removeFiles(paths []string) int {
	removed := 0
	for _, p := range paths {
		if err := os.Remove(s.diskPath(p)); err == nil {
			removed++
		} else if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", p).Msg("Failed to remove image file")
		}
	}
	return removed
}

// CleanupExpired deletes expired image rows and their files. It returns the
// number of rows and files removed.
func (s *ImageService) CleanupExpired(ctx context.Context) (int64, int, error) {
	now := clock.Stamp(s.clock.Now())

	var paths []string
	if err := s.db.SelectContext(ctx, &paths, s.db.Rebind("SELECT path FROM user_images WHERE expires_at < ?"), now); err != nil {
		return 0, 0, fmt.Errorf("failed to find expired images: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM user_images WHERE expires_at < ?"), now)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete expired images: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows, s.removeFiles(paths), nil
}

// CountPending returns the number of images awaiting review.
func (s *ImageService) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM user_images WHERE is_approved = FALSE AND is_active = TRUE")
	return n, err
}
