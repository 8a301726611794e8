package models

import "time"

// Post is a bilingual announcement.
type Post struct {
	ID           int64     `db:"id" json:"id"`
	TitleAr      string    `db:"title_ar" json:"title_ar"`
	TitleEn      string    `db:"title_en" json:"title_en"`
	ContentAr    string    `db:"content_ar" json:"content_ar"`
	ContentEn    string    `db:"content_en" json:"content_en"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	CommentCount int64     `db:"comment_count" json:"comments_count"`
}

// PostInput carries the writable fields of a post.
type PostInput struct {
	TitleAr   string `json:"title_ar"`
	TitleEn   string `json:"title_en"`
	ContentAr string `json:"content_ar"`
	ContentEn string `json:"content_en"`
	IsActive  *bool  `json:"is_active"`
}

// Comment is a user remark on a post.
type Comment struct {
	ID         int64     `db:"id" json:"id"`
	PostID     int64     `db:"post_id" json:"post_id"`
	AccountID  int64     `db:"account_id" json:"user_id"`
	Username   string    `db:"username" json:"username"`
	Content    string    `db:"content" json:"content"`
	IsApproved bool      `db:"is_approved" json:"is_approved"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// MaxCommentLength is the maximum comment length in characters.
const MaxCommentLength = 1000
