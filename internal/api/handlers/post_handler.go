package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/smarttools-be/internal/auth"
	"github.com/isdelr/smarttools-be/internal/httputil"
	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/isdelr/smarttools-be/internal/services"
)

// PostHandler handles posts and their comments.
type PostHandler struct {
	posts    services.PostServiceProvider
	comments services.CommentServiceProvider
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(posts services.PostServiceProvider, comments services.CommentServiceProvider) *PostHandler {
	return &PostHandler{posts: posts, comments: comments}
}

// CommentPayload defines the structure for comment creation.
type CommentPayload struct {
	Content string `json:"content" validate:"required"`
}

// CommentUpdatePayload is a partial comment edit.
type CommentUpdatePayload struct {
	Content    *string `json:"content"`
	IsApproved *bool   `json:"is_approved"`
}

func postID(r *http.Request) (int64, error) {
	return httputil.PathInt64(chi.URLParam(r, "id"), "post id")
}

// GetAll lists active posts, newest first.
func (h *PostHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	page, err := h.posts.ListPosts(r.Context(),
		httputil.QueryInt(r, "page", 1),
		httputil.QueryInt(r, "per_page", services.DefaultPerPage))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

// Get returns one post. Admins also see inactive posts.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	account := auth.AccountFromContext(r.Context())
	post, err := h.posts.GetPost(r.Context(), id, account != nil && account.IsAdmin)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}

// Create publishes a post.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.PostInput
	if err := httputil.Decode(w, r, &in); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	post, err := h.posts.CreatePost(r.Context(), auth.AccountFromContext(r.Context()).ID, in)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, post)
}

// Update edits a post.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	var in models.PostInput
	if err := httputil.Decode(w, r, &in); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	post, err := h.posts.UpdatePost(r.Context(), auth.AccountFromContext(r.Context()).ID, id, in)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete removes a post with its comments.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if err := h.posts.DeletePost(r.Context(), auth.AccountFromContext(r.Context()).ID, id); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "post deleted")
}

// GetComments lists a post's approved comments.
func (h *PostHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	comments, err := h.comments.ListComments(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, comments)
}

// CreateComment adds a comment to a post.
func (h *PostHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	var payload CommentPayload
	if err := httputil.Decode(w, r, &payload); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	comment, err := h.comments.CreateComment(r.Context(), auth.AccountFromContext(r.Context()), id, payload.Content)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// UpdateComment edits or moderates a comment.
func (h *PostHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(chi.URLParam(r, "id"), "comment id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	var payload CommentUpdatePayload
	if err := httputil.Decode(w, r, &payload); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	comment, err := h.comments.UpdateComment(r.Context(), auth.AccountFromContext(r.Context()), id, services.CommentUpdate{
		Content:    payload.Content,
		IsApproved: payload.IsApproved,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, comment)
}

// DeleteComment removes a comment.
func (h *PostHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(chi.URLParam(r, "id"), "comment id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if err := h.comments.DeleteComment(r.Context(), auth.AccountFromContext(r.Context()), id); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "comment deleted")
}
