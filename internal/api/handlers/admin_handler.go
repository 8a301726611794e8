package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/smarttools-be/internal/auth"
	"github.com/isdelr/smarttools-be/internal/httputil"
	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/isdelr/smarttools-be/internal/services"
)

// AdminHandler serves the admin console.
type AdminHandler struct {
	admin    services.AdminServiceProvider
	tools    services.ToolServiceProvider
	comments services.CommentServiceProvider
	images   services.ImageServiceProvider
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	admin services.AdminServiceProvider,
	tools services.ToolServiceProvider,
	comments services.CommentServiceProvider,
	images services.ImageServiceProvider,
) *AdminHandler {
	return &AdminHandler{admin: admin, tools: tools, comments: comments, images: images}
}

// PointsPayload sets an account balance.
type PointsPayload struct {
	Points *int64 `json:"points" validate:"required,gte=0"`
}

// ApprovalPayload moderates a comment.
type ApprovalPayload struct {
	IsApproved *bool `json:"is_approved" validate:"required"`
}

func pathID(r *http.Request) (int64, error) {
	return httputil.PathInt64(chi.URLParam(r, "id"), "id")
}

func paging(r *http.Request) (int, int) {
	return httputil.QueryInt(r, "page", 1), httputil.QueryInt(r, "per_page", services.DefaultPerPage)
}

// Dashboard returns the overview statistics.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Dashboard(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// Users lists accounts.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	page, perPage := paging(r)
	result, err := h.admin.ListAccounts(r.Context(), r.URL.Query().Get("search"), page, perPage)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// ToggleAdmin flips an account's admin flag.
func (h *AdminHandler) ToggleAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	account, err := h.admin.ToggleAdmin(r.Context(), auth.AccountFromContext(r.Context()), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, account)
}

// SetPoints overrides an account's balance.
func (h *AdminHandler) SetPoints(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	var payload PointsPayload
	if err := httputil.Decode(w, r, &payload); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	account, err := h.admin.SetBalance(r.Context(), auth.AccountFromContext(r.Context()), id, *payload.Points)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, account)
}

// DeleteUser removes an account.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if err := h.admin.DeleteAccount(r.Context(), auth.AccountFromContext(r.Context()), id); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "user deleted")
}

// Tools lists the whole catalog, inactive tools included.
func (h *AdminHandler) Tools(w http.ResponseWriter, r *http.Request) {
	tools, err := h.tools.GetAllTools(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tools)
}

// UpdateTool edits a tool.
func (h *AdminHandler) UpdateTool(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	var upd models.ToolUpdate
	if err := httputil.Decode(w, r, &upd); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	tool, err := h.admin.UpdateTool(r.Context(), auth.AccountFromContext(r.Context()), id, upd)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tool)
}

// Comments lists comments for moderation.
func (h *AdminHandler) Comments(w http.ResponseWriter, r *http.Request) {
	page, perPage := paging(r)
	approvedOnly := r.URL.Query().Get("approved_only") == "true"

	comments, meta, err := h.comments.ListAllComments(r.Context(), approvedOnly, page, perPage)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"comments": comments, "pagination": meta})
}

// SetApproval moderates a comment.
func (h *AdminHandler) SetApproval(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	var payload ApprovalPayload
	if err := httputil.Decode(w, r, &payload); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	comment, err := h.comments.SetApproval(r.Context(), id, *payload.IsApproved)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, comment)
}

// Images lists uploaded images by status.
func (h *AdminHandler) Images(w http.ResponseWriter, r *http.Request) {
	page, perPage := paging(r)
	images, meta, err := h.images.ListForReview(r.Context(), r.URL.Query().Get("status"), page, perPage)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"images": images, "pagination": meta})
}

// ApproveImage publishes an image.
func (h *AdminHandler) ApproveImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	img, err := h.admin.ApproveImage(r.Context(), auth.AccountFromContext(r.Context()), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, img)
}

// DeleteImage rejects an image.
func (h *AdminHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if err := h.admin.RejectImage(r.Context(), auth.AccountFromContext(r.Context()), id); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "image deleted")
}

// Cleanup removes expired images and sessions.
func (h *AdminHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	result, err := h.admin.Cleanup(r.Context(), auth.AccountFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// Analytics returns the usage report.
func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	report, err := h.admin.Analytics(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}
