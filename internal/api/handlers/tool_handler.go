package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/smarttools-be/internal/apperror"
	"github.com/isdelr/smarttools-be/internal/auth"
	"github.com/isdelr/smarttools-be/internal/httputil"
	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/isdelr/smarttools-be/internal/services"
	"github.com/rs/zerolog/log"
)

// ToolHandler serves the tool catalog and tool invocations.
type ToolHandler struct {
	tools  services.ToolServiceProvider
	images services.ImageServiceProvider
}

// NewToolHandler creates a new ToolHandler.
func NewToolHandler(tools services.ToolServiceProvider, images services.ImageServiceProvider) *ToolHandler {
	return &ToolHandler{tools: tools, images: images}
}

// List returns the active tools annotated for the caller.
func (h *ToolHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.tools.ListTools(r.Context(), auth.AccountFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, views)
}

// Invoke runs a text tool.
func (h *ToolHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var in services.ToolInput
	if err := httputil.Decode(w, r, &in); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	account := auth.AccountFromContext(r.Context())
	result, err := h.tools.Invoke(r.Context(), account, key, in)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if result.PointsAwarded {
		log.Info().Int64("account_id", account.ID).Str("tool", key).Msg("Daily reward granted")
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// UploadImage stores the multipart "image" field for display.
func (h *ToolHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	account := auth.AccountFromContext(r.Context())
	if _, err := h.tools.RequireUsable(r.Context(), account, models.ToolUserImage); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageBytes+(1<<20))
	file, _, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, r, apperror.Validation("image must be at most 5 MB"))
			return
		}
		httputil.WriteError(w, r, apperror.Validation("image is required"))
		return
	}
	defer file.Close()

	img, err := h.images.Upload(r.Context(), account, file)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "image uploaded and awaiting approval",
		"image":   img,
	})
}

// Displayed returns the approved images currently on display.
func (h *ToolHandler) Displayed(w http.ResponseWriter, r *http.Request) {
	images, err := h.images.ListDisplayed(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, images)
}
