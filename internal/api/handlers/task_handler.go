package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/smarttools-be/internal/auth"
	"github.com/isdelr/smarttools-be/internal/httputil"
	"github.com/isdelr/smarttools-be/internal/services"
)

// TaskHandler handles HTTP requests for the tasks tool.
type TaskHandler struct {
	service services.TaskServiceProvider
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service services.TaskServiceProvider) *TaskHandler {
	return &TaskHandler{service: service}
}

// TaskPayload defines the structure for task creation.
type TaskPayload struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
}

// GetAll lists the caller's tasks.
func (h *TaskHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	account := auth.AccountFromContext(r.Context())
	tasks, err := h.service.ListTasks(r.Context(), account.ID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tasks)
}

// Create adds a task and reports any reward earned.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload TaskPayload
	if err := httputil.Decode(w, r, &payload); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	result, err := h.service.CreateTask(r.Context(), auth.AccountFromContext(r.Context()), payload.Title, payload.Description)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

// Complete marks a task as done.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(chi.URLParam(r, "id"), "task id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	task, err := h.service.CompleteTask(r.Context(), auth.AccountFromContext(r.Context()).ID, id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, task)
}

// Delete removes a task.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(chi.URLParam(r, "id"), "task id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	if err := h.service.DeleteTask(r.Context(), auth.AccountFromContext(r.Context()).ID, id); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
