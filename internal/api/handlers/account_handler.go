package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/smarttools-be/internal/auth"
	"github.com/isdelr/smarttools-be/internal/httputil"
	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/isdelr/smarttools-be/internal/services"
	"github.com/rs/zerolog/log"
)

// AccountHandler handles registration, login and the caller's profile.
type AccountHandler struct {
	service services.AccountServiceProvider
	authn   *auth.Authenticator
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(service services.AccountServiceProvider, authn *auth.Authenticator) *AccountHandler {
	return &AccountHandler{service: service, authn: authn}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username" validate:"required,max=80"`
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required"`
	Language string `json:"language" validate:"omitempty,oneof=ar en"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfilePayload is a partial profile edit.
type ProfilePayload struct {
	Email           *string `json:"email" validate:"omitempty,email,max=120"`
	Language        *string `json:"preferred_language" validate:"omitempty,oneof=ar en"`
	CurrentPassword string  `json:"current_password"`
	Password        string  `json:"password"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message string          `json:"message"`
	User    *models.Account `json:"user"`
	Token   string          `json:"token"`
}

// Register creates an account and logs it in.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := httputil.Decode(w, r, &payload); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	account, err := h.service.Register(r.Context(), services.RegisterInput{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
		Locale:   payload.Language,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	token, err := h.authn.Login(w, r, account.ID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	log.Info().Int64("account_id", account.ID).Str("username", account.Username).Msg("Account registered")
	httputil.WriteJSON(w, http.StatusCreated, AuthResponse{Message: "account created", User: &account, Token: token})
}

// Login verifies credentials and starts a session.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := httputil.Decode(w, r, &payload); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	account, err := h.service.Authenticate(r.Context(), payload.Username, payload.Password)
	if err != nil {
		log.Warn().Str("username", payload.Username).Msg("Failed authentication attempt")
		httputil.WriteError(w, r, err)
		return
	}

	token, err := h.authn.Login(w, r, account.ID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AuthResponse{Message: "logged in", User: &account, Token: token})
}

// Logout ends the current session.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authn.Logout(w, r); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "logged out")
}

// Profile returns the authenticated account.
func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, auth.AccountFromContext(r.Context()))
}

// GetUser returns a single account; users see their own, admins see any.
func (h *AccountHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(chi.URLParam(r, "id"), "user id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	account, err := h.service.ViewAccount(r.Context(), auth.AccountFromContext(r.Context()), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, account)
}

// UpdateProfile edits the caller's email, language or password.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	current := auth.AccountFromContext(r.Context())

	var payload ProfilePayload
	if err := httputil.Decode(w, r, &payload); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	account, err := h.service.UpdateProfile(r.Context(), current.ID, services.ProfileUpdate{
		Email:           payload.Email,
		Locale:          payload.Language,
		CurrentPassword: payload.CurrentPassword,
		NewPassword:     payload.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"message": "profile updated", "user": account})
}
