package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/blueprint-share/pkg/blueprints"
)

// UserHandler handles HTTP requests for user accounts
type UserHandler struct {
	service blueprints.Service
	auth    *Auth
}

// NewUserHandler creates a new user handler
func NewUserHandler(service blueprints.Service, auth *Auth) *UserHandler {
	return &UserHandler{service: service, auth: auth}
}

// Routes returns the routes for user accounts
func (h *UserHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.auth.Verifier())

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/password/forgot", h.ForgotPassword)
	r.Post("/password/reset", h.ResetPassword)
	r.Get("/confirm/{token}", h.ConfirmAccount)

	r.Group(func(r chi.Router) {
		r.Use(h.auth.Authenticator)

		r.Get("/me", h.Me)
		r.Delete("/me", h.DeleteAccount)
		r.Post("/confirm/resend", h.ResendConfirmation)
		r.Post("/apikey", h.GenerateAPIKey)
	})

	return r
}

// RegisterRequest is the request body for creating an account
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new account and sends the confirmation email
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "username, email and password are required", http.StatusBadRequest)
		return
	}

	userID, err := h.service.RegisterUser(r.Context(), blueprints.RegisterUserRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		slog.Error("Failed to register user", "username", req.Username, "error", err)
		renderError(w, r, err)
		return
	}

	if err := h.service.SendConfirmAccountEmail(r.Context(), userID); err != nil {
		slog.Error("Failed to send confirmation email", "user_id", userID, "error", err)
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]int64{"id": userID})
}

// LoginRequest is the request body for opening a session
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the session token
type LoginResponse struct {
	Token     string `json:"token"`
	UserID    int64  `json:"user_id"`
	Confirmed bool   `json:"confirmed"`
}

// Login verifies credentials and issues a session token
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	userID, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		renderError(w, r, err)
		return
	}

	confirmed, resend, err := h.service.IsUserConfirmed(r.Context(), userID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	if resend {
		if err := h.service.SendConfirmAccountEmail(r.Context(), userID); err != nil {
			slog.Error("Failed to resend confirmation email", "user_id", userID, "error", err)
		}
	}

	token, err := h.auth.IssueToken(userID)
	if err != nil {
		renderError(w, r, err)
		return
	}

	if err := h.service.SaveLastLogin(r.Context(), userID); err != nil {
		slog.Error("Failed to save last login", "user_id", userID, "error", err)
	}

	render.JSON(w, r, LoginResponse{Token: token, UserID: userID, Confirmed: confirmed})
}

// ForgotPasswordRequest is the request body for starting a password reset
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword starts a password reset. The response does not reveal
// whether the email belongs to an account.
func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.service.BeginPasswordReset(r.Context(), req.Email); err != nil {
		slog.Error("Failed to begin password reset", "error", err)
	}

	render.JSON(w, r, map[string]string{"status": "ok"})
}

// ResetPasswordRequest is the request body for completing a password reset
type ResetPasswordRequest struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword completes a password reset using the emailed token
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Password == "" {
		http.Error(w, "password is required", http.StatusBadRequest)
		return
	}

	userID, err := h.service.FindUserIDByResetToken(r.Context(), req.Email, req.Token)
	if err != nil {
		renderError(w, r, err)
		return
	}

	if err := h.service.ResetPassword(r.Context(), userID, req.Password); err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{"status": "ok"})
}

// ConfirmAccount validates an emailed confirmation token
func (h *UserHandler) ConfirmAccount(w http.ResponseWriter, r *http.Request) {
	confirmed, err := h.service.ConfirmAccount(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		renderError(w, r, err)
		return
	}
	if !confirmed {
		http.Error(w, "invalid or expired token", http.StatusNotFound)
		return
	}

	render.JSON(w, r, map[string]string{"status": "confirmed"})
}

// ResendConfirmation resends the confirmation email when the throttle allows
func (h *UserHandler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	confirmed, resend, err := h.service.IsUserConfirmed(r.Context(), userID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	if confirmed {
		http.Error(w, "account already confirmed", http.StatusConflict)
		return
	}
	if !resend {
		http.Error(w, "confirmation email sent recently", http.StatusTooManyRequests)
		return
	}

	if err := h.service.SendConfirmAccountEmail(r.Context(), userID); err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{"status": "sent"})
}

// Me returns the connected user
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, user)
}

// DeleteAccount removes the connected user and detaches their blueprints
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	if err := h.service.SoftDeleteFromAuthor(r.Context(), userID); err != nil {
		renderError(w, r, err)
		return
	}
	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{"status": "deleted"})
}

// GenerateAPIKey issues a fresh API key, replacing any previous one
func (h *UserHandler) GenerateAPIKey(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	key, err := h.service.GenerateAPIKey(r.Context(), userID)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{"api_key": key})
}
