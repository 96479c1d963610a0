package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arnavchau/authd/internal/logger"
	"github.com/arnavchau/authd/internal/middleware"
	usermodel "github.com/arnavchau/authd/internal/models/user"
	"github.com/arnavchau/authd/internal/service"
)

type AuthHandler struct {
	users *service.UserService
	log   *logger.Logger
}

func NewAuthHandler(users *service.UserService) *AuthHandler {
	return &AuthHandler{
		users: users,
		log:   logger.New("auth-handler"),
	}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	_, err := h.users.Register(r.Context(), &usermodel.CreateUserRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}, requestMeta(r))

	switch {
	case err == nil:
		respondJSON(w, http.StatusCreated, MessageResponse{Message: "user registered successfully"})
	case errors.Is(err, service.ErrMissingFields):
		respondError(w, http.StatusBadRequest, "missing required fields")
	case errors.Is(err, service.ErrEmailExists):
		respondError(w, http.StatusConflict, "email already exists")
	default:
		h.log.Error("Failed to register user: %v", err)
		respondServerError(w, err)
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.users.Login(r.Context(), &usermodel.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	}, requestMeta(r))

	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, TokenResponse{Token: resp.Token})
	case errors.Is(err, service.ErrMissingFields):
		respondError(w, http.StatusBadRequest, "missing email or password")
	case errors.Is(err, service.ErrUserNotFound):
		// Distinguishing unknown email from a bad password leaks account
		// existence; kept to match the original API contract.
		respondError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		h.log.Error("Failed to login: %v", err)
		respondServerError(w, err)
	}
}

// Profile expects to run behind the authorization gate, which puts the
// token subject into the request context.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.users.Profile(r.Context(), userID)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, user)
	case errors.Is(err, service.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "user not found")
	default:
		h.log.Error("Failed to get profile: %v", err)
		respondServerError(w, err)
	}
}

func (h *AuthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func requestMeta(r *http.Request) service.RequestMeta {
	return service.RequestMeta{
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServerError surfaces the operational error string as diagnostics.
// Hashes and secrets never travel through these error chains.
func respondServerError(w http.ResponseWriter, err error) {
	respondJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "server error",
		Details: err.Error(),
	})
}
