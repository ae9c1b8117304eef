package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/maryamfad/atlas-ecommerce-backend/internal/crypto"
	"github.com/maryamfad/atlas-ecommerce-backend/internal/models"
	"github.com/maryamfad/atlas-ecommerce-backend/internal/server/jwt"
	"github.com/maryamfad/atlas-ecommerce-backend/internal/server/revocation"
	"github.com/maryamfad/atlas-ecommerce-backend/internal/server/storage"
	"github.com/maryamfad/atlas-ecommerce-backend/internal/validation"
	"github.com/maryamfad/atlas-ecommerce-backend/pkg/api"
)

// Client-facing error messages. Login failures must be byte-identical
// whether the username or the password was wrong.
const (
	msgInvalidInput       = "Invalid Input"
	msgInvalidCredentials = "Invalid credentials"
	msgUnknownError       = "unknown error"
)

// AuthHandler orchestrates signup, login and logout over the hasher,
// token service, user storage and revocation registry.
type AuthHandler struct {
	logger    *slog.Logger
	users     storage.UserStorage
	hasher    *crypto.Hasher
	tokens    *jwt.Service
	revoked   revocation.Registry
	dummyHash string
}

// NewAuthHandler creates a new handler for the auth endpoints
func NewAuthHandler(
	logger *slog.Logger,
	users storage.UserStorage,
	hasher *crypto.Hasher,
	tokens *jwt.Service,
	revoked revocation.Registry,
) *AuthHandler {
	// Pre-computed hash compared against on the user-not-found login
	// path so both failure branches pay the same bcrypt cost.
	dummyHash, err := hasher.Hash("atlas-timing-parity")
	if err != nil {
		logger.Error("failed to precompute dummy hash", slog.Any("error", err))
	}

	return &AuthHandler{
		logger:    logger,
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		revoked:   revoked,
		dummyHash: dummyHash,
	}
}

// Signup handles POST /auth/signup.
// Creates an account with the default role; the password is hashed
// exactly once, before first persistence.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode signup request", slog.Any("error", err))
		h.sendError(w, msgInvalidInput, http.StatusBadRequest)
		return
	}

	if err := validation.ValidateUsername(req.Username); err != nil {
		h.logger.WarnContext(ctx, "signup rejected: invalid username", slog.Any("error", err))
		h.sendError(w, msgInvalidInput, http.StatusBadRequest)
		return
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		h.logger.WarnContext(ctx, "signup rejected: invalid email", slog.Any("error", err))
		h.sendError(w, msgInvalidInput, http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		h.logger.WarnContext(ctx, "signup rejected: invalid password", slog.Any("error", err))
		h.sendError(w, msgInvalidInput, http.StatusBadRequest)
		return
	}

	passwordHash, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		h.sendError(w, msgUnknownError, http.StatusInternalServerError)
		return
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         models.DefaultRole,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.users.CreateUser(ctx, user); err != nil {
		// Duplicates and other store failures share one client-facing
		// response; only the logs distinguish them.
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.logger.WarnContext(ctx, "signup rejected: username or email taken",
				slog.String("username", req.Username))
		} else {
			h.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
		}
		h.sendError(w, msgInvalidInput, http.StatusBadRequest)
		return
	}

	h.logger.InfoContext(ctx, "user registered",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID))

	h.sendJSON(w, userResponse(user), http.StatusOK)
}

// Login handles POST /auth/login.
// A nonexistent username and a wrong password produce identical
// responses; the dummy compare keeps their timing aligned too.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request", slog.Any("error", err))
		h.sendError(w, msgInvalidCredentials, http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			if h.dummyHash != "" {
				_, _ = h.hasher.Verify(req.Password, h.dummyHash)
			}
			h.logger.WarnContext(ctx, "login failed: user not found",
				slog.String("username", req.Username))
			h.sendError(w, msgInvalidCredentials, http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		h.sendError(w, msgUnknownError, http.StatusInternalServerError)
		return
	}

	match, err := h.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to verify password", slog.Any("error", err))
		h.sendError(w, msgUnknownError, http.StatusInternalServerError)
		return
	}
	if !match {
		h.logger.WarnContext(ctx, "login failed: password mismatch",
			slog.String("username", req.Username))
		h.sendError(w, msgInvalidCredentials, http.StatusBadRequest)
		return
	}

	token, err := h.tokens.Mint(user.ID, user.Role)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to mint token", slog.Any("error", err))
		h.sendError(w, msgUnknownError, http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user logged in",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID))

	h.sendJSON(w, api.TokenResponse{Token: token}, http.StatusOK)
}

// Logout handles POST /auth/logout.
// The authorization gate has already run: a revoked or invalid token
// never reaches this handler, so revocation here is a one-shot
// transition per token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, ok := GetToken(ctx)
	if !ok || token == "" {
		h.logger.ErrorContext(ctx, "logout: no token in request context")
		h.sendError(w, "logout was not successful", http.StatusBadRequest)
		return
	}

	if err := h.revoked.Revoke(ctx, token); err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke token", slog.Any("error", err))
		h.sendError(w, "logout was not successful", http.StatusBadRequest)
		return
	}

	userID, _ := GetUserID(ctx)
	h.logger.InfoContext(ctx, "user logged out", slog.String("user_id", userID))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Logged out successfully"))
}

// ChangePassword handles POST /auth/password.
// Re-hashing happens only here and only for the new password; profile
// updates elsewhere never touch the stored hash.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, msgUnknownError, http.StatusInternalServerError)
		return
	}

	var req api.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode password change request", slog.Any("error", err))
		h.sendError(w, msgInvalidInput, http.StatusBadRequest)
		return
	}

	if err := validation.ValidatePassword(req.NewPassword); err != nil {
		h.sendError(w, msgInvalidInput, http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		h.sendError(w, msgUnknownError, http.StatusInternalServerError)
		return
	}

	match, err := h.hasher.Verify(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to verify password", slog.Any("error", err))
		h.sendError(w, msgUnknownError, http.StatusInternalServerError)
		return
	}
	if !match {
		h.logger.WarnContext(ctx, "password change failed: wrong current password",
			slog.String("user_id", userID))
		h.sendError(w, msgInvalidCredentials, http.StatusBadRequest)
		return
	}

	newHash, err := h.hasher.Hash(req.NewPassword)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		h.sendError(w, msgUnknownError, http.StatusInternalServerError)
		return
	}

	if err := h.users.UpdatePassword(ctx, userID, newHash); err != nil {
		h.logger.ErrorContext(ctx, "failed to update password", slog.Any("error", err))
		h.sendError(w, msgUnknownError, http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "password changed", slog.String("user_id", userID))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Password updated successfully"))
}

// Me handles GET /auth/me, returning the authenticated user's profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, msgUnknownError, http.StatusInternalServerError)
		return
	}

	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "authenticated user no longer exists",
				slog.String("user_id", userID))
			h.sendError(w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		h.sendError(w, msgUnknownError, http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, userResponse(user), http.StatusOK)
}

// userResponse maps the model to its public view
func userResponse(user *models.User) api.UserResponse {
	return api.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// sendJSON writes a JSON response
func (h *AuthHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError writes a JSON error response
func (h *AuthHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, api.ErrorResponse{Error: message}, statusCode)
}
