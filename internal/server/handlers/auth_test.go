package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/maryamfad/atlas-ecommerce-backend/internal/crypto"
	"github.com/maryamfad/atlas-ecommerce-backend/internal/models"
	"github.com/maryamfad/atlas-ecommerce-backend/internal/server/jwt"
	"github.com/maryamfad/atlas-ecommerce-backend/internal/server/revocation"
	"github.com/maryamfad/atlas-ecommerce-backend/internal/server/storage"
	"github.com/maryamfad/atlas-ecommerce-backend/pkg/api"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockUserStorage is a mock implementation of UserStorage for testing
type mockUserStorage struct {
	users       map[string]*models.User // username -> User
	createError error
	getError    error
	updateError error
}

func newMockUserStorage() *mockUserStorage {
	return &mockUserStorage{users: make(map[string]*models.User)}
}

func (m *mockUserStorage) CreateUser(ctx context.Context, user *models.User) error {
	if m.createError != nil {
		return m.createError
	}
	if _, exists := m.users[user.Username]; exists {
		return storage.ErrUserAlreadyExists
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return storage.ErrUserAlreadyExists
		}
	}
	m.users[user.Username] = user
	return nil
}

func (m *mockUserStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	user, ok := m.users[username]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserStorage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	for _, user := range m.users {
		if user.ID == userID {
			return user, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *mockUserStorage) UpdateUser(ctx context.Context, user *models.User) error {
	if m.updateError != nil {
		return m.updateError
	}
	m.users[user.Username] = user
	return nil
}

func (m *mockUserStorage) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	if m.updateError != nil {
		return m.updateError
	}
	for _, user := range m.users {
		if user.ID == userID {
			user.PasswordHash = passwordHash
			user.UpdatedAt = time.Now()
			return nil
		}
	}
	return storage.ErrUserNotFound
}

func (m *mockUserStorage) DeleteUser(ctx context.Context, userID string) error {
	for username, user := range m.users {
		if user.ID == userID {
			delete(m.users, username)
			return nil
		}
	}
	return storage.ErrUserNotFound
}

type testDeps struct {
	users    *mockUserStorage
	hasher   *crypto.Hasher
	tokens   *jwt.Service
	registry *revocation.Memory
}

func newTestHandler(t *testing.T) (*AuthHandler, *testDeps) {
	t.Helper()

	deps := &testDeps{
		users:    newMockUserStorage(),
		hasher:   crypto.NewHasher(bcrypt.MinCost),
		registry: revocation.NewMemory(),
	}

	tokens, err := jwt.NewService("test-secret", time.Hour)
	require.NoError(t, err)
	deps.tokens = tokens

	handler := NewAuthHandler(setupTestLogger(), deps.users, deps.hasher, tokens, deps.registry)
	return handler, deps
}

func (d *testDeps) addUser(t *testing.T, username, email, password string) *models.User {
	t.Helper()

	hash, err := d.hasher.Hash(password)
	require.NoError(t, err)

	now := time.Now()
	user := &models.User{
		ID:           "id-" + username,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.DefaultRole,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	d.users.users[username] = user
	return user
}

func postJSON(t *testing.T, path string, body interface{}) *http.Request {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withAuthContext(req *http.Request, userID, token string) *http.Request {
	ctx := context.WithValue(req.Context(), UserIDKey, userID)
	ctx = context.WithValue(ctx, RoleKey, models.DefaultRole)
	ctx = context.WithValue(ctx, TokenKey, token)
	return req.WithContext(ctx)
}

func TestAuthHandler_Signup_Success(t *testing.T) {
	handler, deps := newTestHandler(t)

	req := postJSON(t, "/auth/signup", api.SignupRequest{
		Username: "alice",
		Email:    "a@x.com",
		Password: "p@ss1",
	})

	w := httptest.NewRecorder()
	handler.Signup(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	var resp api.UserResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, "a@x.com", resp.Email)
	assert.Equal(t, "customer", resp.Role)
	assert.False(t, resp.CreatedAt.IsZero())
	assert.False(t, resp.UpdatedAt.IsZero())

	// Neither the raw password nor its hash may appear in the response
	stored := deps.users.users["alice"]
	require.NotNil(t, stored)
	assert.NotContains(t, body, "p@ss1")
	assert.NotContains(t, body, stored.PasswordHash)

	// The stored hash verifies against the submitted password
	match, err := deps.hasher.Verify("p@ss1", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, match)
}

func TestAuthHandler_Signup_InvalidInput(t *testing.T) {
	handler, _ := newTestHandler(t)

	tests := []struct {
		name    string
		request api.SignupRequest
	}{
		{
			name:    "all fields empty or malformed",
			request: api.SignupRequest{Username: "", Email: "bad", Password: ""},
		},
		{
			name:    "empty username",
			request: api.SignupRequest{Username: "", Email: "a@x.com", Password: "pass"},
		},
		{
			name:    "empty password",
			request: api.SignupRequest{Username: "alice", Email: "a@x.com", Password: ""},
		},
		{
			name:    "malformed email",
			request: api.SignupRequest{Username: "alice", Email: "bad", Password: "pass"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := postJSON(t, "/auth/signup", tt.request)

			w := httptest.NewRecorder()
			handler.Signup(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"error":"Invalid Input"}`, w.Body.String())
		})
	}
}

func TestAuthHandler_Signup_InvalidJSON(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewReader([]byte("not json")))

	w := httptest.NewRecorder()
	handler.Signup(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid Input"}`, w.Body.String())
}

func TestAuthHandler_Signup_Duplicate(t *testing.T) {
	handler, deps := newTestHandler(t)
	deps.addUser(t, "alice", "a@x.com", "p@ss1")

	req := postJSON(t, "/auth/signup", api.SignupRequest{
		Username: "alice",
		Email:    "other@x.com",
		Password: "p@ss2",
	})

	w := httptest.NewRecorder()
	handler.Signup(w, req)

	// Duplicates share the generic invalid-input response
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid Input"}`, w.Body.String())
}

func TestAuthHandler_Login_Success(t *testing.T) {
	handler, deps := newTestHandler(t)
	user := deps.addUser(t, "alice", "a@x.com", "p@ss1")

	req := postJSON(t, "/auth/login", api.LoginRequest{Username: "alice", Password: "p@ss1"})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)

	claims, err := deps.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "customer", claims.Role)
}

func TestAuthHandler_Login_FailureParity(t *testing.T) {
	handler, deps := newTestHandler(t)
	deps.addUser(t, "alice", "a@x.com", "p@ss1")

	wrongPassword := httptest.NewRecorder()
	handler.Login(wrongPassword, postJSON(t, "/auth/login",
		api.LoginRequest{Username: "alice", Password: "wrong"}))

	unknownUser := httptest.NewRecorder()
	handler.Login(unknownUser, postJSON(t, "/auth/login",
		api.LoginRequest{Username: "nobody", Password: "p@ss1"}))

	// Wrong password and unknown user must be indistinguishable
	assert.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownUser.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, wrongPassword.Body.String())
}

func TestAuthHandler_Login_InvalidJSON(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte("not json")))

	w := httptest.NewRecorder()
	handler.Login(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, w.Body.String())
}

func TestAuthHandler_Logout_RevokesToken(t *testing.T) {
	handler, deps := newTestHandler(t)
	user := deps.addUser(t, "alice", "a@x.com", "p@ss1")

	token, err := deps.tokens.Mint(user.ID, user.Role)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req = withAuthContext(req, user.ID, token)

	w := httptest.NewRecorder()
	handler.Logout(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logged out successfully", w.Body.String())

	revoked, err := deps.registry.IsRevoked(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestAuthHandler_Logout_NoTokenInContext(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)

	w := httptest.NewRecorder()
	handler.Logout(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_ChangePassword_Success(t *testing.T) {
	handler, deps := newTestHandler(t)
	user := deps.addUser(t, "alice", "a@x.com", "old-pass")
	oldHash := user.PasswordHash

	req := postJSON(t, "/auth/password", api.ChangePasswordRequest{
		CurrentPassword: "old-pass",
		NewPassword:     "new-pass",
	})
	req = withAuthContext(req, user.ID, "token")

	w := httptest.NewRecorder()
	handler.ChangePassword(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	stored := deps.users.users["alice"]
	assert.NotEqual(t, oldHash, stored.PasswordHash)

	match, err := deps.hasher.Verify("new-pass", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, match)
}

func TestAuthHandler_ChangePassword_WrongCurrent(t *testing.T) {
	handler, deps := newTestHandler(t)
	user := deps.addUser(t, "alice", "a@x.com", "old-pass")
	oldHash := user.PasswordHash

	req := postJSON(t, "/auth/password", api.ChangePasswordRequest{
		CurrentPassword: "not-the-password",
		NewPassword:     "new-pass",
	})
	req = withAuthContext(req, user.ID, "token")

	w := httptest.NewRecorder()
	handler.ChangePassword(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, w.Body.String())
	assert.Equal(t, oldHash, deps.users.users["alice"].PasswordHash)
}

func TestAuthHandler_Me(t *testing.T) {
	handler, deps := newTestHandler(t)
	user := deps.addUser(t, "alice", "a@x.com", "p@ss1")

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = withAuthContext(req, user.ID, "token")

	w := httptest.NewRecorder()
	handler.Me(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	var resp api.UserResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, "a@x.com", resp.Email)
	assert.NotContains(t, body, user.PasswordHash)
}

func TestAuthHandler_Me_UserGone(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = withAuthContext(req, "deleted-user", "token")

	w := httptest.NewRecorder()
	handler.Me(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
