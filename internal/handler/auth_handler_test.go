package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-auth-service/internal/config"
	"go-auth-service/internal/event"
	"go-auth-service/internal/handler"
	"go-auth-service/internal/middleware"
	"go-auth-service/internal/model"
	"go-auth-service/internal/router"
	"go-auth-service/internal/service"
	"go-auth-service/internal/token"
	"go-auth-service/internal/validation"
)

// memoryStore is an in-memory UserStore that mirrors the repository's
// behavior, unique constraints included.
type memoryStore struct {
	mu    sync.Mutex
	users map[string]model.User // keyed by uuid
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: map[string]model.User{}}
}

func (s *memoryStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return model.ErrEmailTaken
		}
		if existing.Username == u.Username {
			return model.ErrUsernameTaken
		}
	}

	s.users[u.UUID] = u
	return nil
}

func (s *memoryStore) FindActiveByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email && u.IsActive {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memoryStore) FindActiveByUUID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok && u.IsActive {
		return u, nil
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memoryStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type envelope struct {
	Code    int               `json:"code"`
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type testServer struct {
	*httptest.Server
	store  *memoryStore
	tokens *token.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := newMemoryStore()
	tokens, err := token.NewManager("test-access-secret", "test-refresh-secret", 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)

	svc := service.NewAuthService(store, service.NewBcryptHasher(), tokens, event.NewBus())
	authHandler := handler.NewAuthHandler(svc, store, validation.DefaultPasswordPolicy())
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	cfg := &config.Config{
		RequestTimeout: 30 * time.Second,
		CORSOrigins:    []string{"*"},
	}

	server := httptest.NewServer(router.New(cfg, authMiddleware, authHandler, nil))
	t.Cleanup(server.Close)

	return &testServer{Server: server, store: store, tokens: tokens}
}

func (ts *testServer) postJSON(t *testing.T, path string, payload any) (*http.Response, envelope) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func (ts *testServer) get(t *testing.T, path string, bearer string) (*http.Response, envelope) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func registerPayload() map[string]any {
	return map[string]any{
		"username":              "testuser",
		"email":                 "testuser@example.com",
		"password":              "Password123!",
		"password_confirmation": "Password123!",
		"is_active":             true,
		"created_at":            time.Now().UTC().Format(time.RFC3339),
	}
}

func registerUser(t *testing.T, ts *testServer) {
	t.Helper()

	resp, _ := ts.postJSON(t, "/api/auth/register", registerPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func loginTokens(t *testing.T, ts *testServer) (string, string) {
	t.Helper()

	resp, env := ts.postJSON(t, "/api/auth/login", map[string]any{
		"email":    "testuser@example.com",
		"password": "Password123!",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result model.LoginResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	return result.AccessToken, result.RefreshToken
}

func TestRegister(t *testing.T) {
	t.Run("valid data creates the account", func(t *testing.T) {
		ts := newTestServer(t)

		resp, env := ts.postJSON(t, "/api/auth/register", registerPayload())
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "CREATED", env.Status)
		assert.Equal(t, "Success create an account", env.Message)

		var dto model.UserResponse
		require.NoError(t, json.Unmarshal(env.Data, &dto))
		assert.NotEmpty(t, dto.UUID)
		assert.Equal(t, "testuser", dto.Username)
	})

	t.Run("reused email fails with a field error", func(t *testing.T) {
		ts := newTestServer(t)
		registerUser(t, ts)

		payload := registerPayload()
		payload["username"] = "otheruser"

		resp, env := ts.postJSON(t, "/api/auth/register", payload)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "The given data was invalid.", env.Message)
		assert.Equal(t, "Email already been taken", env.Errors["email"])
	})

	t.Run("username with a space fails the pattern", func(t *testing.T) {
		ts := newTestServer(t)

		payload := registerPayload()
		payload["username"] = "invalid username"

		resp, env := ts.postJSON(t, "/api/auth/register", payload)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "Username must only contains alphanumeric, dash, and underscore", env.Errors["username"])
	})

	t.Run("object-typed password fields fail validation, not the server", func(t *testing.T) {
		ts := newTestServer(t)

		payload := registerPayload()
		payload["password"] = map[string]any{"x": 1}
		payload["password_confirmation"] = map[string]any{"x": 1}

		resp, env := ts.postJSON(t, "/api/auth/register", payload)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "Password must be a string", env.Errors["password"])
	})

	t.Run("mismatched password confirmation", func(t *testing.T) {
		ts := newTestServer(t)

		payload := registerPayload()
		payload["password_confirmation"] = "Password321!"

		resp, env := ts.postJSON(t, "/api/auth/register", payload)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "Password and Password Confirmation does not match", env.Errors["password_confirmation"])
	})
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials return both tokens", func(t *testing.T) {
		ts := newTestServer(t)
		registerUser(t, ts)

		resp, env := ts.postJSON(t, "/api/auth/login", map[string]any{
			"email":    "testuser@example.com",
			"password": "Password123!",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Success login", env.Message)

		var result model.LoginResult
		require.NoError(t, json.Unmarshal(env.Data, &result))
		assert.Equal(t, "testuser", result.User.Username)

		_, err := ts.tokens.Verify(result.AccessToken, token.ClassAccess)
		assert.NoError(t, err)
		_, err = ts.tokens.Verify(result.RefreshToken, token.ClassRefresh)
		assert.NoError(t, err)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		ts := newTestServer(t)
		registerUser(t, ts)

		respWrong, envWrong := ts.postJSON(t, "/api/auth/login", map[string]any{
			"email":    "testuser@example.com",
			"password": "WrongPassword1!",
		})
		respUnknown, envUnknown := ts.postJSON(t, "/api/auth/login", map[string]any{
			"email":    "nobody@example.com",
			"password": "Password123!",
		})

		assert.Equal(t, http.StatusBadRequest, respWrong.StatusCode)
		assert.Equal(t, http.StatusBadRequest, respUnknown.StatusCode)
		assert.Equal(t, "These credentials do not match our records", envWrong.Message)
		assert.Equal(t, envWrong.Message, envUnknown.Message)
	})

	t.Run("inactive user fails with the same uniform message", func(t *testing.T) {
		ts := newTestServer(t)

		payload := registerPayload()
		payload["is_active"] = false
		resp, _ := ts.postJSON(t, "/api/auth/register", payload)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		loginResp, env := ts.postJSON(t, "/api/auth/login", map[string]any{
			"email":    "testuser@example.com",
			"password": "Password123!",
		})
		assert.Equal(t, http.StatusBadRequest, loginResp.StatusCode)
		assert.Equal(t, "These credentials do not match our records", env.Message)
	})
}

func TestGetProfile(t *testing.T) {
	t.Run("valid access token returns the profile", func(t *testing.T) {
		ts := newTestServer(t)
		registerUser(t, ts)
		accessToken, _ := loginTokens(t, ts)

		resp, env := ts.get(t, "/api/auth/get-profile", accessToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Success get user", env.Message)

		var dto model.UserResponse
		require.NoError(t, json.Unmarshal(env.Data, &dto))
		assert.NotEmpty(t, dto.UUID)
		assert.Equal(t, "testuser", dto.Username)
	})

	t.Run("repeated calls return identical content", func(t *testing.T) {
		ts := newTestServer(t)
		registerUser(t, ts)
		accessToken, _ := loginTokens(t, ts)

		_, first := ts.get(t, "/api/auth/get-profile", accessToken)
		_, second := ts.get(t, "/api/auth/get-profile", accessToken)
		assert.JSONEq(t, string(first.Data), string(second.Data))
	})

	t.Run("missing header", func(t *testing.T) {
		ts := newTestServer(t)

		resp, env := ts.get(t, "/api/auth/get-profile", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Unauthorized. Please login to continue.", env.Message)
	})

	t.Run("garbage token", func(t *testing.T) {
		ts := newTestServer(t)

		resp, env := ts.get(t, "/api/auth/get-profile", "garbage")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid token. Please login again.", env.Message)
	})

	t.Run("token for a deleted user is a 404", func(t *testing.T) {
		ts := newTestServer(t)

		orphan := model.UserResponse{UUID: uuid.NewString(), Username: "ghost", Email: "ghost@example.com", Provider: "local"}
		accessToken, err := ts.tokens.IssueAccess(orphan)
		require.NoError(t, err)

		resp, env := ts.get(t, "/api/auth/get-profile", accessToken)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "User not found", env.Message)
	})
}

func TestRefreshToken(t *testing.T) {
	t.Run("valid refresh token mints a new access token", func(t *testing.T) {
		ts := newTestServer(t)
		registerUser(t, ts)
		_, refreshToken := loginTokens(t, ts)

		resp, env := ts.postJSON(t, "/api/auth/refresh-token", map[string]any{"refreshToken": refreshToken})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Success generate access token", env.Message)

		var result model.RefreshResult
		require.NoError(t, json.Unmarshal(env.Data, &result))

		claims, err := ts.tokens.Verify(result.AccessToken, token.ClassAccess)
		require.NoError(t, err)
		assert.Equal(t, "testuser", claims.Username)
	})

	t.Run("access token is rejected in the refresh slot", func(t *testing.T) {
		ts := newTestServer(t)
		registerUser(t, ts)
		accessToken, _ := loginTokens(t, ts)

		resp, env := ts.postJSON(t, "/api/auth/refresh-token", map[string]any{"refreshToken": accessToken})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid token. Please login again.", env.Message)
	})

	t.Run("invalid token", func(t *testing.T) {
		ts := newTestServer(t)

		resp, env := ts.postJSON(t, "/api/auth/refresh-token", map[string]any{"refreshToken": "invalidToken"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid token. Please login again.", env.Message)
	})

	t.Run("empty body", func(t *testing.T) {
		ts := newTestServer(t)

		resp, env := ts.postJSON(t, "/api/auth/refresh-token", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Refresh token is required", env.Message)
	})
}

func TestRouterEnvelope(t *testing.T) {
	t.Run("unknown route returns the 404 envelope", func(t *testing.T) {
		ts := newTestServer(t)

		resp, env := ts.get(t, "/api/auth/nope", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", env.Status)
		assert.Equal(t, "The requested resource could not be found.", env.Message)
	})

	t.Run("root welcome", func(t *testing.T) {
		ts := newTestServer(t)

		resp, env := ts.get(t, "/", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Welcome to app.", env.Message)
	})
}
