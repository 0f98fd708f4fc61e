//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-auth-service/internal/config"
	"go-auth-service/internal/database"
	"go-auth-service/internal/event"
	"go-auth-service/internal/handler"
	"go-auth-service/internal/middleware"
	"go-auth-service/internal/repository"
	"go-auth-service/internal/router"
	"go-auth-service/internal/service"
	"go-auth-service/internal/token"
	"go-auth-service/internal/validation"
)

type testEnv struct {
	server *httptest.Server
	db     *database.DB
	tokens *token.Manager
}

// newServer stands up the full stack against the database named by
// DATABASE_URL and truncates both tables so each test starts clean.
func newServer(t *testing.T) *testEnv {
	t.Helper()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()

	db, err := database.Open(ctx, databaseURL, database.PoolSettings{MaxConns: 4, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.EnsureSchema(ctx))
	_, err = db.Pool.Exec(ctx, "TRUNCATE users, auth_audit")
	require.NoError(t, err)

	tokens, err := token.NewManager("integration-access-secret", "integration-refresh-secret", 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)

	users := repository.NewUserRepository(db.Pool)
	audits := repository.NewAuditRepository(db.Pool)

	bus := event.NewBus()
	svc := service.NewAuthService(users, service.NewBcryptHasher(), tokens, bus)

	recorderCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	go service.NewAuditRecorder(audits, bus).Run(recorderCtx)

	authHandler := handler.NewAuthHandler(svc, users, validation.DefaultPasswordPolicy())
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	cfg := &config.Config{
		RequestTimeout: 30 * time.Second,
		CORSOrigins:    []string{"*"},
	}

	server := httptest.NewServer(router.New(cfg, authMiddleware, authHandler, db))
	t.Cleanup(server.Close)

	return &testEnv{server: server, db: db, tokens: tokens}
}

type envelope struct {
	Code    int               `json:"code"`
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func (e *testEnv) postJSON(t *testing.T, path string, payload any) (*http.Response, envelope) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(e.server.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp, decodeEnvelope(t, resp)
}

func (e *testEnv) get(t *testing.T, path string, bearer string) (*http.Response, envelope) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, e.server.URL+path, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp, decodeEnvelope(t, resp)
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func registerPayload(n int) map[string]any {
	return map[string]any{
		"username":              fmt.Sprintf("user%d", n),
		"email":                 fmt.Sprintf("user%d@example.com", n),
		"password":              "Password123!",
		"password_confirmation": "Password123!",
		"is_active":             true,
		"created_at":            time.Now().UTC().Format(time.RFC3339),
	}
}

// waitForAuditRows polls until the audit table reaches the expected row
// count; the recorder runs off the request path so writes land async.
func (e *testEnv) waitForAuditRows(t *testing.T, want int) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for {
		var count int
		err := e.db.Pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM auth_audit").Scan(&count)
		require.NoError(t, err)
		if count >= want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("audit rows: got %d, want at least %d", count, want)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
