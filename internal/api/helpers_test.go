package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/opsdeck/opsdeck-core/internal/audit"
	"github.com/opsdeck/opsdeck-core/internal/auth"
	"github.com/opsdeck/opsdeck-core/internal/infrastructure/config"
	"github.com/opsdeck/opsdeck-core/internal/infrastructure/logging"
)

const testJWTSecret = "test-secret-key-minimum-32-chars-long"

// testServer wires a full server against a temp SQLite database with the
// bootstrap admin seeded, and returns the router for in-process requests.
func testServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "opsdeck.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `CREATE TABLE users (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		roles         TEXT NOT NULL DEFAULT 'none',
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	) STRICT`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating users table: %v", err)
	}

	auditSchema := `CREATE TABLE audit_logs (
		id         TEXT PRIMARY KEY,
		action     TEXT NOT NULL,
		username   TEXT,
		actor      TEXT,
		source     TEXT NOT NULL DEFAULT 'api',
		details    TEXT,
		created_at TEXT NOT NULL
	) STRICT`
	if _, err := db.Exec(auditSchema); err != nil {
		t.Fatalf("creating audit_logs table: %v", err)
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := auth.NewCredentialStore(db)
	svc := auth.NewService(store, quiet, 0)

	if err := auth.EnsureAdmin(context.Background(), store, quiet); err != nil {
		t.Fatalf("seeding bootstrap admin: %v", err)
	}

	srv, err := New(Deps{
		Config: config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		Security: config.SecurityConfig{
			JWTSecret:  testJWTSecret,
			SessionTTL: 60,
		},
		Assistant: config.AssistantConfig{
			DefaultProvider: "openai",
			Providers: []config.ProviderConfig{
				{ID: "openai", Label: "OpenAI", KeyEnv: "TEST_OPENAI_KEY", Models: []string{"gpt-4o-mini"}},
				{ID: "anthropic", Label: "Anthropic", KeyEnv: "TEST_ANTHROPIC_KEY", Models: []string{"claude-3-5-haiku-latest"}},
			},
		},
		Logger:   &logging.Logger{Logger: quiet},
		Auth:     svc,
		Sessions: auth.NewRegistry(time.Hour),
		Audit:    audit.NewSQLiteRepository(db),
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}

	return srv, srv.buildRouter()
}

// doRequest performs an in-process request and returns the recorder.
func doRequest(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling request body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// decodeBody unmarshals a JSON response body into a map.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response body %q: %v", rec.Body.String(), err)
	}
	return out
}

// login authenticates and returns the bearer token.
func login(t *testing.T, h http.Handler, username, password string) string {
	t.Helper()

	rec := doRequest(t, h, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": username, "password": password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login(%s) status = %d, body = %s", username, rec.Code, rec.Body.String())
	}

	token, _ := decodeBody(t, rec)["access_token"].(string)
	if token == "" {
		t.Fatal("login response missing access_token")
	}
	return token
}

// register creates an account through the API.
func register(t *testing.T, h http.Handler, username, password string) {
	t.Helper()

	rec := doRequest(t, h, http.MethodPost, "/api/v1/auth/register", "",
		map[string]string{"username": username, "password": password})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register(%s) status = %d, body = %s", username, rec.Code, rec.Body.String())
	}
}
