package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"conduit/internal/config"
	"conduit/internal/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-at-least-32-characters"

func testConfig() *config.Config {
	return &config.Config{
		Port:                     "0",
		Env:                      "test",
		AllowedOrigins:           "http://localhost:4100",
		DBDriver:                 "sqlite",
		DBSQLitePath:             "file::memory:",
		DBMaxOpenConns:           1,
		DBMaxIdleConns:           1,
		DBConnMaxLifetimeMinutes: 15,
		JWTSecret:                testSecret,
		JWTTTLHours:              1,
		DefaultPageLimit:         20,
	}
}

type testEnv struct {
	server *Server
	app    *fiber.App
	redis  *miniredis.Miniredis
}

// newTestEnv builds the full app over a private SQLite database and an
// in-process Redis.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testConfig()

	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s, err := NewServerWithDeps(cfg, db, client)
	require.NoError(t, err)
	return &testEnv{server: s, app: s.NewApp(), redis: mr}
}

// do sends a request and decodes a JSON response body, if any.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Token "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp.StatusCode, decoded
}

// register creates an account and returns its token.
func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/api/users", "", map[string]any{
		"user": map[string]any{
			"username": username,
			"email":    username + "@example.com",
			"password": "dragons123",
		},
	})
	require.Equal(t, http.StatusCreated, status, "register %s: %v", username, body)
	return body["user"].(map[string]any)["token"].(string)
}

// createArticle posts an article and returns its slug.
func (e *testEnv) createArticle(t *testing.T, token, title string, tags ...string) string {
	t.Helper()
	if tags == nil {
		tags = []string{}
	}
	status, body := e.do(t, http.MethodPost, "/api/articles", token, map[string]any{
		"article": map[string]any{
			"title":       title,
			"description": "Ever wonder how?",
			"body":        "You have to believe",
			"tagList":     tags,
		},
	})
	require.Equal(t, http.StatusCreated, status, "create %q: %v", title, body)
	return body["article"].(map[string]any)["slug"].(string)
}

func field(body map[string]any, envelope string) map[string]any {
	inner, _ := body[envelope].(map[string]any)
	return inner
}
