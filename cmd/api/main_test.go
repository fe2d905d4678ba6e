package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/issuehub/internal/auth"
	"github.com/yourusername/issuehub/internal/config"
	"github.com/yourusername/issuehub/internal/session"
	"github.com/yourusername/issuehub/internal/store"
)

func TestIssuesRequireSignin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := store.Open(config.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.CreateSchema(ctx, db))

	cfg := &config.Config{SessionBackend: config.SessionBackendDB}
	backend, err := setupSessionBackend(ctx, cfg, db, logger)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close(context.Background()) })

	sessionStore, err := session.NewStore(backend.Mirror, session.Options{Secret: []byte("token-secret"), TTL: time.Hour}, logger)
	require.NoError(t, err)
	users := store.NewUsers(db)
	svc, err := auth.NewService(users, sessionStore, auth.NewBcryptHasher(bcrypt.MinCost), logger)
	require.NoError(t, err)
	handler := auth.NewHandler(svc, auth.NewIdentity(sessionStore, users, logger), logger)

	router := gin.New()
	router.Use(sessions.Sessions(auth.SessionCookieName, cookie.NewStore([]byte("cookie-secret"))))
	setupRoutes(router, handler, store.NewIssues(db), logger)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	resp, err := client.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(srv.URL + "/api/issues")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = client.PostForm(srv.URL+"/api/auth/signup", url.Values{
		"email":           {"reader@example.com"},
		"password":        {"secret1"},
		"confirmPassword": {"secret1"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	reader, err := users.FindUserByEmail(ctx, "reader@example.com")
	require.NoError(t, err)
	require.NotNil(t, reader)
	_, err = db.NewInsert().Model(&store.Issue{
		ID:        uuid.New(),
		Title:     "first issue",
		UserID:    reader.ID,
		CreatedAt: time.Now().UTC(),
	}).Exec(ctx)
	require.NoError(t, err)

	resp, err = client.Get(srv.URL + "/api/issues")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Viewer store.User    `json:"viewer"`
		Issues []store.Issue `json:"issues"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "reader@example.com", payload.Viewer.Email)
	require.Len(t, payload.Issues, 1)
	assert.Equal(t, "first issue", payload.Issues[0].Title)
	assert.Equal(t, "reader@example.com", payload.Issues[0].User.Email)
}

func TestMemoryBackendSweepsExpiredSessions(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{SessionBackend: config.SessionBackendMemory, SweepInterval: 10 * time.Millisecond}

	backend, err := setupSessionBackend(ctx, cfg, nil, logger)
	require.NoError(t, err)
	mirror, ok := backend.Mirror.(*session.MemoryMirror)
	require.True(t, ok)

	now := time.Now().UTC()
	require.NoError(t, mirror.Save(ctx, &session.Record{
		ID:        "stale",
		UserID:    uuid.New(),
		IssuedAt:  now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}))
	assert.Eventually(t, func() bool { return mirror.Len() == 0 }, time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		backend.Close(context.Background())
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("backend close did not stop the sweeper")
	}
}
