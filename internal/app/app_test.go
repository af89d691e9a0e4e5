package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quickfacts/internal/config"
)

func TestNewWithMemoryBackend(t *testing.T) {
	t.Setenv("PROGRESS_BACKEND", config.BackendMemory)
	t.Setenv("APP_ENV", "test")
	cfg, err := config.Load(context.Background())
	require.NoError(t, err)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, a.redis)
	assert.Nil(t, a.pool)

	rec := httptest.NewRecorder()
	a.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/users/u1/bookmarks/eng-gram-f1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNewRequiresTokenWhenSecretSet(t *testing.T) {
	t.Setenv("PROGRESS_BACKEND", config.BackendMemory)
	t.Setenv("JWT_SECRET", "secret")
	cfg, err := config.Load(context.Background())
	require.NoError(t, err)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/users/u1/progress", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
