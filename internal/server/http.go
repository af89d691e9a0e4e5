package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quickfacts/internal/auth"
	"github.com/gokatarajesh/quickfacts/internal/config"
	"github.com/gokatarajesh/quickfacts/internal/content"
	"github.com/gokatarajesh/quickfacts/internal/logging"
	"github.com/gokatarajesh/quickfacts/internal/progress"
	"github.com/gokatarajesh/quickfacts/internal/selection"
	httperrors "github.com/gokatarajesh/quickfacts/pkg/http/errors"
)

// Dependencies are the services the API routes delegate to.
type Dependencies struct {
	Content   *content.Store
	Selection *selection.Service
	Progress  *progress.Service
	// Tokens guards /v1/users routes; nil leaves them open.
	Tokens   auth.TokenValidator
	Gatherer prometheus.Gatherer
}

// NewHTTPServer wires the API routes onto an http.Server bound to cfg.HTTPAddr.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, deps Dependencies) *http.Server {
	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: NewHandler(logger, deps),
	}
}

// NewHandler builds the route table.
func NewHandler(logger zerolog.Logger, deps Dependencies) http.Handler {
	h := &handlers{
		content:   deps.Content,
		selection: deps.Selection,
		progress:  deps.Progress,
		logger:    logger.With().Str("component", "http").Logger(),
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /v1/ping", h.ping)

	mux.HandleFunc("GET /v1/banks", h.listBanks)
	mux.HandleFunc("GET /v1/banks/{subject}", h.getBank)
	mux.HandleFunc("GET /v1/banks/{subject}/sets", h.setsByTopic)
	mux.HandleFunc("GET /v1/banks/{subject}/items", h.itemsByDifficulty)
	mux.HandleFunc("GET /v1/sets", h.setsByGradeOrTopic)
	mux.HandleFunc("GET /v1/sets/{id}", h.getSet)
	mux.HandleFunc("GET /v1/flashcards/{id}", h.getFlashcard)
	mux.HandleFunc("POST /v1/challenges", h.generateChallenge)

	user := auth.RequireUser(deps.Tokens, logger)
	mux.Handle("GET /v1/users/{userID}/progress", user(http.HandlerFunc(h.getProgress)))
	mux.Handle("POST /v1/users/{userID}/progress", user(http.HandlerFunc(h.saveProgress)))
	mux.Handle("POST /v1/users/{userID}/answers", user(http.HandlerFunc(h.recordAnswer)))
	mux.Handle("GET /v1/users/{userID}/bookmarks", user(http.HandlerFunc(h.getBookmarks)))
	mux.Handle("POST /v1/users/{userID}/bookmarks/{flashcardID}", user(http.HandlerFunc(h.toggleBookmark)))
	mux.Handle("GET /v1/users/{userID}/results", user(http.HandlerFunc(h.getResults)))
	mux.Handle("POST /v1/users/{userID}/results", user(http.HandlerFunc(h.saveResult)))
	mux.Handle("POST /v1/users/{userID}/challenges/bookmarks", user(http.HandlerFunc(h.bookmarkChallenge)))

	return withRequestLogger(h.logger, mux)
}

type handlers struct {
	content   *content.Store
	selection *selection.Service
	progress  *progress.Service
	logger    zerolog.Logger
}

func (h *handlers) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.progress.Ping(r.Context()); err != nil {
		logger := requestLogger(r)
		logger.Error().Err(err).Msg("progress store ping failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeUpstreamError, "progress store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"pong": true})
}

// requestLogger returns the request's logger, tagged with the
// authenticated user when there is one.
func requestLogger(r *http.Request) zerolog.Logger {
	logger := logging.FromContext(r.Context())
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		logger = logger.With().Str("user_id", claims.Subject).Logger()
	}
	return logger
}

// withRequestLogger attaches a per-request logger to the context.
func withRequestLogger(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLogger := logger.With().Str("method", r.Method).Str("path", r.URL.Path).Logger()
		next.ServeHTTP(w, r.WithContext(logging.IntoContext(r.Context(), reqLogger)))
	})
}
