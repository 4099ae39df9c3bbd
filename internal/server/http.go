package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trabalho-quiz/internal/catalog"
	"github.com/gokatarajesh/trabalho-quiz/internal/config"
	"github.com/gokatarajesh/trabalho-quiz/internal/logging"
	"github.com/gokatarajesh/trabalho-quiz/internal/ranking"
	"github.com/gokatarajesh/trabalho-quiz/internal/results"
	"github.com/gokatarajesh/trabalho-quiz/internal/users"
	httperrors "github.com/gokatarajesh/trabalho-quiz/pkg/http/errors"
)

const readyTimeout = 2 * time.Second

// NewWSUpgrader handles WebSocket upgrades with the configured origin allow list.
func NewWSUpgrader(cors config.CORS) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin:     originChecker(cors),
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// Handlers carries the per-domain HTTP handlers. Nil entries leave their
// routes unregistered.
type Handlers struct {
	Catalog *catalog.Catalog
	Users   *users.HTTPHandlers
	Results *results.HTTPHandlers
	Ranking *ranking.HTTPHandler
	Play    http.HandlerFunc
}

// NewHTTPServer wires health, metrics and API routes.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redis *redis.Client, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, logger, pool, redis, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the mux behind NewHTTPServer.
func NewRouter(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redis *redis.Client, h Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteJSON(w, http.StatusOK, map[string]string{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("GET /api/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := pingDependencies(ctx, pool, redis); err != nil {
			l := logging.FromContext(r.Context())
			l.Error().Err(err).Msg("dependency ping failed")
			httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Dependencies unavailable")
			return
		}
		httperrors.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	if h.Catalog != nil {
		mux.HandleFunc("GET /api/categories", h.Catalog.HandleList)
	}

	if h.Users != nil {
		mux.HandleFunc("POST /api/users", h.Users.Register)
		mux.HandleFunc("GET /api/users/{matricula}", h.Users.Get)
		mux.HandleFunc("PUT /api/users/{matricula}", h.Users.Update)
	}

	if h.Results != nil {
		mux.HandleFunc("POST /api/quiz-results", h.Results.Create)
		mux.HandleFunc("GET /api/users/{userId}/history", h.Results.History)
	}

	if h.Ranking != nil {
		mux.HandleFunc("GET /api/ranking", h.Ranking.HandleOverall)
		mux.HandleFunc("GET /api/ranking/categories", h.Ranking.HandleCategories)
		mux.HandleFunc("GET /api/ranking/category/{categoryId}", h.Ranking.HandleCategory)
	}

	if h.Play != nil {
		mux.HandleFunc("GET /ws/quiz", h.Play)
	} else {
		mux.HandleFunc("GET /ws/quiz", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "WebSocket handler not configured", http.StatusNotImplemented)
		})
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Route not found")
	})

	return withCORS(cfg.CORS, withLogger(logger, mux))
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redis *redis.Client) error {
	if pool != nil {
		if err := pool.Ping(ctx); err != nil {
			return err
		}
	}
	if redis != nil {
		if err := redis.Ping(ctx).Err(); err != nil {
			return err
		}
	}
	return nil
}

// withLogger stores a request-scoped logger in the context and logs each
// request at debug level once it completes.
func withLogger(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqLogger := logger.With().Str("method", r.Method).Str("path", r.URL.Path).Logger()
		next.ServeHTTP(w, r.WithContext(logging.IntoContext(r.Context(), reqLogger)))
		reqLogger.Debug().Dur("took", time.Since(start)).Msg("request handled")
	})
}
