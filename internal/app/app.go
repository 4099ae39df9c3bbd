package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trabalho-quiz/internal/auth/jwt"
	"github.com/gokatarajesh/trabalho-quiz/internal/catalog"
	"github.com/gokatarajesh/trabalho-quiz/internal/config"
	"github.com/gokatarajesh/trabalho-quiz/internal/db/migrations"
	"github.com/gokatarajesh/trabalho-quiz/internal/db/queries"
	"github.com/gokatarajesh/trabalho-quiz/internal/db/repository"
	"github.com/gokatarajesh/trabalho-quiz/internal/logging"
	"github.com/gokatarajesh/trabalho-quiz/internal/play"
	"github.com/gokatarajesh/trabalho-quiz/internal/quiz"
	"github.com/gokatarajesh/trabalho-quiz/internal/ranking"
	"github.com/gokatarajesh/trabalho-quiz/internal/results"
	"github.com/gokatarajesh/trabalho-quiz/internal/server"
	"github.com/gokatarajesh/trabalho-quiz/internal/users"
	ws "github.com/gokatarajesh/trabalho-quiz/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	broadcaster *ranking.Broadcaster
	warmer      *ranking.Warmer
	bgCancels   []context.CancelFunc
}

// New bootstraps the logger, Postgres, Redis, domain services and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	if cfg.Postgres.AutoMigrate {
		if err := migrations.Apply(ctx, cfg.Postgres.DSN()); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		logger.Info().Msg("database schema up to date")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.Postgres.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.Postgres.MaxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	q := queries.New(pool)
	userRepo := repository.NewUserRepository(q)
	resultRepo := repository.NewResultRepository(q)
	rankingRepo := repository.NewRankingRepository(q, cfg.Ranking.Limit, repository.DefaultRecentLimit)

	tokens := jwt.NewManager(jwt.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		TTL:    cfg.Security.TokenTTL,
		Issuer: cfg.Name,
	})

	cat := catalog.Default()
	hub := ws.NewHub(logger)

	rankingSvc := ranking.NewService(rankingRepo, redisClient, logger, ranking.ServiceOptions{
		CacheTTL:      cfg.Ranking.CacheTTL,
		PubSubChannel: cfg.Ranking.PubSubChannel,
	})
	usersSvc := users.NewService(userRepo, tokens, logger)
	resultsSvc := results.NewService(resultRepo, rankingSvc, logger)

	playHandler := play.NewHandler(play.Deps{
		Catalog:  cat,
		Hub:      hub,
		Tokens:   tokens,
		Saver:    resultsSvc.Saver(),
		Upgrader: server.NewWSUpgrader(cfg.CORS),
		Session: quiz.Options{
			QuestionSeconds: cfg.Quiz.QuestionSeconds,
			TickInterval:    cfg.Quiz.TickInterval,
			SaveTimeout:     cfg.Quiz.SaveTimeout,
		},
	}, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, server.Handlers{
		Catalog: cat,
		Users:   users.NewHTTPHandlers(usersSvc, logger),
		Results: results.NewHTTPHandlers(resultsSvc, logger),
		Ranking: ranking.NewHTTPHandler(rankingSvc, logger),
		Play:    playHandler.ServeWS,
	})

	var warmer *ranking.Warmer
	if cfg.Ranking.WarmInterval > 0 {
		warmer = ranking.NewWarmer(rankingSvc, cfg.Ranking.WarmInterval, logger)
	}

	return &Application{
		cfg:         cfg,
		logger:      logger,
		pool:        pool,
		redis:       redisClient,
		http:        apiServer,
		broadcaster: ranking.NewBroadcaster(redisClient, hub, rankingSvc.Channel(), logger),
		warmer:      warmer,
		bgCancels:   make([]context.CancelFunc, 0, 2),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	if err := a.shutdown(); err != nil {
		a.logger.Error().Err(err).Msg("shutdown finished with errors")
	} else {
		a.logger.Info().Msg("shutdown complete")
	}
	return runErr
}

func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	var result *multierror.Error
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("http shutdown: %w", err))
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("redis shutdown: %w", err))
	}
	return result.ErrorOrNil()
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.broadcaster != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.broadcaster.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("ranking broadcaster stopped")
			}
		}()
	}

	if a.warmer != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.warmer.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("ranking warmer stopped")
			}
		}()
	}
}
