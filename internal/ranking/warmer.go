package ranking

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Warmer periodically reloads every ranking view into the cache.
type Warmer struct {
	svc      *Service
	interval time.Duration
	logger   zerolog.Logger
}

func NewWarmer(svc *Service, interval time.Duration, logger zerolog.Logger) *Warmer {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Warmer{
		svc:      svc,
		interval: interval,
		logger:   logger.With().Str("component", "ranking_warmer").Logger(),
	}
}

// Run blocks until context cancellation.
func (w *Warmer) Run(ctx context.Context) error {
	if w.svc == nil {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// run immediately
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Warmer) tick(ctx context.Context) {
	start := time.Now()
	if err := w.svc.Refresh(ctx); err != nil {
		if ctx.Err() == nil {
			w.logger.Warn().Err(err).Msg("ranking refresh failed")
		}
		return
	}
	w.logger.Debug().Dur("took", time.Since(start)).Msg("ranking cache warmed")
}
