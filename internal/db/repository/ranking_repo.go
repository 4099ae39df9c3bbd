package repository

import (
	"context"
	"fmt"

	"github.com/gokatarajesh/trabalho-quiz/internal/db/queries"
)

const (
	DefaultRankingLimit = 50
	DefaultRecentLimit  = 5
)

type rankingStore interface {
	RankingOverall(ctx context.Context, arg queries.RankingOverallParams) ([]queries.RankingRow, error)
	RankingByCategory(ctx context.Context, arg queries.RankingByCategoryParams) ([]queries.CategoryRankingRow, error)
	CategoryStats(ctx context.Context) ([]queries.CategoryStatsRow, error)
}

// RankingRepository runs the ranking aggregate queries.
type RankingRepository struct {
	store        rankingStore
	limit        int
	historyLimit int
}

// NewRankingRepository wraps Queries; non-positive limits use the defaults.
func NewRankingRepository(store rankingStore, limit, historyLimit int) *RankingRepository {
	if limit <= 0 {
		limit = DefaultRankingLimit
	}
	if historyLimit <= 0 {
		historyLimit = DefaultRecentLimit
	}
	return &RankingRepository{store: store, limit: limit, historyLimit: historyLimit}
}

func (r *RankingRepository) Overall(ctx context.Context) ([]queries.RankingRow, error) {
	rows, err := r.store.RankingOverall(ctx, queries.RankingOverallParams{
		Limit:        r.limit,
		HistoryLimit: r.historyLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch overall ranking: %w", err)
	}
	return rows, nil
}

func (r *RankingRepository) ByCategory(ctx context.Context, categoryID string) ([]queries.CategoryRankingRow, error) {
	rows, err := r.store.RankingByCategory(ctx, queries.RankingByCategoryParams{
		CategoryID:   categoryID,
		Limit:        r.limit,
		HistoryLimit: r.historyLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch ranking for category %s: %w", categoryID, err)
	}
	return rows, nil
}

func (r *RankingRepository) Categories(ctx context.Context) ([]queries.CategoryStatsRow, error) {
	rows, err := r.store.CategoryStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch category stats: %w", err)
	}
	return rows, nil
}
