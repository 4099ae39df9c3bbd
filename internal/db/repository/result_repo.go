package repository

import (
	"context"
	"fmt"

	"github.com/gokatarajesh/trabalho-quiz/internal/db/queries"
)

const defaultHistoryLimit = 50

type resultStore interface {
	InsertQuizResult(ctx context.Context, arg queries.InsertQuizResultParams) (queries.QuizResult, error)
	ListUserResults(ctx context.Context, arg queries.ListUserResultsParams) ([]queries.QuizResult, error)
}

// ResultRepository stores finished quiz attempts.
type ResultRepository struct {
	store resultStore
}

func NewResultRepository(store resultStore) *ResultRepository {
	return &ResultRepository{store: store}
}

// Insert persists one attempt. A missing user yields ErrUnknownUser.
func (r *ResultRepository) Insert(ctx context.Context, params queries.InsertQuizResultParams) (queries.QuizResult, error) {
	res, err := r.store.InsertQuizResult(ctx, params)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return queries.QuizResult{}, ErrUnknownUser
		}
		return queries.QuizResult{}, fmt.Errorf("insert quiz result: %w", err)
	}
	return res, nil
}

// ListByUser returns a user's attempts, newest first.
func (r *ResultRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]queries.QuizResult, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := r.store.ListUserResults(ctx, queries.ListUserResultsParams{UserID: userID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list quiz results: %w", err)
	}
	return rows, nil
}
