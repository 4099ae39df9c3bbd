package queries

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertQuizResult = `
INSERT INTO quiz_results (user_id, category_id, category_name, score, total_questions, time_spent)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, user_id, category_id, category_name, score, total_questions, completed_at, time_spent
`

type InsertQuizResultParams struct {
	UserID         int64
	CategoryID     string
	CategoryName   string
	Score          int
	TotalQuestions int
	TimeSpent      pgtype.Int4
}

func (q *Queries) InsertQuizResult(ctx context.Context, arg InsertQuizResultParams) (QuizResult, error) {
	row := q.db.QueryRow(ctx, insertQuizResult,
		arg.UserID,
		arg.CategoryID,
		arg.CategoryName,
		arg.Score,
		arg.TotalQuestions,
		arg.TimeSpent,
	)
	var i QuizResult
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.CategoryID,
		&i.CategoryName,
		&i.Score,
		&i.TotalQuestions,
		&i.CompletedAt,
		&i.TimeSpent,
	)
	return i, err
}

const listUserResults = `
SELECT id, user_id, category_id, category_name, score, total_questions, completed_at, time_spent
FROM quiz_results
WHERE user_id = $1
ORDER BY completed_at DESC, id DESC
LIMIT $2
`

type ListUserResultsParams struct {
	UserID int64
	Limit  int
}

func (q *Queries) ListUserResults(ctx context.Context, arg ListUserResultsParams) ([]QuizResult, error) {
	rows, err := q.db.Query(ctx, listUserResults, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []QuizResult
	for rows.Next() {
		var i QuizResult
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.CategoryID,
			&i.CategoryName,
			&i.Score,
			&i.TotalQuestions,
			&i.CompletedAt,
			&i.TimeSpent,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
