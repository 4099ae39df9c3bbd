package queries

import "context"

// Averages are percentages rounded to two decimals; ties on total score fall
// back to average then name.
const rankingOverall = `
WITH stats AS (
    SELECT u.id, u.name, u.matricula,
           SUM(qr.score)::int AS total_score,
           COUNT(qr.id)::int AS total_quizzes,
           ROUND(AVG(qr.score::numeric / qr.total_questions * 100), 2)::float8 AS average_score,
           MAX(qr.completed_at) AS last_quiz_date
    FROM users u
    JOIN quiz_results qr ON qr.user_id = u.id
    GROUP BY u.id, u.name, u.matricula
)
SELECT s.id, s.name, s.matricula, s.total_score, s.total_quizzes, s.average_score, s.last_quiz_date,
       COALESCE((
           SELECT json_agg(json_build_object(
                      'categoryName', r.category_name,
                      'score', r.score,
                      'totalQuestions', r.total_questions,
                      'completedAt', r.completed_at,
                      'timeSpent', r.time_spent
                  ) ORDER BY r.completed_at DESC, r.id DESC)
           FROM (
               SELECT id, category_name, score, total_questions, completed_at, time_spent
               FROM quiz_results
               WHERE user_id = s.id
               ORDER BY completed_at DESC, id DESC
               LIMIT $2
           ) r
       ), '[]'::json) AS quiz_history
FROM stats s
ORDER BY s.total_score DESC, s.average_score DESC, s.name ASC
LIMIT $1
`

type RankingOverallParams struct {
	Limit        int
	HistoryLimit int
}

func (q *Queries) RankingOverall(ctx context.Context, arg RankingOverallParams) ([]RankingRow, error) {
	rows, err := q.db.Query(ctx, rankingOverall, arg.Limit, arg.HistoryLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RankingRow
	for rows.Next() {
		var i RankingRow
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Matricula,
			&i.TotalScore,
			&i.TotalQuizzes,
			&i.AverageScore,
			&i.LastQuizDate,
			&i.QuizHistory,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const rankingByCategory = `
WITH stats AS (
    SELECT u.id, u.name, u.matricula,
           MAX(qr.category_name) AS category_name,
           SUM(qr.score)::int AS total_score,
           COUNT(qr.id)::int AS total_quizzes,
           ROUND(AVG(qr.score::numeric / qr.total_questions * 100), 2)::float8 AS average_score,
           MAX(qr.score)::int AS best_score,
           MIN(qr.score)::int AS worst_score,
           MAX(qr.completed_at) AS last_quiz_date
    FROM users u
    JOIN quiz_results qr ON qr.user_id = u.id
    WHERE qr.category_id = $1
    GROUP BY u.id, u.name, u.matricula
)
SELECT s.id, s.name, s.matricula, s.category_name, s.total_score, s.total_quizzes, s.average_score,
       s.best_score, s.worst_score, s.last_quiz_date,
       COALESCE((
           SELECT json_agg(json_build_object(
                      'categoryName', r.category_name,
                      'score', r.score,
                      'totalQuestions', r.total_questions,
                      'completedAt', r.completed_at,
                      'timeSpent', r.time_spent
                  ) ORDER BY r.completed_at DESC, r.id DESC)
           FROM (
               SELECT id, category_name, score, total_questions, completed_at, time_spent
               FROM quiz_results
               WHERE user_id = s.id AND category_id = $1
               ORDER BY completed_at DESC, id DESC
               LIMIT $3
           ) r
       ), '[]'::json) AS quiz_history
FROM stats s
ORDER BY s.total_score DESC, s.average_score DESC, s.name ASC
LIMIT $2
`

type RankingByCategoryParams struct {
	CategoryID   string
	Limit        int
	HistoryLimit int
}

func (q *Queries) RankingByCategory(ctx context.Context, arg RankingByCategoryParams) ([]CategoryRankingRow, error) {
	rows, err := q.db.Query(ctx, rankingByCategory, arg.CategoryID, arg.Limit, arg.HistoryLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CategoryRankingRow
	for rows.Next() {
		var i CategoryRankingRow
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Matricula,
			&i.CategoryName,
			&i.TotalScore,
			&i.TotalQuizzes,
			&i.AverageScore,
			&i.BestScore,
			&i.WorstScore,
			&i.LastQuizDate,
			&i.QuizHistory,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const categoryStats = `
SELECT category_id,
       MAX(category_name) AS category_name,
       COUNT(DISTINCT user_id)::int AS total_participants,
       COUNT(*)::int AS total_quizzes
FROM quiz_results
GROUP BY category_id
ORDER BY total_quizzes DESC, category_id ASC
`

func (q *Queries) CategoryStats(ctx context.Context) ([]CategoryStatsRow, error) {
	rows, err := q.db.Query(ctx, categoryStats)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CategoryStatsRow
	for rows.Next() {
		var i CategoryStatsRow
		if err := rows.Scan(&i.CategoryID, &i.CategoryName, &i.TotalParticipants, &i.TotalQuizzes); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
