package queries

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID        int64
	Name      string
	Matricula string
	CreatedAt time.Time
}

type QuizResult struct {
	ID             int64
	UserID         int64
	CategoryID     string
	CategoryName   string
	Score          int
	TotalQuestions int
	CompletedAt    time.Time
	TimeSpent      pgtype.Int4
}

// RankingRow is one user's aggregate across every category. QuizHistory is
// a JSON array of recent results, newest first.
type RankingRow struct {
	ID           int64
	Name         string
	Matricula    string
	TotalScore   int
	TotalQuizzes int
	AverageScore float64
	LastQuizDate time.Time
	QuizHistory  []byte
}

// CategoryRankingRow is one user's aggregate within a single category.
type CategoryRankingRow struct {
	ID           int64
	Name         string
	Matricula    string
	CategoryName string
	TotalScore   int
	TotalQuizzes int
	AverageScore float64
	BestScore    int
	WorstScore   int
	LastQuizDate time.Time
	QuizHistory  []byte
}

type CategoryStatsRow struct {
	CategoryID        string
	CategoryName      string
	TotalParticipants int
	TotalQuizzes      int
}
