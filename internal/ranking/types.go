package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gokatarajesh/trabalho-quiz/internal/db/queries"
)

// Entry is one user's standing, overall or within a category.
type Entry struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	Matricula    string         `json:"matricula"`
	CategoryName string         `json:"categoryName,omitempty"`
	TotalScore   int            `json:"totalScore"`
	TotalQuizzes int            `json:"totalQuizzes"`
	AverageScore float64        `json:"averageScore"`
	LastQuizDate time.Time      `json:"lastQuizDate"`
	BestScore    *int           `json:"bestScore,omitempty"`
	WorstScore   *int           `json:"worstScore,omitempty"`
	QuizHistory  []HistoryEntry `json:"quizHistory"`
}

// HistoryEntry is one of the user's most recent attempts.
type HistoryEntry struct {
	CategoryName   string    `json:"categoryName"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	CompletedAt    time.Time `json:"completedAt"`
	TimeSpent      *int      `json:"timeSpent,omitempty"`
}

// CategoryStat summarises participation in one category.
type CategoryStat struct {
	CategoryID        string `json:"categoryId"`
	CategoryName      string `json:"categoryName"`
	TotalParticipants int    `json:"totalParticipants"`
	TotalQuizzes      int    `json:"totalQuizzes"`
}

// Store runs the aggregate queries. repository.RankingRepository satisfies it.
type Store interface {
	Overall(ctx context.Context) ([]queries.RankingRow, error)
	ByCategory(ctx context.Context, categoryID string) ([]queries.CategoryRankingRow, error)
	Categories(ctx context.Context) ([]queries.CategoryStatsRow, error)
}

func decodeHistory(raw []byte) ([]HistoryEntry, error) {
	history := []HistoryEntry{}
	if len(raw) == 0 {
		return history, nil
	}
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("decode quiz history: %w", err)
	}
	return history, nil
}

func fromOverallRows(rows []queries.RankingRow) ([]Entry, error) {
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		history, err := decodeHistory(row.QuizHistory)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			ID:           row.ID,
			Name:         row.Name,
			Matricula:    row.Matricula,
			TotalScore:   row.TotalScore,
			TotalQuizzes: row.TotalQuizzes,
			AverageScore: row.AverageScore,
			LastQuizDate: row.LastQuizDate,
			QuizHistory:  history,
		})
	}
	return entries, nil
}

func fromCategoryRows(rows []queries.CategoryRankingRow) ([]Entry, error) {
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		history, err := decodeHistory(row.QuizHistory)
		if err != nil {
			return nil, err
		}
		best, worst := row.BestScore, row.WorstScore
		entries = append(entries, Entry{
			ID:           row.ID,
			Name:         row.Name,
			Matricula:    row.Matricula,
			CategoryName: row.CategoryName,
			TotalScore:   row.TotalScore,
			TotalQuizzes: row.TotalQuizzes,
			AverageScore: row.AverageScore,
			LastQuizDate: row.LastQuizDate,
			BestScore:    &best,
			WorstScore:   &worst,
			QuizHistory:  history,
		})
	}
	return entries, nil
}

func fromStatsRows(rows []queries.CategoryStatsRow) []CategoryStat {
	stats := make([]CategoryStat, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, CategoryStat(row))
	}
	return stats
}
