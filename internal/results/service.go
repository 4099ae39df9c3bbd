package results

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trabalho-quiz/internal/db/queries"
	"github.com/gokatarajesh/trabalho-quiz/internal/db/repository"
	"github.com/gokatarajesh/trabalho-quiz/internal/quiz"
)

const publishTimeout = 5 * time.Second

// Column limits of quiz_results.
const (
	maxCategoryID   = 50
	maxCategoryName = 255
)

var recorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "quiz_results_recorded_total",
	Help: "Quiz result writes by outcome.",
}, []string{"result"})

// Submission is a finished attempt as received from a client.
type Submission struct {
	UserID         int64  `json:"userId"`
	CategoryID     string `json:"categoryId"`
	CategoryName   string `json:"categoryName"`
	Score          *int   `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
	TimeSpent      *int   `json:"timeSpent,omitempty"`
}

// Record is a stored attempt.
type Record struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	CategoryID     string    `json:"category_id"`
	CategoryName   string    `json:"category_name"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	CompletedAt    time.Time `json:"completed_at"`
	TimeSpent      *int      `json:"time_spent"`
}

// ValidationError names the offending request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Repository is the persistence surface the service needs.
type Repository interface {
	Insert(ctx context.Context, params queries.InsertQuizResultParams) (queries.QuizResult, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]queries.QuizResult, error)
}

// RankingNotifier is told about every stored result. *ranking.Service satisfies it.
type RankingNotifier interface {
	Invalidate(ctx context.Context, categoryID string) error
	PublishUpdate(ctx context.Context, categoryID string) error
}

// Service stores finished attempts and keeps the ranking fresh.
type Service struct {
	repo    Repository
	ranking RankingNotifier
	logger  zerolog.Logger
}

// NewService wires the result store; ranking may be nil.
func NewService(repo Repository, ranking RankingNotifier, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		ranking: ranking,
		logger:  logger.With().Str("component", "results").Logger(),
	}
}

// Save validates and persists one attempt.
func (s *Service) Save(ctx context.Context, sub Submission) (Record, error) {
	if err := validate(sub); err != nil {
		recorded.WithLabelValues("invalid").Inc()
		return Record{}, err
	}

	params := queries.InsertQuizResultParams{
		UserID:         sub.UserID,
		CategoryID:     strings.TrimSpace(sub.CategoryID),
		CategoryName:   strings.TrimSpace(sub.CategoryName),
		Score:          *sub.Score,
		TotalQuestions: sub.TotalQuestions,
	}
	if sub.TimeSpent != nil {
		params.TimeSpent = pgtype.Int4{Int32: int32(*sub.TimeSpent), Valid: true}
	}

	row, err := s.repo.Insert(ctx, params)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownUser) {
			recorded.WithLabelValues("invalid").Inc()
			return Record{}, &ValidationError{Field: "userId", Message: "user does not exist"}
		}
		recorded.WithLabelValues("error").Inc()
		return Record{}, err
	}
	recorded.WithLabelValues("stored").Inc()

	s.logger.Info().
		Int64("user_id", row.UserID).
		Str("category_id", row.CategoryID).
		Int("score", row.Score).
		Int("total", row.TotalQuestions).
		Msg("quiz result stored")

	s.notifyRanking(ctx, row.CategoryID)
	return fromRow(row), nil
}

// History returns a user's attempts, newest first.
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]Record, error) {
	if userID <= 0 {
		return nil, &ValidationError{Field: "userId", Message: "userId must be a positive integer"}
	}
	rows, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, fromRow(row))
	}
	return records, nil
}

// Saver adapts the service to quiz.ResultSaver for in-process sessions.
func (s *Service) Saver() quiz.ResultSaver {
	return quiz.SaverFunc(func(ctx context.Context, sub quiz.Submission) error {
		score, spent := sub.Score, sub.TimeSpent
		_, err := s.Save(ctx, Submission{
			UserID:         sub.UserID,
			CategoryID:     sub.CategoryID,
			CategoryName:   sub.CategoryName,
			Score:          &score,
			TotalQuestions: sub.TotalQuestions,
			TimeSpent:      &spent,
		})
		return err
	})
}

// notifyRanking drops stale cache entries inline and publishes the fresh
// top in the background. Failures are logged only.
func (s *Service) notifyRanking(ctx context.Context, categoryID string) {
	if s.ranking == nil {
		return
	}
	if err := s.ranking.Invalidate(ctx, categoryID); err != nil {
		s.logger.Warn().Err(err).Str("category_id", categoryID).Msg("ranking invalidation failed")
	}

	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.ranking.PublishUpdate(pubCtx, categoryID); err != nil {
			s.logger.Warn().Err(err).Str("category_id", categoryID).Msg("ranking publish failed")
		}
	}()
}

func validate(sub Submission) error {
	categoryID := strings.TrimSpace(sub.CategoryID)
	categoryName := strings.TrimSpace(sub.CategoryName)

	switch {
	case sub.UserID <= 0:
		return &ValidationError{Field: "userId", Message: "userId is required"}
	case sub.UserID > math.MaxInt32:
		return &ValidationError{Field: "userId", Message: "userId is out of range"}
	case categoryID == "":
		return &ValidationError{Field: "categoryId", Message: "categoryId is required"}
	case utf8.RuneCountInString(categoryID) > maxCategoryID:
		return &ValidationError{Field: "categoryId", Message: fmt.Sprintf("categoryId must be at most %d characters", maxCategoryID)}
	case categoryName == "":
		return &ValidationError{Field: "categoryName", Message: "categoryName is required"}
	case utf8.RuneCountInString(categoryName) > maxCategoryName:
		return &ValidationError{Field: "categoryName", Message: fmt.Sprintf("categoryName must be at most %d characters", maxCategoryName)}
	case sub.Score == nil:
		return &ValidationError{Field: "score", Message: "score is required"}
	case sub.TotalQuestions <= 0:
		return &ValidationError{Field: "totalQuestions", Message: "totalQuestions is required"}
	case sub.TotalQuestions > math.MaxInt32:
		return &ValidationError{Field: "totalQuestions", Message: "totalQuestions is out of range"}
	case *sub.Score < 0 || *sub.Score > sub.TotalQuestions:
		return &ValidationError{Field: "score", Message: "score must be between 0 and totalQuestions"}
	case sub.TimeSpent != nil && *sub.TimeSpent < 0:
		return &ValidationError{Field: "timeSpent", Message: "timeSpent must not be negative"}
	case sub.TimeSpent != nil && *sub.TimeSpent > math.MaxInt32:
		return &ValidationError{Field: "timeSpent", Message: "timeSpent is out of range"}
	}
	return nil
}

func fromRow(row queries.QuizResult) Record {
	rec := Record{
		ID:             row.ID,
		UserID:         row.UserID,
		CategoryID:     row.CategoryID,
		CategoryName:   row.CategoryName,
		Score:          row.Score,
		TotalQuestions: row.TotalQuestions,
		CompletedAt:    row.CompletedAt,
	}
	if row.TimeSpent.Valid {
		spent := int(row.TimeSpent.Int32)
		rec.TimeSpent = &spent
	}
	return rec
}
