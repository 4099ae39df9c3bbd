package results

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/trabalho-quiz/internal/db/queries"
	"github.com/gokatarajesh/trabalho-quiz/internal/db/repository"
	"github.com/gokatarajesh/trabalho-quiz/internal/quiz"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Insert(ctx context.Context, params queries.InsertQuizResultParams) (queries.QuizResult, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(queries.QuizResult), args.Error(1)
}

func (m *mockRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]queries.QuizResult, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]queries.QuizResult), args.Error(1)
}

type mockRanking struct {
	mock.Mock
}

func (m *mockRanking) Invalidate(ctx context.Context, categoryID string) error {
	return m.Called(ctx, categoryID).Error(0)
}

func (m *mockRanking) PublishUpdate(ctx context.Context, categoryID string) error {
	return m.Called(ctx, categoryID).Error(0)
}

var completedAt = time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func uberizacao() Submission {
	return Submission{
		UserID:         1,
		CategoryID:     "uberizacao",
		CategoryName:   "Uberização",
		Score:          intPtr(10),
		TotalQuestions: 10,
		TimeSpent:      intPtr(95),
	}
}

func storedRow() queries.QuizResult {
	return queries.QuizResult{
		ID: 42, UserID: 1, CategoryID: "uberizacao", CategoryName: "Uberização",
		Score: 10, TotalQuestions: 10, CompletedAt: completedAt,
		TimeSpent: pgtype.Int4{Int32: 95, Valid: true},
	}
}

func expectedParams() queries.InsertQuizResultParams {
	return queries.InsertQuizResultParams{
		UserID: 1, CategoryID: "uberizacao", CategoryName: "Uberização",
		Score: 10, TotalQuestions: 10,
		TimeSpent: pgtype.Int4{Int32: 95, Valid: true},
	}
}

func TestSaveStoresAndNotifiesRanking(t *testing.T) {
	repo := new(mockRepo)
	repo.On("Insert", mock.Anything, expectedParams()).Return(storedRow(), nil)

	published := make(chan string, 1)
	rk := new(mockRanking)
	rk.On("Invalidate", mock.Anything, "uberizacao").Return(nil).Once()
	rk.On("PublishUpdate", mock.Anything, "uberizacao").Return(nil).Run(func(args mock.Arguments) {
		published <- args.String(1)
	}).Once()

	svc := NewService(repo, rk, zerolog.Nop())
	rec, err := svc.Save(context.Background(), uberizacao())

	require.NoError(t, err)
	assert.Equal(t, int64(42), rec.ID)
	require.NotNil(t, rec.TimeSpent)
	assert.Equal(t, 95, *rec.TimeSpent)

	select {
	case cat := <-published:
		assert.Equal(t, "uberizacao", cat)
	case <-time.After(2 * time.Second):
		t.Fatal("ranking update was not published")
	}
	rk.AssertExpectations(t)
}

func TestSaveWithoutTimeSpent(t *testing.T) {
	sub := uberizacao()
	sub.TimeSpent = nil
	params := expectedParams()
	params.TimeSpent = pgtype.Int4{}
	row := storedRow()
	row.TimeSpent = pgtype.Int4{}

	repo := new(mockRepo)
	repo.On("Insert", mock.Anything, params).Return(row, nil)

	rec, err := NewService(repo, nil, zerolog.Nop()).Save(context.Background(), sub)

	require.NoError(t, err)
	assert.Nil(t, rec.TimeSpent)
}

func TestSaveValidation(t *testing.T) {
	cases := map[string]func(*Submission){
		"userId":         func(s *Submission) { s.UserID = 0 },
		"categoryId":     func(s *Submission) { s.CategoryID = " " },
		"categoryName":   func(s *Submission) { s.CategoryName = "" },
		"score":          func(s *Submission) { s.Score = nil },
		"totalQuestions": func(s *Submission) { s.TotalQuestions = 0 },
		"timeSpent":      func(s *Submission) { s.TimeSpent = intPtr(-1) },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			sub := uberizacao()
			mutate(&sub)
			repo := new(mockRepo)

			_, err := NewService(repo, nil, zerolog.Nop()).Save(context.Background(), sub)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, field, verr.Field)
			repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		})
	}
}

func TestSaveRejectsValuesTheColumnsCannotHold(t *testing.T) {
	cases := map[string]func(*Submission){
		"userId":         func(s *Submission) { s.UserID = math.MaxInt32 + 1 },
		"categoryId":     func(s *Submission) { s.CategoryID = strings.Repeat("c", 51) },
		"categoryName":   func(s *Submission) { s.CategoryName = strings.Repeat("ç", 256) },
		"totalQuestions": func(s *Submission) { s.TotalQuestions = math.MaxInt32 + 1 },
		"timeSpent":      func(s *Submission) { s.TimeSpent = intPtr(1<<32 + 7) },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			sub := uberizacao()
			mutate(&sub)
			repo := new(mockRepo)

			_, err := NewService(repo, nil, zerolog.Nop()).Save(context.Background(), sub)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, field, verr.Field)
			repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		})
	}
}

func TestSaveScoreAboveTotal(t *testing.T) {
	sub := uberizacao()
	sub.Score = intPtr(11)

	_, err := NewService(new(mockRepo), nil, zerolog.Nop()).Save(context.Background(), sub)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "score", verr.Field)
}

func TestSaveUnknownUserIsValidationError(t *testing.T) {
	repo := new(mockRepo)
	repo.On("Insert", mock.Anything, mock.Anything).Return(queries.QuizResult{}, repository.ErrUnknownUser)
	rk := new(mockRanking)

	_, err := NewService(repo, rk, zerolog.Nop()).Save(context.Background(), uberizacao())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "userId", verr.Field)
	rk.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestSaveRankingFailureIsSwallowed(t *testing.T) {
	repo := new(mockRepo)
	repo.On("Insert", mock.Anything, mock.Anything).Return(storedRow(), nil)
	done := make(chan struct{})
	rk := new(mockRanking)
	rk.On("Invalidate", mock.Anything, "uberizacao").Return(errors.New("redis down"))
	rk.On("PublishUpdate", mock.Anything, "uberizacao").Return(errors.New("redis down")).Run(func(mock.Arguments) {
		close(done)
	})

	_, err := NewService(repo, rk, zerolog.Nop()).Save(context.Background(), uberizacao())

	assert.NoError(t, err)
	<-done
}

func TestSaverAdaptsQuizSubmission(t *testing.T) {
	repo := new(mockRepo)
	repo.On("Insert", mock.Anything, expectedParams()).Return(storedRow(), nil)

	saver := NewService(repo, nil, zerolog.Nop()).Saver()
	err := saver.Save(context.Background(), quiz.Submission{
		UserID: 1, CategoryID: "uberizacao", CategoryName: "Uberização",
		Score: 10, TotalQuestions: 10, TimeSpent: 95,
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestHistory(t *testing.T) {
	repo := new(mockRepo)
	repo.On("ListByUser", mock.Anything, int64(1), 0).Return([]queries.QuizResult{storedRow()}, nil)

	records, err := NewService(repo, nil, zerolog.Nop()).History(context.Background(), 1, 0)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Uberização", records[0].CategoryName)
}

func newMux(repo Repository) *http.ServeMux {
	h := NewHTTPHandlers(NewService(repo, nil, zerolog.Nop()), zerolog.Nop())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/quiz-results", h.Create)
	mux.HandleFunc("GET /api/users/{userId}/history", h.History)
	return mux
}

func TestCreateHandler(t *testing.T) {
	repo := new(mockRepo)
	repo.On("Insert", mock.Anything, expectedParams()).Return(storedRow(), nil)

	body := `{"userId":1,"categoryId":"uberizacao","categoryName":"Uberização","score":10,"totalQuestions":10,"timeSpent":95}`
	rec := httptest.NewRecorder()
	newMux(repo).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/quiz-results", strings.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{
		"id": 42, "user_id": 1, "category_id": "uberizacao", "category_name": "Uberização",
		"score": 10, "total_questions": 10, "completed_at": "2024-05-10T14:30:00Z", "time_spent": 95
	}`, rec.Body.String())
}

func TestCreateHandlerZeroScoreAccepted(t *testing.T) {
	params := expectedParams()
	params.Score = 0
	row := storedRow()
	row.Score = 0
	repo := new(mockRepo)
	repo.On("Insert", mock.Anything, params).Return(row, nil)

	body := `{"userId":1,"categoryId":"uberizacao","categoryName":"Uberização","score":0,"totalQuestions":10,"timeSpent":95}`
	rec := httptest.NewRecorder()
	newMux(repo).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/quiz-results", strings.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateHandlerMissingField(t *testing.T) {
	body := `{"userId":1,"categoryId":"uberizacao","score":3,"totalQuestions":10}`
	rec := httptest.NewRecorder()
	newMux(new(mockRepo)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/quiz-results", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"validation_failed","message":"categoryName is required","field":"categoryName"}`, rec.Body.String())
}

func TestCreateHandlerStoreFailure(t *testing.T) {
	repo := new(mockRepo)
	repo.On("Insert", mock.Anything, mock.Anything).Return(queries.QuizResult{}, errors.New("disk full"))

	body := `{"userId":1,"categoryId":"uberizacao","categoryName":"Uberização","score":3,"totalQuestions":10}`
	rec := httptest.NewRecorder()
	newMux(repo).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/quiz-results", strings.NewReader(body)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk full")
}

func TestHistoryHandler(t *testing.T) {
	repo := new(mockRepo)
	repo.On("ListByUser", mock.Anything, int64(7), 5).Return([]queries.QuizResult{}, nil)
	mux := newMux(repo)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/7/history?limit=5", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/abc/history", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
