package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/trabalho-quiz/internal/quiz"
	"github.com/gokatarajesh/trabalho-quiz/internal/results"
	httperrors "github.com/gokatarajesh/trabalho-quiz/pkg/http/errors"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second, RetryCount: -1})
}

func TestRegisterUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ana", body["name"])
		assert.Equal(t, "2024001", body["matricula"])
		httperrors.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"id": 3, "name": "Ana", "matricula": "2024001",
			"created_at": "2024-05-01T10:00:00Z", "token": "tok", "_updated": true,
		})
	})
	c := newTestClient(t, mux)

	reg, err := c.RegisterUser(context.Background(), "Ana", "2024001")
	require.NoError(t, err)
	assert.Equal(t, int64(3), reg.ID)
	assert.Equal(t, "tok", reg.Token)
	assert.True(t, reg.Updated)
}

func TestValidationErrorBecomesAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users", func(w http.ResponseWriter, r *http.Request) {
		httperrors.RespondValidationError(w, "missing_field", "Nome é obrigatório", "name")
	})
	c := newTestClient(t, mux)

	_, err := c.RegisterUser(context.Background(), "", "2024001")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "missing_field", apiErr.Code)
	assert.Equal(t, "name", apiErr.Field)
}

func TestSaverPostsSubmission(t *testing.T) {
	got := make(chan results.Submission, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/quiz-results", func(w http.ResponseWriter, r *http.Request) {
		var sub results.Submission
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sub))
		got <- sub
		httperrors.WriteJSON(w, http.StatusCreated, results.Record{ID: 1, UserID: sub.UserID, Score: *sub.Score})
	})
	c := newTestClient(t, mux)

	err := c.Saver().Save(context.Background(), quiz.Submission{
		UserID: 9, CategoryID: "uberizacao", CategoryName: "Uberização",
		Score: 4, TotalQuestions: 5, TimeSpent: 61,
	})
	require.NoError(t, err)

	sub := <-got
	assert.Equal(t, int64(9), sub.UserID)
	require.NotNil(t, sub.Score)
	assert.Equal(t, 4, *sub.Score)
	require.NotNil(t, sub.TimeSpent)
	assert.Equal(t, 61, *sub.TimeSpent)
}

func TestRankingEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/ranking", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"Ana","matricula":"1","totalScore":9,"totalQuizzes":2,"averageScore":4.5,"quizHistory":[]}]`))
	})
	mux.HandleFunc("GET /api/ranking/category/{categoryId}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "plataformas", r.PathValue("categoryId"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("GET /api/ranking/categories", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"categoryId":"plataformas","categoryName":"Plataformas","totalParticipants":2,"totalQuizzes":3}]`))
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	overall, err := c.Ranking(ctx)
	require.NoError(t, err)
	require.Len(t, overall, 1)
	assert.Equal(t, 9, overall[0].TotalScore)

	byCat, err := c.CategoryRanking(ctx, "plataformas")
	require.NoError(t, err)
	assert.Empty(t, byCat)

	stats, err := c.RankingCategories(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "plataformas", stats[0].CategoryID)
}

func TestHealth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK", "timestamp": "2024-05-01T10:00:00Z"})
	})
	c := newTestClient(t, mux)

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "OK", h.Status)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			httperrors.RespondInternalError(w, "boom")
			return
		}
		httperrors.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := New(Config{BaseURL: srv.URL, RetryCount: 2})

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "OK", h.Status)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSubmitResultIsSentOnce(t *testing.T) {
	var posts, reads int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/quiz-results", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&posts, 1)
		httperrors.RespondInternalError(w, "boom")
	})
	mux.HandleFunc("GET /api/ranking", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&reads, 1)
		httperrors.RespondInternalError(w, "boom")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := New(Config{BaseURL: srv.URL, RetryCount: 2})

	err := c.Saver().Save(context.Background(), quiz.Submission{
		UserID: 1, CategoryID: "1", CategoryName: "Uberização", Score: 3, TotalQuestions: 10,
	})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&posts))

	// Reads on the same client still retry.
	_, err = c.Ranking(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&reads))
}
