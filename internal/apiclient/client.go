// Package apiclient is a typed client for the quiz REST API.
package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/imroc/req/v3"

	"github.com/gokatarajesh/trabalho-quiz/internal/quiz"
	"github.com/gokatarajesh/trabalho-quiz/internal/ranking"
	"github.com/gokatarajesh/trabalho-quiz/internal/results"
	"github.com/gokatarajesh/trabalho-quiz/internal/users"
	httperrors "github.com/gokatarajesh/trabalho-quiz/pkg/http/errors"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultRetryCount = 2
)

// Config controls the underlying HTTP client. A zero RetryCount selects the
// default; a negative one disables retries.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
}

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Field      string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("api error %d %s (%s): %s", e.StatusCode, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Registration is the POST /api/users response.
type Registration struct {
	users.User
	Token   string `json:"token"`
	Updated bool   `json:"_updated,omitempty"`
}

// Health is the GET /api/health response.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Client talks to the quiz API.
type Client struct {
	http *req.Client
}

// New builds a client. Transport errors and 5xx responses are retried, except
// on SubmitResult.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.RetryCount
	switch {
	case retries < 0:
		retries = 0
	case retries == 0:
		retries = defaultRetryCount
	}

	c := req.C().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetCommonHeader("Accept", "application/json").
		SetCommonRetryCount(retries).
		SetCommonRetryBackoffInterval(50*time.Millisecond, time.Second).
		SetCommonRetryCondition(func(resp *req.Response, err error) bool {
			return err != nil || resp.GetStatusCode() >= http.StatusInternalServerError
		})
	return &Client{http: c}
}

// RegisterUser creates the user or updates the name of an existing matrícula.
func (c *Client) RegisterUser(ctx context.Context, name, matricula string) (Registration, error) {
	var out Registration
	err := c.do(ctx, http.MethodPost, "/api/users", map[string]string{
		"name":      name,
		"matricula": matricula,
	}, &out)
	return out, err
}

// GetUser fetches a user by matrícula.
func (c *Client) GetUser(ctx context.Context, matricula string) (users.User, error) {
	var out users.User
	err := c.do(ctx, http.MethodGet, "/api/users/"+matricula, nil, &out)
	return out, err
}

// SubmitResult posts a finished attempt and returns the stored row. The POST
// is sent once: a repeat after a lost response would store the attempt twice.
func (c *Client) SubmitResult(ctx context.Context, sub results.Submission) (results.Record, error) {
	var out results.Record
	err := c.send(ctx, c.http.R().SetRetryCount(0), http.MethodPost, "/api/quiz-results", sub, &out)
	return out, err
}

// SaveResult has the quiz.SaverFunc signature; use Saver for the interface.
func (c *Client) SaveResult(ctx context.Context, sub quiz.Submission) error {
	score, spent := sub.Score, sub.TimeSpent
	_, err := c.SubmitResult(ctx, results.Submission{
		UserID:         sub.UserID,
		CategoryID:     sub.CategoryID,
		CategoryName:   sub.CategoryName,
		Score:          &score,
		TotalQuestions: sub.TotalQuestions,
		TimeSpent:      &spent,
	})
	return err
}

// Saver exposes SaveResult as a quiz.ResultSaver.
func (c *Client) Saver() quiz.ResultSaver {
	return quiz.SaverFunc(c.SaveResult)
}

// History lists a user's latest attempts, newest first.
func (c *Client) History(ctx context.Context, userID int64) ([]results.Record, error) {
	var out []results.Record
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/users/%d/history", userID), nil, &out)
	return out, err
}

// Ranking returns the overall ranking.
func (c *Client) Ranking(ctx context.Context) ([]ranking.Entry, error) {
	var out []ranking.Entry
	err := c.do(ctx, http.MethodGet, "/api/ranking", nil, &out)
	return out, err
}

// CategoryRanking returns the ranking for one category.
func (c *Client) CategoryRanking(ctx context.Context, categoryID string) ([]ranking.Entry, error) {
	var out []ranking.Entry
	err := c.do(ctx, http.MethodGet, "/api/ranking/category/"+categoryID, nil, &out)
	return out, err
}

// RankingCategories returns participation stats per category.
func (c *Client) RankingCategories(ctx context.Context) ([]ranking.CategoryStat, error) {
	var out []ranking.CategoryStat
	err := c.do(ctx, http.MethodGet, "/api/ranking/categories", nil, &out)
	return out, err
}

// Health calls GET /api/health.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/api/health", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	return c.send(ctx, c.http.R(), method, path, body, out)
}

func (c *Client) send(ctx context.Context, r *req.Request, method, path string, body, out interface{}) error {
	var envelope httperrors.ErrorResponse
	r.SetContext(ctx).
		SetSuccessResult(out).
		SetErrorResult(&envelope)
	if body != nil {
		r.SetBody(body)
	}

	resp, err := r.Send(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if !resp.IsSuccessState() {
		apiErr := &APIError{
			StatusCode: resp.GetStatusCode(),
			Code:       envelope.Error,
			Message:    envelope.Message,
			Field:      envelope.Field,
		}
		if apiErr.Message == "" {
			apiErr.Message = resp.String()
		}
		return apiErr
	}
	return nil
}
