package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trabalho-quiz/internal/auth/jwt"
	"github.com/gokatarajesh/trabalho-quiz/internal/db/queries"
	"github.com/gokatarajesh/trabalho-quiz/internal/db/repository"
)

// Column limits of users.
const (
	maxName      = 255
	maxMatricula = 50
)

// ErrNotFound is returned when no user holds the matrícula.
var ErrNotFound = errors.New("user not found")

var registrations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "users_registrations_total",
	Help: "Registration requests by outcome.",
}, []string{"result"})

// User is a registered player.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Matricula string    `json:"matricula"`
	CreatedAt time.Time `json:"created_at"`
}

// Registration is the outcome of Register.
type Registration struct {
	User    User
	Created bool
	Token   string
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
	Upsert(ctx context.Context, name, matricula string) (queries.User, bool, error)
	GetByMatricula(ctx context.Context, matricula string) (queries.User, error)
	UpdateName(ctx context.Context, matricula, name string) (queries.User, error)
}

// TokenIssuer signs play tokens. *jwt.Manager satisfies it.
type TokenIssuer interface {
	Generate(p jwt.Player) (string, error)
}

// Service handles registration and lookup by matrícula.
type Service struct {
	repo   Repository
	tokens TokenIssuer
	logger zerolog.Logger
}

func NewService(repo Repository, tokens TokenIssuer, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		logger: logger.With().Str("component", "users").Logger(),
	}
}

// Register creates the user, or renames the existing holder of matricula.
func (s *Service) Register(ctx context.Context, name, matricula string) (Registration, error) {
	name = strings.TrimSpace(name)
	matricula = strings.TrimSpace(matricula)
	if name == "" {
		return Registration{}, &ValidationError{Field: "name", Message: "name is required"}
	}
	if matricula == "" {
		return Registration{}, &ValidationError{Field: "matricula", Message: "matricula is required"}
	}
	if err := checkLengths(name, matricula); err != nil {
		return Registration{}, err
	}

	row, created, err := s.repo.Upsert(ctx, name, matricula)
	if err != nil {
		registrations.WithLabelValues("error").Inc()
		return Registration{}, err
	}

	user := fromRow(row)
	token, err := s.tokens.Generate(jwt.Player{ID: user.ID, Matricula: user.Matricula, Name: user.Name})
	if err != nil {
		return Registration{}, fmt.Errorf("issue token: %w", err)
	}

	if created {
		registrations.WithLabelValues("created").Inc()
		s.logger.Info().Int64("user_id", user.ID).Str("matricula", user.Matricula).Msg("user registered")
	} else {
		registrations.WithLabelValues("updated").Inc()
		s.logger.Info().Int64("user_id", user.ID).Str("matricula", user.Matricula).Msg("user name updated")
	}

	return Registration{User: user, Created: created, Token: token}, nil
}

// Get looks a user up by matrícula.
func (s *Service) Get(ctx context.Context, matricula string) (User, error) {
	matricula = strings.TrimSpace(matricula)
	if matricula == "" {
		return User{}, &ValidationError{Field: "matricula", Message: "matricula is required"}
	}

	row, err := s.repo.GetByMatricula(ctx, matricula)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return fromRow(row), nil
}

// Update renames the user holding matricula.
func (s *Service) Update(ctx context.Context, matricula, name string) (User, error) {
	matricula = strings.TrimSpace(matricula)
	name = strings.TrimSpace(name)
	if matricula == "" {
		return User{}, &ValidationError{Field: "matricula", Message: "matricula is required"}
	}
	if name == "" {
		return User{}, &ValidationError{Field: "name", Message: "name is required"}
	}
	if err := checkLengths(name, matricula); err != nil {
		return User{}, err
	}

	row, err := s.repo.UpdateName(ctx, matricula, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("update user: %w", err)
	}
	return fromRow(row), nil
}

func checkLengths(name, matricula string) error {
	if utf8.RuneCountInString(name) > maxName {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", maxName)}
	}
	if utf8.RuneCountInString(matricula) > maxMatricula {
		return &ValidationError{Field: "matricula", Message: fmt.Sprintf("matricula must be at most %d characters", maxMatricula)}
	}
	return nil
}

func fromRow(row queries.User) User {
	return User{
		ID:        row.ID,
		Name:      row.Name,
		Matricula: row.Matricula,
		CreatedAt: row.CreatedAt,
	}
}
