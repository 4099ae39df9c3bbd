package repository

import (
	"context"
	"fmt"

	"github.com/gokatarajesh/trabalho-quiz/internal/db/queries"
)

type userStore interface {
	UpsertUser(ctx context.Context, arg queries.UpsertUserParams) (queries.UpsertUserRow, error)
	GetUserByMatricula(ctx context.Context, matricula string) (queries.User, error)
	GetUserByID(ctx context.Context, id int64) (queries.User, error)
	UpdateUserName(ctx context.Context, arg queries.UpdateUserNameParams) (queries.User, error)
}

// UserRepository exposes typed DB operations for registered players.
type UserRepository struct {
	store userStore
}

// NewUserRepository wraps Queries for user-specific operations.
func NewUserRepository(store userStore) *UserRepository {
	return &UserRepository{store: store}
}

// Upsert registers a matrícula or renames its current owner. created is
// false when the row already existed.
func (r *UserRepository) Upsert(ctx context.Context, name, matricula string) (queries.User, bool, error) {
	row, err := r.store.UpsertUser(ctx, queries.UpsertUserParams{Name: name, Matricula: matricula})
	if err != nil {
		return queries.User{}, false, fmt.Errorf("upsert user: %w", err)
	}
	return row.User, row.Inserted, nil
}

// GetByMatricula returns ErrNotFound when nobody holds the matrícula.
func (r *UserRepository) GetByMatricula(ctx context.Context, matricula string) (queries.User, error) {
	u, err := r.store.GetUserByMatricula(ctx, matricula)
	if err != nil {
		return queries.User{}, mapNoRows(err)
	}
	return u, nil
}

// GetByID fetches a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (queries.User, error) {
	u, err := r.store.GetUserByID(ctx, id)
	if err != nil {
		return queries.User{}, mapNoRows(err)
	}
	return u, nil
}

// UpdateName renames the user holding matricula.
func (r *UserRepository) UpdateName(ctx context.Context, matricula, name string) (queries.User, error) {
	u, err := r.store.UpdateUserName(ctx, queries.UpdateUserNameParams{Matricula: matricula, Name: name})
	if err != nil {
		return queries.User{}, mapNoRows(err)
	}
	return u, nil
}
