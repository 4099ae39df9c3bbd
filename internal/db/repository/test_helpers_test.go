package repository

import (
	"time"

	"github.com/gokatarajesh/trabalho-quiz/internal/db/queries"
)

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func userFixture(id int64, name, matricula string) queries.User {
	return queries.User{ID: id, Name: name, Matricula: matricula, CreatedAt: fixedTime}
}
