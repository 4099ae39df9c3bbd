package queries

import "context"

const upsertUser = `
INSERT INTO users (name, matricula)
VALUES ($1, $2)
ON CONFLICT (matricula) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name, matricula, created_at, (xmax = 0) AS inserted
`

type UpsertUserParams struct {
	Name      string
	Matricula string
}

type UpsertUserRow struct {
	User
	Inserted bool
}

// UpsertUser inserts a user or renames the existing owner of the matrícula.
func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) (UpsertUserRow, error) {
	row := q.db.QueryRow(ctx, upsertUser, arg.Name, arg.Matricula)
	var i UpsertUserRow
	err := row.Scan(&i.ID, &i.Name, &i.Matricula, &i.CreatedAt, &i.Inserted)
	return i, err
}

const getUserByMatricula = `
SELECT id, name, matricula, created_at FROM users WHERE matricula = $1
`

func (q *Queries) GetUserByMatricula(ctx context.Context, matricula string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByMatricula, matricula)
	var i User
	err := row.Scan(&i.ID, &i.Name, &i.Matricula, &i.CreatedAt)
	return i, err
}

const getUserByID = `
SELECT id, name, matricula, created_at FROM users WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, id)
	var i User
	err := row.Scan(&i.ID, &i.Name, &i.Matricula, &i.CreatedAt)
	return i, err
}

const updateUserName = `
UPDATE users SET name = $2 WHERE matricula = $1
RETURNING id, name, matricula, created_at
`

type UpdateUserNameParams struct {
	Matricula string
	Name      string
}

func (q *Queries) UpdateUserName(ctx context.Context, arg UpdateUserNameParams) (User, error) {
	row := q.db.QueryRow(ctx, updateUserName, arg.Matricula, arg.Name)
	var i User
	err := row.Scan(&i.ID, &i.Name, &i.Matricula, &i.CreatedAt)
	return i, err
}
