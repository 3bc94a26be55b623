package sqlite

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type CachedProfile struct {
	ID       string
	Name     string
	Data     string
	CachedAt int64
}

const getProfile = `-- name: GetProfile :one
SELECT id, name, data, cached_at FROM profiles WHERE id = ?
`

func (q *Queries) GetProfile(ctx context.Context, id string) (CachedProfile, error) {
	row := q.db.QueryRowContext(ctx, getProfile, id)
	var i CachedProfile
	err := row.Scan(&i.ID, &i.Name, &i.Data, &i.CachedAt)
	return i, err
}

const upsertProfile = `-- name: UpsertProfile :exec
INSERT INTO profiles (id, name, data, cached_at) VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET name = excluded.name, data = excluded.data, cached_at = excluded.cached_at
`

type UpsertProfileParams struct {
	ID       string
	Name     string
	Data     string
	CachedAt int64
}

func (q *Queries) UpsertProfile(ctx context.Context, arg UpsertProfileParams) error {
	_, err := q.db.ExecContext(ctx, upsertProfile, arg.ID, arg.Name, arg.Data, arg.CachedAt)
	return err
}

const deleteProfile = `-- name: DeleteProfile :exec
DELETE FROM profiles WHERE id = ?
`

func (q *Queries) DeleteProfile(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteProfile, id)
	return err
}

const listProfiles = `-- name: ListProfiles :many
SELECT id, name, data, cached_at FROM profiles ORDER BY id
`

func (q *Queries) ListProfiles(ctx context.Context) ([]CachedProfile, error) {
	rows, err := q.db.QueryContext(ctx, listProfiles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CachedProfile
	for rows.Next() {
		var i CachedProfile
		if err := rows.Scan(&i.ID, &i.Name, &i.Data, &i.CachedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
