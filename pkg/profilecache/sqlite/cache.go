package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"codeberg.org/miketth/vdock/pkg/profilecache/sqlite/migrations"
	"codeberg.org/miketth/vdock/pkg/vdock"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

type ProfileCache struct {
	db      *sql.DB
	querier *Queries
	now     func() time.Time
}

func NewProfileCache(filename string, log *zap.SugaredLogger) (*ProfileCache, error) {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := migrations.Migrate(db, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &ProfileCache{
		db:      db,
		querier: New(db),
		now:     time.Now,
	}, nil
}

func (c *ProfileCache) Close() error {
	return c.db.Close()
}

func (c *ProfileCache) GetProfile(id string) (*vdock.Profile, error) {
	row, err := c.querier.GetProfile(context.Background(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vdock.ErrProfileNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite select: %w", err)
	}

	return decode(row)
}

func (c *ProfileCache) PutProfile(profile *vdock.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	if err := c.querier.UpsertProfile(context.Background(), UpsertProfileParams{
		ID:       profile.ID,
		Name:     profile.Name,
		Data:     string(data),
		CachedAt: c.now().Unix(),
	}); err != nil {
		return fmt.Errorf("sqlite upsert: %w", err)
	}

	return nil
}

func (c *ProfileCache) DeleteProfile(id string) error {
	if err := c.querier.DeleteProfile(context.Background(), id); err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	return nil
}

func (c *ProfileCache) ListProfiles() ([]vdock.Profile, error) {
	rows, err := c.querier.ListProfiles(context.Background())
	if err != nil {
		return nil, fmt.Errorf("sqlite select: %w", err)
	}

	out := make([]vdock.Profile, 0, len(rows))
	for _, row := range rows {
		p, err := decode(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}

	return out, nil
}

func decode(row CachedProfile) (*vdock.Profile, error) {
	var p vdock.Profile
	if err := json.Unmarshal([]byte(row.Data), &p); err != nil {
		return nil, fmt.Errorf("decode cached profile %s: %w", row.ID, err)
	}
	return &p, nil
}
