package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"codeberg.org/miketth/vdock/pkg/vdock"
	backend "github.com/redis/go-redis/v9"
)

// ProfileCache mirrors profiles into Redis so several decks on one machine
// can share them. Each profile is a JSON string; a sorted set indexes the ids.
type ProfileCache struct {
	client  *backend.Client
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

type Option func(*ProfileCache)

// WithTTL expires cached profiles. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(c *ProfileCache) { c.ttl = ttl }
}

func WithPrefix(prefix string) Option {
	return func(c *ProfileCache) { c.prefix = prefix }
}

// WithTimeout bounds every Redis round trip.
func WithTimeout(d time.Duration) Option {
	return func(c *ProfileCache) { c.timeout = d }
}

func New(address, password string, db int, opts ...Option) *ProfileCache {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

func NewFromClient(client *backend.Client, opts ...Option) *ProfileCache {
	c := &ProfileCache{
		client:  client,
		prefix:  "vdock:profile:",
		timeout: 2 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *ProfileCache) key(id string) string {
	return c.prefix + id
}

func (c *ProfileCache) indexKey() string {
	return c.prefix + "index"
}

func (c *ProfileCache) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

func (c *ProfileCache) GetProfile(id string) (*vdock.Profile, error) {
	ctx, cancel := c.opContext()
	defer cancel()

	val, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, vdock.ErrProfileNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var p vdock.Profile
	if err := json.Unmarshal(val, &p); err != nil {
		return nil, fmt.Errorf("decode cached profile %s: %w", id, err)
	}
	return &p, nil
}

func (c *ProfileCache) PutProfile(profile *vdock.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	ctx, cancel := c.opContext()
	defer cancel()

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.key(profile.ID), data, c.ttl)
	pipe.ZAdd(ctx, c.indexKey(), backend.Z{Score: 0, Member: profile.ID})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	return nil
}

func (c *ProfileCache) DeleteProfile(id string) error {
	ctx, cancel := c.opContext()
	defer cancel()

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, c.key(id))
	pipe.ZRem(ctx, c.indexKey(), id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// ListProfiles returns the cached profiles ordered by id. Index entries whose
// profile expired are pruned.
func (c *ProfileCache) ListProfiles() ([]vdock.Profile, error) {
	ctx, cancel := c.opContext()
	defer cancel()

	ids, err := c.client.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}
	if len(ids) == 0 {
		return []vdock.Profile{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	out := make([]vdock.Profile, 0, len(values))
	var expired []any
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}

		var p vdock.Profile
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			return nil, fmt.Errorf("decode cached profile %s: %w", ids[i], err)
		}
		out = append(out, p)
	}

	if len(expired) > 0 {
		if err := c.client.ZRem(ctx, c.indexKey(), expired...).Err(); err != nil {
			return nil, fmt.Errorf("prune expired profiles: %w", err)
		}
	}

	return out, nil
}

func (c *ProfileCache) Close() error {
	return c.client.Close()
}
