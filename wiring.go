package main

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/miketth/vdock/pkg/api"
	"codeberg.org/miketth/vdock/pkg/config"
	"codeberg.org/miketth/vdock/pkg/dispatch"
	"codeberg.org/miketth/vdock/pkg/metrics"
	"codeberg.org/miketth/vdock/pkg/notify"
	"codeberg.org/miketth/vdock/pkg/profilecache/json"
	"codeberg.org/miketth/vdock/pkg/profilecache/memory"
	"codeberg.org/miketth/vdock/pkg/profilecache/redis"
	"codeberg.org/miketth/vdock/pkg/profilecache/sqlite"
	"codeberg.org/miketth/vdock/pkg/vdock"
	"go.uber.org/zap"
)

func newClient(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (*api.Client, error) {
	client := api.New(cfg.Server.APIURL,
		api.WithLogger(log),
		api.WithToken(cfg.Server.Token),
		api.WithOnUnauthorized(func() {
			log.Warn("session expired, set a new token or password and restart")
		}),
	)

	if client.Token() == "" && cfg.Server.Password != "" {
		if _, err := client.Login(ctx, cfg.Server.Password); err != nil {
			return nil, fmt.Errorf("log in: %w", err)
		}
	}

	return client, nil
}

func newDispatcher(cfg config.Config, client *api.Client, m *metrics.Metrics, log *zap.SugaredLogger) *dispatch.Dispatcher {
	return dispatch.New(cfg.Server.WebSocketURL,
		dispatch.WithLogger(log),
		dispatch.WithTimeout(cfg.Dispatch.Timeout),
		dispatch.WithFallback(client),
		dispatch.WithMetrics(m),
	)
}

// openCache returns the configured profile cache and a loop that keeps it
// running until ctx is done and then closes it.
func openCache(cfg config.Config, log *zap.SugaredLogger) (vdock.ProfileCache, func(context.Context) error, error) {
	waitAndClose := func(close func() error) func(context.Context) error {
		return func(ctx context.Context) error {
			<-ctx.Done()
			if err := close(); err != nil {
				return fmt.Errorf("close: %w", err)
			}
			return ctx.Err()
		}
	}

	switch cfg.Cache.Backend {
	case "memory":
		return memory.NewProfileCache(), waitAndClose(func() error { return nil }), nil

	case "json":
		path, err := cachePath(cfg, "profiles.json")
		if err != nil {
			return nil, nil, err
		}
		cache, err := json.NewProfileCache(path)
		if err != nil {
			return nil, nil, fmt.Errorf("create json cache: %w", err)
		}
		return cache, cache.SaveLooper, nil

	case "sqlite":
		path, err := cachePath(cfg, "profiles.db")
		if err != nil {
			return nil, nil, err
		}
		cache, err := sqlite.NewProfileCache(path, log)
		if err != nil {
			return nil, nil, fmt.Errorf("create sqlite cache: %w", err)
		}
		return cache, waitAndClose(cache.Close), nil

	case "redis":
		r := cfg.Cache.Redis
		cache := redis.New(r.Addr, r.Password, r.DB, redis.WithTTL(r.TTL))
		return cache, waitAndClose(cache.Close), nil
	}

	return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
}

func cachePath(cfg config.Config, name string) (string, error) {
	if cfg.Cache.Path != "" {
		return cfg.Cache.Path, nil
	}
	return config.CachePath(name)
}

// profileLoadPaths are looked up on startup before anything may exist yet.
var profileLoadPaths = []string{"GET /profiles/*"}

func newReporter(log *zap.SugaredLogger) *notify.Reporter {
	return notify.NewReporter(notify.LogSink{Log: log},
		notify.WithLogger(log),
		notify.WithExpectedEmptyPaths(profileLoadPaths...),
	)
}

// loadProfile fetches the profile from the server. When the server cannot be
// reached the cached copy is used instead.
func loadProfile(
	ctx context.Context,
	client *api.Client,
	cache vdock.ProfileCache,
	id string,
	reporter *notify.Reporter,
	log *zap.SugaredLogger,
) (*vdock.Profile, error) {
	profile, err := fetchProfile(ctx, client, id)
	if err == nil {
		if err := cache.PutProfile(profile); err != nil {
			log.Warnw("failed to cache profile", "profile", profile.ID, "error", err)
		}
		return profile, nil
	}

	reporter.Report(err)
	log.Warnw("loading profile from cache", "error", err)

	if id != "" {
		cached, cacheErr := cache.GetProfile(id)
		if cacheErr != nil {
			return nil, errors.Join(err, cacheErr)
		}
		return cached, nil
	}

	cached, cacheErr := cache.ListProfiles()
	if cacheErr != nil {
		return nil, errors.Join(err, cacheErr)
	}
	if len(cached) == 0 {
		return nil, fmt.Errorf("no cached profile: %w", err)
	}
	return &cached[0], nil
}

func fetchProfile(ctx context.Context, client *api.Client, id string) (*vdock.Profile, error) {
	if id != "" {
		return client.GetProfile(ctx, id)
	}

	list, err := client.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) > 0 {
		return client.GetProfile(ctx, list[0].ID)
	}

	return client.CreateProfile(ctx, &vdock.Profile{Name: "Default", Theme: "dark"})
}
