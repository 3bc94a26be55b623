package deck

import (
	"context"
	"fmt"
	"time"
)

// Dirty reports whether the live profile has changes that were not saved yet.
func (e *Engine) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// Flush mirrors the live profile to the cache and saves it to the store.
// A failed save leaves the engine dirty so the next flush retries it.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	if !e.dirty || e.profile == nil {
		e.mu.Unlock()
		return nil
	}
	snapshot := e.profile.Clone()
	e.dirty = false
	e.mu.Unlock()

	if e.cache != nil {
		if err := e.cache.PutProfile(snapshot); err != nil {
			e.log.Warnw("failed to mirror profile to cache", "profile", snapshot.ID, "error", err)
		}
	}

	if e.store == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.saveTimeout)
	defer cancel()

	if err := e.store.SaveProfile(ctx, snapshot); err != nil {
		e.mu.Lock()
		e.dirty = true
		e.mu.Unlock()
		return fmt.Errorf("save profile %s: %w", snapshot.ID, err)
	}

	e.log.Debugw("saved profile", "profile", snapshot.ID)
	return nil
}

// SaveLooper flushes after every change and retries failed saves once a
// minute. On shutdown it makes a last attempt before returning.
func (e *Engine) SaveLooper(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), e.saveTimeout)
			err := e.Flush(shutdownCtx)
			cancel()
			if err != nil {
				return fmt.Errorf("save: %w", err)
			}

			return ctx.Err()
		case <-e.saveSignal:
			if err := e.Flush(ctx); err != nil {
				e.log.Errorw("failed to save profile", "error", err)
			}
		case <-time.After(time.Minute):
			if err := e.Flush(ctx); err != nil {
				e.log.Errorw("failed to save profile", "error", err)
			}
		}
	}
}
