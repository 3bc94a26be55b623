package vdock

import (
	"context"
	"errors"
	"time"

	"codeberg.org/miketth/vdock/pkg/action"
)

var (
	// ErrNoActiveApp is returned by a ForegroundSource when nothing is focused.
	ErrNoActiveApp = errors.New("no active application")
	// ErrProfileNotCached is returned by a ProfileCache for unknown ids.
	ErrProfileNotCached = errors.New("profile not cached")
)

// ProfileStore is the authoritative, remote home of profiles.
type ProfileStore interface {
	SaveProfile(ctx context.Context, profile *Profile) error
}

// ProfileCache mirrors profiles locally. Failures are never fatal.
type ProfileCache interface {
	GetProfile(id string) (*Profile, error)
	PutProfile(profile *Profile) error
	DeleteProfile(id string) error
	ListProfiles() ([]Profile, error)
}

type ActionExecutor interface {
	ExecuteAction(ctx context.Context, a action.Action) (ActionResult, error)
}

type ForegroundSource interface {
	ActiveApp(ctx context.Context) (*RunningApp, error)
}

// SourceFunc adapts a function to ForegroundSource.
type SourceFunc func(ctx context.Context) (*RunningApp, error)

func (f SourceFunc) ActiveApp(ctx context.Context) (*RunningApp, error) {
	return f(ctx)
}

// MonitorBackend is the side that samples the OS for the foreground app.
type MonitorBackend interface {
	StartMonitoring(ctx context.Context, interval time.Duration) error
	StopMonitoring(ctx context.Context) error
}

// NopBackend is used when the foreground source needs no remote setup.
type NopBackend struct{}

func (NopBackend) StartMonitoring(context.Context, time.Duration) error { return nil }
func (NopBackend) StopMonitoring(context.Context) error                 { return nil }

// Fullscreener toggles the host window's fullscreen state.
type Fullscreener interface {
	ToggleFullscreen() error
}
