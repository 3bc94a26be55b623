package autoswitch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"codeberg.org/miketth/vdock/pkg/metrics"
	"codeberg.org/miketth/vdock/pkg/monitor"
	"codeberg.org/miketth/vdock/pkg/observer"
	"codeberg.org/miketth/vdock/pkg/vdock"
	"go.uber.org/zap"
)

// Switcher maps foreground apps to scenes using the profile's app
// integrations.
type Switcher struct {
	monitor  AppMonitor
	source   vdock.ForegroundSource
	interval time.Duration
	log      *zap.SugaredLogger
	metrics  *metrics.Metrics

	mu           sync.Mutex
	integrations []vdock.AppIntegration
	enabled      bool
	token        observer.Token

	callbacks observer.Registry[SwitchFunc]
}

type Option func(*Switcher)

func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Switcher) { s.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Switcher) { s.metrics = m }
}

// WithInterval sets the poll interval the monitor is started with.
func WithInterval(d time.Duration) Option {
	return func(s *Switcher) { s.interval = d }
}

// NewSwitcher creates a disabled switcher. source is used by CheckAndSwitch
// to sample the foreground app outside the monitor's schedule.
func NewSwitcher(mon AppMonitor, source vdock.ForegroundSource, opts ...Option) *Switcher {
	s := &Switcher{
		monitor:  mon,
		source:   source,
		interval: monitor.DefaultInterval,
		log:      zap.NewNop().Sugar(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Initialize sets the integration table.
func (s *Switcher) Initialize(integrations []vdock.AppIntegration) {
	s.UpdateIntegrations(integrations)
}

func (s *Switcher) UpdateIntegrations(integrations []vdock.AppIntegration) {
	table := make([]vdock.AppIntegration, len(integrations))
	copy(table, integrations)

	s.mu.Lock()
	s.integrations = table
	s.mu.Unlock()
}

func (s *Switcher) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Enable subscribes to the monitor and starts it.
func (s *Switcher) Enable(ctx context.Context) error {
	s.mu.Lock()
	if s.enabled {
		s.mu.Unlock()
		return nil
	}
	s.token = s.monitor.OnChange(s.processAppChange)
	s.enabled = true
	s.mu.Unlock()

	if err := s.monitor.Start(ctx, s.interval); err != nil {
		s.mu.Lock()
		s.monitor.OffChange(s.token)
		s.enabled = false
		s.mu.Unlock()
		return fmt.Errorf("start monitor: %w", err)
	}

	s.log.Infow("auto scene switching enabled")
	return nil
}

// Disable unsubscribes from the monitor and stops it.
func (s *Switcher) Disable(ctx context.Context) error {
	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return nil
	}
	s.monitor.OffChange(s.token)
	s.enabled = false
	s.mu.Unlock()

	if err := s.monitor.Stop(ctx); err != nil {
		return fmt.Errorf("stop monitor: %w", err)
	}

	s.log.Infow("auto scene switching disabled")
	return nil
}

func (s *Switcher) OnSceneSwitch(fn SwitchFunc) observer.Token {
	return s.callbacks.Add(fn)
}

func (s *Switcher) OffSceneSwitch(token observer.Token) bool {
	return s.callbacks.Remove(token)
}

// CheckAndSwitch samples the foreground app once and switches to its scene.
// It reports whether a switch was requested.
func (s *Switcher) CheckAndSwitch(ctx context.Context) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}

	app, err := s.source.ActiveApp(ctx)
	if errors.Is(err, vdock.ErrNoActiveApp) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get active app: %w", err)
	}
	if app == nil || app.Exe == "" {
		return false, nil
	}

	return s.switchFor(app.Exe), nil
}

// FindSceneForApp returns the scene an enabled integration maps exe to,
// whether or not it switches automatically.
func (s *Switcher) FindSceneForApp(exe string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, in := range s.integrations {
		if in.AppExe == exe && in.Enabled && in.SceneID != "" {
			return in.SceneID, true
		}
	}
	return "", false
}

func (s *Switcher) processAppChange(app vdock.RunningApp) {
	if !s.Enabled() {
		return
	}
	s.switchFor(app.Exe)
}

func (s *Switcher) switchFor(exe string) bool {
	s.mu.Lock()
	var sceneID string
	for _, in := range s.integrations {
		if in.AppExe == exe && in.Enabled && in.AutoSwitch {
			sceneID = in.SceneID
			break
		}
	}
	s.mu.Unlock()

	if sceneID == "" {
		return false
	}

	s.log.Infow("switching scene for app", "exe", exe, "scene", sceneID)
	s.metrics.SceneSwitched()

	for _, fn := range s.callbacks.Snapshot() {
		s.call(fn, sceneID, exe)
	}
	return true
}

func (s *Switcher) call(fn SwitchFunc, sceneID, exe string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("scene switch callback panicked", "panic", r, "scene", sceneID)
		}
	}()
	fn(sceneID, exe)
}
