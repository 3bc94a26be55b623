package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"codeberg.org/miketth/vdock/pkg/metrics"
	"codeberg.org/miketth/vdock/pkg/observer"
	"codeberg.org/miketth/vdock/pkg/vdock"
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

const DefaultInterval = 5 * time.Second

// Monitor polls a ForegroundSource and tells subscribers when the
// foreground executable changes.
type Monitor struct {
	source  vdock.ForegroundSource
	backend vdock.MonitorBackend
	log     *zap.SugaredLogger
	clock   clock.Clock
	metrics *metrics.Metrics

	mu         sync.Mutex
	running    bool
	cancel     context.CancelFunc
	done       chan struct{}
	inFlight   bool
	generation uint64
	current    *vdock.RunningApp

	subs observer.Registry[func(vdock.RunningApp)]
}

type Option func(*Monitor)

// WithBackend sets the side that is told to start and stop sampling.
func WithBackend(b vdock.MonitorBackend) Option {
	return func(m *Monitor) { m.backend = b }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(m *Monitor) { m.log = log }
}

func WithClock(c clock.Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Monitor) { m.metrics = mt }
}

func New(source vdock.ForegroundSource, opts ...Option) *Monitor {
	m := &Monitor{
		source:  source,
		backend: vdock.NopBackend{},
		log:     zap.NewNop().Sugar(),
		clock:   clock.New(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// OnChange registers fn to be called with every new foreground app.
func (m *Monitor) OnChange(fn func(vdock.RunningApp)) observer.Token {
	return m.subs.Add(fn)
}

func (m *Monitor) OffChange(token observer.Token) bool {
	return m.subs.Remove(token)
}

func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Current returns the last foreground app seen since Start.
func (m *Monitor) Current() (vdock.RunningApp, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return vdock.RunningApp{}, false
	}
	return *m.current, true
}

// Start tells the backend to begin sampling and polls every interval until
// Stop is called. ctx only bounds the backend call; polling outlives it.
// Calling Start while running does nothing.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	if err := m.backend.StartMonitoring(ctx, interval); err != nil {
		return fmt.Errorf("start backend monitoring: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	ticker := m.clock.Ticker(interval)
	m.running = true
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.loop(loopCtx, ticker, m.done)

	m.log.Infow("app monitoring started", "interval", interval)
	return nil
}

func (m *Monitor) loop(ctx context.Context, ticker *clock.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go m.Check(ctx)
		}
	}
}

// Stop cancels polling and tells the backend to stop. A check that is still
// running when Stop is called has its result discarded.
func (m *Monitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	m.generation++
	m.current = nil
	m.cancel()
	done := m.done
	m.mu.Unlock()

	<-done

	if err := m.backend.StopMonitoring(ctx); err != nil {
		return fmt.Errorf("stop backend monitoring: %w", err)
	}

	m.log.Infow("app monitoring stopped")
	return nil
}

// Check asks the source for the foreground app once and notifies
// subscribers if the executable changed. It returns true in that case. A
// check started while another one is in flight is skipped.
func (m *Monitor) Check(ctx context.Context) bool {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		m.metrics.MonitorCheck("skipped")
		return false
	}
	m.inFlight = true
	gen := m.generation
	m.mu.Unlock()

	app, err := m.source.ActiveApp(ctx)

	m.mu.Lock()
	m.inFlight = false

	if gen != m.generation {
		m.mu.Unlock()
		m.metrics.MonitorCheck("stale")
		return false
	}

	switch {
	case errors.Is(err, vdock.ErrNoActiveApp):
		m.mu.Unlock()
		m.metrics.MonitorCheck("none")
		return false
	case err != nil:
		m.mu.Unlock()
		m.log.Warnw("failed to get active app", "error", err)
		m.metrics.MonitorCheck("error")
		return false
	case app == nil || app.Exe == "":
		m.mu.Unlock()
		m.metrics.MonitorCheck("none")
		return false
	case m.current != nil && m.current.Exe == app.Exe:
		m.mu.Unlock()
		m.metrics.MonitorCheck("unchanged")
		return false
	}

	previous := ""
	if m.current != nil {
		previous = m.current.Exe
	}
	changed := *app
	m.current = &changed
	m.mu.Unlock()

	m.log.Debugw("active app changed", "from", previous, "to", changed.Exe)
	m.metrics.MonitorCheck("changed")
	m.metrics.ForegroundChanged()

	for _, fn := range m.subs.Snapshot() {
		m.notify(fn, changed)
	}
	return true
}

func (m *Monitor) notify(fn func(vdock.RunningApp), app vdock.RunningApp) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Errorw("app change callback panicked", "panic", r, "exe", app.Exe)
		}
	}()
	fn(app)
}
