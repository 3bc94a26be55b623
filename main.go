package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"codeberg.org/miketth/vdock/pkg/api"
	"codeberg.org/miketth/vdock/pkg/autoswitch"
	"codeberg.org/miketth/vdock/pkg/config"
	"codeberg.org/miketth/vdock/pkg/deck"
	"codeberg.org/miketth/vdock/pkg/dispatch"
	"codeberg.org/miketth/vdock/pkg/hyprland"
	"codeberg.org/miketth/vdock/pkg/metrics"
	"codeberg.org/miketth/vdock/pkg/monitor"
	"codeberg.org/miketth/vdock/pkg/statusapi"
	"codeberg.org/miketth/vdock/pkg/vdock"
	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("error: %+v", err)
	}
}

// foreground bundles what the monitor and the switcher need from the side
// that knows the focused application.
type foreground struct {
	source     vdock.ForegroundSource
	oneShot    vdock.ForegroundSource
	backend    vdock.MonitorBackend
	fullscreen vdock.Fullscreener
	socketDir  string
}

func newForeground(cfg config.Config, client *api.Client) (foreground, error) {
	if cfg.Monitor.Source != "hyprland" {
		return foreground{
			source:  vdock.SourceFunc(client.ActiveApp),
			oneShot: vdock.SourceFunc(client.CurrentApp),
			backend: client,
		}, nil
	}

	dir, err := hyprland.SocketDir()
	if err != nil {
		return foreground{}, fmt.Errorf("find hyprland: %w", err)
	}
	hyprctl := hyprland.NewHyprctl(dir)

	return foreground{
		source:     hyprctl,
		oneShot:    hyprctl,
		backend:    vdock.NopBackend{},
		fullscreen: hyprctl,
		socketDir:  dir,
	}, nil
}

type worker struct {
	name string
	fn   func(context.Context) error
}

func run(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	reporter := newReporter(log)

	client, err := newClient(ctx, cfg, log)
	if err != nil {
		return err
	}

	dispatcher := newDispatcher(cfg, client, m, log)
	dispatcher.On(func(ev dispatch.Event) {
		if ev.Err != nil {
			reporter.Report(ev.Err)
		}
	})
	defer dispatcher.Disconnect()

	cache, cacheLoop, err := openCache(cfg, log)
	if err != nil {
		return fmt.Errorf("open profile cache: %w", err)
	}

	fg, err := newForeground(cfg, client)
	if err != nil {
		return err
	}

	engine := deck.New(
		deck.WithLogger(log),
		deck.WithStore(client),
		deck.WithCache(cache),
		deck.WithExecutor(dispatcher),
		deck.WithFullscreen(fg.fullscreen),
		deck.WithDefaultGrid(cfg.Deck.DefaultGrid),
		deck.WithHistoryCap(cfg.Deck.HistoryCap),
		deck.WithSaveTimeout(cfg.Deck.SaveTimeout),
	)

	profile, err := loadProfile(ctx, client, cache, cfg.Deck.ProfileID, reporter, log)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	engine.Load(profile)

	mon := monitor.New(fg.source,
		monitor.WithBackend(fg.backend),
		monitor.WithLogger(log),
		monitor.WithMetrics(m),
	)

	sw := autoswitch.NewSwitcher(mon, fg.oneShot,
		autoswitch.WithLogger(log),
		autoswitch.WithMetrics(m),
		autoswitch.WithInterval(cfg.Monitor.PollInterval),
	)
	integrations := profile.Integrations
	if len(integrations) == 0 {
		integrations = cfg.Integrations
	}
	sw.Initialize(integrations)
	sw.OnSceneSwitch(func(sceneID, exe string) {
		if !engine.SelectSceneByID(sceneID) {
			log.Warnw("auto switch target scene not in profile", "scene", sceneID, "exe", exe)
		}
	})

	if cfg.Monitor.AutoSwitch {
		if err := sw.Enable(ctx); err != nil {
			reporter.Report(err)
		} else if _, err := sw.CheckAndSwitch(ctx); err != nil {
			reporter.Report(err)
		}
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sw.Disable(shutdownCtx); err != nil {
			log.Warnw("failed to stop auto switching", "error", err)
		}
	}()

	status := statusapi.New(engine,
		statusapi.WithConnection(dispatcher),
		statusapi.WithMonitor(mon),
		statusapi.WithMetrics(m),
		statusapi.WithReporter(reporter),
		statusapi.WithLogger(log),
	)

	log.Infow("started vdock", "profile", profile.ID, "source", cfg.Monitor.Source)

	workers := []worker{
		{"action channel", func(ctx context.Context) error { return dispatcher.KeepConnected(ctx, client.Token) }},
		{"save profile", engine.SaveLooper},
		{"profile cache", cacheLoop},
		{"status api", func(ctx context.Context) error { return status.ListenAndServe(ctx, cfg.Status.Listen) }},
		{"systemd notify", systemdNotifyLoop},
	}
	if fg.socketDir != "" {
		workers = append(workers, worker{"hyprland events", func(ctx context.Context) error {
			return watchFocus(ctx, fg.socketDir, mon, log)
		}})
	}

	errChan := make(chan error, len(workers))
	var wg sync.WaitGroup
	wg.Add(len(workers))

	for _, w := range workers {
		go func() {
			defer wg.Done()
			err := w.fn(ctx)
			if err != nil {
				errChan <- fmt.Errorf("%s: %w", w.name, err)
			}
		}()
	}

	err = <-errChan
	switch {
	case errors.Is(err, context.Canceled):
		log.Info("shutting down")
		wg.Wait()
		return nil
	case err != nil:
		stop()
		wg.Wait()
		return err
	}

	return nil
}

// watchFocus checks the foreground app as soon as Hyprland reports a focus
// change instead of waiting for the next poll.
func watchFocus(ctx context.Context, dir string, mon *monitor.Monitor, log *zap.SugaredLogger) error {
	events, err := hyprland.Connect(ctx, dir)
	if err != nil {
		log.Warnw("hyprland event socket unavailable, relying on polling", "error", err)
		<-ctx.Done()
		return ctx.Err()
	}
	defer events.Close()

	return hyprland.WatchActiveWindow(ctx, events, func(class string) {
		if mon.Running() {
			mon.Check(ctx)
		}
	})
}

func systemdNotifyLoop(ctx context.Context) error {
	// tell systemd that we're ready
	supported, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		return fmt.Errorf("notify systemd: %w", err)
	}
	if !supported {
		return nil
	}

	_, _ = daemon.SdNotify(false, "STATUS=Pressing buttons for you")

	t, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		return fmt.Errorf("check watchdog: %w", err)
	}
	// if watchdog is not enabled, we don't need to notify it
	if t == 0 {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-time.After(t / 2):
			_, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			if err != nil {
				return fmt.Errorf("notify watchdog: %w", err)
			}
		}
	}
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	loggerConfig := zap.NewDevelopmentConfig()

	loggerConfig.OutputPaths = []string{"stdout"}
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if !debug {
		loggerConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger.Sugar(), nil
}
