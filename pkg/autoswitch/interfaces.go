package autoswitch

import (
	"context"
	"time"

	"codeberg.org/miketth/vdock/pkg/observer"
	"codeberg.org/miketth/vdock/pkg/vdock"
)

// AppMonitor reports foreground app changes. *monitor.Monitor implements it.
type AppMonitor interface {
	OnChange(fn func(vdock.RunningApp)) observer.Token
	OffChange(token observer.Token) bool
	Start(ctx context.Context, interval time.Duration) error
	Stop(ctx context.Context) error
}

// SwitchFunc is called with the scene to select and the executable that
// caused the switch.
type SwitchFunc func(sceneID, exe string)
