package hyprland

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"

	"codeberg.org/miketth/vdock/pkg/vdock"
	"github.com/shirou/gopsutil/v4/process"
)

const requestTimeout = 2 * time.Second

// ProcessInfo resolves a pid to its process name and executable path.
type ProcessInfo func(ctx context.Context, pid int) (name string, path string, err error)

// HyprctlClient talks to the request socket of a Hyprland instance.
type HyprctlClient struct {
	dir     string
	process ProcessInfo
}

func NewHyprctl(dir string) *HyprctlClient {
	return &HyprctlClient{dir: dir, process: lookupProcess}
}

// WithProcessInfo replaces the gopsutil based pid lookup.
func (c *HyprctlClient) WithProcessInfo(p ProcessInfo) *HyprctlClient {
	c.process = p
	return c
}

// ActiveApp returns the application owning the focused window.
func (c *HyprctlClient) ActiveApp(ctx context.Context) (*vdock.RunningApp, error) {
	conn, err := c.makeRequest(ctx, "activewindow", "j")
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var win activeWindow
	if err := json.NewDecoder(conn).Decode(&win); err != nil {
		return nil, fmt.Errorf("unmarshal active window: %w", err)
	}
	if win.Class == "" && win.PID <= 0 {
		return nil, vdock.ErrNoActiveApp
	}

	app := &vdock.RunningApp{Name: win.Class, Exe: win.Class, PID: win.PID}
	if win.PID > 0 {
		name, path, err := c.process(ctx, win.PID)
		if err == nil && name != "" {
			app.Exe = name
			app.Path = path
		}
	}
	if app.Exe == "" {
		return nil, vdock.ErrNoActiveApp
	}

	return app, nil
}

// ToggleFullscreen toggles fullscreen on the focused window.
func (c *HyprctlClient) ToggleFullscreen() error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	conn, err := c.makeRequest(ctx, "dispatch fullscreen 0", "")
	if err != nil {
		return err
	}
	defer conn.Close()

	reply, err := io.ReadAll(conn)
	if err != nil {
		return fmt.Errorf("read response from hyprctl socket: %w", err)
	}

	return checkReply(string(reply))
}

func (c *HyprctlClient) makeRequest(ctx context.Context, request string, args string) (net.Conn, error) {
	conn, err := connect(ctx, c.dir, Hyprctl)
	if err != nil {
		return nil, fmt.Errorf("connect hyprctl: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	_, err = conn.Write([]byte(fmt.Sprintf("%s/%s", args, request)))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("write to hyprctl socket: %w", err)
	}

	return conn, nil
}

func lookupProcess(ctx context.Context, pid int) (string, string, error) {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return "", "", fmt.Errorf("find process %d: %w", pid, err)
	}

	name, err := p.NameWithContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("process name: %w", err)
	}

	// the path is informational only
	path, _ := p.ExeWithContext(ctx)

	return name, path, nil
}
