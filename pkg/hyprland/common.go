package hyprland

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

var ErrNotRunning = errors.New("hyprland might not be running")

type socketType int

const (
	Hyprctl socketType = iota
	Socket2
)

// SocketDir returns the directory holding the sockets of the running
// Hyprland instance. Newer versions put it under $XDG_RUNTIME_DIR, older
// ones under /tmp.
func SocketDir() (string, error) {
	signature := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")
	if signature == "" {
		return "", fmt.Errorf("HYPRLAND_INSTANCE_SIGNATURE is not set, %w", ErrNotRunning)
	}

	dir := filepath.Join(xdg.RuntimeDir, "hypr", signature)
	if _, err := os.Stat(dir); err == nil {
		return dir, nil
	}

	return filepath.Join("/tmp/hypr", signature), nil
}

func socketPath(dir string, sock socketType) (string, error) {
	switch sock {
	case Hyprctl:
		return filepath.Join(dir, ".socket.sock"), nil
	case Socket2:
		return filepath.Join(dir, ".socket2.sock"), nil
	}

	return "", fmt.Errorf("unknown socket type: %d", sock)
}

func connect(ctx context.Context, dir string, sock socketType) (net.Conn, error) {
	path, err := socketPath(dir, sock)
	if err != nil {
		return nil, fmt.Errorf("get socket path: %w", err)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return conn, nil
}
