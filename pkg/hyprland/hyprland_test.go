package hyprland

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codeberg.org/miketth/vdock/pkg/vdock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHyprctl answers every request on the hyprctl socket with reply and
// records what was asked.
func fakeHyprctl(t *testing.T, reply string) (string, <-chan string) {
	t.Helper()

	dir, err := os.MkdirTemp("", "hypr")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	ln, err := net.Listen("unix", filepath.Join(dir, ".socket.sock"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	requests := make(chan string, 10)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			buf := make([]byte, 1024)
			n, _ := conn.Read(buf)
			requests <- string(buf[:n])
			_, _ = conn.Write([]byte(reply))
			_ = conn.Close()
		}
	}()

	return dir, requests
}

func TestActiveAppResolvesProcess(t *testing.T) {
	dir, requests := fakeHyprctl(t, `{"address":"0x1","class":"Code","title":"main.go","initialClass":"Code","pid":4242}`)

	c := NewHyprctl(dir).WithProcessInfo(func(_ context.Context, pid int) (string, string, error) {
		assert.Equal(t, 4242, pid)
		return "code", "/usr/bin/code", nil
	})

	app, err := c.ActiveApp(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "j/activewindow", <-requests)
	assert.Equal(t, vdock.RunningApp{Name: "Code", Exe: "code", PID: 4242, Path: "/usr/bin/code"}, *app)
}

func TestActiveAppFallsBackToClass(t *testing.T) {
	dir, _ := fakeHyprctl(t, `{"class":"firefox","pid":17}`)

	c := NewHyprctl(dir).WithProcessInfo(func(context.Context, int) (string, string, error) {
		return "", "", errors.New("gone")
	})

	app, err := c.ActiveApp(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "firefox", app.Exe)
	assert.Empty(t, app.Path)
}

func TestActiveAppNothingFocused(t *testing.T) {
	dir, _ := fakeHyprctl(t, `{}`)

	_, err := NewHyprctl(dir).ActiveApp(context.Background())
	assert.ErrorIs(t, err, vdock.ErrNoActiveApp)
}

func TestActiveAppWithoutSocket(t *testing.T) {
	_, err := NewHyprctl(t.TempDir()).ActiveApp(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, vdock.ErrNoActiveApp)
}

func TestToggleFullscreen(t *testing.T) {
	dir, requests := fakeHyprctl(t, "ok")

	require.NoError(t, NewHyprctl(dir).ToggleFullscreen())
	assert.Equal(t, "/dispatch fullscreen 0", <-requests)
}

func TestCheckReply(t *testing.T) {
	assert.NoError(t, checkReply("ok\n"))
	assert.ErrorIs(t, checkReply("Invalid dispatcher"), ErrInvalidDispatcher)
	assert.EqualError(t, checkReply("something broke"), "hyprctl: something broke")
}

func TestSocketDirRequiresSignature(t *testing.T) {
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "")
	_, err := SocketDir()
	assert.ErrorIs(t, err, ErrNotRunning)

	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "abc")
	dir, err := SocketDir()
	require.NoError(t, err)
	assert.Equal(t, "abc", filepath.Base(dir))
}

type lines struct {
	items []string
}

func (l *lines) ReadLine() (string, error) {
	if len(l.items) == 0 {
		return "", io.EOF
	}
	line := l.items[0]
	l.items = l.items[1:]
	return line, nil
}

func TestWatchActiveWindow(t *testing.T) {
	events := &lines{items: []string{
		"workspace>>2",
		"activewindow>>firefox,Mozilla Firefox",
		"garbage",
		"activewindowv2>>5588",
		"activewindow>>kitty,~",
	}}

	var classes []string
	err := WatchActiveWindow(context.Background(), events, func(class string) {
		classes = append(classes, class)
	})

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"firefox", "kitty"}, classes)
}

type blockedReader struct{}

func (blockedReader) ReadLine() (string, error) {
	select {}
}

func TestWatchActiveWindowStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := WatchActiveWindow(ctx, blockedReader{}, func(string) {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEventClientReadsLines(t *testing.T) {
	dir, err := os.MkdirTemp("", "hypr")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	ln, err := net.Listen("unix", filepath.Join(dir, ".socket2.sock"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		_, _ = conn.Write([]byte(strings.Join([]string{"activewindow>>a,b", "closewindow>>1"}, "\n") + "\n"))
		_ = conn.Close()
	}()

	c, err := Connect(context.Background(), dir)
	require.NoError(t, err)
	defer c.Close()

	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "activewindow>>a,b", line)

	line, err = c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "closewindow>>1", line)

	_, err = c.ReadLine()
	assert.Error(t, err)
}
