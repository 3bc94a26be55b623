package hyprland

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
)

// Client reads the event stream of socket2.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
}

func Connect(ctx context.Context, dir string) (*Client, error) {
	conn, err := connect(ctx, dir, Socket2)
	if err != nil {
		return nil, err
	}

	return &Client{conn: conn, reader: bufio.NewReader(conn)}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) ReadLine() (string, error) {
	str, err := c.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read from hypr socket: %w", err)
	}
	return strings.TrimSuffix(str, "\n"), nil
}

type LineReader interface {
	ReadLine() (string, error)
}

// WatchActiveWindow calls fn with the window class every time focus moves
// to another window. It returns when ctx is done or the stream fails.
func WatchActiveWindow(ctx context.Context, events LineReader, fn func(class string)) error {
	for {
		resultCh := make(chan string, 1)
		errCh := make(chan error, 1)
		go func() {
			line, err := events.ReadLine()
			if err != nil {
				errCh <- err
				return
			}
			resultCh <- line
		}()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case line := <-resultCh:
			evType, evData, ok := strings.Cut(line, ">>")
			if !ok || evType != "activewindow" {
				continue
			}
			class, _, _ := strings.Cut(evData, ",")
			fn(class)
		case err := <-errCh:
			return fmt.Errorf("get line: %w", err)
		}
	}
}
