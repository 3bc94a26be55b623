package dispatch

import (
	"context"
	"time"
)

const (
	DefaultReconnectMin = time.Second
	DefaultReconnectMax = 30 * time.Second
)

// WithReconnectBackoff sets the first and the longest wait between
// reconnect attempts in KeepConnected.
func WithReconnectBackoff(first, longest time.Duration) Option {
	return func(d *Dispatcher) {
		if first > 0 && longest >= first {
			d.reconnectMin = first
			d.reconnectMax = longest
		}
	}
}

// KeepConnected connects the channel and reconnects it whenever it drops,
// doubling the wait after every failed attempt up to the configured
// maximum. credential is asked again before every attempt. It returns when
// ctx is done.
func (d *Dispatcher) KeepConnected(ctx context.Context, credential func() string) error {
	wake := make(chan struct{}, 1)
	token := d.On(func(ev Event) {
		if ev.Type != EventDisconnected {
			return
		}
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	defer d.Off(token)

	delay := d.reconnectMin
	for {
		if d.State() == Disconnected {
			err := d.Connect(ctx, credential())
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				d.log.Warnw("failed to connect action channel", "error", err, "retry_in", delay)
				if err := d.wait(ctx, delay); err != nil {
					return err
				}
				delay = min(2*delay, d.reconnectMax)
				continue
			}
			delay = d.reconnectMin
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		}

		if err := d.wait(ctx, delay); err != nil {
			return err
		}
	}
}

func (d *Dispatcher) wait(ctx context.Context, delay time.Duration) error {
	t := d.clock.Timer(delay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
