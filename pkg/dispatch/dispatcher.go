package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"codeberg.org/miketth/vdock/pkg/action"
	"codeberg.org/miketth/vdock/pkg/metrics"
	"codeberg.org/miketth/vdock/pkg/observer"
	"codeberg.org/miketth/vdock/pkg/vdock"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const DefaultTimeout = 30 * time.Second

var (
	ErrNotConnected = errors.New("action channel is not connected")
	ErrTimeout      = errors.New("action timed out")
	ErrCanceled     = errors.New("action channel closed before a result arrived")
)

type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

type outcome struct {
	result vdock.ActionResult
	err    error
}

// Dispatcher sends actions to the remote executor over a websocket and
// matches every result to its request by id.
type Dispatcher struct {
	url      string
	log      *zap.SugaredLogger
	clock    clock.Clock
	timeout  time.Duration
	dialer   *websocket.Dialer
	fallback vdock.ActionExecutor
	breaker  *gobreaker.CircuitBreaker
	metrics  *metrics.Metrics
	newID    func() string

	reconnectMin time.Duration
	reconnectMax time.Duration

	mu      sync.Mutex
	state   State
	conn    *websocket.Conn
	pending map[string]chan outcome

	writeMu sync.Mutex
	events  observer.Registry[func(Event)]
}

type Option func(*Dispatcher)

func WithLogger(log *zap.SugaredLogger) Option {
	return func(d *Dispatcher) { d.log = log }
}

// WithClock replaces the clock used for result timeouts and reconnect waits.
func WithClock(c clock.Clock) Option {
	return func(d *Dispatcher) { d.clock = c }
}

func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

func WithDialer(dialer *websocket.Dialer) Option {
	return func(d *Dispatcher) { d.dialer = dialer }
}

// WithFallback sets the request/response transport used while the channel
// is disconnected. Calls go through a circuit breaker.
func WithFallback(fallback vdock.ActionExecutor) Option {
	return func(d *Dispatcher) { d.fallback = fallback }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithIDGenerator(fn func() string) Option {
	return func(d *Dispatcher) { d.newID = fn }
}

func New(wsURL string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		url:     wsURL,
		log:     zap.NewNop().Sugar(),
		clock:   clock.New(),
		timeout: DefaultTimeout,
		dialer:  websocket.DefaultDialer,
		newID:   uuid.NewString,
		pending: make(map[string]chan outcome),

		reconnectMin: DefaultReconnectMin,
		reconnectMax: DefaultReconnectMax,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "fallback",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			d.log.Warnw("fallback breaker changed state", "from", from.String(), "to", to.String())
		},
	})

	return d
}

func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Pending returns the number of actions waiting for a result.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Connect opens the channel, authenticating with the bearer credential if set.
// It is a no-op unless the dispatcher is disconnected.
func (d *Dispatcher) Connect(ctx context.Context, credential string) error {
	d.mu.Lock()
	if d.state != Disconnected {
		d.mu.Unlock()
		return nil
	}
	d.state = Connecting
	d.mu.Unlock()

	target, header, err := d.handshake(credential)
	if err != nil {
		d.setState(Disconnected)
		return err
	}

	conn, _, err := d.dialer.DialContext(ctx, target, header)
	if err != nil {
		d.setState(Disconnected)
		d.emit(Event{Type: EventConnectError, Err: err})
		return fmt.Errorf("dial %s: %w", d.url, err)
	}

	d.mu.Lock()
	d.conn = conn
	d.state = Connected
	d.mu.Unlock()

	d.log.Infow("action channel connected", "url", d.url)
	d.emit(Event{Type: EventConnected})

	go d.receiveLoop(conn)
	return nil
}

func (d *Dispatcher) handshake(credential string) (string, http.Header, error) {
	u, err := url.Parse(d.url)
	if err != nil {
		return "", nil, fmt.Errorf("parse url: %w", err)
	}

	header := http.Header{}
	if credential != "" {
		q := u.Query()
		q.Set("token", credential)
		u.RawQuery = q.Encode()
		header.Set("Authorization", "Bearer "+credential)
	}

	return u.String(), header, nil
}

func (d *Dispatcher) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// Disconnect closes the channel. Every action still waiting for a result
// fails with ErrCanceled.
func (d *Dispatcher) Disconnect() error {
	d.mu.Lock()
	conn := d.conn
	d.mu.Unlock()

	if conn == nil {
		return nil
	}

	d.writeMu.Lock()
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	d.writeMu.Unlock()

	d.drop(conn, nil)
	return nil
}

// ExecuteAction sends a to the remote executor and waits for the result
// carrying the same request id. While disconnected the fallback transport is
// used instead, if one is configured.
func (d *Dispatcher) ExecuteAction(ctx context.Context, a action.Action) (vdock.ActionResult, error) {
	start := d.clock.Now()

	d.mu.Lock()
	state, conn := d.state, d.conn
	if state != Connected {
		d.mu.Unlock()
		if state == Disconnected && d.fallback != nil {
			return d.executeFallback(ctx, a, start)
		}
		d.metrics.ObserveAction("channel", "not_connected", 0)
		return vdock.ActionResult{}, ErrNotConnected
	}

	id := d.newID()
	timer := d.clock.Timer(d.timeout)
	results := make(chan outcome, 1)
	d.pending[id] = results
	d.metrics.SetPending(len(d.pending))
	d.mu.Unlock()

	defer func() {
		timer.Stop()
		d.mu.Lock()
		delete(d.pending, id)
		d.metrics.SetPending(len(d.pending))
		d.mu.Unlock()
	}()

	err := d.send(conn, eventExecuteAction, executeRequest{RequestID: id, Action: a})
	if err != nil {
		d.metrics.ObserveAction("channel", "error", d.clock.Since(start))
		return vdock.ActionResult{}, fmt.Errorf("send %s: %w", eventExecuteAction, err)
	}

	select {
	case out := <-results:
		label := "success"
		if out.err != nil {
			label = "canceled"
		} else if !out.result.Success {
			label = "failure"
		}
		d.metrics.ObserveAction("channel", label, d.clock.Since(start))
		return out.result, out.err
	case <-timer.C:
		d.log.Warnw("action timed out", "request", id, "kind", a.Kind, "timeout", d.timeout)
		d.metrics.ObserveAction("channel", "timeout", d.clock.Since(start))
		return vdock.ActionResult{}, ErrTimeout
	case <-ctx.Done():
		d.metrics.ObserveAction("channel", "canceled", d.clock.Since(start))
		return vdock.ActionResult{}, ctx.Err()
	}
}

func (d *Dispatcher) executeFallback(ctx context.Context, a action.Action, start time.Time) (vdock.ActionResult, error) {
	res, err := d.breaker.Execute(func() (interface{}, error) {
		return d.fallback.ExecuteAction(ctx, a)
	})
	if err != nil {
		d.metrics.ObserveAction("fallback", "error", d.clock.Since(start))
		return vdock.ActionResult{}, fmt.Errorf("fallback: %w", err)
	}

	result := res.(vdock.ActionResult)
	label := "success"
	if !result.Success {
		label = "failure"
	}
	d.metrics.ObserveAction("fallback", label, d.clock.Since(start))
	return result, nil
}

func (d *Dispatcher) send(conn *websocket.Conn, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	return conn.WriteJSON(envelope{Event: event, Data: data})
}

func (d *Dispatcher) receiveLoop(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				d.log.Warnw("action channel closed unexpectedly", "error", err)
			}
			d.drop(conn, err)
			return
		}

		d.handleMessage(conn, message)
	}
}

func (d *Dispatcher) handleMessage(conn *websocket.Conn, message []byte) {
	var env envelope
	if err := json.Unmarshal(message, &env); err != nil {
		d.log.Warnw("failed to decode channel message", "error", err)
		return
	}

	switch env.Event {
	case eventActionResult:
		var res actionResult
		if err := json.Unmarshal(env.Data, &res); err != nil {
			d.log.Warnw("failed to decode action result", "error", err)
			return
		}
		if res.RequestID == "" {
			d.log.Warnw("dropping action result without request id", "message", res.Message)
			return
		}
		d.resolve(res.RequestID, outcome{result: vdock.ActionResult{
			Success: res.Success,
			Message: res.Message,
			Data:    res.Data,
		}})
	case eventConnected:
		d.log.Debugw("server acknowledged connection", "data", string(env.Data))
	case eventDisconnect:
		d.log.Infow("server closed the action channel", "data", string(env.Data))
		d.drop(conn, errServerDisconnect)
	case eventConnectError:
		err := fmt.Errorf("%w: %s", errServerRejected, string(env.Data))
		d.log.Warnw("server rejected the action channel", "error", err)
		d.emit(Event{Type: EventConnectError, Err: err})
	default:
		d.log.Debugw("ignoring channel event", "event", env.Event)
	}
}

func (d *Dispatcher) resolve(id string, out outcome) {
	d.mu.Lock()
	results, ok := d.pending[id]
	if ok {
		delete(d.pending, id)
	}
	d.mu.Unlock()

	if !ok {
		d.log.Debugw("dropping result for unknown request", "request", id)
		return
	}
	results <- out
}

// drop tears down conn if it is still the live connection and fails all
// pending actions.
func (d *Dispatcher) drop(conn *websocket.Conn, cause error) {
	d.mu.Lock()
	if d.conn != conn {
		d.mu.Unlock()
		return
	}
	d.conn = nil
	d.state = Disconnected
	pending := d.pending
	d.pending = make(map[string]chan outcome)
	d.metrics.SetPending(0)
	d.mu.Unlock()

	_ = conn.Close()

	for _, results := range pending {
		results <- outcome{err: ErrCanceled}
	}

	if cause != nil {
		d.log.Infow("action channel disconnected", "cause", cause, "failed", len(pending))
	}
	d.emit(Event{Type: EventDisconnected, Err: cause})
}
