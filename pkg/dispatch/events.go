package dispatch

import (
	"encoding/json"
	"errors"

	"codeberg.org/miketth/vdock/pkg/action"
	"codeberg.org/miketth/vdock/pkg/observer"
)

const (
	eventExecuteAction = "execute_action"
	eventActionResult  = "action_result"
	eventConnected     = "connected"
	eventDisconnect    = "disconnect"
	eventConnectError  = "connect_error"
)

var (
	errServerDisconnect = errors.New("server requested disconnect")
	errServerRejected   = errors.New("server rejected connection")
)

// envelope is the frame every channel message travels in.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type executeRequest struct {
	RequestID string        `json:"requestId"`
	Action    action.Action `json:"action"`
}

type actionResult struct {
	RequestID string         `json:"requestId"`
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
}

type EventType string

const (
	EventConnected    EventType = "connected"
	EventDisconnected EventType = "disconnected"
	EventConnectError EventType = "connect_error"
)

// Event reports a change of the channel's connection state.
type Event struct {
	Type EventType
	Err  error
}

// On registers fn for connection events.
func (d *Dispatcher) On(fn func(Event)) observer.Token {
	return d.events.Add(fn)
}

func (d *Dispatcher) Off(token observer.Token) bool {
	return d.events.Remove(token)
}

func (d *Dispatcher) emit(ev Event) {
	for _, fn := range d.events.Snapshot() {
		fn(ev)
	}
}
