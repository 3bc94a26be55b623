package notify

import (
	"errors"
	"path"
	"strings"
	"time"

	"codeberg.org/miketth/vdock/pkg/api"
	"codeberg.org/miketth/vdock/pkg/deck"
	"codeberg.org/miketth/vdock/pkg/dispatch"
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultNetworkWindow is how long network errors stay quiet after one was shown.
const DefaultNetworkWindow = time.Second

// Reporter decides which errors reach the user and how they are worded.
type Reporter struct {
	sink    Sink
	log     *zap.SugaredLogger
	clock   clock.Clock
	network *rate.Limiter

	polling       map[string]bool
	expectedEmpty []string
}

type Option func(*Reporter)

func WithLogger(log *zap.SugaredLogger) Option {
	return func(r *Reporter) { r.log = log }
}

func WithClock(clk clock.Clock) Option {
	return func(r *Reporter) { r.clock = clk }
}

// WithNetworkWindow sets how often a network error may be shown.
func WithNetworkWindow(d time.Duration) Option {
	return func(r *Reporter) { r.network = rate.NewLimiter(rate.Every(d), 1) }
}

// WithPollingPaths marks endpoints hit on a timer. Their not-found and
// rate-limited answers are never shown.
func WithPollingPaths(paths ...string) Option {
	return func(r *Reporter) {
		for _, p := range paths {
			r.polling[p] = true
		}
	}
}

// WithExpectedEmptyPaths marks endpoints where not-found just means nothing
// was created yet. A pattern is a path.Match glob, optionally preceded by a
// method and a space, e.g. "GET /profiles/*".
func WithExpectedEmptyPaths(patterns ...string) Option {
	return func(r *Reporter) {
		r.expectedEmpty = append(r.expectedEmpty, patterns...)
	}
}

func NewReporter(sink Sink, opts ...Option) *Reporter {
	r := &Reporter{
		sink:    sink,
		log:     zap.NewNop().Sugar(),
		clock:   clock.New(),
		network: rate.NewLimiter(rate.Every(DefaultNetworkWindow), 1),
		polling: map[string]bool{
			api.PathMonitorActiveApp: true,
			api.PathMonitorStatus:    true,
		},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Report shows err if it is worth showing and reports whether it did.
func (r *Reporter) Report(err error) bool {
	if err == nil {
		return false
	}

	n, ok := r.classify(err)
	if !ok {
		r.log.Debugw("notification suppressed", "error", err)
		return false
	}

	r.sink.Notify(n)
	return true
}

func (r *Reporter) classify(err error) (Notification, bool) {
	var nerr *api.NetworkError
	var serr *api.StatusError

	switch {
	case isValidation(err):
		return Notification{}, false
	case errors.As(err, &nerr):
		if !r.network.AllowN(r.clock.Now(), 1) {
			return Notification{}, false
		}
		return Notification{
			Level:   LevelError,
			Title:   "Connection Error",
			Message: "Unable to reach the vdock server. Check that it is running.",
			Detail:  nerr.Error(),
		}, true
	case errors.As(err, &serr):
		return r.statusNotification(serr)
	case errors.Is(err, dispatch.ErrTimeout):
		return Notification{
			Level:   LevelError,
			Title:   "Action Timed Out",
			Message: "The server did not answer within 30 seconds.",
		}, true
	case errors.Is(err, dispatch.ErrNotConnected), errors.Is(err, dispatch.ErrCanceled):
		return Notification{
			Level:   LevelWarning,
			Title:   "Not Connected",
			Message: "The action channel is not connected.",
			Detail:  err.Error(),
		}, true
	}

	return Notification{Level: LevelError, Title: "Error", Message: err.Error()}, true
}

func isValidation(err error) bool {
	for _, target := range []error{
		deck.ErrCollision,
		deck.ErrInvalidSize,
		deck.ErrDuplicateID,
		deck.ErrLastChild,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (r *Reporter) isExpectedEmpty(method, p string) bool {
	for _, pattern := range r.expectedEmpty {
		want, glob, ok := strings.Cut(pattern, " ")
		if !ok {
			want, glob = "", pattern
		}
		if want != "" && !strings.EqualFold(want, method) {
			continue
		}
		if matched, _ := path.Match(glob, p); matched {
			return true
		}
	}
	return false
}

func (r *Reporter) statusNotification(e *api.StatusError) (Notification, bool) {
	n := Notification{Level: LevelError, Detail: e.Detail}

	switch e.Category {
	case api.CategoryUnauthorized:
		n.Title = "Session Expired"
		n.Message = "Please log in again."
	case api.CategoryForbidden:
		n.Title = "Access Denied"
		n.Message = "You do not have permission to do that."
	case api.CategoryNotFound:
		if r.polling[e.Path] || r.isExpectedEmpty(e.Method, e.Path) {
			return Notification{}, false
		}
		n.Title = "Not Found"
		n.Message = "The requested resource was not found."
	case api.CategoryRequestTimeout:
		n.Title = "Request Timeout"
		n.Message = "The server took too long to respond."
	case api.CategoryPayloadTooLarge:
		n.Title = "File Too Large"
		n.Message = "The upload exceeds the server's size limit."
	case api.CategoryRateLimited:
		if r.polling[e.Path] {
			return Notification{}, false
		}
		n.Level = LevelWarning
		n.Title = "Too Many Requests"
		n.Message = "Slow down and try again in a moment."
	case api.CategoryServerError:
		n.Title = "Server Error"
		n.Message = "The server ran into a problem."
	case api.CategoryUnavailable:
		n.Title = "Server Unavailable"
		n.Message = "The server is temporarily unavailable."
	default:
		n.Title = "Request Failed"
		n.Message = e.Message
		if n.Message == "" {
			n.Message = e.Error()
		}
	}

	if e.Message != "" && n.Detail == "" && e.Category != api.CategoryGeneric {
		n.Detail = e.Message
	}
	return n, true
}
