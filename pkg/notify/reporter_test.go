package notify

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"codeberg.org/miketth/vdock/pkg/api"
	"codeberg.org/miketth/vdock/pkg/deck"
	"codeberg.org/miketth/vdock/pkg/dispatch"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	got []Notification
}

func (r *recorder) Notify(n Notification) {
	r.got = append(r.got, n)
}

func networkErr() error {
	return &api.NetworkError{Method: "GET", Path: "/profiles", Err: errors.New("connection refused")}
}

func TestNetworkErrorsAreThrottled(t *testing.T) {
	rec := &recorder{}
	mock := clock.NewMock()
	mock.Set(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	r := NewReporter(rec, WithClock(mock))

	assert.True(t, r.Report(networkErr()))
	mock.Add(200 * time.Millisecond)
	assert.False(t, r.Report(networkErr()))
	require.Len(t, rec.got, 1)
	assert.Equal(t, "Connection Error", rec.got[0].Title)

	mock.Add(800 * time.Millisecond)
	assert.True(t, r.Report(fmt.Errorf("list profiles: %w", networkErr())))
	assert.Len(t, rec.got, 2)
}

func TestValidationErrorsAreNeverShown(t *testing.T) {
	rec := &recorder{}
	r := NewReporter(rec)

	assert.False(t, r.Report(deck.ErrCollision))
	assert.False(t, r.Report(fmt.Errorf("move: %w", deck.ErrLastChild)))
	assert.False(t, r.Report(nil))
	assert.Empty(t, rec.got)
}

func TestStatusSuppression(t *testing.T) {
	rec := &recorder{}
	r := NewReporter(rec, WithExpectedEmptyPaths("/profiles/default"))

	notFound := func(path string) error {
		return &api.StatusError{Method: "GET", Path: path, Status: 404, Category: api.CategoryNotFound}
	}
	limited := func(path string) error {
		return &api.StatusError{Method: "GET", Path: path, Status: 429, Category: api.CategoryRateLimited}
	}

	assert.False(t, r.Report(notFound(api.PathMonitorActiveApp)))
	assert.False(t, r.Report(notFound("/profiles/default")))
	assert.False(t, r.Report(limited(api.PathMonitorStatus)))
	assert.Empty(t, rec.got)

	assert.True(t, r.Report(notFound("/profiles/abc")))
	assert.True(t, r.Report(limited("/actions/execute")))
	require.Len(t, rec.got, 2)
	assert.Equal(t, "Not Found", rec.got[0].Title)
	assert.Equal(t, LevelWarning, rec.got[1].Level)
}

func TestExpectedEmptyPatterns(t *testing.T) {
	rec := &recorder{}
	r := NewReporter(rec, WithExpectedEmptyPaths("GET /profiles/*"))

	status := func(method, path string) error {
		return &api.StatusError{Method: method, Path: path, Status: 404, Category: api.CategoryNotFound}
	}

	assert.False(t, r.Report(status("GET", "/profiles/p1")))
	assert.False(t, r.Report(status("get", "/profiles/work-2")))
	assert.Empty(t, rec.got)

	assert.True(t, r.Report(status("PUT", "/profiles/p1")))
	assert.True(t, r.Report(status("GET", "/profiles/p1/export")))
	assert.True(t, r.Report(status("GET", "/profiles")))
	assert.Len(t, rec.got, 3)
}

func TestStatusTitles(t *testing.T) {
	tests := []struct {
		status int
		title  string
	}{
		{401, "Session Expired"},
		{403, "Access Denied"},
		{408, "Request Timeout"},
		{413, "File Too Large"},
		{500, "Server Error"},
		{503, "Server Unavailable"},
		{400, "Request Failed"},
	}

	for _, tt := range tests {
		rec := &recorder{}
		r := NewReporter(rec)
		err := &api.StatusError{Method: "POST", Path: "/x", Status: tt.status, Category: api.Categorize(tt.status), Message: "boom"}

		require.True(t, r.Report(err), "status %d", tt.status)
		assert.Equal(t, tt.title, rec.got[0].Title, "status %d", tt.status)
	}
}

func TestGenericStatusUsesServerMessage(t *testing.T) {
	rec := &recorder{}
	r := NewReporter(rec)

	r.Report(&api.StatusError{Method: "POST", Path: "/profiles", Status: 400, Category: api.CategoryGeneric, Message: "No data provided"})
	require.Len(t, rec.got, 1)
	assert.Equal(t, "No data provided", rec.got[0].Message)
}

func TestDispatchErrors(t *testing.T) {
	rec := &recorder{}
	r := NewReporter(rec)

	r.Report(fmt.Errorf("execute url: %w", dispatch.ErrTimeout))
	r.Report(dispatch.ErrNotConnected)
	require.Len(t, rec.got, 2)
	assert.Equal(t, "Action Timed Out", rec.got[0].Title)
	assert.Equal(t, "Not Connected", rec.got[1].Title)
}

func TestSinkFunc(t *testing.T) {
	var got Notification
	NewReporter(SinkFunc(func(n Notification) { got = n })).Report(errors.New("disk full"))
	assert.Equal(t, "disk full", got.Message)
}
