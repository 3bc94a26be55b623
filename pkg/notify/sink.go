package notify

import "go.uber.org/zap"

type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

type Notification struct {
	Level   Level
	Title   string
	Message string
	Detail  string
}

// Sink displays notifications to the user.
type Sink interface {
	Notify(n Notification)
}

type SinkFunc func(n Notification)

func (f SinkFunc) Notify(n Notification) {
	f(n)
}

// LogSink writes notifications to the log, for headless runs.
type LogSink struct {
	Log *zap.SugaredLogger
}

func (s LogSink) Notify(n Notification) {
	kv := []any{"title", n.Title, "message", n.Message}
	if n.Detail != "" {
		kv = append(kv, "detail", n.Detail)
	}

	switch n.Level {
	case LevelError:
		s.Log.Errorw("notification", kv...)
	case LevelWarning:
		s.Log.Warnw("notification", kv...)
	default:
		s.Log.Infow("notification", kv...)
	}
}
