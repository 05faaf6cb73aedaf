// Package notify carries the user-visible notifications that every
// state-changing store operation emits. The presentation layer consumes
// them; the stores only publish.
package notify

import (
	"sync"
	"time"

	"tally/internal/log"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Notification is one user-visible message, e.g. "Expense added".
type Notification struct {
	Level   Level     `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Notify(n Notification)
}

// Success builds and delivers a success notification.
func Success(n Notifier, title, message string) {
	deliver(n, LevelSuccess, title, message)
}

// Error builds and delivers a failure notification.
func Error(n Notifier, title, message string) {
	deliver(n, LevelError, title, message)
}

func Info(n Notifier, title, message string) {
	deliver(n, LevelInfo, title, message)
}

func deliver(n Notifier, level Level, title, message string) {
	if n == nil {
		return
	}
	n.Notify(Notification{Level: level, Title: title, Message: message, At: time.Now()})
}

// LogNotifier surfaces notifications through the structured logger. It is
// the default sink when no richer channel is configured.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.WithComponent(log.ComponentNotifier)}
}

func (l *LogNotifier) Notify(n Notification) {
	switch n.Level {
	case LevelError:
		l.logger.Error(n.Title, "message", n.Message)
	case LevelWarning:
		l.logger.Warn(n.Title, "message", n.Message)
	default:
		l.logger.Info(n.Title, "message", n.Message)
	}
}

// Multi fans a notification out to several sinks.
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, sink := range m {
		if sink != nil {
			sink.Notify(n)
		}
	}
}

// Buffer records notifications in memory. Handy in tests and for the
// presentation layer's recent-notifications view.
type Buffer struct {
	mu            sync.Mutex
	notifications []Notification
}

func (b *Buffer) Notify(n Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifications = append(b.notifications, n)
}

func (b *Buffer) All() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Notification(nil), b.notifications...)
}
