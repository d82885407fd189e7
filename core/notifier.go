package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notification is a single user-visible message emitted by the gateway
// or a store. Presentation layers render and dismiss them by ID.
type Notification struct {
	ID      string
	Level   NotificationLevel
	Message string
	Time    time.Time
}

// LogNotifier writes notifications to the configured logger. It is the
// default sink when no presentation layer is attached.
type LogNotifier struct {
	logger Logger
}

// NewLogNotifier creates a notifier backed by logger
func NewLogNotifier(logger Logger) *LogNotifier {
	if logger == nil {
		logger = &NoOpLogger{}
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(level NotificationLevel, message string) {
	fields := map[string]interface{}{
		"operation": "notify",
		"level":     string(level),
	}
	switch level {
	case NotifyError:
		n.logger.Error(message, fields)
	case NotifyWarning:
		n.logger.Warn(message, fields)
	default:
		n.logger.Info(message, fields)
	}
}

// RecordingNotifier keeps every notification in memory. Presentation
// layers can drain it for rendering; tests use it to assert that failure
// paths surfaced a message.
type RecordingNotifier struct {
	mu            sync.Mutex
	notifications []Notification
}

// NewRecordingNotifier creates an empty recording notifier
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) Notify(level NotificationLevel, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, Notification{
		ID:      uuid.New().String(),
		Level:   level,
		Message: message,
		Time:    time.Now(),
	})
}

// Notifications returns a copy of everything recorded so far
func (n *RecordingNotifier) Notifications() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.notifications))
	copy(out, n.notifications)
	return out
}

// Drain returns all recorded notifications and clears the buffer
func (n *RecordingNotifier) Drain() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.notifications
	n.notifications = nil
	return out
}
