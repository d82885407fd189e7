package core

import (
	"context"
)

// Logger interface - minimal structured logging interface
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Debug(msg string, fields map[string]interface{})
}

// Notifier delivers user-visible notifications. The presentation layer
// decides how they are rendered; stores and the gateway only emit them.
type Notifier interface {
	Notify(level NotificationLevel, message string)
}

// NotificationLevel classifies a notification for presentation
type NotificationLevel string

const (
	NotifySuccess NotificationLevel = "success"
	NotifyWarning NotificationLevel = "warning"
	NotifyError   NotificationLevel = "error"
)

// Navigator forces navigation to a view location. Implemented by the
// presentation layer; the session lifecycle observer uses it for the
// post-401 redirect to the login view.
type Navigator interface {
	NavigateTo(location string)
}

// Storage is durable local key/value storage surviving restarts.
// It holds exactly two entries in practice: the bearer token and the
// JSON-serialized user profile.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

// Storage keys for session credential material
const (
	StorageKeyToken = "token"
	StorageKeyUser  = "user"
)

// Telemetry interface - optional tracing support
type Telemetry interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span represents a telemetry span
type Span interface {
	End()
	SetAttribute(key string, value interface{})
	RecordError(err error)
}

// CircuitBreaker guards the gateway transport against a failing backend.
// Implementations live in the resilience package.
type CircuitBreaker interface {
	// CanExecute returns true if the breaker would allow a request.
	CanExecute() bool

	// RecordSuccess records a successful request.
	RecordSuccess()

	// RecordFailure records a failed request.
	RecordFailure()

	// GetState returns "closed", "open" or "half-open".
	GetState() string

	// Reset manually returns the breaker to the closed state.
	Reset()
}

// Default no-op implementations

// NoOpLogger provides a no-op logger implementation
type NoOpLogger struct{}

func (n *NoOpLogger) Info(msg string, fields map[string]interface{})  {}
func (n *NoOpLogger) Error(msg string, fields map[string]interface{}) {}
func (n *NoOpLogger) Warn(msg string, fields map[string]interface{})  {}
func (n *NoOpLogger) Debug(msg string, fields map[string]interface{}) {}

// NoOpNotifier provides a no-op notifier implementation
type NoOpNotifier struct{}

func (n *NoOpNotifier) Notify(level NotificationLevel, message string) {}

// NoOpNavigator provides a no-op navigator implementation
type NoOpNavigator struct{}

func (n *NoOpNavigator) NavigateTo(location string) {}

// NoOpTelemetry provides a no-op telemetry implementation
type NoOpTelemetry struct{}

func (n *NoOpTelemetry) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	return ctx, &NoOpSpan{}
}

// NoOpSpan provides a no-op span implementation
type NoOpSpan struct{}

func (n *NoOpSpan) End()                                       {}
func (n *NoOpSpan) SetAttribute(key string, value interface{}) {}
func (n *NoOpSpan) RecordError(err error)                      {}
