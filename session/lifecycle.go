package session

import (
	"context"

	"github.com/everbloom/storefront/core"
)

// LoginLocation is the view an invalidated session is redirected to
const LoginLocation = "/login"

// unauthorizedSource is anything that can report credential rejections.
// The gateway satisfies this with its OnUnauthorized registration.
type unauthorizedSource interface {
	OnUnauthorized(hook func(message string))
}

// LifecycleObserver reacts to a server-reported authorization failure:
// it clears the stored token, invalidates the in-memory session and
// forces navigation to the login view. Keeping this out of the gateway
// leaves the transport layer free of UI and navigation dependencies
// while still guaranteeing that a 401 on any call tears the session
// down immediately.
type LifecycleObserver struct {
	store     *Store
	storage   core.Storage
	navigator core.Navigator
	logger    core.Logger
}

// NewLifecycleObserver creates an observer bound to the session store
// and its durable storage.
func NewLifecycleObserver(store *Store, storage core.Storage, navigator core.Navigator, logger core.Logger) *LifecycleObserver {
	if navigator == nil {
		navigator = &core.NoOpNavigator{}
	}
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	return &LifecycleObserver{
		store:     store,
		storage:   storage,
		navigator: navigator,
		logger:    logger,
	}
}

// Bind registers the observer with the unauthorized source
func (o *LifecycleObserver) Bind(source unauthorizedSource) {
	source.OnUnauthorized(o.handleUnauthorized)
}

func (o *LifecycleObserver) handleUnauthorized(message string) {
	if err := o.storage.Delete(context.Background(), core.StorageKeyToken); err != nil {
		o.logger.Error("Failed to clear stored token", map[string]interface{}{
			"operation": "session_teardown",
			"error":     err.Error(),
		})
	}

	o.store.invalidate()
	o.navigator.NavigateTo(LoginLocation)

	o.logger.Warn("Session invalidated by server", map[string]interface{}{
		"operation": "session_teardown",
		"message":   message,
		"redirect":  LoginLocation,
	})
}
