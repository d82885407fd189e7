package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/everbloom/storefront/core"
	"github.com/everbloom/storefront/gateway"
)

// recordingNavigator captures forced navigations
type recordingNavigator struct {
	mu        sync.Mutex
	locations []string
}

func (n *recordingNavigator) NavigateTo(location string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.locations = append(n.locations, location)
}

func (n *recordingNavigator) Locations() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.locations))
	copy(out, n.locations)
	return out
}

func TestUnauthorizedResponseTearsDownSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Token expired"}`))
	}))
	defer server.Close()

	storage := core.NewMemoryStorage()
	_ = storage.Set(context.Background(), core.StorageKeyToken, "stale")
	_ = storage.Set(context.Background(), core.StorageKeyUser, `{"id":"u1","name":"Maya"}`)

	notifier := core.NewRecordingNotifier()
	gw := gateway.New(
		core.APIConfig{BaseURL: server.URL, Timeout: 2 * time.Second},
		storage,
		gateway.WithNotifier(notifier),
	)

	store := NewStore(gw, storage)
	if !store.Snapshot().IsAuthenticated {
		t.Fatal("precondition: store should hydrate as authenticated")
	}

	navigator := &recordingNavigator{}
	observer := NewLifecycleObserver(store, storage, navigator, nil)
	observer.Bind(gw)

	err := gw.JSON(context.Background(), "/userinfo", http.MethodGet, nil, nil)
	if !core.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}

	token, _ := storage.Get(context.Background(), core.StorageKeyToken)
	if token != "" {
		t.Errorf("stored token not cleared, got %q", token)
	}

	state := store.Snapshot()
	if state.IsAuthenticated || state.Token != "" {
		t.Errorf("in-memory session not invalidated: %+v", state)
	}

	if locs := navigator.Locations(); len(locs) != 1 || locs[0] != LoginLocation {
		t.Errorf("expected redirect to %s, got %v", LoginLocation, locs)
	}

	notes := notifier.Notifications()
	if len(notes) != 1 || notes[0].Message != "Token expired" {
		t.Errorf("expected server message notification, got %+v", notes)
	}
}

func TestObserverToleratesNilNavigatorAndLogger(t *testing.T) {
	storage := core.NewMemoryStorage()
	store := NewStore(&stubGateway{}, storage)

	observer := NewLifecycleObserver(store, storage, nil, nil)
	observer.handleUnauthorized("whatever")

	if store.Snapshot().IsAuthenticated {
		t.Error("session should be invalidated")
	}
}
