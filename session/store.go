// Package session implements the session store: the authentication token,
// the current user profile and the derived authentication flag, hydrated
// from durable storage at start and mutated only through the defined
// operations. Every server-backed operation follows the same state
// machine: pending sets loading and clears the error, fulfilled applies
// its specific update, rejected records a human-readable message.
// Failures never propagate as panics past this boundary.
package session

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/everbloom/storefront/core"
)

// Gateway is the slice of the HTTP gateway the session store needs
type Gateway interface {
	JSON(ctx context.Context, path, method string, body, out interface{}) error
}

// State is the session store state
type State struct {
	Token           string
	User            *core.User
	IsAuthenticated bool
	Loading         bool
	Error           string
}

// clone returns a deep copy of the state
func (s State) clone() State {
	out := s
	if s.User != nil {
		user := *s.User
		if s.User.HomeAddress != nil {
			home := *s.User.HomeAddress
			user.HomeAddress = &home
		}
		user.ShippingAddresses = make([]core.Address, len(s.User.ShippingAddresses))
		copy(user.ShippingAddresses, s.User.ShippingAddresses)
		out.User = &user
	}
	return out
}

// Credentials is a login submission
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is a new-account submission
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the payload of a successful /auth/login or
// /auth/google call
type loginResponse struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

// Store holds session state. Exactly one instance exists per running
// client.
type Store struct {
	mu      sync.RWMutex
	state   State
	gw      Gateway
	storage core.Storage
	logger  core.Logger

	subMu   sync.Mutex
	nextSub int
	subs    map[int]func(State)
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithLogger sets the structured logger
func WithLogger(logger core.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a session store hydrated from durable storage. An
// unparseable stored user fails open to the logged-out state.
func NewStore(gw Gateway, storage core.Storage, opts ...StoreOption) *Store {
	s := &Store{
		gw:      gw,
		storage: storage,
		logger:  &core.NoOpLogger{},
		subs:    make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hydrate()
	return s
}

func (s *Store) hydrate() {
	ctx := context.Background()

	token, err := s.storage.Get(ctx, core.StorageKeyToken)
	if err != nil {
		s.logger.Warn("Failed to read stored token", map[string]interface{}{
			"operation": "session_hydrate",
			"error":     err.Error(),
		})
	}

	var user *core.User
	if raw, err := s.storage.Get(ctx, core.StorageKeyUser); err == nil && raw != "" {
		parsed := &core.User{}
		if err := json.Unmarshal([]byte(raw), parsed); err != nil {
			s.logger.Warn("Discarding unparseable stored user", map[string]interface{}{
				"operation": "session_hydrate",
				"error":     err.Error(),
			})
		} else {
			user = parsed
		}
	}

	s.mu.Lock()
	s.state = State{
		Token:           token,
		User:            user,
		IsAuthenticated: token != "",
	}
	s.mu.Unlock()
}

// Snapshot returns a deep copy of the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe registers fn to receive a state snapshot after every state
// change. The returned function cancels the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	snapshot := s.Snapshot()

	s.subMu.Lock()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// pending marks the operation in flight
func (s *Store) pending() {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()
	s.notify()
}

// fulfill clears the loading flag and applies the operation's update
func (s *Store) fulfill(apply func(*State)) {
	s.mu.Lock()
	s.state.Loading = false
	s.state.Error = ""
	if apply != nil {
		apply(&s.state)
	}
	s.mu.Unlock()
	s.notify()
}

// reject clears the loading flag and records the user-facing message
func (s *Store) reject(op string, err error, fallback string) error {
	message := core.ErrorMessage(err, fallback)

	s.mu.Lock()
	s.state.Loading = false
	s.state.Error = message
	s.mu.Unlock()
	s.notify()

	s.logger.Warn("Session operation rejected", map[string]interface{}{
		"operation": op,
		"error":     message,
	})
	return err
}

// ClearError clears the transient error message
func (s *Store) ClearError() {
	s.mu.Lock()
	s.state.Error = ""
	s.mu.Unlock()
	s.notify()
}

// persistCredentials writes token and user to durable storage. Failures
// are logged but do not fail the login: in-memory state stays usable for
// the rest of the process lifetime.
func (s *Store) persistCredentials(ctx context.Context, token string, user *core.User) {
	if err := s.storage.Set(ctx, core.StorageKeyToken, token); err != nil {
		s.logger.Error("Failed to persist token", map[string]interface{}{
			"operation": "session_persist",
			"error":     err.Error(),
		})
	}
	raw, err := json.Marshal(user)
	if err == nil {
		err = s.storage.Set(ctx, core.StorageKeyUser, string(raw))
	}
	if err != nil {
		s.logger.Error("Failed to persist user", map[string]interface{}{
			"operation": "session_persist",
			"error":     err.Error(),
		})
	}
}

// Login submits credentials. On success the token and user are stored in
// memory and persisted to durable storage.
func (s *Store) Login(ctx context.Context, credentials Credentials) error {
	s.pending()

	var out loginResponse
	if err := s.gw.JSON(ctx, "/auth/login", http.MethodPost, credentials, &out); err != nil {
		return s.reject("session_login", err, "Login failed")
	}

	user := out.User
	s.persistCredentials(ctx, out.Token, &user)
	s.fulfill(func(st *State) {
		st.Token = out.Token
		st.User = &user
		st.IsAuthenticated = true
	})

	s.logger.Info("Login succeeded", map[string]interface{}{
		"operation": "session_login",
		"user_id":   user.ID,
	})
	return nil
}

// GoogleLogin authenticates with a third-party-issued identity token.
// Same contract as Login.
func (s *Store) GoogleLogin(ctx context.Context, idToken string) error {
	s.pending()

	body := map[string]string{"idToken": idToken}
	var out loginResponse
	if err := s.gw.JSON(ctx, "/auth/google", http.MethodPost, body, &out); err != nil {
		return s.reject("session_google_login", err, "Google login failed")
	}

	user := out.User
	s.persistCredentials(ctx, out.Token, &user)
	s.fulfill(func(st *State) {
		st.Token = out.Token
		st.User = &user
		st.IsAuthenticated = true
	})
	return nil
}

// Register submits a registration payload. Success carries no session
// change: the user must subsequently log in.
func (s *Store) Register(ctx context.Context, registration Registration) error {
	s.pending()

	if err := s.gw.JSON(ctx, "/auth/register", http.MethodPost, registration, nil); err != nil {
		return s.reject("session_register", err, "Registration failed")
	}

	s.fulfill(nil)
	return nil
}

// ResendVerificationEmail asks the backend to resend the account
// verification mail. Only transient status fields are affected.
func (s *Store) ResendVerificationEmail(ctx context.Context, email string) error {
	s.pending()

	body := map[string]string{"email": email}
	if err := s.gw.JSON(ctx, "/auth/resend-verification", http.MethodPost, body, nil); err != nil {
		return s.reject("session_resend_verification", err, "Failed to send email")
	}

	s.fulfill(nil)
	return nil
}

// RequestPasswordReset asks the backend to mail a password reset link
func (s *Store) RequestPasswordReset(ctx context.Context, email string) error {
	s.pending()

	body := map[string]string{"email": email}
	if err := s.gw.JSON(ctx, "/auth/request-reset", http.MethodPost, body, nil); err != nil {
		return s.reject("session_request_reset", err, "Failed to request password reset")
	}

	s.fulfill(nil)
	return nil
}

// ResetPassword sets a new password using the emailed reset code
func (s *Store) ResetPassword(ctx context.Context, email, resetCode, password string) error {
	s.pending()

	body := map[string]string{
		"email":     email,
		"resetCode": resetCode,
		"password":  password,
	}
	if err := s.gw.JSON(ctx, "/auth/reset-password", http.MethodPost, body, nil); err != nil {
		return s.reject("session_reset_password", err, "Failed to reset password")
	}

	s.fulfill(nil)
	return nil
}

// Logout clears durable storage and in-memory credentials. Clearing is
// unconditional: stale credentials must never survive a logout.
func (s *Store) Logout(ctx context.Context) error {
	s.pending()

	if err := s.storage.Delete(ctx, core.StorageKeyToken); err != nil {
		s.logger.Error("Failed to delete stored token", map[string]interface{}{
			"operation": "session_logout",
			"error":     err.Error(),
		})
	}
	if err := s.storage.Delete(ctx, core.StorageKeyUser); err != nil {
		s.logger.Error("Failed to delete stored user", map[string]interface{}{
			"operation": "session_logout",
			"error":     err.Error(),
		})
	}

	s.fulfill(func(st *State) {
		st.Token = ""
		st.User = nil
		st.IsAuthenticated = false
	})

	s.logger.Info("Logged out", map[string]interface{}{
		"operation": "session_logout",
	})
	return nil
}

// GetUserInfo fetches the current profile using the stored token and
// replaces the in-memory user on success.
func (s *Store) GetUserInfo(ctx context.Context) error {
	s.pending()

	var user core.User
	if err := s.gw.JSON(ctx, "/userinfo", http.MethodGet, nil, &user); err != nil {
		return s.reject("session_get_userinfo", err, "Failed to get user info")
	}

	s.fulfill(func(st *State) {
		st.User = &user
	})
	return nil
}

// UpdateUserInfo submits a partial profile update and replaces the
// in-memory user with the server's returned representation.
func (s *Store) UpdateUserInfo(ctx context.Context, update map[string]interface{}) error {
	s.pending()

	var user core.User
	if err := s.gw.JSON(ctx, "/userinfo", http.MethodPut, update, &user); err != nil {
		return s.reject("session_update_userinfo", err, "Failed to update user info")
	}

	s.fulfill(func(st *State) {
		st.User = &user
	})
	return nil
}

// EditAddress updates the shipping address with the given identifier.
// The address list is not optimistically updated; callers re-fetch the
// profile to observe the change.
func (s *Store) EditAddress(ctx context.Context, id string, address core.Address) error {
	s.pending()

	if err := s.gw.JSON(ctx, "/userinfo/shipping-address/"+id, http.MethodPut, address, nil); err != nil {
		return s.reject("session_edit_address", err, "Failed to edit address")
	}

	s.fulfill(nil)
	return nil
}

// DeleteAddress removes the shipping address with the given identifier.
// As with EditAddress, callers re-fetch the profile afterwards.
func (s *Store) DeleteAddress(ctx context.Context, id string) error {
	s.pending()

	if err := s.gw.JSON(ctx, "/userinfo/shipping-address/"+id, http.MethodDelete, nil, nil); err != nil {
		return s.reject("session_delete_address", err, "Failed to delete address")
	}

	s.fulfill(nil)
	return nil
}

// UpdateUser merges a partial update into the in-memory user and
// persists the merged profile to durable storage. No server call is
// made; this mirrors a profile change already acknowledged elsewhere.
func (s *Store) UpdateUser(partial map[string]interface{}) error {
	s.mu.Lock()

	merged := map[string]interface{}{}
	if s.state.User != nil {
		raw, err := json.Marshal(s.state.User)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		if err := json.Unmarshal(raw, &merged); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	for k, v := range partial {
		merged[k] = v
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	user := &core.User{}
	if err := json.Unmarshal(raw, user); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state.User = user
	s.mu.Unlock()
	s.notify()

	if err := s.storage.Set(context.Background(), core.StorageKeyUser, string(raw)); err != nil {
		s.logger.Error("Failed to persist merged user", map[string]interface{}{
			"operation": "session_update_user",
			"error":     err.Error(),
		})
	}
	return nil
}

// invalidate drops the in-memory credential state. Used by the lifecycle
// observer after the backend rejects the session credential.
func (s *Store) invalidate() {
	s.mu.Lock()
	s.state.Token = ""
	s.state.IsAuthenticated = false
	s.mu.Unlock()
	s.notify()
}
