// Package guard implements the route guard decision functions: given the
// current session state and a target route, each guard decides whether
// the view may render, a loading placeholder should show, or a redirect
// is required. Guards are pure and synchronous; the presentation layer
// executes the decision.
package guard

import (
	"github.com/everbloom/storefront/session"
)

// Well-known landing locations
const (
	LoginLocation  = "/login"
	DefaultLanding = "/home"
	AdminLanding   = "/administration/homeAdmin"
)

// Action is the kind of decision a guard produces
type Action int

const (
	// Allow renders the requested view
	Allow Action = iota
	// Placeholder renders a loading indicator while session state settles
	Placeholder
	// Redirect navigates to Decision.Location instead
	Redirect
)

// Decision is the outcome of a guard evaluation. For redirects caused by
// a missing login, From records the originally requested location so the
// client can return there after authentication.
type Decision struct {
	Action   Action
	Location string
	From     string
}

// Authenticated gates views that require a logged-in user
func Authenticated(state session.State, target string) Decision {
	if state.Loading {
		return Decision{Action: Placeholder}
	}
	if !state.IsAuthenticated {
		return Decision{Action: Redirect, Location: LoginLocation, From: target}
	}
	return Decision{Action: Allow}
}

// AdminOnly gates views that require the admin role. A logged-in
// non-admin is sent to the default landing location.
func AdminOnly(state session.State, target string) Decision {
	if state.Loading {
		return Decision{Action: Placeholder}
	}
	if !state.IsAuthenticated {
		return Decision{Action: Redirect, Location: LoginLocation, From: target}
	}
	if !state.User.IsAdmin() {
		return Decision{Action: Redirect, Location: DefaultLanding}
	}
	return Decision{Action: Allow}
}

// PublicOnly gates the login/register/reset views that a logged-in user
// should not see: an authenticated user is redirected to the landing
// location matching their role.
func PublicOnly(state session.State) Decision {
	if state.Loading {
		return Decision{Action: Placeholder}
	}
	if state.IsAuthenticated {
		if state.User.IsAdmin() {
			return Decision{Action: Redirect, Location: AdminLanding}
		}
		return Decision{Action: Redirect, Location: DefaultLanding}
	}
	return Decision{Action: Allow}
}
