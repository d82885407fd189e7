package gateway

import (
	"net/http"

	"github.com/everbloom/storefront/core"
)

// breakerTransport wraps an http.RoundTripper with circuit breaker
// protection. When the circuit is open requests fail fast without
// touching the network; results feed back into the breaker state.
type breakerTransport struct {
	base    http.RoundTripper
	breaker core.CircuitBreaker
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.breaker.CanExecute() {
		return nil, core.ErrCircuitOpen
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.breaker.RecordFailure()
		return nil, err
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		t.breaker.RecordFailure()
	} else {
		t.breaker.RecordSuccess()
	}
	return resp, nil
}
