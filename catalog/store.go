// Package catalog implements the catalog store: one fetched page of
// product records plus loading/error/pagination metadata, replaced
// wholesale on every successful fetch. Stale data stays visible while a
// subsequent fetch is in flight. The admin product-management operations
// live here as well.
package catalog

import (
	"context"
	"net/http"
	"sync"

	"github.com/everbloom/storefront/core"
)

// Gateway is the slice of the HTTP gateway the catalog store needs
type Gateway interface {
	JSON(ctx context.Context, path, method string, body, out interface{}) error
}

// State is the catalog store state
type State struct {
	Data    []core.Product
	Total   int
	Page    int
	Size    int
	Loading bool
	Error   string
}

func (s State) clone() State {
	out := s
	out.Data = make([]core.Product, len(s.Data))
	copy(out.Data, s.Data)
	return out
}

// page is the paginated list envelope returned by GET /products
type page struct {
	Data       []core.Product `json:"data"`
	Pagination struct {
		Total int `json:"total"`
		Page  int `json:"page"`
		Size  int `json:"size"`
	} `json:"pagination"`
}

// Store holds the fetched catalog page
type Store struct {
	mu     sync.RWMutex
	state  State
	gw     Gateway
	logger core.Logger
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

// NewStore creates an empty catalog store
func NewStore(gw Gateway, opts ...StoreOption) *Store {
	s := &Store{
		gw:     gw,
		logger: &core.NoOpLogger{},
		state: State{
			Data: []core.Product{},
			Page: 1,
			Size: 10,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a deep copy of the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// ClearError clears the transient error message
func (s *Store) ClearError() {
	s.mu.Lock()
	s.state.Error = ""
	s.mu.Unlock()
}

// FetchProducts loads the product page from the backend. The previous
// page stays visible until the fetch resolves; on success data and
// pagination are replaced wholesale.
func (s *Store) FetchProducts(ctx context.Context) error {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()

	var out page
	if err := s.gw.JSON(ctx, "/products", http.MethodGet, nil, &out); err != nil {
		message := core.ErrorMessage(err, "Failed to get products")
		s.mu.Lock()
		s.state.Loading = false
		s.state.Error = message
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.state.Loading = false
	s.state.Error = ""
	s.state.Data = out.Data
	if s.state.Data == nil {
		s.state.Data = []core.Product{}
	}
	s.state.Total = out.Pagination.Total
	s.state.Page = out.Pagination.Page
	if s.state.Page == 0 {
		s.state.Page = 1
	}
	s.state.Size = out.Pagination.Size
	if s.state.Size == 0 {
		s.state.Size = 10
	}
	s.mu.Unlock()

	s.logger.Debug("Catalog page replaced", map[string]interface{}{
		"operation": "catalog_fetch",
		"count":     len(out.Data),
		"total":     out.Pagination.Total,
		"page":      out.Pagination.Page,
	})
	return nil
}
