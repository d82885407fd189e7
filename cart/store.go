// Package cart implements the client-side shopping cart store: an
// ordered list of line items with a running subtotal, a drawer
// visibility flag and discount-code state. All mutations are pure state
// transitions applied atomically under the store lock; presentation code
// only ever sees snapshot copies, never live references.
package cart

import (
	"encoding/json"
	"sync"

	"github.com/everbloom/storefront/core"
)

// Item is one line item: a product snapshot plus the quantity in the cart
type Item struct {
	core.Product
	CartQuantity int `json:"cartQuantity"`
}

// UnmarshalJSON decodes the product record and the cart quantity. The
// product's own decoder is promoted through embedding and would
// otherwise drop cartQuantity.
func (i *Item) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &i.Product); err != nil {
		return err
	}
	aux := struct {
		CartQuantity int `json:"cartQuantity"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	i.CartQuantity = aux.CartQuantity
	return nil
}

// State is the cart store state. Total is recomputed after every
// mutating operation and is never observably stale.
type State struct {
	Items              []Item  `json:"items"`
	Total              float64 `json:"total"`
	IsModalVisible     bool    `json:"isModalVisible"`
	DiscountCode       string  `json:"discountCode"`
	DiscountAmount     float64 `json:"discountAmount"`
	DiscountPercentage float64 `json:"discountPercentage"`
}

// clone returns a deep copy of the state
func (s State) clone() State {
	out := s
	out.Items = make([]Item, len(s.Items))
	copy(out.Items, s.Items)
	return out
}

// subtotal sums (discounted price if present, else regular price) times
// quantity over all line items.
func (s State) subtotal() float64 {
	var total float64
	for _, item := range s.Items {
		total += item.EffectivePrice() * float64(item.CartQuantity)
	}
	return total
}

// Store holds the cart state and applies reducers under a lock.
// Subscribers are notified with a snapshot after every mutation.
type Store struct {
	mu     sync.RWMutex
	state  State
	logger core.Logger

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

// NewStore creates an empty cart store
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		logger: &core.NoOpLogger{},
		subs:   make(map[int]func(State)),
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

// Subscribe registers fn to receive a state snapshot after every
// mutation. The returned function cancels the subscription.
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

// dispatch applies a pure reducer to a copy of the state, commits the
// result and notifies subscribers.
func (s *Store) dispatch(reduce func(State) State) {
	s.mu.Lock()
	s.state = reduce(s.state.clone())
	next := s.state.clone()
	s.mu.Unlock()

	s.subMu.Lock()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}

// AddItem adds quantity units of product to the cart. A product already
// present has its quantity incremented rather than gaining a duplicate
// line item. Callers are expected to pass positive quantities.
func (s *Store) AddItem(product core.Product, quantity int) {
	s.dispatch(func(st State) State {
		return addItem(st, product, quantity)
	})
	s.logger.Debug("Cart item added", map[string]interface{}{
		"operation":  "cart_add_item",
		"product_id": product.ID,
		"quantity":   quantity,
	})
}

// RemoveItem deletes the line item matching itemID. Removing an absent
// item is a no-op, not an error.
func (s *Store) RemoveItem(itemID string) {
	s.dispatch(func(st State) State {
		return removeItem(st, itemID)
	})
}

// UpdateQuantity sets the quantity of the line item matching itemID.
// When the item's current quantity is already non-positive the item is
// removed instead, regardless of the requested value. The requested
// value itself is not filtered.
func (s *Store) UpdateQuantity(itemID string, cartQuantity int) {
	s.dispatch(func(st State) State {
		return updateQuantity(st, itemID, cartQuantity)
	})
}

// ClearCart empties the items and zeroes the total. Discount fields are
// left untouched.
func (s *Store) ClearCart() {
	s.dispatch(clearCart)
}

// SetCart replaces items and total wholesale from an externally supplied
// snapshot, e.g. a server-restored cart. Absent fields default to
// empty/zero.
func (s *Store) SetCart(payload State) {
	s.dispatch(func(st State) State {
		return setCart(st, payload)
	})
}

// ShowCartDrawer opens the cart side panel
func (s *Store) ShowCartDrawer() {
	s.dispatch(func(st State) State {
		st.IsModalVisible = true
		return st
	})
}

// HideCartDrawer closes the cart side panel
func (s *Store) HideCartDrawer() {
	s.dispatch(func(st State) State {
		st.IsModalVisible = false
		return st
	})
}

// SetDiscountCode records the active discount code
func (s *Store) SetDiscountCode(code string) {
	s.dispatch(func(st State) State {
		st.DiscountCode = code
		return st
	})
}

// ApplyDiscount records a verified discount amount and percentage
func (s *Store) ApplyDiscount(discountAmount, discountPercentage float64) {
	s.dispatch(func(st State) State {
		st.DiscountAmount = discountAmount
		st.DiscountPercentage = discountPercentage
		return st
	})
}

// ClearDiscount resets all discount fields; items and total are untouched
func (s *Store) ClearDiscount() {
	s.dispatch(func(st State) State {
		st.DiscountCode = ""
		st.DiscountAmount = 0
		st.DiscountPercentage = 0
		return st
	})
}

// DiscountedTotal returns the payable total after applying the recorded
// percentage and flat discount, floored at zero.
func (s *Store) DiscountedTotal() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := s.state.Total
	total -= total * s.state.DiscountPercentage / 100
	total -= s.state.DiscountAmount
	if total < 0 {
		return 0
	}
	return total
}

// Pure reducers. Each receives an owned copy of the state and returns
// the next state; Total is recomputed by every item mutation.

func addItem(st State, product core.Product, quantity int) State {
	for i := range st.Items {
		if st.Items[i].ID == product.ID {
			st.Items[i].CartQuantity += quantity
			st.Total = st.subtotal()
			return st
		}
	}
	st.Items = append(st.Items, Item{Product: product, CartQuantity: quantity})
	st.Total = st.subtotal()
	return st
}

func removeItem(st State, itemID string) State {
	filtered := st.Items[:0]
	for _, item := range st.Items {
		if item.ID != itemID {
			filtered = append(filtered, item)
		}
	}
	st.Items = filtered
	st.Total = st.subtotal()
	return st
}

func updateQuantity(st State, itemID string, cartQuantity int) State {
	for i := range st.Items {
		if st.Items[i].ID != itemID {
			continue
		}
		if st.Items[i].CartQuantity <= 0 {
			// A non-positive stored quantity removes the item outright
			return removeItem(st, itemID)
		}
		st.Items[i].CartQuantity = cartQuantity
		st.Total = st.subtotal()
		return st
	}
	return st
}

func clearCart(st State) State {
	st.Items = nil
	st.Total = 0
	return st
}

func setCart(st State, payload State) State {
	st.Items = payload.Items
	if st.Items == nil {
		st.Items = []Item{}
	}
	st.Total = payload.Total
	return st
}
