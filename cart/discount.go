package cart

import (
	"context"
	"fmt"
	"net/http"

	"github.com/everbloom/storefront/core"
)

// Gateway is the slice of the HTTP gateway the cart store needs.
// Discount verification itself is delegated to the server; the store
// only records the outcome.
type Gateway interface {
	JSON(ctx context.Context, path, method string, body, out interface{}) error
}

type discountVerification struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    *struct {
		DiscountValue float64 `json:"discountValue"`
	} `json:"data,omitempty"`
}

// VerifyDiscount submits code and the current subtotal for server-side
// verification. On success the code and its percentage are recorded; a
// declined code leaves the discount state untouched and returns the
// server's message.
func (s *Store) VerifyDiscount(ctx context.Context, gw Gateway, code string) error {
	if code == "" {
		return &core.StoreError{Op: "cart.VerifyDiscount", Kind: "validation", Message: "Please enter a discount code"}
	}

	subtotal := s.Snapshot().Total
	body := map[string]string{
		"code":     code,
		"subtotal": fmt.Sprintf("%.2f", subtotal),
	}

	var out discountVerification
	if err := gw.JSON(ctx, "/discount-codes/verify", http.MethodPost, body, &out); err != nil {
		return err
	}

	if !out.Success || out.Data == nil {
		message := out.Message
		if message == "" {
			message = "Failed to apply discount code"
		}
		s.logger.Warn("Discount code declined", map[string]interface{}{
			"operation": "cart_verify_discount",
			"code":      code,
		})
		return &core.StoreError{Op: "cart.VerifyDiscount", Kind: "request", Message: message, Err: core.ErrRequestFailed}
	}

	s.SetDiscountCode(code)
	s.ApplyDiscount(0, out.Data.DiscountValue)

	s.logger.Info("Discount code applied", map[string]interface{}{
		"operation":      "cart_verify_discount",
		"code":           code,
		"discount_value": out.Data.DiscountValue,
	})
	return nil
}
