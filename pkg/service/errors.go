package service

import (
	"errors"
	"fmt"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrOutOfStock       = errors.New("product out of stock")
	ErrNoActiveCart     = errors.New("no active cart for customer")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrInvalidToken     = errors.New("invalid token")
	ErrOrderNotFound    = errors.New("order not found")
	ErrEmailRegistered  = errors.New("email already registered")
	ErrPhoneRegistered  = errors.New("phone already registered")

	// ErrTokenRejected is the probabilistic business rejection, distinct from
	// validation errors so callers can resubmit.
	ErrTokenRejected = errors.New("tokenization rejected by configured probability")

	// ErrEncryption is deliberately opaque; the underlying cause stays in
	// server-side logs only.
	ErrEncryption = errors.New("encryption failure")
)

// InsufficientStockError names the exact shortfall.
type InsufficientStockError struct {
	ProductName string
	Required    int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: required %d, available %d",
		e.ProductName, e.Required, e.Available)
}

// PaymentDeclinedError is the retryable settlement failure. Anything else out
// of a settlement attempt is terminal for the retry loop.
type PaymentDeclinedError struct {
	Attempt int
	Reason  string
}

func (e *PaymentDeclinedError) Error() string {
	return e.Reason
}
