package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/podestapp/tiptop-go-rewrite/internal/catalog"
)

// ErrorKind groups provider-level causes into five presentation buckets.
type ErrorKind int

const (
	// ErrorFailed is the catch-all.
	ErrorFailed ErrorKind = iota
	// ErrorInvalidProduct means an unsellable or misconfigured product.
	ErrorInvalidProduct
	// ErrorOffline means the backing service is unreachable.
	ErrorOffline
	// ErrorServiceUnavailable means the service refused or timed out.
	ErrorServiceUnavailable
	// ErrorCancelled means the user cancelled.
	ErrorCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorInvalidProduct:
		return "invalid product"
	case ErrorOffline:
		return "offline"
	case ErrorServiceUnavailable:
		return "service unavailable"
	case ErrorCancelled:
		return "cancelled"
	default:
		return "failed"
	}
}

// ShoppingError is the only error type delegates ever see. Raw provider
// errors are always mapped before propagation.
type ShoppingError struct {
	Kind      ErrorKind
	ProductID string
	cause     error
}

// Shared instances for the kinds without payload.
var (
	ErrOffline            = &ShoppingError{Kind: ErrorOffline}
	ErrServiceUnavailable = &ShoppingError{Kind: ErrorServiceUnavailable}
	ErrCancelled          = &ShoppingError{Kind: ErrorCancelled}
	ErrFailed             = &ShoppingError{Kind: ErrorFailed}
)

// InvalidProductError reports an unsellable product.
func InvalidProductError(productID string) *ShoppingError {
	return &ShoppingError{Kind: ErrorInvalidProduct, ProductID: productID}
}

func (e *ShoppingError) Error() string {
	if e.Kind == ErrorInvalidProduct && e.ProductID != "" {
		return fmt.Sprintf("store: %s: %s", e.Kind, e.ProductID)
	}
	return "store: " + e.Kind.String()
}

func (e *ShoppingError) Unwrap() error {
	return e.cause
}

// Is makes two shopping errors of the same kind match regardless of
// payload, so errors.Is(err, ErrOffline) works on mapped causes.
func (e *ShoppingError) Is(target error) bool {
	var se *ShoppingError
	if !errors.As(target, &se) {
		return false
	}
	return e.Kind == se.Kind
}

// Classify maps an arbitrary underlying error into the five-kind
// taxonomy. Returns nil for nil.
func Classify(err error, productID string) *ShoppingError {
	if err == nil {
		return nil
	}

	var se *ShoppingError
	if errors.As(err, &se) {
		return se
	}

	var unknown *catalog.ErrUnknownProduct
	if errors.As(err, &unknown) {
		return InvalidProductError(unknown.ProductID)
	}

	if errors.Is(err, context.Canceled) {
		return &ShoppingError{Kind: ErrorCancelled, cause: err}
	}

	if errors.Is(err, syscall.ENETUNREACH) || errors.Is(err, syscall.EHOSTUNREACH) {
		return &ShoppingError{Kind: ErrorOffline, cause: err}
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &ShoppingError{Kind: ErrorOffline, cause: err}
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, context.DeadlineExceeded) {
		return &ShoppingError{Kind: ErrorServiceUnavailable, ProductID: productID, cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ShoppingError{Kind: ErrorServiceUnavailable, ProductID: productID, cause: err}
	}

	return &ShoppingError{Kind: ErrorFailed, ProductID: productID, cause: err}
}
