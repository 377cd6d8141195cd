package store

import (
	"fmt"

	"github.com/podestapp/tiptop-go-rewrite/internal/catalog"
)

// EventKind tags the event union.
type EventKind int

const (
	EventResume EventKind = iota
	EventPause
	EventOnline
	EventUpdate
	EventPay
	EventProductsReceived
	EventPurchasing
	EventPurchased
	EventFailed
	EventReceiptsChanged
	EventRestore
	EventRestored
	EventConsiderReview
	EventReview
	EventCancelReview
)

func (k EventKind) String() string {
	switch k {
	case EventResume:
		return "resume"
	case EventPause:
		return "pause"
	case EventOnline:
		return "online"
	case EventUpdate:
		return "update"
	case EventPay:
		return "pay"
	case EventProductsReceived:
		return "productsReceived"
	case EventPurchasing:
		return "purchasing"
	case EventPurchased:
		return "purchased"
	case EventFailed:
		return "failed"
	case EventReceiptsChanged:
		return "receiptsChanged"
	case EventRestore:
		return "restore"
	case EventRestored:
		return "restored"
	case EventConsiderReview:
		return "considerReview"
	case EventReview:
		return "review"
	case EventCancelReview:
		return "cancelReview"
	default:
		return "unknown"
	}
}

// Event is one occurrence in the store, emitted by adapters or by the
// store itself.
type Event struct {
	Kind EventKind

	// ProductID is set for Pay, Purchasing and Purchased.
	ProductID string
	// Products and Err are set for ProductsReceived; Err alone for
	// Failed.
	Products []catalog.Product
	Err      *ShoppingError
	// Resetting is set for CancelReview.
	Resetting bool
}

func payEvent(productID string) Event {
	return Event{Kind: EventPay, ProductID: productID}
}

func productsEvent(products []catalog.Product, err *ShoppingError) Event {
	return Event{Kind: EventProductsReceived, Products: products, Err: err}
}

func purchasingEvent(productID string) Event {
	return Event{Kind: EventPurchasing, ProductID: productID}
}

func purchasedEvent(productID string) Event {
	return Event{Kind: EventPurchased, ProductID: productID}
}

func failedEvent(err *ShoppingError) Event {
	return Event{Kind: EventFailed, Err: err}
}

func (e Event) String() string {
	switch e.Kind {
	case EventPay, EventPurchasing, EventPurchased:
		return fmt.Sprintf("%s: %s", e.Kind, e.ProductID)
	case EventProductsReceived:
		return fmt.Sprintf("%s: %d products, error: %v", e.Kind, len(e.Products), e.Err)
	case EventFailed:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case EventCancelReview:
		return fmt.Sprintf("%s: resetting: %t", e.Kind, e.Resetting)
	default:
		return e.Kind.String()
	}
}
