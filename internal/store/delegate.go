package store

import "github.com/podestapp/tiptop-go-rewrite/internal/catalog"

// Delegate receives shopping callbacks. All callbacks arrive on the
// store's ordered delivery queue.
type Delegate interface {
	// Offers receives products or an error after a catalog fetch.
	Offers(products []catalog.Product, err *ShoppingError)

	// Purchasing names the product currently being purchased.
	Purchasing(productID string)

	// Purchased names a successfully purchased product.
	Purchased(productID string)

	// Error asks the delegate to display an error message.
	Error(err *ShoppingError)
}

// AccessDelegate gets notified when accessibility of the store changes.
type AccessDelegate interface {
	// AccessibilityChanged is pinged when the store should be shown or
	// hidden. Notified only on change.
	AccessibilityChanged(accessible bool)

	// ExpiredChanged receives expiration updates.
	ExpiredChanged(expired bool)

	// Reach reports whether the storefront is reachable. When it is not,
	// the delegate should begin probing reachability and call Online once
	// the storefront can be reached again.
	Reach() bool
}
