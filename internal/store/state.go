package store

import "fmt"

// StateKind tags the entitlement state union.
type StateKind int

const (
	// StateInitialized is the passive starting state, awaiting activation.
	StateInitialized StateKind = iota
	// StateFetchingProducts means a catalog fetch is outstanding.
	StateFetchingProducts
	// StateOffline means the storefront is unreachable; Free carries the
	// best-known entitlement from cached receipts and the trial window.
	StateOffline
	// StateInterested means no active subscription exists; Free is true
	// while the trial window is open.
	StateInterested
	// StateSubscribed means an unexpired subscription receipt exists.
	// Terminal with respect to normal traffic.
	StateSubscribed
	// StatePurchasing means a payment is in flight; Next is the state to
	// fall back to after resolution.
	StatePurchasing
	// StateRestoring means a restore request is outstanding.
	StateRestoring
)

func (k StateKind) String() string {
	switch k {
	case StateInitialized:
		return "initialized"
	case StateFetchingProducts:
		return "fetchingProducts"
	case StateOffline:
		return "offline"
	case StateInterested:
		return "interested"
	case StateSubscribed:
		return "subscribed"
	case StatePurchasing:
		return "purchasing"
	case StateRestoring:
		return "restoring"
	default:
		return "unknown"
	}
}

// State is the entitlement state: a tagged union of seven variants.
// Interested and Subscribed are the two antagonistic user states, the
// rest are transitional. Purchasing and Restoring snapshot the prior
// state in Next; by convention the practical nesting depth is one.
type State struct {
	Kind StateKind

	// Free is set for Offline and Interested.
	Free bool
	// ProductID is set for Subscribed and Purchasing.
	ProductID string
	// Next is set for Purchasing and Restoring.
	Next *State
}

func initialized() State {
	return State{Kind: StateInitialized}
}

func fetchingProducts() State {
	return State{Kind: StateFetchingProducts}
}

func offline(free bool) State {
	return State{Kind: StateOffline, Free: free}
}

func interested(free bool) State {
	return State{Kind: StateInterested, Free: free}
}

func subscribed(productID string) State {
	return State{Kind: StateSubscribed, ProductID: productID}
}

func purchasing(productID string, next State) State {
	return State{Kind: StatePurchasing, ProductID: productID, Next: &next}
}

func restoring(next State) State {
	return State{Kind: StateRestoring, Next: &next}
}

// Equal compares states including the snapshot chain.
func (s State) Equal(o State) bool {
	if s.Kind != o.Kind || s.Free != o.Free || s.ProductID != o.ProductID {
		return false
	}
	if (s.Next == nil) != (o.Next == nil) {
		return false
	}
	if s.Next != nil {
		return s.Next.Equal(*o.Next)
	}
	return true
}

func (s State) String() string {
	switch s.Kind {
	case StateOffline, StateInterested:
		return fmt.Sprintf("%s(%t)", s.Kind, s.Free)
	case StateSubscribed:
		return fmt.Sprintf("%s(%s)", s.Kind, s.ProductID)
	case StatePurchasing:
		return fmt.Sprintf("%s(%s, %s)", s.Kind, s.ProductID, s.Next)
	case StateRestoring:
		return fmt.Sprintf("%s(%s)", s.Kind, s.Next)
	default:
		return s.Kind.String()
	}
}
