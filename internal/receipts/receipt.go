// Package receipts validates and persists purchase receipts and derives
// entitlement facts from them: whether an unexpired subscription exists
// and whether the free trial window is still open.
package receipts

import (
	"strings"
	"time"
)

// Receipt proves one completed purchase. Immutable once created; the
// stored list is append-only, oldest first.
type Receipt struct {
	ProductID       string    `json:"productIdentifier"`
	TransactionID   string    `json:"transactionIdentifier"`
	TransactionDate time.Time `json:"transactionDate"`
}

// Period is a validity window.
type Period time.Duration

const (
	// Subscription is the validity window of a purchase, roughly a year.
	Subscription = Period(3.154e7 * time.Second)
	// Trial is the free trial window, roughly 28 days.
	Trial = Period(2.419e6 * time.Second)
	// Always is a zero-length window, an instantly expired sentinel.
	Always = Period(0)
)

// Expired reports whether date exceeds the period at now. Exact at the
// boundary: an elapsed time equal to the period is expired.
func (p Period) Expired(date, now time.Time) bool {
	return now.Sub(date) >= time.Duration(p)
}

// Expiration returns the end of the period starting at date.
func (p Period) Expiration(date time.Time) time.Time {
	return date.Add(time.Duration(p))
}

// ValidProductID returns the product identifier of the first receipt, in
// stored order, whose product is known and whose subscription window has
// not expired. The second result is false if there is none.
func ValidProductID(list []Receipt, known map[string]struct{}, now time.Time) (string, bool) {
	for _, r := range list {
		if _, ok := known[r.ProductID]; !ok {
			continue
		}
		if Subscription.Expired(r.TransactionDate, now) {
			continue
		}
		return r.ProductID, true
	}

	return "", false
}

// StatusInfo derives the settings projection from list: the capitalized
// last dot component of the earliest-dated receipt's product identifier
// and that receipt's subscription expiration. Earliest, not latest: the
// original, longest-standing tier is reported, not a newer add-on.
// Returns false for an empty list.
func StatusInfo(list []Receipt) (status string, expiration time.Time, ok bool) {
	if len(list) == 0 {
		return "", time.Time{}, false
	}

	earliest := list[0]
	for _, r := range list[1:] {
		if r.TransactionDate.Before(earliest.TransactionDate) {
			earliest = r
		}
	}

	parts := strings.Split(earliest.ProductID, ".")
	name := parts[len(parts)-1]
	if name == "" {
		name = "unknown"
	}

	return capitalize(name), Subscription.Expiration(earliest.TransactionDate), true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
