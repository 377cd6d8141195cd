package receipts

import (
	"testing"
	"time"
)

func TestPeriodExpiredBoundary(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		period  Period
		date    time.Time
		expired bool
	}{
		{"fresh", Subscription, now, false},
		{"one second in", Subscription, now.Add(-time.Second), false},
		{"one short of the window", Subscription, now.Add(-time.Duration(Subscription) + time.Second), false},
		{"exactly the window", Subscription, now.Add(-time.Duration(Subscription)), true},
		{"past the window", Subscription, now.Add(-time.Duration(Subscription) - time.Hour), true},
		{"trial open", Trial, now.Add(-27 * 24 * time.Hour), false},
		{"trial closed", Trial, now.Add(-29 * 24 * time.Hour), true},
		{"always is instantly expired", Always, now, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.period.Expired(tt.date, now); got != tt.expired {
				t.Errorf("Expired(%v) = %t, want %t", tt.date, got, tt.expired)
			}
		})
	}
}

func TestPeriodExpiration(t *testing.T) {
	date := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	got := Subscription.Expiration(date)
	want := date.Add(time.Duration(Subscription))
	if !got.Equal(want) {
		t.Fatalf("Expiration = %v, want %v", got, want)
	}
}

func TestValidProductID(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	known := map[string]struct{}{
		"app.tiptop.abc": {},
		"app.tiptop.def": {},
	}

	recent := func(id string, age time.Duration) Receipt {
		return Receipt{ProductID: id, TransactionID: "t-" + id, TransactionDate: now.Add(-age)}
	}

	tests := []struct {
		name string
		list []Receipt
		want string
		ok   bool
	}{
		{"empty list", nil, "", false},
		{
			"single valid receipt",
			[]Receipt{recent("app.tiptop.def", time.Hour)},
			"app.tiptop.def", true,
		},
		{
			"unknown product only",
			[]Receipt{recent("app.tiptop.xyz", time.Hour)},
			"", false,
		},
		{
			"expired receipt only",
			[]Receipt{recent("app.tiptop.abc", time.Duration(Subscription))},
			"", false,
		},
		{
			"first valid in stored order wins",
			[]Receipt{
				recent("app.tiptop.xyz", time.Hour),
				recent("app.tiptop.abc", 2*time.Hour),
				recent("app.tiptop.def", time.Hour),
			},
			"app.tiptop.abc", true,
		},
		{
			"expired entries are skipped",
			[]Receipt{
				recent("app.tiptop.abc", time.Duration(Subscription)+time.Hour),
				recent("app.tiptop.def", time.Hour),
			},
			"app.tiptop.def", true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ValidProductID(tt.list, known, now)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ValidProductID = (%q, %t), want (%q, %t)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestStatusInfoPicksEarliestReceipt(t *testing.T) {
	older := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	list := []Receipt{
		{ProductID: "app.tiptop.sidekick", TransactionID: "t2", TransactionDate: newer},
		{ProductID: "app.tiptop.paul", TransactionID: "t1", TransactionDate: older},
	}

	status, expiration, ok := StatusInfo(list)
	if !ok {
		t.Fatal("StatusInfo returned not ok for a non-empty list")
	}
	if status != "Paul" {
		t.Errorf("status = %q, want %q", status, "Paul")
	}
	if want := Subscription.Expiration(older); !expiration.Equal(want) {
		t.Errorf("expiration = %v, want %v", expiration, want)
	}
}

func TestStatusInfoEmpty(t *testing.T) {
	if _, _, ok := StatusInfo(nil); ok {
		t.Fatal("StatusInfo(nil) reported ok")
	}
}

func TestStatusInfoCapitalizes(t *testing.T) {
	list := []Receipt{
		{ProductID: "single", TransactionDate: time.Now()},
	}

	status, _, ok := StatusInfo(list)
	if !ok {
		t.Fatal("StatusInfo returned not ok")
	}
	if status != "Single" {
		t.Errorf("status = %q, want %q", status, "Single")
	}
}
