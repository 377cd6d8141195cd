// Package metrics exposes store counters on the default prometheus
// registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsTotal counts events reduced by the entitlement state machine.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiptop_events_total",
		Help: "Events reduced by the entitlement state machine, by event kind.",
	}, []string{"event"})

	// TrappedEventsTotal counts events that arrived in a state where they
	// are structurally impossible.
	TrappedEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiptop_trapped_events_total",
		Help: "Events received in states that do not expect them.",
	}, []string{"state", "event"})

	// PurchasesTotal counts successfully completed purchases.
	PurchasesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiptop_purchases_total",
		Help: "Successfully completed purchases.",
	})

	// ReviewPromptsTotal counts review prompts shown to the user.
	ReviewPromptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiptop_review_prompts_total",
		Help: "Review prompts presented to the user.",
	})
)
