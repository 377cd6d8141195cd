package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/podestapp/tiptop-go-rewrite/internal/buildinfo"
	"github.com/podestapp/tiptop-go-rewrite/internal/catalog"
	"github.com/podestapp/tiptop-go-rewrite/internal/kv"
	"github.com/podestapp/tiptop-go-rewrite/internal/logging"
	"github.com/podestapp/tiptop-go-rewrite/internal/paying"
	"github.com/podestapp/tiptop-go-rewrite/internal/settings"
	"github.com/podestapp/tiptop-go-rewrite/internal/store"
)

var demoProduct string

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Buy a product through the sandbox queue and print the resulting state",
	Long:  `Runs one purchase end to end against the in-memory sandbox payment queue: resume, pay, wait for the receipt, print the final entitlement state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDemo()
	},
}

func init() {
	demoCmd.Flags().StringVar(&demoProduct, "product", "", "product identifier to buy (default: first known)")
}

// demoAccess is always reachable; the demo has no storefront to probe.
type demoAccess struct{}

func (demoAccess) Reach() bool { return true }

func (demoAccess) AccessibilityChanged(accessible bool) {
	fmt.Printf("accessible: %t\n", accessible)
}

func (demoAccess) ExpiredChanged(expired bool) {
	fmt.Printf("expired: %t\n", expired)
}

// demoFetcher serves the configured identifiers as products without a
// storefront round trip.
type demoFetcher struct {
	ids []string
}

func (f *demoFetcher) Fetch(ids []string, fn func([]catalog.Product, error)) {
	products := make([]catalog.Product, 0, len(f.ids))
	for _, id := range f.ids {
		products = append(products, catalog.Product{ID: id, Title: id, Price: "0.99", Currency: "USD"})
	}
	fn(products, nil)
}

func (f *demoFetcher) Cancel() {}

func runDemo() error {
	cfg := loadConfig()
	logging.Init(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel, Component: "demo"})

	ids, err := catalog.LoadIdentifiers(cfg.ProductsFile)
	if err != nil {
		log.Warn().Err(err).Msg("No product file, using built-in demo identifiers")
		ids = []string{"app.tiptop.basic", "app.tiptop.plus"}
	}
	if demoProduct == "" {
		demoProduct = ids[0]
	}

	version := buildinfo.Resolve()
	queue := paying.NewSandboxQueue()

	s := store.New(store.Config{
		Version:     version,
		Queue:       queue,
		DB:          kv.NewMemStore(),
		Settings:    settings.Open(filepath.Join(cfg.DataDir, "demo-settings.json")),
		Fetcher:     &demoFetcher{ids: ids},
		Identifiers: ids,
	})
	defer s.Close()

	s.SetDelegate(&logDelegate{})
	s.SetAccessDelegate(demoAccess{})

	s.Resume()
	fmt.Printf("state after resume: %s\n", s.State())

	s.Pay(demoProduct)

	// Give the sandbox queue time to approve.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if state := s.State(); state.Kind == store.StateSubscribed {
			fmt.Printf("state after purchase: %s\n", state)
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}

	return fmt.Errorf("purchase of %s did not complete, final state %s", demoProduct, s.State())
}
