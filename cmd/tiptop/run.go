package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/podestapp/tiptop-go-rewrite/internal/buildinfo"
	"github.com/podestapp/tiptop-go-rewrite/internal/catalog"
	"github.com/podestapp/tiptop-go-rewrite/internal/kv"
	"github.com/podestapp/tiptop-go-rewrite/internal/logging"
	"github.com/podestapp/tiptop-go-rewrite/internal/paying"
	"github.com/podestapp/tiptop-go-rewrite/internal/settings"
	"github.com/podestapp/tiptop-go-rewrite/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the entitlement service",
	Run: func(cmd *cobra.Command, args []string) {
		runService()
	},
}

func runService() {
	cfg := loadConfig()
	logging.Init(logging.Config{
		Format:    cfg.LogFormat,
		Level:     cfg.LogLevel,
		Component: "tiptop",
	})

	version := buildinfo.Resolve()
	log.Info().Stringer("version", version).Str("data_dir", cfg.DataDir).Msg("Starting TipTop")

	db, hub, closeDB, err := openKV(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open key-value store")
	}
	defer closeDB()

	ids, err := catalog.LoadIdentifiers(cfg.ProductsFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ProductsFile).Msg("Failed to load product identifiers")
	}

	s := store.New(store.Config{
		Version:     version,
		Queue:       paying.NewSandboxQueue(),
		DB:          db,
		Settings:    settings.Open(filepath.Join(cfg.DataDir, "settings.json")),
		Fetcher:     catalog.NewHTTPFetcher(cfg.StorefrontURL, 0),
		Identifiers: ids,
		RequestReview: func() {
			log.Info().Msg("Review prompt requested")
		},
	})
	defer s.Close()

	s.SetDelegate(&logDelegate{})
	s.SetAccessDelegate(&probeAccess{target: dialTarget(cfg.StorefrontURL)})

	watcher, err := catalog.NewWatcher(cfg.ProductsFile, func() {
		log.Info().Msg("Product catalog changed, refreshing")
		s.Update()
	})
	if err != nil {
		log.Warn().Err(err).Msg("Catalog watcher unavailable")
	} else {
		watcher.Start()
		defer watcher.Stop()
	}

	if cfg.SyncURL != "" {
		listener := kv.NewSyncListener(cfg.SyncURL, hub)
		defer listener.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serveMetrics(ctx, cfg.MetricsAddr) })
	g.Go(func() error {
		<-ctx.Done()
		return ctx.Err()
	})

	s.Resume()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Service failed")
	}

	log.Info().Msg("Shutting down")
	s.Pause()
}

func openKV(cfg envConfig) (kv.Store, *kv.Hub, func(), error) {
	switch cfg.KVBackend {
	case "sqlite":
		s, err := kv.OpenSQLiteStore(filepath.Join(cfg.DataDir, "tiptop.db"))
		if err != nil {
			return nil, nil, nil, err
		}
		return s, &s.Hub, func() {
			if err := s.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close key-value store")
			}
		}, nil
	case "file", "":
		s, err := kv.OpenFileStore(filepath.Join(cfg.DataDir, "tiptop.json"))
		if err != nil {
			return nil, nil, nil, err
		}
		return s, &s.Hub, func() {}, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown kv backend %q", cfg.KVBackend)
	}
}

func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
	}()

	log.Info().Str("addr", addr).Msg("Metrics server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// logDelegate logs shopping callbacks. A real frontend would render
// them.
type logDelegate struct{}

func (logDelegate) Offers(products []catalog.Product, err *store.ShoppingError) {
	if err != nil {
		log.Warn().Err(err).Int("products", len(products)).Msg("Offers arrived with an error")
		return
	}
	for _, p := range products {
		log.Info().Str("product_id", p.ID).Str("title", p.Title).Str("price", p.Price).Msg("Offer")
	}
}

func (logDelegate) Purchasing(id string) {
	log.Info().Str("product_id", id).Msg("Purchasing")
}

func (logDelegate) Purchased(id string) {
	log.Info().Str("product_id", id).Msg("Purchased")
}

func (logDelegate) Error(err *store.ShoppingError) {
	log.Error().Err(err).Msg("Shopping error")
}

// probeAccess answers reachability with a short TCP dial against the
// storefront and logs entitlement changes.
type probeAccess struct {
	target string
}

func (a *probeAccess) Reach() bool {
	if a.target == "" {
		return false
	}
	conn, err := net.DialTimeout("tcp", a.target, 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (a *probeAccess) AccessibilityChanged(accessible bool) {
	log.Info().Bool("accessible", accessible).Msg("Store accessibility changed")
}

func (a *probeAccess) ExpiredChanged(expired bool) {
	log.Info().Bool("expired", expired).Msg("Entitlement expiration changed")
}

func dialTarget(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := u.Host
	if u.Port() == "" {
		switch u.Scheme {
		case "https":
			host = net.JoinHostPort(u.Hostname(), "443")
		default:
			host = net.JoinHostPort(u.Hostname(), "80")
		}
	}
	return host
}
