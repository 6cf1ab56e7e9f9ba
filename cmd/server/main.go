package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/cors"

	"github.com/example/sitter-hub/internal/account"
	"github.com/example/sitter-hub/internal/booking"
	"github.com/example/sitter-hub/internal/config"
	"github.com/example/sitter-hub/internal/discovery"
	"github.com/example/sitter-hub/internal/dispatch"
	"github.com/example/sitter-hub/internal/geocode"
	httpapi "github.com/example/sitter-hub/internal/http"
	"github.com/example/sitter-hub/internal/ingest"
	"github.com/example/sitter-hub/internal/logging"
	"github.com/example/sitter-hub/internal/payments"
	"github.com/example/sitter-hub/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadServerConfig()
	logger := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var store storage.Store
	if cfg.PGDSN != "" {
		if cfg.RunMigrations {
			runMigrations(cfg.PGDSN, logger)
		}
		ps, err := storage.NewPostgresStore(cfg.PGDSN)
		if err != nil {
			logger.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		store = ps
	} else {
		logger.Warn("PG_DSN not set, using in-memory store")
		store = storage.NewMemoryStore()
	}

	var cache geocode.Cache
	if cfg.RedisAddr != "" {
		cache = geocode.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.GeocodeCacheTTL)
	} else {
		cache = geocode.NewMemoryCache(cfg.GeocodeCacheTTL)
	}
	geocoder := geocode.NewNominatimClient(cfg.GeocodeEndpoint, cfg.GeocodeCountry, cfg.GeocodeTimeout, cache,
		logging.WithComponent(logger, "geocode"))

	var publisher account.ProfilePublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
	}

	wsreg := dispatch.NewWSRegistry(logging.WithComponent(logger, "dispatch"))

	var pay booking.Payments
	if os.Getenv("STRIPE_API_KEY") != "" {
		pay = payments.NewStripeClient()
	}

	disc := &discovery.Service{
		Repo:                store,
		AffordableThreshold: cfg.AffordableThreshold,
		SpotlightLimit:      cfg.SpotlightLimit,
	}
	acc := &account.Service{
		Store:     store,
		Geocoder:  geocoder,
		Publisher: publisher,
		Logger:    logging.WithComponent(logger, "account"),
	}
	book := &booking.Service{
		Bookings: store,
		Sitters:  store,
		Payments: pay,
		Notifier: wsreg,
		Currency: cfg.StripeCurrency,
		Logger:   logging.WithComponent(logger, "booking"),
	}

	api := httpapi.NewServer(disc, acc, book, store, wsreg, logging.WithComponent(logger, "http"))
	handler := cors.AllowAll().Handler(api)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("sitter-hub listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("sitter-hub stopped")
}

// runMigrations applies migrations/001_create_schema.sql when MIGRATE=true.
func runMigrations(dsn string, logger *slog.Logger) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Error("migration db open error", "error", err)
		return
	}
	defer db.Close()
	b, err := os.ReadFile(filepath.Join("migrations", "001_create_schema.sql"))
	if err != nil {
		logger.Error("migration read error", "error", err)
		return
	}
	if _, err := db.Exec(string(b)); err != nil {
		logger.Error("migration exec error", "error", err)
	}
}
