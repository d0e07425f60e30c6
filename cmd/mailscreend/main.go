package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mailscreen/mailscreen/internal/mail/common/clock"
	"github.com/mailscreen/mailscreen/internal/mail/common/log"
	"github.com/mailscreen/mailscreen/internal/mail/config"
	"github.com/mailscreen/mailscreen/internal/mail/gateways/dnslookup"
	"github.com/mailscreen/mailscreen/internal/mail/gateways/httpapi"
	"github.com/mailscreen/mailscreen/internal/mail/gateways/remotelist"
	"github.com/mailscreen/mailscreen/internal/mail/repos/domainlist"
	"github.com/mailscreen/mailscreen/internal/mail/repos/domainlist/bolt"
	"github.com/mailscreen/mailscreen/internal/mail/repos/mxcache"
	"github.com/mailscreen/mailscreen/internal/mail/services/validator"
)

const (
	version = "0.1.0-dev"
	appName = "mailscreend"
)

// Application holds all the components of the validation service.
type Application struct {
	config    *config.AppConfig
	api       *httpapi.Server
	validator *validator.Validator
	snapshot  *bolt.Store
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":    version,
		"env":        cfg.Env,
		"log_level":  cfg.LogLevel,
		"port":       cfg.Port,
		"cache_size": cfg.CacheSize,
		"check_mx":   cfg.CheckMX,
	}, "Starting mailscreen service")

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Service failed")
	}

	log.Info(nil, "mailscreen service stopped gracefully")
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	clk := clock.RealClock{}
	logger := log.GetLogger()

	// Repository layer: classifier, optional snapshot, MX cache
	classifier := domainlist.NewClassifier()

	snapshot, err := loadDomainLists(cfg, classifier, clk, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load domain lists: %w", err)
	}

	cache, err := mxcache.New(int(cfg.CacheSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create MX cache: %w", err)
	}
	log.Info(map[string]any{
		"type":     "LRU",
		"size":     cfg.CacheSize,
		"disabled": cfg.DisableMXCache,
	}, "MX result cache configured")

	// Gateway layer: DNS checker
	checker := dnslookup.New(dnslookup.Options{
		Timeout: time.Duration(cfg.DNSTimeout) * time.Second,
		Logger:  logger,
	})

	// Service layer: validator
	svc := validator.New(validator.Options{
		Classifier:   classifier,
		Records:      checker,
		MXCache:      cache,
		Logger:       logger,
		DisableCache: cfg.DisableMXCache,
	})

	// Transport layer: HTTP API
	addr := fmt.Sprintf(":%d", cfg.Port)
	api := httpapi.NewServer(addr, svc, logger)

	return &Application{
		config:    cfg,
		api:       api,
		validator: svc,
		snapshot:  snapshot,
	}, nil
}

// loadDomainLists populates the classifier from list files, the remote feed
// and the bolt snapshot. File lists win over the snapshot; whenever fresh
// data was loaded the snapshot is rebuilt for the next restart.
func loadDomainLists(cfg *config.AppConfig, classifier *domainlist.Classifier, clk clock.Clock, logger log.Logger) (*bolt.Store, error) {
	loader := domainlist.NewLoader(logger)
	fresh := false

	if cfg.BlocklistPath != "" {
		block, err := loader.Load(cfg.BlocklistPath)
		if err != nil {
			return nil, err
		}
		classifier.AddAllToBlocklist(block)
		fresh = true
		log.Info(map[string]any{"path": cfg.BlocklistPath, "count": len(block)}, "Blocklist loaded")
	}

	if cfg.AllowlistPath != "" {
		allow, err := loader.Load(cfg.AllowlistPath)
		if err != nil {
			return nil, err
		}
		classifier.AddAllToAllowlist(allow)
		fresh = true
		log.Info(map[string]any{"path": cfg.AllowlistPath, "count": len(allow)}, "Allowlist loaded")
	}

	if cfg.FeedURL != "" {
		feed := remotelist.NewClient(http.DefaultClient, logger)
		if err := feed.Update(context.Background(), cfg.FeedURL, classifier); err != nil {
			// a dead feed must not keep the service down
			log.Warn(map[string]any{"url": cfg.FeedURL, "error": err.Error()}, "Disposable feed update failed")
		} else {
			fresh = true
		}
	}

	if cfg.SnapshotPath == "" {
		return nil, nil
	}

	snapshot, err := bolt.Open(cfg.SnapshotPath)
	if err != nil {
		return nil, err
	}

	if fresh {
		st := snapshot.Stats()
		if err := snapshot.RebuildAll(classifier.Blocklist(), classifier.Allowlist(), st.Version+1, clk.Now().Unix()); err != nil {
			_ = snapshot.Close()
			return nil, err
		}
		log.Info(map[string]any{
			"path":    cfg.SnapshotPath,
			"block":   classifier.BlocklistSize(),
			"allow":   classifier.AllowlistSize(),
			"version": st.Version + 1,
		}, "Snapshot rebuilt")
		return snapshot, nil
	}

	block, allow, err := snapshot.Load()
	if err != nil {
		_ = snapshot.Close()
		return nil, err
	}
	classifier.AddAllToBlocklist(block)
	classifier.AddAllToAllowlist(allow)
	log.Info(map[string]any{
		"path":  cfg.SnapshotPath,
		"block": len(block),
		"allow": len(allow),
	}, "Domain lists restored from snapshot")
	return snapshot, nil
}

// Run starts the HTTP API and blocks until the context is cancelled.
func (app *Application) Run(ctx context.Context) error {
	if err := app.api.Start(ctx); err != nil {
		return fmt.Errorf("failed to start http api: %w", err)
	}

	log.Info(map[string]any{"address": app.api.Address()}, "Validation API started")

	<-ctx.Done()

	log.Info(nil, "Shutdown initiated")

	if err := app.api.Stop(); err != nil {
		return fmt.Errorf("failed to stop http api: %w", err)
	}
	if app.snapshot != nil {
		if err := app.snapshot.Close(); err != nil {
			log.Warn(map[string]any{"error": err.Error()}, "Error closing snapshot store")
		}
	}
	return nil
}
