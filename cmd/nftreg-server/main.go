package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mintworks/nftregistry-go/internal/core/domain"
	"github.com/mintworks/nftregistry-go/internal/core/ledger"
	"github.com/mintworks/nftregistry-go/internal/core/service"
	"github.com/mintworks/nftregistry-go/internal/infra/buildinfo"
	"github.com/mintworks/nftregistry-go/internal/infra/confloader"
	"github.com/mintworks/nftregistry-go/internal/infra/shutdown"
	"github.com/mintworks/nftregistry-go/internal/server/config"
	"github.com/mintworks/nftregistry-go/internal/server/httpserver"
	"github.com/mintworks/nftregistry-go/internal/storage"
	"github.com/mintworks/nftregistry-go/internal/storage/snapshot"
	"github.com/mintworks/nftregistry-go/internal/storage/wal"
	"github.com/mintworks/nftregistry-go/internal/telemetry/logger"
	"github.com/mintworks/nftregistry-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("nftreg-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := initLogger(cfg)

	info := buildinfo.Get()
	log.Info("starting nftreg-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	metrics := metric.New()

	engine, err := initStorage(cfg, metrics, log)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Replay persisted state before serving traffic.
	ctx := context.Background()
	if err := engine.Recover(ctx); err != nil {
		return fmt.Errorf("storage recovery: %w", err)
	}

	metrics.Registry().MustRegister(metric.NewEngineCollector(func() metric.EngineStats {
		st := engine.Stats()
		return metric.EngineStats{
			TotalSupply:   float64(st.TotalSupply),
			NextTxid:      float64(st.NextTxid),
			WALSizeBytes:  float64(st.WALSizeBytes),
			SnapshotCount: float64(st.SnapshotCount),
		}
	}))

	registrySvc := initServices(cfg, engine, metrics, log)

	keyring := httpserver.NewKeyring(cfg.Security.APIKeys)
	if keyring.Len() == 0 {
		log.Warn("no API keys configured, all mutations will be rejected")
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Registry:            registrySvc,
		Keyring:             keyring,
		Logger:              log,
		Metrics:             metrics,
		MetricsAuthRequired: true,
		RateLimitEnabled:    cfg.Security.RateLimit.Enabled,
		RateLimitRPS:        cfg.Security.RateLimit.RPS,
		RateLimitBurst:      cfg.Security.RateLimit.Burst,
		EnableAudit:         true,
	})

	httpServer := httpserver.New(
		cfg.Server.HTTP.Addr,
		router,
		cfg.Server.HTTP.ReadTimeout,
		cfg.Server.HTTP.WriteTimeout,
	)

	shutdownTimeout := cfg.Server.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownHandler := shutdown.NewHandler(shutdownTimeout)

	// Hooks run in reverse registration order: the listener stops
	// accepting requests before the service and engine go away.
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("closing storage engine")
		return engine.Close()
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("draining registry service")
		registrySvc.Close()
		return nil
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	if *configFile != "" {
		watcher, err := startConfigWatcher(*configFile, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown(func(ctx context.Context) error {
				return watcher.Stop()
			})
		}
	}

	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTP.Addr)

		var err error
		if cfg.Server.HTTP.TLSCertFile != "" && cfg.Server.HTTP.TLSKeyFile != "" {
			err = httpServer.ListenAndServeTLS(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig merges defaults, the optional config file and the
// environment, then validates the result.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func initLogger(cfg *config.ServerConfig) *slog.Logger {
	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	slog.SetDefault(log)
	return log
}

// initStorage builds the storage engine: genesis state from the
// registry section, WAL and snapshot tuning, optional at-rest
// encryption, and the configured content-blob store.
func initStorage(cfg *config.ServerConfig, metrics *metric.Metrics, log *slog.Logger) (*storage.Engine, error) {
	storageCfg := storage.DefaultConfig(cfg.Storage.DataDir)
	storageCfg.Logger = log

	window, err := ledger.ParseMintWindow(cfg.Registry.BeginDate, cfg.Registry.EndDate)
	if err != nil {
		return nil, err
	}
	// Without configured custodians the admin keys become custodians,
	// so a fresh deployment is never locked out of the admin surface.
	custodians := cfg.Registry.Custodians
	if len(custodians) == 0 {
		for _, key := range cfg.Security.APIKeys {
			if key.Role == string(domain.RoleAdmin) {
				custodians = append(custodians, key.Identity)
			}
		}
	}

	storageCfg.Genesis = ledger.Genesis{
		Name:       cfg.Registry.Name,
		Symbol:     cfg.Registry.Symbol,
		Custodians: identities(custodians),
		Whitelist:  identities(cfg.Registry.Whitelist),
		Window:     window,
		TotalLimit: cfg.Registry.TotalLimit,
	}

	if cfg.Storage.WALSyncMode != "" {
		storageCfg.WAL.SyncMode = wal.SyncMode(cfg.Storage.WALSyncMode)
	}
	if cfg.Storage.WALSyncInterval > 0 {
		storageCfg.WAL.SyncInterval = cfg.Storage.WALSyncInterval
	}
	if cfg.Storage.SnapshotKeep > 0 {
		storageCfg.Snapshot.RetentionCount = cfg.Storage.SnapshotKeep
	}
	if cfg.Storage.SnapshotInterval > 0 {
		storageCfg.SnapshotInterval = cfg.Storage.SnapshotInterval
	}

	if cfg.Security.EncryptionKey != "" {
		cipher, _, err := snapshot.NewCipherFromConfig(snapshot.EncryptionConfig{
			Key: []byte(cfg.Security.EncryptionKey),
		})
		if err != nil {
			return nil, fmt.Errorf("at-rest encryption: %w", err)
		}
		storageCfg.Cipher = cipher
		log.Info("at-rest encryption enabled")
	}

	if cfg.Storage.ContentEngine != "" {
		storageCfg.KV.Engine = cfg.Storage.ContentEngine
	}
	content, err := storage.NewKVEngine(storageCfg.KV, log)
	if err != nil {
		return nil, fmt.Errorf("content store: %w", err)
	}
	if badgerEngine, ok := content.(*storage.BadgerEngine); ok {
		badgerEngine.RegisterMetrics(metrics.Registry())
	}
	storageCfg.Content = content

	return storage.New(storageCfg)
}

// initServices wires the registry service and, when configured, the
// transfer-notification webhook client.
func initServices(cfg *config.ServerConfig, engine *storage.Engine, metrics *metric.Metrics, log *slog.Logger) *service.RegistryService {
	var notifier *service.Notifier
	if len(cfg.Notify.Endpoints) > 0 || cfg.Notify.DefaultURL != "" {
		notifier = service.NewNotifier(service.NotifyConfig{
			Endpoints:  cfg.Notify.Endpoints,
			DefaultURL: cfg.Notify.DefaultURL,
			Timeout:    cfg.Notify.Timeout,
		}, log)
		notifier.SetObserver(metrics.ObserveNotify)
		log.Info("transfer notifications enabled",
			"endpoints", len(cfg.Notify.Endpoints),
			"default_url", cfg.Notify.DefaultURL != "")
	}

	return service.NewRegistryService(engine, notifier, log)
}

// startConfigWatcher reloads the log level when the config file
// changes. Other settings require a restart.
func startConfigWatcher(configFile string, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(configFile); err != nil {
		watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(path string) {
		next := config.Default()
		if err := confloader.NewLoader(confloader.WithConfigFile(path)).Load(next); err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if next.Log.Level != logger.GetLevel() {
			logger.SetLevel(next.Log.Level)
			log.Info("log level changed", "level", next.Log.Level)
		}
	})
	watcher.StartAsync()

	return watcher, nil
}

func identities(names []string) []domain.Identity {
	out := make([]domain.Identity, 0, len(names))
	for _, name := range names {
		out = append(out, domain.Identity(name))
	}
	return out
}
