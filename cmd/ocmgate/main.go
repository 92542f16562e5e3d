// Package main is the entrypoint for the ocmgate server.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MahdiBaghbani/ocmgate/internal/api"
	"github.com/MahdiBaghbani/ocmgate/internal/cache"
	"github.com/MahdiBaghbani/ocmgate/internal/config"
	"github.com/MahdiBaghbani/ocmgate/internal/httpclient"
	"github.com/MahdiBaghbani/ocmgate/internal/identity"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/discovery"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/notifications"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/notifications/outgoing"
	ocmshares "github.com/MahdiBaghbani/ocmgate/internal/ocm/shares"
	"github.com/MahdiBaghbani/ocmgate/internal/server"
	"github.com/MahdiBaghbani/ocmgate/internal/share"
	"github.com/MahdiBaghbani/ocmgate/internal/store"
	"github.com/MahdiBaghbani/ocmgate/internal/wellknown"

	// Register cache and store drivers
	_ "github.com/MahdiBaghbani/ocmgate/internal/cache/loader"
	_ "github.com/MahdiBaghbani/ocmgate/internal/store/loader"
)

// shareStore is what the share service needs from a persistence driver.
type shareStore interface {
	store.Driver
	store.RemoteShareStore
}

func main() {
	configPath := flag.String("config", "", "Path to TOML config file (optional)")
	modeFlag := flag.String("mode", "", "Operating mode: strict or dev (overrides config)")
	listenAddr := flag.String("listen", "", "Listen address (overrides config)")
	publicOrigin := flag.String("public-origin", "", "Public origin (overrides config)")
	ssrfMode := flag.String("ssrf-mode", "", "SSRF protection mode: strict or off (overrides config)")
	tlsMode := flag.String("tls-mode", "", "TLS mode: off, static, selfsigned, or acme (overrides config)")
	storeDriver := flag.String("store-driver", "", "Store driver: json or sqlite (overrides config)")
	dataDir := flag.String("data-dir", "", "Data directory for the store driver (overrides config)")
	cacheDriver := flag.String("cache-driver", "", "Cache driver: memory or valkey (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: trace, debug, info, warn, error (overrides config)")
	adminUsername := flag.String("admin-username", "", "Bootstrap admin username (overrides config)")
	adminPassword := flag.String("admin-password", "", "Bootstrap admin password (overrides config)")
	flag.Parse()

	// Bootstrap logger for config loading errors (uses default level).
	bootstrapLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPath: *configPath,
		ModeFlag:   *modeFlag,
		FlagOverrides: config.FlagOverrides{
			ListenAddr:    listenAddr,
			PublicOrigin:  publicOrigin,
			SSRFMode:      ssrfMode,
			TLSMode:       tlsMode,
			StoreDriver:   storeDriver,
			DataDir:       dataDir,
			CacheDriver:   cacheDriver,
			LogLevel:      logLevel,
			AdminUsername: adminUsername,
			AdminPassword: adminPassword,
		},
		Logger: bootstrapLogger,
	})
	if err != nil {
		bootstrapLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("effective configuration", "config", cfg.Redacted())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence driver for shares.
	driver, err := store.New(&store.DriverConfig{
		Driver:  cfg.Store.Driver,
		DataDir: cfg.Store.DataDir,
	})
	if err != nil {
		logger.Error("failed to create store driver", "error", err)
		os.Exit(1)
	}
	shares, ok := driver.(shareStore)
	if !ok {
		logger.Error("store driver does not support remote shares", "driver", driver.Name())
		os.Exit(1)
	}
	if err := shares.Init(ctx); err != nil {
		logger.Error("failed to initialize store", "driver", shares.Name(), "error", err)
		os.Exit(1)
	}
	defer shares.Close()

	// Cache for discovery documents and rate limit counters.
	cacheInstance, err := cache.NewFromConfig(cfg.Cache.Driver, cfg.Cache.Drivers)
	if err != nil {
		logger.Error("failed to create cache", "error", err)
		os.Exit(1)
	}
	defer cacheInstance.Close()
	rateCounter, _ := cacheInstance.(cache.Counter)

	// Identity: local accounts with the bootstrap admin seeded at startup.
	users := identity.NewMemoryPartyRepo()
	userAuth := identity.NewUserAuth(12)

	adminUser := cfg.Server.BootstrapAdmin.Username
	if adminUser == "" {
		adminUser = "admin"
	}
	bootstrap := identity.NewBootstrap(users, userAuth, logger)
	if _, err := bootstrap.Run(ctx, identity.SeededUser{
		Username: adminUser,
		Password: cfg.Server.BootstrapAdmin.Password,
		Role:     identity.RoleAdmin,
	}, nil); err != nil {
		logger.Error("failed to bootstrap admin user", "error", err)
		os.Exit(1)
	}

	svc := share.NewService(shares, users, cfg.Federation)

	// Outbound plumbing: SSRF-guarded client, peer discovery, notifier.
	httpClient := httpclient.New(&cfg.OutboundHTTP)
	discoveryClient := discovery.NewClient(httpClient, cacheInstance)

	var notifier api.NotificationSender
	if cfg.Federation.OutgoingEnabled {
		notifier = outgoing.NewNotifier(httpClient, discoveryClient)
	}

	srv, err := server.New(cfg, logger, server.Deps{
		WellKnown:     wellknown.NewHandler(discovery.NewDocument(cfg), logger),
		Shares:        ocmshares.NewHandler(svc, nil, logger),
		Notifications: notifications.NewHandler(svc, logger),
		LocalShares:   api.NewSharesHandler(svc, notifier, logger),
		Auth:          userAuth,
		Users:         users,
		RateCounter:   rateCounter,
	})
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	logger.Info("server started", "addr", cfg.ListenAddr)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// parseLevel maps the configured level to slog. slog has no trace level;
// trace maps below debug.
func parseLevel(level string) slog.Level {
	switch level {
	case "trace":
		return slog.LevelDebug - 4
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
