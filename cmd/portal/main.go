package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/portalgate/portal/pkg/accesslog"
	"github.com/portalgate/portal/pkg/admin"
	"github.com/portalgate/portal/pkg/config"
	"github.com/portalgate/portal/pkg/dispatch"
	"github.com/portalgate/portal/pkg/groups"
	"github.com/portalgate/portal/pkg/identity"
	"github.com/portalgate/portal/pkg/observability"
	"github.com/portalgate/portal/pkg/registry"
	"github.com/portalgate/portal/pkg/server"
	"github.com/portalgate/portal/pkg/session"
)

func main() {
	configPath := flag.String("config", "", "Optional YAML config file applied over environment variables")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "portal: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger := observability.NewLogger(observability.ParseLogLevel(cfg.Observability.LogLevel), os.Stdout)
	logger.WithField("addr", cfg.Server.Host+":"+cfg.Server.Port).Info("starting portal gateway")

	ctx := context.Background()

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("telemetry init: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("database open: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	if err := db.Ping(); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}

	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)
	metrics.CollectDBStats(db)

	// service registry, with the Redis read-through layer when enabled
	store, err := registry.NewStore(db)
	if err != nil {
		return fmt.Errorf("service registry init: %w", err)
	}
	var services registry.ServiceStore = store
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		cached, err := registry.NewCachedStore(store, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.TTL)
		if err != nil {
			return fmt.Errorf("registry cache init: %w", err)
		}
		services = cached
		redisClient = cached.Redis()
		logger.WithField("addr", cfg.Redis.Addr).Info("registry cache enabled")
	}

	// access trail: database always, file destination when configured
	dbTrail, err := accesslog.NewDBLogger(db)
	if err != nil {
		return fmt.Errorf("access trail init: %w", err)
	}
	var trail accesslog.Logger = dbTrail
	if cfg.AccessLog.FilePath != "" {
		fileTrail, err := accesslog.NewFileLogger(cfg.AccessLog.FilePath)
		if err != nil {
			return fmt.Errorf("access trail file destination: %w", err)
		}
		trail = accesslog.NewMultiLogger(dbTrail, fileTrail)
	}
	defer trail.Close()

	var uploader *accesslog.S3Uploader
	if cfg.AccessLog.S3Bucket != "" {
		uploader, err = accesslog.NewS3Uploader(accesslog.S3Config{
			Bucket:       cfg.AccessLog.S3Bucket,
			Region:       cfg.AccessLog.S3Region,
			Endpoint:     cfg.AccessLog.S3Endpoint,
			AccessKey:    cfg.AccessLog.S3AccessKey,
			SecretKey:    cfg.AccessLog.S3SecretKey,
			UsePathStyle: cfg.AccessLog.S3UsePathStyle,
			KeyPrefix:    cfg.AccessLog.S3KeyPrefix,
		})
		if err != nil {
			return fmt.Errorf("export uploader init: %w", err)
		}
	}

	members, err := groups.NewStore(db)
	if err != nil {
		return fmt.Errorf("membership store init: %w", err)
	}
	guard := groups.NewGuard(members, logger, cfg.Guard.CacheTTL)

	sessions, err := session.NewManager(db, cfg.Session.TTL, cfg.Session.CookieSecure)
	if err != nil {
		return fmt.Errorf("session manager init: %w", err)
	}

	sweeper, err := session.NewSweeper(sessions, logger, metrics, cfg.Session.SweepSchedule)
	if err != nil {
		return fmt.Errorf("session sweeper init: %w", err)
	}
	sweeper.Start()

	factory, err := identity.NewFactory(ctx, identity.OIDCSettings{
		IssuerURL:    cfg.Identity.OIDCIssuerURL,
		ClientID:     cfg.Identity.OIDCClientID,
		ClientSecret: cfg.Identity.OIDCClientSecret,
		RedirectURL:  cfg.CallbackURL(),
		Scopes:       cfg.Identity.OIDCScopes,
	}, cfg.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("identity provider init: %w", err)
	}

	observer := session.NewObserver()
	observer.Seed(ctx, func(context.Context) (*identity.User, error) {
		// nobody is signed in at process start; sessions are per-request
		return nil, nil
	})

	dispatcher := dispatch.NewDispatcher(services, factory, sessions, observer,
		trail, logger, metrics, cfg.Server.DefaultLanding)
	adminHandler := admin.NewHandler(services, members, guard, sessions,
		accesslog.NewExporter(dbTrail), uploader, logger, metrics)

	srv := server.New(cfg, server.Deps{
		Dispatcher: dispatcher,
		Admin:      adminHandler,
		Sessions:   sessions,
		Health:     observability.NewHealthChecker(db, redisClient),
		Metrics:    metrics,
		Registry:   promRegistry,
		Logger:     logger,
	})

	go func() {
		logger.WithField("addr", srv.Health.Addr).Info("health listener started")
		if err := srv.Health.ListenAndServe(); err != nil {
			logger.WithError(err).Warn("health listener stopped")
		}
	}()

	shutdown := observability.NewShutdownManager(logger, srv.HTTP, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return srv.Health.Shutdown(ctx)
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		sweeper.Stop()
		return nil
	})
	if providers != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, providers, logger)
		})
	}

	go func() {
		logger.WithField("addr", srv.HTTP.Addr).Info("gateway listening")
		if err := srv.HTTP.ListenAndServe(); err != nil {
			logger.WithError(err).Info("gateway listener stopped")
		}
	}()

	return shutdown.WaitForShutdown()
}
