package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pos_sales/api"
	"pos_sales/internal/auth"
	"pos_sales/internal/catalog"
	"pos_sales/internal/config"
	"pos_sales/internal/sales"
	"pos_sales/internal/session"
	"pos_sales/internal/sheets"
	"pos_sales/internal/storage"
	"pos_sales/internal/telemetry"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error trying to start server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.New(ctx, cfg.Otel, cfg.App)
	if err != nil {
		return err
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("snapshot store ready", zap.String("driver", cfg.Storage.Driver))

	sheetsClient := sheets.NewClient(cfg.Sheets, logger.Named("sheets"))
	defer sheetsClient.Close()

	var source catalog.Source
	if sheetsClient.ProductsEnabled() {
		source = sheetsClient
	}
	catalogService := catalog.NewService(store, source, logger)

	salesOpts := []sales.Option{
		sales.WithThreshold(cfg.Pricing.WholesaleThreshold),
		sales.WithMirrorTimeout(cfg.Sheets.Timeout),
	}
	if sheetsClient.SalesEnabled() {
		salesOpts = append(salesOpts, sales.WithMirror(sheetsClient))
	}
	salesService := sales.NewService(store, catalogService, logger, salesOpts...)

	if source != nil {
		products, err := catalogService.Refresh(ctx)
		if err != nil {
			logger.Warn("initial catalog load failed", zap.Error(err))
		} else {
			logger.Info("catalog loaded", zap.Int("products", len(products)))
		}
	}

	var limiter api.Limiter
	if cfg.RateLimit.Enabled {
		if rs, ok := store.(*storage.RedisStore); ok {
			limiter = api.NewRedisLimiter(rs.Client(), cfg.RateLimit, cfg.Storage.KeyPrefix)
		} else {
			limiter = api.NewLocalLimiter(cfg.RateLimit)
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	api.InitRoutes(router, api.Dependencies{
		Auth:         auth.NewService(store, cfg.Admin, logger),
		Catalog:      catalogService,
		Sales:        salesService,
		Sessions:     session.NewManager(cfg.Session, logger),
		LoginLimiter: limiter,
		Logger:       logger,
		ServiceName:  cfg.Otel.ServiceName,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.App.Environment),
			zap.Bool("sheets", cfg.SheetsEnabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		logger.Warn("telemetry shutdown failed", zap.Error(err))
	}
	return nil
}

// newLogger builds a JSON production logger, or a console logger when
// log.format is "console".
func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
