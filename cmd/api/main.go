package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jmflorece/tindahan-pos/api/routes"
	"github.com/jmflorece/tindahan-pos/internal/cart"
	"github.com/jmflorece/tindahan-pos/internal/catalog"
	"github.com/jmflorece/tindahan-pos/internal/checkout"
	"github.com/jmflorece/tindahan-pos/internal/ledger"
	"github.com/jmflorece/tindahan-pos/internal/media"
	"github.com/jmflorece/tindahan-pos/internal/reports"
	"github.com/jmflorece/tindahan-pos/internal/settings"
	"github.com/jmflorece/tindahan-pos/internal/staff"
	"github.com/jmflorece/tindahan-pos/pkg/config"
	"github.com/jmflorece/tindahan-pos/pkg/db"
	"github.com/jmflorece/tindahan-pos/pkg/enums"
	"github.com/jmflorece/tindahan-pos/pkg/logger"
	"github.com/jmflorece/tindahan-pos/pkg/metrics"
	"github.com/jmflorece/tindahan-pos/pkg/migrate"
	"github.com/jmflorece/tindahan-pos/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.Flags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRun(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	salesMetrics := metrics.NewSalesMetrics(prometheus.DefaultRegisterer)
	feed := catalog.NewRedisFeed(redisClient, logg)
	carts := cart.NewManager()

	catalogRepo := catalog.NewRepository(dbClient.DB())
	categoryRepo := catalog.NewCategoryRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())
	staffRepo := staff.NewRepository(dbClient.DB())

	catalogService, err := catalog.NewService(catalogRepo, categoryRepo, dbClient, feed)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledgerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.Deps{
		Carts:       carts,
		CatalogRepo: catalogRepo,
		DBClient:    dbClient,
		Gateways: map[enums.PaymentMethod]checkout.Gateway{
			enums.PaymentMethodQR:       checkout.NewQRGateway(),
			enums.PaymentMethodCard:     checkout.NewCardGateway(),
			enums.PaymentMethodTerminal: checkout.NewTerminalGateway(cfg.Checkout),
		},
		OrderNumbers: checkout.NewOrderNumberGenerator(cfg.Checkout.OrderNumberPrefix, redisClient),
		Feed:         feed,
		SalesMetrics: salesMetrics,
		VATRate:      cfg.Tax.VATRate,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	reportsService, err := reports.NewService(ledgerRepo, ledgerService, catalogRepo, salesMetrics, cfg.Tax.VATRate, cfg.Inventory.DefaultLowStockThreshold)
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	settingsService, err := settings.NewService(dbClient.DB(), cfg.Shop)
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	mediaService, err := media.NewService(cfg.Media, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}

	staffService, err := staff.NewService(staff.Deps{
		Repo:    staffRepo,
		JWT:     cfg.JWT,
		Pin:     cfg.Pin,
		Limit:   cfg.LoginLimit,
		Limiter: redisClient,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create staff service", err)
		os.Exit(1)
	}

	handler := routes.NewRouter(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		DB:          dbClient,
		Redis:       redisClient,
		Carts:       carts,
		CatalogRepo: catalogRepo,
		Catalog:     catalogService,
		Checkout:    checkoutService,
		Ledger:      ledgerService,
		Reports:     reportsService,
		Settings:    settingsService,
		Media:       mediaService,
		Staff:       staffService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
