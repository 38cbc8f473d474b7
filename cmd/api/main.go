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

	"github.com/angelmondragon/storefront-backend/api/routes"
	addresssvc "github.com/angelmondragon/storefront-backend/internal/address"
	authsvc "github.com/angelmondragon/storefront-backend/internal/auth"
	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	catalogsvc "github.com/angelmondragon/storefront-backend/internal/catalog"
	ordersvc "github.com/angelmondragon/storefront-backend/internal/orders"
	settingssvc "github.com/angelmondragon/storefront-backend/internal/settings"
	"github.com/angelmondragon/storefront-backend/internal/users"
	wishlistsvc "github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := pkgredis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()

	catalogService, err := catalogsvc.NewService(catalogsvc.NewRepository(gormDB))
	if err != nil {
		fatal(logg, "failed to create catalog service", err)
	}

	cartService, err := cartsvc.NewService(cartsvc.NewRepository(gormDB), dbClient, catalogService)
	if err != nil {
		fatal(logg, "failed to create cart service", err)
	}

	orderService, err := ordersvc.NewService(ordersvc.NewRepository(gormDB), dbClient, catalogService, cartService)
	if err != nil {
		fatal(logg, "failed to create order service", err)
	}

	userRepo := users.NewRepository(gormDB)

	authService, err := authsvc.NewService(userRepo, cfg.JWT, cfg.Password)
	if err != nil {
		fatal(logg, "failed to create auth service", err)
	}

	addressService, err := addresssvc.NewService(addresssvc.NewRepository(gormDB))
	if err != nil {
		fatal(logg, "failed to create address service", err)
	}

	wishlistService, err := wishlistsvc.NewService(wishlistsvc.NewRepository(gormDB), catalogsvc.NewRepository(gormDB))
	if err != nil {
		fatal(logg, "failed to create wishlist service", err)
	}

	settingsService, err := settingssvc.NewService(settingssvc.NewRepository(gormDB))
	if err != nil {
		fatal(logg, "failed to create settings service", err)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	router := routes.NewRouter(routes.Deps{
		Config:    cfg,
		Logger:    logg,
		DB:        dbClient,
		Redis:     redisClient,
		Metrics:   httpMetrics,
		Gatherer:  registry,
		Auth:      authService,
		Users:     userRepo,
		Catalog:   catalogService,
		Cart:      cartService,
		Orders:    orderService,
		Addresses: addressService,
		Wishlist:  wishlistService,
		Settings:  settingsService,
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
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop:
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}

func fatal(logg *logger.Logger, msg string, err error) {
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
