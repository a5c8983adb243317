package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rl1809/tenant-inventory/internal/adapter/handler"
	"github.com/rl1809/tenant-inventory/internal/adapter/storage"
	"github.com/rl1809/tenant-inventory/internal/config"
	"github.com/rl1809/tenant-inventory/internal/core/service"
	"github.com/rl1809/tenant-inventory/internal/port"
	"github.com/rl1809/tenant-inventory/internal/tenant"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Master schema: tenant registry plus schema administration.
	master, err := sql.Open("mysql", cfg.MySQL.MasterDSN)
	if err != nil {
		logger.Fatal("open mysql", zap.Error(err))
	}
	master.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	master.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	master.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := master.PingContext(ctx); err != nil {
		logger.Fatal("ping mysql", zap.Error(err))
	}
	if err := storage.EnsureMaster(ctx, master); err != nil {
		logger.Fatal("ensure master schema", zap.Error(err))
	}
	logger.Info("connected to mysql")

	// Per-tenant handles reuse the master DSN with the schema swapped.
	router := tenant.NewRouter(master, func(schema string) (*sql.DB, error) {
		dsn, err := storage.SchemaDSN(cfg.MySQL.MasterDSN, schema)
		if err != nil {
			return nil, err
		}
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
		return db, nil
	})
	defer router.Close()

	tenantStore := storage.NewTenantStore(master)
	productStore := storage.NewProductStore(router)
	provisioner := storage.NewProvisioner(master, logger)

	// Restore routes for tenants registered before this process started.
	existing, err := tenantStore.List(ctx)
	if err != nil {
		logger.Fatal("list tenants", zap.Error(err))
	}
	for _, t := range existing {
		if err := router.Register(t.ID, t.SchemaName); err != nil {
			logger.Fatal("register tenant route",
				zap.String("tenant_id", t.ID), zap.Error(err))
		}
	}
	logger.Info("tenant routes restored", zap.Int("count", len(existing)))

	// Redis backs alert dedup only; without it the scheduler just alerts
	// every cycle.
	var alerts port.AlertStore
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, alert dedup disabled", zap.Error(err))
	} else {
		alerts = storage.NewRedisAlertStore(rdb, cfg.Sweep.AlertTTL)
		logger.Info("connected to redis")
	}

	tenantService := service.NewTenantService(tenantStore, provisioner, router, logger)
	productService := service.NewProductService(productStore, productStore, logger)
	reconciliation := service.NewReconciliationService(
		tenantStore, productStore, productStore, alerts,
		cfg.Sweep.DailyEvery, cfg.Sweep.HourlyEvery, logger)

	go reconciliation.Run(ctx)

	mux := http.NewServeMux()
	httpHandler := handler.NewHTTPHandler(tenantService, productService)
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)

	cancel()
	rdb.Close()
	master.Close()
	logger.Info("shutdown complete")
}
