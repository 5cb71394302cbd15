package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/itemvault/api/rest"
	"github.com/kasuganosora/itemvault/audit"
	"github.com/kasuganosora/itemvault/cache"
	"github.com/kasuganosora/itemvault/config"
	dbadapter "github.com/kasuganosora/itemvault/db"
	mw "github.com/kasuganosora/itemvault/middleware"
	"github.com/kasuganosora/itemvault/model"
	"github.com/kasuganosora/itemvault/scheduler"
	"github.com/kasuganosora/itemvault/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Server.Debug)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	if len(cfg.Server.AdminIPs) == 0 {
		logger.Warn("server.admin_ips is empty; admin endpoints will refuse every client")
	}

	// ---- Database ----
	db, err := openDB(cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Cache ----
	var c cache.Cache
	if cfg.Cache.Enabled {
		c, err = cache.NewCache(cache.CacheConfig{
			RedisAddr:       cfg.Cache.RedisAddr,
			RedisPassword:   cfg.Cache.RedisPassword,
			RedisDB:         cfg.Cache.RedisDB,
			LocalGCInterval: cfg.Cache.LocalGCInterval,
		})
		if err != nil {
			return fmt.Errorf("cache: %w", err)
		}
		defer c.Close()
		logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))
	}

	// ---- Audit ----
	var auditSvc *audit.Service
	var auditor mw.Auditor
	if cfg.Audit.Enabled {
		auditSvc = audit.New(db, audit.Config{
			BufferSize:    cfg.Audit.BufferSize,
			BatchSize:     cfg.Audit.BatchSize,
			FlushInterval: cfg.Audit.FlushInterval,
		}, logger)
		defer auditSvc.Stop(context.Background())
		auditor = auditSvc
	}

	// ---- Stores ----
	items := store.NewEntityStore(db, c, cfg.Cache.ItemTTL, logger)
	users := store.NewUserStore(db, logger)
	inventory := store.NewAssociationStore(db, logger)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()
	if err := scheduleIntegrity(sched, items, cfg.Maintenance, logger); err != nil {
		return err
	}

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	rest.RegisterRoutes(r, rest.Handlers{
		Items:     rest.NewItemHandler(items),
		Users:     rest.NewUserHandler(users),
		Inventory: rest.NewInventoryHandler(inventory),
		Admin:     rest.NewAdminHandler(items, sched, auditSvc, logger),
	}, rest.RouteOptions{
		Auditor:    auditor,
		AdminIPs:   cfg.Server.AdminIPs,
		WriteRPS:   cfg.Security.WriteRateLimitRPS,
		WriteBurst: cfg.Security.WriteRateLimitBurst,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openDB connects and migrates the schema.
func openDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := dbadapter.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	return db, nil
}

// scheduleIntegrity registers the periodic integrity sweep. A cron
// expression wins over the plain interval; neither set disables the sweep.
func scheduleIntegrity(sched *scheduler.Scheduler, items *store.EntityStore, cfg config.MaintenanceConfig, logger *zap.Logger) error {
	sweep := store.IntegritySweep(items, cfg.IntegrityTimeout, logger)
	switch {
	case cfg.IntegrityCron != "":
		if err := sched.AddCron(rest.IntegrityTask, cfg.IntegrityCron, sweep); err != nil {
			return fmt.Errorf("maintenance.integrity_cron: %w", err)
		}
	case cfg.IntegrityInterval > 0:
		sched.AddTicker(rest.IntegrityTask, cfg.IntegrityInterval, sweep)
	default:
		logger.Info("integrity sweep disabled")
	}
	return nil
}
