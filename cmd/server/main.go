package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	syncapp "github.com/pimsync/backend/internal/application/sync"
	"github.com/pimsync/backend/internal/infrastructure/cache"
	"github.com/pimsync/backend/internal/infrastructure/config"
	"github.com/pimsync/backend/internal/infrastructure/connectors"
	"github.com/pimsync/backend/internal/infrastructure/logger"
	"github.com/pimsync/backend/internal/infrastructure/persistence"
)

const (
	// resolverBatchSize bounds how many pending work items one pass polls
	resolverBatchSize = 50
	// workItemRetention is how long resolved work items stay queryable
	workItemRetention = 30 * 24 * time.Hour
	// cleanupInterval is how often resolved work items are pruned
	cleanupInterval = time.Hour
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting sync worker",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	connRepo := persistence.NewGormConnectionRepository(db.DB)
	recordRepo := persistence.NewGormSyncRecordRepository(db.DB)
	workRepo := persistence.NewGormWorkItemRepository(db.DB)

	// Platform connector registry
	registry := connectors.NewDefaultRegistry(cfg.Connector.RequestTimeout)

	// Poll guard store: Redis when available, in-memory fallback unless
	// the deployment requires the shared guard
	guardFactory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.Connector.RequirePollGuardRedis),
	)
	pollGuard, err := guardFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create poll-guard store", zap.Error(err))
	}
	defer func() {
		if err := pollGuard.Close(); err != nil {
			log.Error("Error closing poll-guard store", zap.Error(err))
		}
	}()

	workItems := syncapp.NewWorkItemService(workRepo, recordRepo, connRepo, registry, pollGuard, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go runCleanup(ctx, workRepo, log)

	log.Info("Work-item resolver started",
		zap.Duration("interval", cfg.Connector.PollInterval),
		zap.Int("batch_size", resolverBatchSize),
	)
	runResolver(ctx, workRepo, workItems, cfg.Connector.PollInterval, log)

	log.Info("Sync worker stopped")
}

// runResolver works the pending work-item backlog until the context ends.
// Each pass polls the oldest unresolved items; a single item's failure is
// logged and the pass continues.
func runResolver(
	ctx context.Context,
	workRepo *persistence.GormWorkItemRepository,
	workItems *syncapp.WorkItemServiceImpl,
	interval time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pending, err := workRepo.FindPendingAll(ctx, resolverBatchSize)
			if err != nil {
				log.Error("Failed to list pending work items", zap.Error(err))
				continue
			}
			for i := range pending {
				item := &pending[i]
				if _, err := workItems.Poll(ctx, item.TenantID, item.ID); err != nil {
					log.Warn("Work-item poll failed",
						zap.String("work_item_id", item.ID.String()),
						zap.String("external_work_id", item.ExternalWorkID),
						zap.Error(err),
					)
				}
				if ctx.Err() != nil {
					return
				}
			}
		}
	}
}

// runCleanup prunes resolved work items past the retention window
func runCleanup(ctx context.Context, workRepo *persistence.GormWorkItemRepository, log *zap.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-workItemRetention)
			removed, err := workRepo.DeleteOlderThan(ctx, cutoff)
			if err != nil {
				log.Error("Work-item cleanup failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				log.Info("Pruned resolved work items", zap.Int64("removed", removed))
			}
		}
	}
}
