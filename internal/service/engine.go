package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"inkomba-alerts/internal/config"
	"inkomba-alerts/internal/notifier"
	"inkomba-alerts/internal/quote"
	"inkomba-alerts/internal/reconciler"
	"inkomba-alerts/internal/repository"
	"inkomba-alerts/internal/scheduler"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	_ "github.com/lib/pq"
)

// Engine 报警引擎（整合各层）
type Engine struct {
	config      *config.Config
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger

	// 各层组件
	alertsRepo    repository.AlertsRepository
	usersRepo     repository.UsersRepository
	watchlistRepo repository.WatchlistRepository
	quoteProvider quote.Provider
	dispatcher    notifier.Dispatcher
	reconciler    *reconciler.Reconciler
	scheduler     *scheduler.Scheduler

	// 外围服务
	alertService     *AlertService
	watchlistService *WatchlistService
}

// NewEngine 创建报警引擎
func NewEngine(cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	// 1. 连接数据库
	db, err := sql.Open("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.Database.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxConns)
	}
	if cfg.Database.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.Database.MaxIdle)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 2. 连接 Redis（行情缓存）
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 3. 创建 Repository 层
	alertsRepo := repository.NewPostgresAlertsRepository(db, logger)
	usersRepo := repository.NewPostgresUsersRepository(db)
	watchlistRepo := repository.NewPostgresWatchlistRepository(db)

	// 4. 创建行情数据源（Finnhub + Redis 短 TTL 缓存）
	callTimeout := time.Duration(cfg.Quote.Timeout) * time.Second
	var quoteProvider quote.Provider = quote.NewFinnhubClient(
		cfg.Quote.BaseURL,
		cfg.Quote.APIKey,
		callTimeout,
		logger,
	)
	if cfg.Quote.CacheTTL > 0 {
		quoteProvider = quote.NewCachedProvider(
			quoteProvider,
			redisClient,
			time.Duration(cfg.Quote.CacheTTL)*time.Second,
			logger,
		)
	}

	// 5. 创建通知发送器
	dispatcher := notifier.NewMailer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
		cfg.SMTP.From,
		logger,
	)

	// 6. 创建对账器和调度器
	rec := reconciler.NewReconciler(
		alertsRepo,
		usersRepo,
		quoteProvider,
		dispatcher,
		cfg.Reconcile.Concurrency,
		callTimeout,
		logger,
	)
	sched := scheduler.NewScheduler(
		rec,
		time.Duration(cfg.Reconcile.Interval)*time.Second,
		cfg.Reconcile.MaxRetries,
		logger,
	)

	return &Engine{
		config:           cfg,
		db:               db,
		redisClient:      redisClient,
		logger:           logger,
		alertsRepo:       alertsRepo,
		usersRepo:        usersRepo,
		watchlistRepo:    watchlistRepo,
		quoteProvider:    quoteProvider,
		dispatcher:       dispatcher,
		reconciler:       rec,
		scheduler:        sched,
		alertService:     NewAlertService(alertsRepo, logger),
		watchlistService: NewWatchlistService(watchlistRepo, logger),
	}, nil
}

// Start 启动调度循环（阻塞直到 ctx 取消）
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info("Starting alert engine")
	return e.scheduler.Start(ctx)
}

// Stop 停止服务并释放连接
func (e *Engine) Stop() error {
	e.logger.Info("Stopping alert engine")

	// 等待在途的合并切换落库
	e.watchlistService.Flush()

	if err := e.db.Close(); err != nil {
		e.logger.Error("Failed to close database",
			zap.Error(err),
		)
	}
	if err := e.redisClient.Close(); err != nil {
		e.logger.Error("Failed to close redis",
			zap.Error(err),
		)
	}

	return nil
}

// Scheduler 调度器（HTTP 手动触发接口使用）
func (e *Engine) Scheduler() *scheduler.Scheduler {
	return e.scheduler
}

// AlertService 报警 CRUD 服务
func (e *Engine) AlertService() *AlertService {
	return e.alertService
}

// WatchlistService 自选股服务
func (e *Engine) WatchlistService() *WatchlistService {
	return e.watchlistService
}
