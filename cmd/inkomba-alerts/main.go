package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkomba-alerts/internal/config"
	httpapi "inkomba-alerts/internal/http"
	"inkomba-alerts/internal/service"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. 初始化日志
	logger, err := initLogger(cfg)
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	// 3. 创建报警引擎（数据库/Redis/行情/通知/调度）
	engine, err := service.NewEngine(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create alert engine",
			zap.Error(err),
		)
	}
	defer engine.Stop()

	// 4. 组装 HTTP API
	router := httpapi.NewRouter(logger)
	router.RegisterAlertRoutes(httpapi.NewAlertHandler(engine.AlertService(), logger))
	router.RegisterWatchlistRoutes(httpapi.NewWatchlistHandler(engine.WatchlistService(), logger))
	router.RegisterReconcileRoutes(httpapi.NewReconcileHandler(engine.Scheduler(), logger))
	server := service.NewServer(cfg.HTTP.Addr, router, logger)

	// 5. 创建上下文（支持优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 6. 启动调度循环和 HTTP 服务
	errChan := make(chan error, 2)
	go func() {
		if err := engine.Start(ctx); err != nil {
			errChan <- err
		}
	}()
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// 7. 等待信号（优雅关闭）
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down",
			zap.String("signal", sig.String()),
		)
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Stop(shutdownCtx); err != nil {
			logger.Error("Failed to stop HTTP server",
				zap.Error(err),
			)
		}
	case err := <-errChan:
		logger.Fatal("Service error",
			zap.Error(err),
		)
	}

	logger.Info("Alert service stopped")
}

// initLogger 初始化日志
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch cfg.Log.Level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Log.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "timestamp"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	return logger.With(zap.String("service_name", "inkomba-alerts")), nil
}
