package scheduler

import (
	"context"
	"time"

	"inkomba-alerts/internal/reconciler"

	"go.uber.org/zap"
)

// 周期触发来源
const (
	SourceTimer  = "timer"  // 固定间隔
	SourceManual = "manual" // 外部显式请求
)

// CycleRunner 被调度的对账周期（对触发来源无感知）
type CycleRunner interface {
	RunCycle(ctx context.Context) (*reconciler.RunSummary, error)
}

// Scheduler 对账调度器
// 定时器与外部请求两个触发源共用同一个执行入口；周期执行不持有
// 全局锁，慢周期与下一次触发可以重叠（正确性由存储层的原子条件
// 转移保证）
type Scheduler struct {
	runner     CycleRunner
	interval   time.Duration
	maxRetries int // Load 失败时的整周期重试上限
	logger     *zap.Logger

	triggerChan chan string
}

// NewScheduler 创建调度器
func NewScheduler(runner CycleRunner, interval time.Duration, maxRetries int, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Scheduler{
		runner:      runner,
		interval:    interval,
		maxRetries:  maxRetries,
		logger:      logger,
		triggerChan: make(chan string, 8),
	}
}

// Trigger 请求立即执行一次周期（非阻塞；队列满时丢弃并返回 false）
func (s *Scheduler) Trigger(source string) bool {
	select {
	case s.triggerChan <- source:
		return true
	default:
		s.logger.Warn("Trigger queue full, dropping request",
			zap.String("source", source),
		)
		return false
	}
}

// Start 运行调度循环直到 ctx 取消
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Scheduler started",
		zap.Duration("interval", s.interval),
		zap.Int("max_retries", s.maxRetries),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// 启动时立即执行一次
	s.runOnce(ctx, SourceTimer)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return nil
		case <-ticker.C:
			s.runOnce(ctx, SourceTimer)
		case source := <-s.triggerChan:
			s.runOnce(ctx, source)
		}
	}
}

// RunNow 同步执行一次周期（含重试），返回汇总
// HTTP 手动触发接口使用
func (s *Scheduler) RunNow(ctx context.Context) (*reconciler.RunSummary, error) {
	return s.runWithRetry(ctx, SourceManual)
}

// runOnce 执行一次周期，错误只记录日志，不中断调度循环
func (s *Scheduler) runOnce(ctx context.Context, source string) {
	if _, err := s.runWithRetry(ctx, source); err != nil {
		s.logger.Error("Reconcile cycle failed after retries",
			zap.String("source", source),
			zap.Error(err),
		)
	}
}

// runWithRetry 执行周期，仅对致命的 Load 失败做有界重试
// 带部分单项失败的成功周期绝不整体重试：触发的报警已经转移，重跑
// 会对其余报警重复评估，却无法挽回已丢失的通知
func (s *Scheduler) runWithRetry(ctx context.Context, source string) (*reconciler.RunSummary, error) {
	var lastErr error

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Warn("Retrying reconcile cycle",
				zap.String("source", source),
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		summary, err := s.runner.RunCycle(ctx)
		if err == nil {
			return summary, nil
		}
		lastErr = err
	}

	return nil, lastErr
}
