package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ToggleQueue 按条目 id 合并快速连续的切换请求
// 每次提交使该 id 的代数加一并推迟执行；延迟窗口结束时只有仍是
// 最新代数的那次提交会真正执行，被后续提交覆盖的代数静默放弃。
// 执行失败时通过 rollback 回调通知调用方恢复到最后确认的状态
type ToggleQueue struct {
	mu     sync.Mutex
	delay  time.Duration
	gens   map[string]uint64
	logger *zap.Logger

	wg sync.WaitGroup // 测试用：等待在途动作结束
}

// NewToggleQueue 创建合并队列
func NewToggleQueue(delay time.Duration, logger *zap.Logger) *ToggleQueue {
	return &ToggleQueue{
		delay:  delay,
		gens:   make(map[string]uint64),
		logger: logger,
	}
}

// Submit 提交一次切换动作
// apply 在延迟窗口后执行（若期间没有更新的提交）；失败时调用 rollback
func (q *ToggleQueue) Submit(ctx context.Context, id string, apply func(ctx context.Context) error, rollback func(err error)) {
	q.mu.Lock()
	q.gens[id]++
	gen := q.gens[id]
	q.mu.Unlock()

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()

		select {
		case <-ctx.Done():
			return
		case <-time.After(q.delay):
		}

		q.mu.Lock()
		latest := q.gens[id] == gen
		q.mu.Unlock()
		if !latest {
			// 已被更新的提交覆盖
			return
		}

		if err := apply(ctx); err != nil {
			q.logger.Warn("Deferred toggle failed, rolling back",
				zap.String("id", id),
				zap.Error(err),
			)
			if rollback != nil {
				rollback(err)
			}
		}
	}()
}

// Flush 等待所有在途动作结束（测试与优雅关闭使用）
func (q *ToggleQueue) Flush() {
	q.wg.Wait()
}
