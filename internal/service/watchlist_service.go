package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inkomba-alerts/internal/domain"
	"inkomba-alerts/internal/repository"

	"go.uber.org/zap"
)

// WatchlistService 自选股服务
// 每个 (user, symbol) 组合唯一；快速连续的 star/unstar 切换经
// ToggleQueue 合并，只有最后的状态落库
type WatchlistService struct {
	watchlistRepo repository.WatchlistRepository
	toggles       *ToggleQueue
	logger        *zap.Logger
}

// NewWatchlistService 创建自选股服务
func NewWatchlistService(watchlistRepo repository.WatchlistRepository, logger *zap.Logger) *WatchlistService {
	return &WatchlistService{
		watchlistRepo: watchlistRepo,
		toggles:       NewToggleQueue(300*time.Millisecond, logger),
		logger:        logger,
	}
}

// ListWatchlist 获取用户自选股
func (s *WatchlistService) ListWatchlist(ctx context.Context, userID string) ([]*domain.WatchlistItem, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	return s.watchlistRepo.ListByUser(ctx, userID)
}

// ListSymbols 获取用户自选股 symbol 列表
func (s *WatchlistService) ListSymbols(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	return s.watchlistRepo.ListSymbolsByUser(ctx, userID)
}

// AddSymbol 添加自选股（已存在时幂等）
func (s *WatchlistService) AddSymbol(ctx context.Context, userID, symbol, company string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user_id is required")
	}
	if strings.TrimSpace(symbol) == "" {
		return "", fmt.Errorf("symbol is required")
	}

	return s.watchlistRepo.AddItem(ctx, &domain.WatchlistItem{
		UserID:  userID,
		Symbol:  symbol,
		Company: company,
	})
}

// RemoveSymbol 移除自选股
func (s *WatchlistService) RemoveSymbol(ctx context.Context, userID, symbol string) error {
	if userID == "" || strings.TrimSpace(symbol) == "" {
		return fmt.Errorf("user_id and symbol are required")
	}
	return s.watchlistRepo.RemoveItem(ctx, userID, symbol)
}

// ToggleDeferred 提交一次合并式切换：want=true 加入，want=false 移除
// 同一 (user, symbol) 的连续提交只有最后一次生效；失败经 onError 上报
func (s *WatchlistService) ToggleDeferred(ctx context.Context, userID, symbol, company string, want bool, onError func(err error)) {
	key := userID + ":" + strings.ToUpper(strings.TrimSpace(symbol))

	s.toggles.Submit(ctx, key, func(ctx context.Context) error {
		if want {
			_, err := s.AddSymbol(ctx, userID, symbol, company)
			return err
		}
		return s.RemoveSymbol(ctx, userID, symbol)
	}, onError)
}

// Flush 等待在途的合并切换落库（优雅关闭时调用）
func (s *WatchlistService) Flush() {
	s.toggles.Flush()
}
