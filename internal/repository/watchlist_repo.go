package repository

import (
	"context"

	"inkomba-alerts/internal/domain"
)

// WatchlistRepository 自选股Repository接口
// 每个 (user_id, symbol) 组合唯一，区别于可重复的报警记录
type WatchlistRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*domain.WatchlistItem, error)
	ListSymbolsByUser(ctx context.Context, userID string) ([]string, error)
	AddItem(ctx context.Context, item *domain.WatchlistItem) (string, error)
	RemoveItem(ctx context.Context, userID, symbol string) error
}
