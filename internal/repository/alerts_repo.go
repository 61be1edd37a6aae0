package repository

import (
	"context"

	"inkomba-alerts/internal/domain"
)

// AlertsRepository 价格报警Repository接口
// 使用强类型领域模型，不使用map[string]any
type AlertsRepository interface {
	// 对账周期使用的操作
	ListActive(ctx context.Context) ([]*domain.Alert, error)

	// TryMarkTriggered 原子条件转移：Active → Triggered
	// 仅当 is_active 仍为 true 时写入 is_active=false, triggered_at=now()
	// 返回本次调用是否真正完成了转移（false 表示已被并发周期抢先）
	TryMarkTriggered(ctx context.Context, alertID string) (bool, error)

	// Reactivate 用户触发的转移：Triggered → Active，清空 triggered_at
	Reactivate(ctx context.Context, userID, alertID string) error

	// 外围 CRUD（watchlist 页面使用）
	GetAlert(ctx context.Context, userID, alertID string) (*domain.Alert, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Alert, error)
	CreateAlert(ctx context.Context, alert *domain.Alert) (string, error)
	UpdateAlert(ctx context.Context, userID, alertID string, upd AlertUpdate) error
	DeleteAlert(ctx context.Context, userID, alertID string) error
	SetActive(ctx context.Context, userID, alertID string, active bool) error
}

// AlertUpdate 报警可修改字段（alert.actions 语义：只改定义，不改标的）
type AlertUpdate struct {
	AlertName string
	AlertType string
	Condition string
	Threshold float64
}
