package domain

import "time"

// 报警条件（针对实时价格的单边不等式）
const (
	ConditionGreater = "greater" // price >= threshold 时触发
	ConditionLess    = "less"    // price <= threshold 时触发
)

// AlertTypePrice 目前唯一支持的报警类型
const AlertTypePrice = "price"

// Alert 价格报警领域模型（对应 alerts 表）
type Alert struct {
	// 主键
	AlertID string `db:"alert_id"` // UUID, PRIMARY KEY

	// 归属用户（每条报警有且仅有一个 owner，不共享）
	UserID string `db:"user_id"` // NOT NULL

	// 标的
	Symbol  string `db:"symbol"`  // VARCHAR(16), 大写 ticker
	Company string `db:"company"` // 显示用公司名

	// 报警定义
	AlertName    string  `db:"alert_name"`    // 显示名
	AlertType    string  `db:"alert_type"`    // 目前固定为 'price'
	Condition    string  `db:"condition"`     // 'greater' | 'less'
	Threshold    float64 `db:"threshold"`     // 阈值
	CurrentPrice float64 `db:"current_price"` // 创建时的价格（仅上下文，不参与评估）

	// 生命周期状态
	// Active:    is_active=true,  triggered_at=NULL
	// Triggered: is_active=false, triggered_at 已设置
	IsActive    bool       `db:"is_active"`
	TriggeredAt *time.Time `db:"triggered_at"` // TIMESTAMPTZ, nullable

	// 时间戳
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ShouldTrigger 判断报警在给定实时价格下是否触发
// 边界为闭区间：价格恰好等于阈值时两种条件都会触发（无滞回）
func (a *Alert) ShouldTrigger(price float64) bool {
	if a.AlertType != AlertTypePrice {
		return false
	}
	switch a.Condition {
	case ConditionGreater:
		return price >= a.Threshold
	case ConditionLess:
		return price <= a.Threshold
	default:
		return false
	}
}
