package notifier

import (
	"context"
	"time"
)

// PriceAlertMessage 价格报警通知内容
type PriceAlertMessage struct {
	Address       string    // 收件地址
	Symbol        string    // 标的 ticker
	Company       string    // 公司名
	Condition     string    // 'greater' | 'less'
	CurrentPrice  float64   // 触发时的实时价格
	TargetPrice   float64   // 报警阈值
	ChangePercent float64   // 当日涨跌幅（%）
	TriggeredAt   time.Time // 触发时间
}

// Dispatcher 通知发送接口
type Dispatcher interface {
	// SendPriceAlert 发送一条价格报警通知，失败返回错误
	SendPriceAlert(ctx context.Context, msg PriceAlertMessage) error
}
