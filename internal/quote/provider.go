package quote

import (
	"context"
	"errors"
)

// ErrQuoteUnavailable 行情暂时不可用（单 symbol 级别的瞬态失败）
var ErrQuoteUnavailable = errors.New("quote unavailable")

// Quote 实时行情快照
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`          // 当前价格
	ChangePercent float64 `json:"change_percent"` // 当日涨跌幅（%）
}

// Provider 行情数据源接口
type Provider interface {
	// GetQuote 获取单个 symbol 的实时行情
	// 数据源不可用或无数据时返回包装了 ErrQuoteUnavailable 的错误
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
}
