package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// finnhubQuote Finnhub /quote 接口响应
// c = 当前价格, d = 涨跌额, dp = 涨跌幅(%), t = 时间戳
type finnhubQuote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PrevClose     float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// FinnhubClient Finnhub 行情 API 客户端
type FinnhubClient struct {
	httpClient *resty.Client
	apiKey     string
	logger     *zap.Logger
}

// NewFinnhubClient 创建 Finnhub 客户端
func NewFinnhubClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *FinnhubClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &FinnhubClient{
		httpClient: client,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// 确保实现了接口
var _ Provider = (*FinnhubClient)(nil)

// GetQuote 获取单个 symbol 的实时行情
func (c *FinnhubClient) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	var response finnhubQuote
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetQueryParam("token", c.apiKey).
		SetResult(&response).
		Get("/quote")

	if err != nil {
		c.logger.Warn("Finnhub API call failed",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s: %v", ErrQuoteUnavailable, symbol, err)
	}

	if resp.IsError() {
		c.logger.Warn("Finnhub API returned error status",
			zap.String("symbol", symbol),
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, fmt.Errorf("%w: %s: status %d", ErrQuoteUnavailable, symbol, resp.StatusCode())
	}

	// Finnhub 对未知 symbol 返回全零而不是错误
	if response.Current == 0 {
		return nil, fmt.Errorf("%w: %s: no price data", ErrQuoteUnavailable, symbol)
	}

	return &Quote{
		Symbol:        symbol,
		Price:         response.Current,
		ChangePercent: response.ChangePercent,
	}, nil
}
