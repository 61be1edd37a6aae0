package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// 行情缓存键格式："inkomba:quote:<SYMBOL>"
const quoteKeyPrefix = "inkomba:quote:"

// CachedProvider 带 Redis 缓存的行情数据源
// 短 TTL 缓存：同一 symbol 在 TTL 内的重复查询命中缓存，降低上游 API 配额消耗
// 缓存读写失败只降级为直连上游，不向调用方暴露
type CachedProvider struct {
	upstream    Provider
	redisClient *redis.Client
	ttl         time.Duration
	logger      *zap.Logger
}

// NewCachedProvider 创建带缓存的行情数据源
func NewCachedProvider(upstream Provider, redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedProvider {
	return &CachedProvider{
		upstream:    upstream,
		redisClient: redisClient,
		ttl:         ttl,
		logger:      logger,
	}
}

// 确保实现了接口
var _ Provider = (*CachedProvider)(nil)

// GetQuote 获取行情（优先缓存）
func (p *CachedProvider) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	key := quoteKeyPrefix + symbol

	val, err := p.redisClient.Get(ctx, key).Result()
	if err == nil {
		var cached Quote
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			return &cached, nil
		}
		// 缓存内容损坏，当作未命中处理
		p.logger.Warn("Failed to unmarshal cached quote",
			zap.String("symbol", symbol),
		)
	} else if err != redis.Nil {
		p.logger.Warn("Failed to read quote cache",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
	}

	q, err := p.upstream.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if err := p.put(ctx, key, q); err != nil {
		p.logger.Warn("Failed to write quote cache",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
	}

	return q, nil
}

func (p *CachedProvider) put(ctx context.Context, key string, q *Quote) error {
	jsonData, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	if err := p.redisClient.Set(ctx, key, jsonData, p.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set quote cache: %w", err)
	}

	return nil
}
