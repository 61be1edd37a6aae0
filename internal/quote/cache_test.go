package quote

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeProvider 记录调用次数的假数据源
type fakeProvider struct {
	calls int
	quote *Quote
	err   error
}

func (f *fakeProvider) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	q := *f.quote
	q.Symbol = symbol
	return &q, nil
}

func setupCachedProvider(t *testing.T) (*miniredis.Miniredis, *fakeProvider, *CachedProvider) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	upstream := &fakeProvider{quote: &Quote{Price: 105.0, ChangePercent: 1.5}}
	cached := NewCachedProvider(upstream, redisClient, 60*time.Second, zap.NewNop())

	return mr, upstream, cached
}

func TestCachedProvider_MissThenHit(t *testing.T) {
	_, upstream, cached := setupCachedProvider(t)
	ctx := context.Background()

	// 首次未命中，走上游
	q, err := cached.GetQuote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 105.0, q.Price)
	assert.Equal(t, 1, upstream.calls)

	// TTL 内第二次命中缓存，不再调上游
	q, err = cached.GetQuote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 105.0, q.Price)
	assert.Equal(t, 1, upstream.calls)
}

func TestCachedProvider_DistinctSymbols(t *testing.T) {
	_, upstream, cached := setupCachedProvider(t)
	ctx := context.Background()

	_, err := cached.GetQuote(ctx, "AAPL")
	require.NoError(t, err)
	_, err = cached.GetQuote(ctx, "MSFT")
	require.NoError(t, err)

	// 不同 symbol 各自回源一次
	assert.Equal(t, 2, upstream.calls)
}

func TestCachedProvider_ExpiredEntryRefetches(t *testing.T) {
	mr, upstream, cached := setupCachedProvider(t)
	ctx := context.Background()

	_, err := cached.GetQuote(ctx, "AAPL")
	require.NoError(t, err)

	mr.FastForward(61 * time.Second)

	_, err = cached.GetQuote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.calls)
}

func TestCachedProvider_UpstreamErrorNotCached(t *testing.T) {
	_, upstream, cached := setupCachedProvider(t)
	upstream.err = ErrQuoteUnavailable
	ctx := context.Background()

	_, err := cached.GetQuote(ctx, "AAPL")
	assert.ErrorIs(t, err, ErrQuoteUnavailable)

	// 失败不落缓存，恢复后能取到新值
	upstream.err = nil
	q, err := cached.GetQuote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 105.0, q.Price)
}

func TestCachedProvider_CorruptEntryFallsThrough(t *testing.T) {
	mr, upstream, cached := setupCachedProvider(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(quoteKeyPrefix+"AAPL", "not-json"))

	q, err := cached.GetQuote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 105.0, q.Price)
	assert.Equal(t, 1, upstream.calls)

	// 回源后缓存被修复
	val, err := mr.Get(quoteKeyPrefix + "AAPL")
	require.NoError(t, err)
	var fixed Quote
	require.NoError(t, json.Unmarshal([]byte(val), &fixed))
	assert.Equal(t, 105.0, fixed.Price)
}
