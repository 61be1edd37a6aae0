package reconciler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inkomba-alerts/internal/domain"
	"inkomba-alerts/internal/notifier"
	"inkomba-alerts/internal/quote"
)

// fakeStore 内存报警存储；TryMarkTriggered 在互斥锁下做条件转移，
// 语义与 postgres 的条件 UPDATE 一致，可被两个并发周期共享
type fakeStore struct {
	mu      sync.Mutex
	alerts  []*domain.Alert
	listErr error
	markErr map[string]error
}

func (s *fakeStore) ListActive(ctx context.Context) ([]*domain.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]*domain.Alert, 0)
	for _, a := range s.alerts {
		if a.IsActive {
			snapshot := *a
			out = append(out, &snapshot)
		}
	}
	return out, nil
}

func (s *fakeStore) TryMarkTriggered(ctx context.Context, alertID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.markErr[alertID]; err != nil {
		return false, err
	}
	for _, a := range s.alerts {
		if a.AlertID == alertID && a.IsActive {
			now := time.Now()
			a.IsActive = false
			a.TriggeredAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) get(alertID string) *domain.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.alerts {
		if a.AlertID == alertID {
			return a
		}
	}
	return nil
}

func (s *fakeStore) reactivate(alertID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.alerts {
		if a.AlertID == alertID {
			a.IsActive = true
			a.TriggeredAt = nil
		}
	}
}

// fakeQuotes 固定价格表，记录每个 symbol 的调用次数
type fakeQuotes struct {
	mu     sync.Mutex
	prices map[string]float64
	errs   map[string]error
	calls  map[string]int
}

func (q *fakeQuotes) GetQuote(ctx context.Context, symbol string) (*quote.Quote, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.calls == nil {
		q.calls = make(map[string]int)
	}
	q.calls[symbol]++
	if err := q.errs[symbol]; err != nil {
		return nil, err
	}
	price, ok := q.prices[symbol]
	if !ok {
		return nil, quote.ErrQuoteUnavailable
	}
	return &quote.Quote{Symbol: symbol, Price: price, ChangePercent: 1.0}, nil
}

func (q *fakeQuotes) totalCalls() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, c := range q.calls {
		n += c
	}
	return n
}

// fakeDirectory user_id → email
type fakeDirectory struct {
	emails map[string]string
}

func (d *fakeDirectory) ResolveEmail(ctx context.Context, userID string) (string, error) {
	email, ok := d.emails[userID]
	if !ok {
		return "", errors.New("user not found")
	}
	return email, nil
}

// fakeDispatcher 记录发送的通知，可按 alert 的 symbol 注入失败
type fakeDispatcher struct {
	mu      sync.Mutex
	sent    []notifier.PriceAlertMessage
	failFor map[string]error
}

func (d *fakeDispatcher) SendPriceAlert(ctx context.Context, msg notifier.PriceAlertMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failFor[msg.Symbol]; err != nil {
		return err
	}
	d.sent = append(d.sent, msg)
	return nil
}

func newTestReconciler(store *fakeStore, quotes *fakeQuotes, dir *fakeDirectory, disp *fakeDispatcher) *Reconciler {
	return NewReconciler(store, dir, quotes, disp, 4, time.Second, zap.NewNop())
}

func activeAlert(id, userID, symbol, condition string, threshold float64) *domain.Alert {
	return &domain.Alert{
		AlertID:   id,
		UserID:    userID,
		Symbol:    symbol,
		Company:   symbol + " Inc",
		AlertName: "test",
		AlertType: domain.AlertTypePrice,
		Condition: condition,
		Threshold: threshold,
		IsActive:  true,
	}
}

// 场景A：3 条报警、2 个 symbol → 2 次行情请求、1 条触发、1 次通知
func TestRunCycle_ScenarioA(t *testing.T) {
	store := &fakeStore{alerts: []*domain.Alert{
		activeAlert("a1", "u1", "AAPL", domain.ConditionGreater, 100),
		activeAlert("a2", "u1", "AAPL", domain.ConditionLess, 90),
		activeAlert("a3", "u2", "MSFT", domain.ConditionGreater, 300),
	}}
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 105, "MSFT": 295}}
	dir := &fakeDirectory{emails: map[string]string{"u1": "u1@example.com", "u2": "u2@example.com"}}
	disp := &fakeDispatcher{}

	summary, err := newTestReconciler(store, quotes, dir, disp).RunCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, summary.AlertsChecked)
	assert.Equal(t, 1, summary.AlertsTriggered)
	assert.Equal(t, 1, summary.NotificationsSent)
	assert.Equal(t, 0, summary.NotificationsFailed)
	assert.Empty(t, summary.Errors)

	// 行情请求数 = 不同 symbol 数
	assert.Equal(t, 2, quotes.totalCalls())

	require.Len(t, disp.sent, 1)
	assert.Equal(t, "AAPL", disp.sent[0].Symbol)
	assert.Equal(t, "u1@example.com", disp.sent[0].Address)
	assert.Equal(t, 105.0, disp.sent[0].CurrentPrice)
	assert.Equal(t, 100.0, disp.sent[0].TargetPrice)

	// 触发的报警已转为 Triggered
	a1 := store.get("a1")
	assert.False(t, a1.IsActive)
	assert.NotNil(t, a1.TriggeredAt)
	assert.True(t, store.get("a2").IsActive)
	assert.True(t, store.get("a3").IsActive)
}

// 场景B：两个重叠周期观察到同一条 Active 报警，只有一个赢得转移，只发一次通知
func TestRunCycle_ScenarioB_OverlappingCycles(t *testing.T) {
	store := &fakeStore{alerts: []*domain.Alert{
		activeAlert("a1", "u1", "AAPL", domain.ConditionGreater, 100),
	}}
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 105}}
	dir := &fakeDirectory{emails: map[string]string{"u1": "u1@example.com"}}
	disp := &fakeDispatcher{}

	r1 := newTestReconciler(store, quotes, dir, disp)
	r2 := newTestReconciler(store, quotes, dir, disp)

	// 两个周期并发执行，都可能观察到 a1 为 Active
	var wg sync.WaitGroup
	summaries := make([]*RunSummary, 2)
	errs := make([]error, 2)
	for i, r := range []*Reconciler{r1, r2} {
		wg.Add(1)
		go func(i int, r *Reconciler) {
			defer wg.Done()
			summaries[i], errs[i] = r.RunCycle(context.Background())
		}(i, r)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// 至多一个周期赢得转移；通知数与赢得的转移数一致，绝不重复发送
	totalTriggered := summaries[0].AlertsTriggered + summaries[1].AlertsTriggered
	totalSent := summaries[0].NotificationsSent + summaries[1].NotificationsSent
	assert.LessOrEqual(t, totalTriggered, 1)
	assert.Equal(t, totalTriggered, totalSent)
	assert.Equal(t, totalSent, len(disp.sent))
	assert.False(t, store.get("a1").IsActive)
}

// 场景B（确定性版本）：同一快照下两次转移只成功一次
func TestTryMarkTriggered_AtMostOnce(t *testing.T) {
	store := &fakeStore{alerts: []*domain.Alert{
		activeAlert("a1", "u1", "AAPL", domain.ConditionGreater, 100),
	}}

	ok, err := store.TryMarkTriggered(context.Background(), "a1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.TryMarkTriggered(context.Background(), "a1")
	require.NoError(t, err)
	assert.False(t, ok)
}

// 场景C：一个 symbol 行情失败只跳过该 symbol，其余正常处理
func TestRunCycle_ScenarioC_QuoteFailureIsolated(t *testing.T) {
	store := &fakeStore{alerts: []*domain.Alert{
		activeAlert("x1", "u1", "XBAD", domain.ConditionGreater, 10),
		activeAlert("a1", "u1", "AAPL", domain.ConditionGreater, 100),
	}}
	quotes := &fakeQuotes{
		prices: map[string]float64{"AAPL": 105},
		errs:   map[string]error{"XBAD": quote.ErrQuoteUnavailable},
	}
	dir := &fakeDirectory{emails: map[string]string{"u1": "u1@example.com"}}
	disp := &fakeDispatcher{}

	summary, err := newTestReconciler(store, quotes, dir, disp).RunCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.AlertsChecked)
	assert.Equal(t, 1, summary.AlertsTriggered)
	assert.Equal(t, 1, summary.NotificationsSent)

	require.Len(t, summary.Errors, 1)
	assert.Equal(t, StageQuote, summary.Errors[0].Stage)
	assert.Equal(t, "XBAD", summary.Errors[0].Symbol)

	// 失败 symbol 的报警保持 Active，下个周期自然重试
	assert.True(t, store.get("x1").IsActive)
	assert.False(t, store.get("a1").IsActive)
}

// 场景D：重新激活后，相同阈值的行情再次触发（无滞回）
func TestRunCycle_ScenarioD_ReactivateRetriggers(t *testing.T) {
	store := &fakeStore{alerts: []*domain.Alert{
		activeAlert("a1", "u1", "AAPL", domain.ConditionGreater, 100),
	}}
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 100}} // 恰好等于阈值
	dir := &fakeDirectory{emails: map[string]string{"u1": "u1@example.com"}}
	disp := &fakeDispatcher{}

	r := newTestReconciler(store, quotes, dir, disp)

	summary, err := r.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.AlertsTriggered)

	// Triggered → Active
	store.reactivate("a1")

	summary, err = r.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.AlertsTriggered)
	assert.Len(t, disp.sent, 2)
}

// 边界：价格恰好等于阈值时 greater 和 less 都触发（闭区间）
func TestRunCycle_InclusiveBoundaries(t *testing.T) {
	store := &fakeStore{alerts: []*domain.Alert{
		activeAlert("g1", "u1", "AAPL", domain.ConditionGreater, 100),
		activeAlert("l1", "u1", "AAPL", domain.ConditionLess, 100),
	}}
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 100}}
	dir := &fakeDirectory{emails: map[string]string{"u1": "u1@example.com"}}
	disp := &fakeDispatcher{}

	summary, err := newTestReconciler(store, quotes, dir, disp).RunCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.AlertsTriggered)
	assert.Equal(t, 2, summary.NotificationsSent)
}

func TestRunCycle_NoTriggers(t *testing.T) {
	store := &fakeStore{alerts: []*domain.Alert{
		activeAlert("a1", "u1", "AAPL", domain.ConditionGreater, 200),
		activeAlert("a2", "u1", "AAPL", domain.ConditionLess, 50),
	}}
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 105}}
	dir := &fakeDirectory{emails: map[string]string{"u1": "u1@example.com"}}
	disp := &fakeDispatcher{}

	summary, err := newTestReconciler(store, quotes, dir, disp).RunCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.AlertsChecked)
	assert.Equal(t, 0, summary.AlertsTriggered)
	assert.Empty(t, disp.sent)
	assert.Equal(t, 1, quotes.totalCalls())
}

// Load 失败是致命错误：无汇总，错误上抛给调度器
func TestRunCycle_LoadFailureIsFatal(t *testing.T) {
	store := &fakeStore{listErr: errors.New("connection refused")}

	summary, err := newTestReconciler(store, &fakeQuotes{}, &fakeDirectory{}, &fakeDispatcher{}).RunCycle(context.Background())

	assert.Error(t, err)
	assert.Nil(t, summary)
	assert.Contains(t, err.Error(), "failed to load active alerts")
}

// 地址解析失败：记录为投递失败，报警保持 Triggered（已知的 at-most-once 缺口）
func TestRunCycle_ResolveFailureRecorded(t *testing.T) {
	store := &fakeStore{alerts: []*domain.Alert{
		activeAlert("a1", "ghost", "AAPL", domain.ConditionGreater, 100),
		activeAlert("a2", "u1", "MSFT", domain.ConditionGreater, 200),
	}}
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 105, "MSFT": 250}}
	dir := &fakeDirectory{emails: map[string]string{"u1": "u1@example.com"}}
	disp := &fakeDispatcher{}

	summary, err := newTestReconciler(store, quotes, dir, disp).RunCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.AlertsTriggered)
	assert.Equal(t, 1, summary.NotificationsSent)
	assert.Equal(t, 1, summary.NotificationsFailed)

	require.Len(t, summary.Errors, 1)
	assert.Equal(t, StageResolve, summary.Errors[0].Stage)
	assert.Equal(t, "a1", summary.Errors[0].AlertID)

	// 解析失败不回滚状态转移
	assert.False(t, store.get("a1").IsActive)
}

// 发送失败不阻塞其它通知，失败的报警保持 Triggered
func TestRunCycle_DispatchFailureIsolated(t *testing.T) {
	store := &fakeStore{alerts: []*domain.Alert{
		activeAlert("a1", "u1", "AAPL", domain.ConditionGreater, 100),
		activeAlert("a2", "u1", "MSFT", domain.ConditionGreater, 200),
	}}
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 105, "MSFT": 250}}
	dir := &fakeDirectory{emails: map[string]string{"u1": "u1@example.com"}}
	disp := &fakeDispatcher{failFor: map[string]error{"AAPL": errors.New("smtp: 550 rejected")}}

	summary, err := newTestReconciler(store, quotes, dir, disp).RunCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.AlertsTriggered)
	assert.Equal(t, 1, summary.NotificationsSent)
	assert.Equal(t, 1, summary.NotificationsFailed)

	require.Len(t, summary.Errors, 1)
	assert.Equal(t, StageDispatch, summary.Errors[0].Stage)
	assert.Equal(t, "AAPL", summary.Errors[0].Symbol)

	require.Len(t, disp.sent, 1)
	assert.Equal(t, "MSFT", disp.sent[0].Symbol)
	assert.False(t, store.get("a1").IsActive)
}

func TestRunCycle_EmptyStore(t *testing.T) {
	store := &fakeStore{}

	summary, err := newTestReconciler(store, &fakeQuotes{}, &fakeDirectory{}, &fakeDispatcher{}).RunCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, summary.AlertsChecked)
	assert.Equal(t, 0, summary.AlertsTriggered)
}
