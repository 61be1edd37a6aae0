package reconciler

import (
	"context"
	"fmt"
	"time"

	"inkomba-alerts/internal/domain"
	"inkomba-alerts/internal/notifier"
	"inkomba-alerts/internal/quote"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AlertStore 对账周期需要的报警存储操作
type AlertStore interface {
	ListActive(ctx context.Context) ([]*domain.Alert, error)
	TryMarkTriggered(ctx context.Context, alertID string) (bool, error)
}

// UserDirectory 用户目录（user_id → 通知地址）
type UserDirectory interface {
	ResolveEmail(ctx context.Context, userID string) (string, error)
}

// Reconciler 对账器：一次评估周期的编排者
// load → group → evaluate → transition → notify → summarize
// 周期之间可能重叠执行；跨周期唯一的共享可变状态是存储里每条报警的
// is_active 标志，全部写入都经过 TryMarkTriggered 的原子条件更新，
// 因此不需要全局周期锁
type Reconciler struct {
	alerts      AlertStore
	users       UserDirectory
	quotes      quote.Provider
	dispatcher  notifier.Dispatcher
	logger      *zap.Logger
	concurrency int           // 按 symbol 拉取行情的并发上限
	callTimeout time.Duration // 单次外部调用（行情/解析/发送）超时
}

// NewReconciler 创建对账器
func NewReconciler(
	alerts AlertStore,
	users UserDirectory,
	quotes quote.Provider,
	dispatcher notifier.Dispatcher,
	concurrency int,
	callTimeout time.Duration,
	logger *zap.Logger,
) *Reconciler {
	if concurrency <= 0 {
		concurrency = 1
	}
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}
	return &Reconciler{
		alerts:      alerts,
		users:       users,
		quotes:      quotes,
		dispatcher:  dispatcher,
		logger:      logger,
		concurrency: concurrency,
		callTimeout: callTimeout,
	}
}

// triggeredAlert 已完成 Active → Triggered 转移、等待通知的报警
type triggeredAlert struct {
	alert         *domain.Alert
	price         float64
	changePercent float64
	triggeredAt   time.Time
}

// RunCycle 执行一次对账周期
// Load 失败是唯一的致命错误（无报警数据则后续步骤都不可能），返回 nil 汇总；
// 其余阶段的失败都按单项隔离累积进 RunSummary.Errors
func (r *Reconciler) RunCycle(ctx context.Context) (*RunSummary, error) {
	// 1. Load：读取全部激活报警快照
	alerts, err := r.alerts.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active alerts: %w", err)
	}

	summary := &RunSummary{AlertsChecked: len(alerts)}
	if len(alerts) == 0 {
		r.logger.Debug("No active alerts to check")
		return summary, nil
	}

	// 2. Group：按 symbol 分组，行情请求数 = 不同 symbol 数
	groups := GroupBySymbol(alerts)

	r.logger.Info("Reconcile cycle started",
		zap.Int("alert_count", len(alerts)),
		zap.Int("symbol_count", len(groups)),
	)

	// 3. 按 symbol 并发拉取行情（有界扇出）
	// 行情失败只是该 symbol 本周期跳过，不取消其它 symbol，
	// 所以 goroutine 不返回错误，结果写入各自的槽位
	quotes := make([]*quote.Quote, len(groups))
	quoteErrs := make([]error, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, grp := range groups {
		i, grp := i, grp
		g.Go(func() error {
			qctx, cancel := context.WithTimeout(gctx, r.callTimeout)
			defer cancel()
			quotes[i], quoteErrs[i] = r.quotes.GetQuote(qctx, grp.Symbol)
			return nil
		})
	}
	_ = g.Wait()

	// 4. Evaluate + Transition
	triggered := make([]triggeredAlert, 0)
	for i, grp := range groups {
		if quoteErrs[i] != nil {
			r.logger.Warn("Quote fetch failed, skipping symbol this cycle",
				zap.String("symbol", grp.Symbol),
				zap.Int("skipped_alerts", len(grp.Alerts)),
				zap.Error(quoteErrs[i]),
			)
			summary.Errors = append(summary.Errors, ItemError{
				Stage:   StageQuote,
				Symbol:  grp.Symbol,
				Message: quoteErrs[i].Error(),
			})
			continue
		}

		q := quotes[i]
		for _, alert := range grp.Alerts {
			if !alert.ShouldTrigger(q.Price) {
				continue
			}

			// 原子条件转移：并发周期对同一报警只有一个能赢，
			// 输掉的一方静默放弃（不发通知、不计入触发数）
			ok, err := r.alerts.TryMarkTriggered(ctx, alert.AlertID)
			if err != nil {
				r.logger.Error("Failed to mark alert triggered",
					zap.String("alert_id", alert.AlertID),
					zap.String("symbol", alert.Symbol),
					zap.Error(err),
				)
				summary.Errors = append(summary.Errors, ItemError{
					Stage:   StageTransition,
					Symbol:  alert.Symbol,
					AlertID: alert.AlertID,
					Message: err.Error(),
				})
				continue
			}
			if !ok {
				r.logger.Debug("Alert already triggered by a concurrent cycle",
					zap.String("alert_id", alert.AlertID),
					zap.String("symbol", alert.Symbol),
				)
				continue
			}

			r.logger.Info("Alert triggered",
				zap.String("alert_id", alert.AlertID),
				zap.String("symbol", alert.Symbol),
				zap.String("condition", alert.Condition),
				zap.Float64("threshold", alert.Threshold),
				zap.Float64("price", q.Price),
			)

			triggered = append(triggered, triggeredAlert{
				alert:         alert,
				price:         q.Price,
				changePercent: q.ChangePercent,
				triggeredAt:   time.Now(),
			})
		}
	}
	summary.AlertsTriggered = len(triggered)

	// 5. Notify：逐条发送，单条失败不阻塞其它
	// 已知缺口：转移成功后解析/发送失败时该通知永久丢失（报警已不再
	// Active，下个周期不会重试）——按 at-most-once 语义记录为失败
	for _, ta := range triggered {
		r.notify(ctx, ta, summary)
	}

	r.logger.Info("Reconcile cycle finished",
		zap.Int("alerts_checked", summary.AlertsChecked),
		zap.Int("alerts_triggered", summary.AlertsTriggered),
		zap.Int("notifications_sent", summary.NotificationsSent),
		zap.Int("notifications_failed", summary.NotificationsFailed),
		zap.Int("item_errors", len(summary.Errors)),
	)

	return summary, nil
}

// notify 解析地址并发送单条通知，结果累积进 summary
func (r *Reconciler) notify(ctx context.Context, ta triggeredAlert, summary *RunSummary) {
	alert := ta.alert

	rctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	address, err := r.users.ResolveEmail(rctx, alert.UserID)
	cancel()
	if err != nil {
		r.logger.Warn("Failed to resolve notification address",
			zap.String("alert_id", alert.AlertID),
			zap.String("user_id", alert.UserID),
			zap.Error(err),
		)
		summary.NotificationsFailed++
		summary.Errors = append(summary.Errors, ItemError{
			Stage:   StageResolve,
			Symbol:  alert.Symbol,
			AlertID: alert.AlertID,
			Message: err.Error(),
		})
		return
	}

	dctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	err = r.dispatcher.SendPriceAlert(dctx, notifier.PriceAlertMessage{
		Address:       address,
		Symbol:        alert.Symbol,
		Company:       alert.Company,
		Condition:     alert.Condition,
		CurrentPrice:  ta.price,
		TargetPrice:   alert.Threshold,
		ChangePercent: ta.changePercent,
		TriggeredAt:   ta.triggeredAt,
	})
	cancel()
	if err != nil {
		r.logger.Warn("Failed to dispatch price alert",
			zap.String("alert_id", alert.AlertID),
			zap.String("symbol", alert.Symbol),
			zap.Error(err),
		)
		summary.NotificationsFailed++
		summary.Errors = append(summary.Errors, ItemError{
			Stage:   StageDispatch,
			Symbol:  alert.Symbol,
			AlertID: alert.AlertID,
			Message: err.Error(),
		})
		return
	}

	summary.NotificationsSent++
}
