package reconciler

// 单项失败发生的阶段
const (
	StageQuote      = "quote"      // 行情拉取失败（按 symbol 隔离）
	StageTransition = "transition" // 状态转移写入失败
	StageResolve    = "resolve"    // 用户地址解析失败
	StageDispatch   = "dispatch"   // 通知发送失败
)

// ItemError 周期内单项失败的结构化描述
type ItemError struct {
	Stage   string `json:"stage"`
	Symbol  string `json:"symbol"`
	AlertID string `json:"alert_id,omitempty"`
	Message string `json:"message"`
}

// RunSummary 一次对账周期的运行汇总
// 周期唯一的对外可观测结果：单项失败只进入 Errors，不作为周期错误抛出
type RunSummary struct {
	AlertsChecked       int         `json:"alerts_checked"`
	AlertsTriggered     int         `json:"alerts_triggered"`
	NotificationsSent   int         `json:"notifications_sent"`
	NotificationsFailed int         `json:"notifications_failed"`
	Errors              []ItemError `json:"errors,omitempty"`
}
