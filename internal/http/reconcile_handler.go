package httpapi

import (
	"net/http"

	"inkomba-alerts/internal/scheduler"

	"go.uber.org/zap"
)

// ReconcileHandler 手动触发对账周期
type ReconcileHandler struct {
	scheduler *scheduler.Scheduler
	logger    *zap.Logger
}

// NewReconcileHandler 创建对账触发处理器
func NewReconcileHandler(sched *scheduler.Scheduler, logger *zap.Logger) *ReconcileHandler {
	return &ReconcileHandler{
		scheduler: sched,
		logger:    logger,
	}
}

// RunNow POST /alerts/api/v1/reconcile
// 同步执行一次周期并返回运行汇总；与定时周期可能重叠，正确性由
// 存储层的原子条件转移保证
func (h *ReconcileHandler) RunNow(w http.ResponseWriter, req *http.Request) {
	summary, err := h.scheduler.RunNow(req.Context())
	if err != nil {
		h.logger.Error("Manual reconcile cycle failed", zap.Error(err))
		writeFail(w, http.StatusServiceUnavailable, "reconcile cycle failed: store unreachable")
		return
	}

	writeOk(w, summary)
}
