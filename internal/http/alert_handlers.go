package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"inkomba-alerts/internal/domain"
	"inkomba-alerts/internal/service"

	"go.uber.org/zap"
)

// AlertHandler 报警 CRUD HTTP 处理器
// 身份认证由外层网关处理，这里只消费 X-User-ID 头
type AlertHandler struct {
	alertService *service.AlertService
	logger       *zap.Logger
}

// NewAlertHandler 创建报警处理器
func NewAlertHandler(alertService *service.AlertService, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
		logger:       logger,
	}
}

// alertJSON 前端格式的报警
type alertJSON struct {
	ID           string     `json:"id"`
	Symbol       string     `json:"symbol"`
	Company      string     `json:"company"`
	AlertName    string     `json:"alert_name"`
	AlertType    string     `json:"alert_type"`
	Condition    string     `json:"condition"`
	Threshold    float64    `json:"threshold"`
	CurrentPrice float64    `json:"current_price"`
	IsActive     bool       `json:"is_active"`
	TriggeredAt  *time.Time `json:"triggered_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func toAlertJSON(a *domain.Alert) alertJSON {
	return alertJSON{
		ID:           a.AlertID,
		Symbol:       a.Symbol,
		Company:      a.Company,
		AlertName:    a.AlertName,
		AlertType:    a.AlertType,
		Condition:    a.Condition,
		Threshold:    a.Threshold,
		CurrentPrice: a.CurrentPrice,
		IsActive:     a.IsActive,
		TriggeredAt:  a.TriggeredAt,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// userID 从请求头提取用户身份
func userID(req *http.Request) string {
	return strings.TrimSpace(req.Header.Get("X-User-ID"))
}

// ListAlerts GET /alerts/api/v1/alerts
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, req *http.Request) {
	uid := userID(req)
	if uid == "" {
		writeFail(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	alerts, err := h.alertService.ListUserAlerts(req.Context(), uid)
	if err != nil {
		h.logger.Error("Failed to list alerts", zap.String("user_id", uid), zap.Error(err))
		writeFail(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}

	items := make([]alertJSON, 0, len(alerts))
	for _, a := range alerts {
		items = append(items, toAlertJSON(a))
	}
	writeOk(w, items)
}

// CreateAlert POST /alerts/api/v1/alerts
func (h *AlertHandler) CreateAlert(w http.ResponseWriter, req *http.Request) {
	uid := userID(req)
	if uid == "" {
		writeFail(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	var body service.CreateAlertRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	body.UserID = uid

	alertID, err := h.alertService.CreateAlert(req.Context(), body)
	if err != nil {
		writeFail(w, http.StatusBadRequest, err.Error())
		return
	}

	writeOk(w, map[string]string{"id": alertID})
}

// UpdateAlert PUT /alerts/api/v1/alerts/{id}
func (h *AlertHandler) UpdateAlert(w http.ResponseWriter, req *http.Request, alertID string) {
	uid := userID(req)
	if uid == "" {
		writeFail(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	var body service.UpdateAlertRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.alertService.UpdateAlert(req.Context(), uid, alertID, body); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeFail(w, http.StatusNotFound, err.Error())
			return
		}
		writeFail(w, http.StatusBadRequest, err.Error())
		return
	}

	writeOk(w, map[string]bool{"ok": true})
}

// DeleteAlert DELETE /alerts/api/v1/alerts/{id}
func (h *AlertHandler) DeleteAlert(w http.ResponseWriter, req *http.Request, alertID string) {
	uid := userID(req)
	if uid == "" {
		writeFail(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	if err := h.alertService.DeleteAlert(req.Context(), uid, alertID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeFail(w, http.StatusNotFound, err.Error())
			return
		}
		writeFail(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeOk(w, map[string]bool{"ok": true})
}

// ReactivateAlert POST /alerts/api/v1/alerts/{id}/reactivate
func (h *AlertHandler) ReactivateAlert(w http.ResponseWriter, req *http.Request, alertID string) {
	uid := userID(req)
	if uid == "" {
		writeFail(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	if err := h.alertService.ReactivateAlert(req.Context(), uid, alertID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeFail(w, http.StatusNotFound, err.Error())
			return
		}
		writeFail(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeOk(w, map[string]bool{"ok": true})
}

// ToggleAlertStatus PATCH /alerts/api/v1/alerts/{id}/status
func (h *AlertHandler) ToggleAlertStatus(w http.ResponseWriter, req *http.Request, alertID string) {
	uid := userID(req)
	if uid == "" {
		writeFail(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	var body struct {
		IsActive bool `json:"is_active"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.alertService.ToggleAlertStatus(req.Context(), uid, alertID, body.IsActive); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeFail(w, http.StatusNotFound, err.Error())
			return
		}
		writeFail(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeOk(w, map[string]bool{"ok": true})
}
