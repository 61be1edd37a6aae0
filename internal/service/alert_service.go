package service

import (
	"context"
	"fmt"
	"strings"

	"inkomba-alerts/internal/domain"
	"inkomba-alerts/internal/repository"

	"go.uber.org/zap"
)

// AlertService 报警 CRUD 服务（watchlist 页面的外围操作层）
// 状态机方向约束：用户侧可以 Reactivate（Triggered → Active）和任意
// toggle；Active → Triggered 只由对账周期通过原子转移完成
type AlertService struct {
	alertRepo repository.AlertsRepository
	logger    *zap.Logger
}

// NewAlertService 创建报警服务
func NewAlertService(alertRepo repository.AlertsRepository, logger *zap.Logger) *AlertService {
	return &AlertService{
		alertRepo: alertRepo,
		logger:    logger,
	}
}

// CreateAlertRequest 创建报警请求
type CreateAlertRequest struct {
	UserID       string  `json:"-"`
	Symbol       string  `json:"symbol"`
	Company      string  `json:"company"`
	AlertName    string  `json:"alert_name"`
	CurrentPrice float64 `json:"current_price"`
	AlertType    string  `json:"alert_type"`
	Condition    string  `json:"condition"`
	Threshold    float64 `json:"threshold"`
}

// UpdateAlertRequest 更新报警请求（只改定义，不改标的）
type UpdateAlertRequest struct {
	AlertName string  `json:"alert_name"`
	AlertType string  `json:"alert_type"`
	Condition string  `json:"condition"`
	Threshold float64 `json:"threshold"`
}

// validateDefinition 校验报警定义字段
func validateDefinition(alertType, condition string, threshold float64) error {
	if alertType != domain.AlertTypePrice {
		return fmt.Errorf("unsupported alert_type: %s", alertType)
	}
	if condition != domain.ConditionGreater && condition != domain.ConditionLess {
		return fmt.Errorf("condition must be '%s' or '%s'", domain.ConditionGreater, domain.ConditionLess)
	}
	if threshold <= 0 {
		return fmt.Errorf("threshold must be positive")
	}
	return nil
}

// ListUserAlerts 获取用户的全部报警
func (s *AlertService) ListUserAlerts(ctx context.Context, userID string) ([]*domain.Alert, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	return s.alertRepo.ListByUser(ctx, userID)
}

// CreateAlert 创建报警（初始为 Active）
func (s *AlertService) CreateAlert(ctx context.Context, req CreateAlertRequest) (string, error) {
	if req.UserID == "" {
		return "", fmt.Errorf("user_id is required")
	}
	if strings.TrimSpace(req.Symbol) == "" {
		return "", fmt.Errorf("symbol is required")
	}
	if strings.TrimSpace(req.AlertName) == "" {
		return "", fmt.Errorf("alert_name is required")
	}
	if err := validateDefinition(req.AlertType, req.Condition, req.Threshold); err != nil {
		return "", err
	}

	alertID, err := s.alertRepo.CreateAlert(ctx, &domain.Alert{
		UserID:       req.UserID,
		Symbol:       req.Symbol,
		Company:      req.Company,
		AlertName:    req.AlertName,
		AlertType:    req.AlertType,
		Condition:    req.Condition,
		Threshold:    req.Threshold,
		CurrentPrice: req.CurrentPrice,
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("Alert created",
		zap.String("alert_id", alertID),
		zap.String("user_id", req.UserID),
		zap.String("symbol", req.Symbol),
		zap.String("condition", req.Condition),
		zap.Float64("threshold", req.Threshold),
	)

	return alertID, nil
}

// UpdateAlert 更新报警定义
func (s *AlertService) UpdateAlert(ctx context.Context, userID, alertID string, req UpdateAlertRequest) error {
	if userID == "" || alertID == "" {
		return fmt.Errorf("user_id and alert_id are required")
	}
	if strings.TrimSpace(req.AlertName) == "" {
		return fmt.Errorf("alert_name is required")
	}
	if err := validateDefinition(req.AlertType, req.Condition, req.Threshold); err != nil {
		return err
	}

	return s.alertRepo.UpdateAlert(ctx, userID, alertID, repository.AlertUpdate{
		AlertName: req.AlertName,
		AlertType: req.AlertType,
		Condition: req.Condition,
		Threshold: req.Threshold,
	})
}

// DeleteAlert 删除报警
func (s *AlertService) DeleteAlert(ctx context.Context, userID, alertID string) error {
	if userID == "" || alertID == "" {
		return fmt.Errorf("user_id and alert_id are required")
	}
	return s.alertRepo.DeleteAlert(ctx, userID, alertID)
}

// ToggleAlertStatus 切换激活状态
func (s *AlertService) ToggleAlertStatus(ctx context.Context, userID, alertID string, active bool) error {
	if userID == "" || alertID == "" {
		return fmt.Errorf("user_id and alert_id are required")
	}
	return s.alertRepo.SetActive(ctx, userID, alertID, active)
}

// ReactivateAlert 重新激活已触发的报警（清空 triggered_at）
// 无滞回：在触发价位重新激活的报警下个周期可能立即再次触发
func (s *AlertService) ReactivateAlert(ctx context.Context, userID, alertID string) error {
	if userID == "" || alertID == "" {
		return fmt.Errorf("user_id and alert_id are required")
	}

	if err := s.alertRepo.Reactivate(ctx, userID, alertID); err != nil {
		return err
	}

	s.logger.Info("Alert reactivated",
		zap.String("alert_id", alertID),
		zap.String("user_id", userID),
	)

	return nil
}
