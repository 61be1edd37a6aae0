package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"inkomba-alerts/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostgresAlertsRepository 价格报警Repository实现
type PostgresAlertsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresAlertsRepository 创建报警Repository
func NewPostgresAlertsRepository(db *sql.DB, logger *zap.Logger) *PostgresAlertsRepository {
	return &PostgresAlertsRepository{db: db, logger: logger}
}

// 确保实现了接口
var _ AlertsRepository = (*PostgresAlertsRepository)(nil)

const alertColumns = `
	alert_id::text,
	user_id::text,
	symbol,
	company,
	alert_name,
	alert_type,
	condition,
	threshold,
	current_price,
	is_active,
	triggered_at,
	created_at,
	updated_at
`

// ListActive 获取所有激活状态的报警（对账周期的 Load 步骤）
func (r *PostgresAlertsRepository) ListActive(ctx context.Context) ([]*domain.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE is_active = TRUE
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// TryMarkTriggered 原子条件转移 Active → Triggered
// 单条受 is_active 条件约束的 UPDATE，把 check-then-act 竞态收敛为一次原子写：
// 并发周期对同一条报警同时评估为触发时，只有一个 UPDATE 能命中
func (r *PostgresAlertsRepository) TryMarkTriggered(ctx context.Context, alertID string) (bool, error) {
	if alertID == "" {
		return false, fmt.Errorf("alert_id is required")
	}

	query := `
		UPDATE alerts
		SET is_active = FALSE,
		    triggered_at = NOW(),
		    updated_at = NOW()
		WHERE alert_id = $1
		  AND is_active = TRUE
	`

	result, err := r.db.ExecContext(ctx, query, alertID)
	if err != nil {
		return false, fmt.Errorf("failed to mark alert triggered: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected == 1, nil
}

// Reactivate 重新激活已触发的报警（Triggered → Active）
// 用户操作，不与对账周期竞争（周期只做 Active → Triggered 方向）
func (r *PostgresAlertsRepository) Reactivate(ctx context.Context, userID, alertID string) error {
	if userID == "" || alertID == "" {
		return fmt.Errorf("user_id and alert_id are required")
	}

	query := `
		UPDATE alerts
		SET is_active = TRUE,
		    triggered_at = NULL,
		    updated_at = NOW()
		WHERE alert_id = $1
		  AND user_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, alertID, userID)
	if err != nil {
		return fmt.Errorf("failed to reactivate alert: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("alert not found: %s", alertID)
	}

	return nil
}

// GetAlert 获取单条报警（需校验归属用户）
func (r *PostgresAlertsRepository) GetAlert(ctx context.Context, userID, alertID string) (*domain.Alert, error) {
	if userID == "" || alertID == "" {
		return nil, fmt.Errorf("user_id and alert_id are required")
	}

	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE alert_id = $1 AND user_id = $2
	`

	alert, err := scanAlertRow(r.db.QueryRowContext(ctx, query, alertID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("alert not found: %s", alertID)
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return alert, nil
}

// ListByUser 获取用户的全部报警（最新创建的在前）
func (r *PostgresAlertsRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Alert, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// CreateAlert 创建报警（初始为 Active）
func (r *PostgresAlertsRepository) CreateAlert(ctx context.Context, alert *domain.Alert) (string, error) {
	if alert.UserID == "" {
		return "", fmt.Errorf("user_id is required")
	}
	if alert.Symbol == "" {
		return "", fmt.Errorf("symbol is required")
	}

	alertID := alert.AlertID
	if alertID == "" {
		alertID = uuid.New().String()
	}

	query := `
		INSERT INTO alerts (
			alert_id, user_id, symbol, company, alert_name,
			alert_type, condition, threshold, current_price,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, NOW(), NOW())
	`

	_, err := r.db.ExecContext(ctx, query,
		alertID,
		alert.UserID,
		strings.ToUpper(strings.TrimSpace(alert.Symbol)),
		strings.TrimSpace(alert.Company),
		strings.TrimSpace(alert.AlertName),
		alert.AlertType,
		alert.Condition,
		alert.Threshold,
		alert.CurrentPrice,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create alert: %w", err)
	}

	return alertID, nil
}

// UpdateAlert 更新报警定义（名称/条件/阈值，不改标的）
func (r *PostgresAlertsRepository) UpdateAlert(ctx context.Context, userID, alertID string, upd AlertUpdate) error {
	if userID == "" || alertID == "" {
		return fmt.Errorf("user_id and alert_id are required")
	}

	query := `
		UPDATE alerts
		SET alert_name = $3,
		    alert_type = $4,
		    condition = $5,
		    threshold = $6,
		    updated_at = NOW()
		WHERE alert_id = $1 AND user_id = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		alertID, userID,
		strings.TrimSpace(upd.AlertName),
		upd.AlertType,
		upd.Condition,
		upd.Threshold,
	)
	if err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("alert not found: %s", alertID)
	}

	return nil
}

// DeleteAlert 删除报警
func (r *PostgresAlertsRepository) DeleteAlert(ctx context.Context, userID, alertID string) error {
	if userID == "" || alertID == "" {
		return fmt.Errorf("user_id and alert_id are required")
	}

	query := `DELETE FROM alerts WHERE alert_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, alertID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("alert not found: %s", alertID)
	}

	return nil
}

// SetActive 切换激活状态（toggle 语义，不校验当前状态）
func (r *PostgresAlertsRepository) SetActive(ctx context.Context, userID, alertID string, active bool) error {
	if userID == "" || alertID == "" {
		return fmt.Errorf("user_id and alert_id are required")
	}

	query := `
		UPDATE alerts
		SET is_active = $3,
		    updated_at = NOW()
		WHERE alert_id = $1 AND user_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, alertID, userID, active)
	if err != nil {
		return fmt.Errorf("failed to set alert status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("alert not found: %s", alertID)
	}

	return nil
}

// scanAlertRow 扫描单行报警
func scanAlertRow(row *sql.Row) (*domain.Alert, error) {
	var alert domain.Alert
	var triggeredAt sql.NullTime

	err := row.Scan(
		&alert.AlertID,
		&alert.UserID,
		&alert.Symbol,
		&alert.Company,
		&alert.AlertName,
		&alert.AlertType,
		&alert.Condition,
		&alert.Threshold,
		&alert.CurrentPrice,
		&alert.IsActive,
		&triggeredAt,
		&alert.CreatedAt,
		&alert.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if triggeredAt.Valid {
		alert.TriggeredAt = &triggeredAt.Time
	}

	return &alert, nil
}

// scanAlerts 扫描多行报警
func scanAlerts(rows *sql.Rows) ([]*domain.Alert, error) {
	alerts := make([]*domain.Alert, 0)

	for rows.Next() {
		var alert domain.Alert
		var triggeredAt sql.NullTime

		err := rows.Scan(
			&alert.AlertID,
			&alert.UserID,
			&alert.Symbol,
			&alert.Company,
			&alert.AlertName,
			&alert.AlertType,
			&alert.Condition,
			&alert.Threshold,
			&alert.CurrentPrice,
			&alert.IsActive,
			&triggeredAt,
			&alert.CreatedAt,
			&alert.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		if triggeredAt.Valid {
			alert.TriggeredAt = &triggeredAt.Time
		}

		alerts = append(alerts, &alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, nil
}
