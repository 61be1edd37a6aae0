package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"inkomba-alerts/internal/domain"

	"github.com/google/uuid"
)

// PostgresWatchlistRepository 自选股Repository实现
type PostgresWatchlistRepository struct {
	db *sql.DB
}

// NewPostgresWatchlistRepository 创建自选股Repository
func NewPostgresWatchlistRepository(db *sql.DB) *PostgresWatchlistRepository {
	return &PostgresWatchlistRepository{db: db}
}

// 确保实现了接口
var _ WatchlistRepository = (*PostgresWatchlistRepository)(nil)

// ListByUser 获取用户的自选股列表
func (r *PostgresWatchlistRepository) ListByUser(ctx context.Context, userID string) ([]*domain.WatchlistItem, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	query := `
		SELECT item_id::text, user_id::text, symbol, company, added_at
		FROM watchlist
		WHERE user_id = $1
		ORDER BY added_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.WatchlistItem, 0)
	for rows.Next() {
		var item domain.WatchlistItem
		if err := rows.Scan(&item.ItemID, &item.UserID, &item.Symbol, &item.Company, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist item: %w", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate watchlist: %w", err)
	}

	return items, nil
}

// ListSymbolsByUser 获取用户自选股的 symbol 列表
func (r *PostgresWatchlistRepository) ListSymbolsByUser(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	query := `SELECT symbol FROM watchlist WHERE user_id = $1 ORDER BY added_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist symbols: %w", err)
	}
	defer rows.Close()

	symbols := make([]string, 0)
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate symbols: %w", err)
	}

	return symbols, nil
}

// AddItem 添加自选股（(user_id, symbol) 已存在时幂等返回）
func (r *PostgresWatchlistRepository) AddItem(ctx context.Context, item *domain.WatchlistItem) (string, error) {
	if item.UserID == "" {
		return "", fmt.Errorf("user_id is required")
	}
	if item.Symbol == "" {
		return "", fmt.Errorf("symbol is required")
	}

	itemID := item.ItemID
	if itemID == "" {
		itemID = uuid.New().String()
	}

	query := `
		INSERT INTO watchlist (item_id, user_id, symbol, company, added_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, symbol) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		itemID,
		item.UserID,
		strings.ToUpper(strings.TrimSpace(item.Symbol)),
		strings.TrimSpace(item.Company),
	)
	if err != nil {
		return "", fmt.Errorf("failed to add watchlist item: %w", err)
	}

	return itemID, nil
}

// RemoveItem 移除自选股
func (r *PostgresWatchlistRepository) RemoveItem(ctx context.Context, userID, symbol string) error {
	if userID == "" || symbol == "" {
		return fmt.Errorf("user_id and symbol are required")
	}

	query := `DELETE FROM watchlist WHERE user_id = $1 AND symbol = $2`

	result, err := r.db.ExecContext(ctx, query, userID, strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		return fmt.Errorf("failed to remove watchlist item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("watchlist item not found: %s", symbol)
	}

	return nil
}
