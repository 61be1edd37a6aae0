package domain

import "time"

// WatchlistItem 自选股条目（对应 watchlist 表）
// 与 Alert 不同：每个 (user_id, symbol) 组合唯一
type WatchlistItem struct {
	ItemID  string    `db:"item_id"` // UUID, PRIMARY KEY
	UserID  string    `db:"user_id"` // NOT NULL
	Symbol  string    `db:"symbol"`  // 大写 ticker, UNIQUE(user_id, symbol)
	Company string    `db:"company"`
	AddedAt time.Time `db:"added_at"`
}
