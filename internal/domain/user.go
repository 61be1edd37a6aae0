package domain

import "time"

// User 用户目录条目（对应 users 表）
// 报警服务只读取该表，用于把 user_id 解析为通知地址
type User struct {
	UserID    string    `db:"user_id"` // UUID, PRIMARY KEY
	Email     string    `db:"email"`   // 通知地址
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}
