package repository

import (
	"context"
	"errors"

	"inkomba-alerts/internal/domain"
)

// ErrUserNotFound 用户目录中不存在该用户
var ErrUserNotFound = errors.New("user not found")

// UsersRepository 用户目录Repository接口
// 报警服务只需要把 user_id 解析为通知地址
type UsersRepository interface {
	// ResolveEmail 把用户ID解析为通知邮箱；不存在时返回 ErrUserNotFound
	ResolveEmail(ctx context.Context, userID string) (string, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}
