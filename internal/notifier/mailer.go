package notifier

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer SMTP 价格报警邮件发送器
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

// NewMailer 创建 SMTP 发送器
func NewMailer(host string, port int, username, password, from string, logger *zap.Logger) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		logger: logger,
	}
}

// 确保实现了接口
var _ Dispatcher = (*Mailer)(nil)

// SendPriceAlert 发送一条价格报警邮件
// gomail 本身不接受 context，发送放在 goroutine 中以便尊重调用方的超时：
// 超时后调用按失败处理，后台连接自行收尾
func (m *Mailer) SendPriceAlert(ctx context.Context, msg PriceAlertMessage) error {
	if msg.Address == "" {
		return fmt.Errorf("address is required")
	}

	subject, body, err := renderPriceAlert(msg)
	if err != nil {
		return err
	}

	mail := gomail.NewMessage()
	mail.SetHeader("From", m.from)
	mail.SetHeader("To", msg.Address)
	mail.SetHeader("Subject", subject)
	mail.SetBody("text/html", body)

	errChan := make(chan error, 1)
	go func() {
		errChan <- m.dialer.DialAndSend(mail)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("failed to send price alert: %w", ctx.Err())
	case err := <-errChan:
		if err != nil {
			m.logger.Error("Failed to send price alert email",
				zap.String("symbol", msg.Symbol),
				zap.String("address", msg.Address),
				zap.Error(err),
			)
			return fmt.Errorf("failed to send price alert: %w", err)
		}
	}

	m.logger.Info("Price alert email sent",
		zap.String("symbol", msg.Symbol),
		zap.String("address", msg.Address),
		zap.Float64("current_price", msg.CurrentPrice),
		zap.Float64("target_price", msg.TargetPrice),
	)

	return nil
}
