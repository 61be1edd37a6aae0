package notifier

import (
	"fmt"
	"html/template"
	"strings"
)

// templateData 邮件模板渲染数据
type templateData struct {
	Symbol        string
	Company       string
	CurrentPrice  string
	TargetPrice   string
	ChangePercent string
	Timestamp     string
}

// 上穿/下穿两套模板，对应 greater/less 两种条件
const upperAlertTemplate = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#0f1115;font-family:Arial,Helvetica,sans-serif;">
  <div style="max-width:600px;margin:0 auto;padding:24px;color:#e5e7eb;">
    <h2 style="color:#22c55e;">&#128276; {{.Symbol}} Price Alert</h2>
    <p style="font-size:15px;">{{.Company}} ({{.Symbol}}) has risen above your target price.</p>
    <table style="width:100%;border-collapse:collapse;margin:16px 0;">
      <tr>
        <td style="padding:8px 0;color:#9ca3af;">Current Price</td>
        <td style="padding:8px 0;text-align:right;color:#22c55e;font-weight:bold;">{{.CurrentPrice}}</td>
      </tr>
      <tr>
        <td style="padding:8px 0;color:#9ca3af;">Target Price</td>
        <td style="padding:8px 0;text-align:right;">{{.TargetPrice}}</td>
      </tr>
      <tr>
        <td style="padding:8px 0;color:#9ca3af;">Day Change</td>
        <td style="padding:8px 0;text-align:right;">{{.ChangePercent}}</td>
      </tr>
    </table>
    <p style="font-size:12px;color:#6b7280;">Triggered at {{.Timestamp}}. This alert is now inactive; reactivate it from your watchlist to keep monitoring.</p>
  </div>
</body>
</html>`

const lowerAlertTemplate = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#0f1115;font-family:Arial,Helvetica,sans-serif;">
  <div style="max-width:600px;margin:0 auto;padding:24px;color:#e5e7eb;">
    <h2 style="color:#ef4444;">&#128276; {{.Symbol}} Price Alert</h2>
    <p style="font-size:15px;">{{.Company}} ({{.Symbol}}) has fallen below your target price.</p>
    <table style="width:100%;border-collapse:collapse;margin:16px 0;">
      <tr>
        <td style="padding:8px 0;color:#9ca3af;">Current Price</td>
        <td style="padding:8px 0;text-align:right;color:#ef4444;font-weight:bold;">{{.CurrentPrice}}</td>
      </tr>
      <tr>
        <td style="padding:8px 0;color:#9ca3af;">Target Price</td>
        <td style="padding:8px 0;text-align:right;">{{.TargetPrice}}</td>
      </tr>
      <tr>
        <td style="padding:8px 0;color:#9ca3af;">Day Change</td>
        <td style="padding:8px 0;text-align:right;">{{.ChangePercent}}</td>
      </tr>
    </table>
    <p style="font-size:12px;color:#6b7280;">Triggered at {{.Timestamp}}. This alert is now inactive; reactivate it from your watchlist to keep monitoring.</p>
  </div>
</body>
</html>`

var (
	upperTmpl = template.Must(template.New("upper").Parse(upperAlertTemplate))
	lowerTmpl = template.Must(template.New("lower").Parse(lowerAlertTemplate))
)

// renderPriceAlert 渲染邮件主题和正文
func renderPriceAlert(msg PriceAlertMessage) (subject, body string, err error) {
	data := templateData{
		Symbol:        msg.Symbol,
		Company:       msg.Company,
		CurrentPrice:  formatPrice(msg.CurrentPrice),
		TargetPrice:   formatPrice(msg.TargetPrice),
		ChangePercent: fmt.Sprintf("%+.2f%%", msg.ChangePercent),
		Timestamp:     msg.TriggeredAt.UTC().Format("Monday, January 2, 2006 15:04 MST"),
	}

	tmpl := lowerTmpl
	direction := "Below"
	if msg.Condition == "greater" {
		tmpl = upperTmpl
		direction = "Above"
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("failed to render alert template: %w", err)
	}

	subject = fmt.Sprintf("🔔 %s Price Alert: %s %s", msg.Symbol, direction, data.TargetPrice)

	return subject, sb.String(), nil
}

// formatPrice 格式化美元价格
func formatPrice(p float64) string {
	return fmt.Sprintf("$%.2f", p)
}
