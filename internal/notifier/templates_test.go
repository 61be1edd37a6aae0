package notifier

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPriceAlert_Upper(t *testing.T) {
	msg := PriceAlertMessage{
		Address:       "trader@example.com",
		Symbol:        "AAPL",
		Company:       "Apple Inc",
		Condition:     "greater",
		CurrentPrice:  105.256,
		TargetPrice:   100,
		ChangePercent: 2.04,
		TriggeredAt:   time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC),
	}

	subject, body, err := renderPriceAlert(msg)
	require.NoError(t, err)

	assert.Equal(t, "🔔 AAPL Price Alert: Above $100.00", subject)
	assert.Contains(t, body, "risen above")
	assert.Contains(t, body, "$105.26")
	assert.Contains(t, body, "+2.04%")
	assert.Contains(t, body, "Monday, March 2, 2026 14:30 UTC")
}

func TestRenderPriceAlert_Lower(t *testing.T) {
	msg := PriceAlertMessage{
		Symbol:        "TSLA",
		Company:       "Tesla Inc",
		Condition:     "less",
		CurrentPrice:  178.4,
		TargetPrice:   180,
		ChangePercent: -3.12,
		TriggeredAt:   time.Now(),
	}

	subject, body, err := renderPriceAlert(msg)
	require.NoError(t, err)

	assert.Equal(t, "🔔 TSLA Price Alert: Below $180.00", subject)
	assert.Contains(t, body, "fallen below")
	assert.Contains(t, body, "$178.40")
	assert.Contains(t, body, "-3.12%")
}

// 公司名中的 HTML 会被模板转义
func TestRenderPriceAlert_EscapesCompany(t *testing.T) {
	msg := PriceAlertMessage{
		Symbol:      "X",
		Company:     `<script>alert("x")</script>`,
		Condition:   "greater",
		TriggeredAt: time.Now(),
	}

	_, body, err := renderPriceAlert(msg)
	require.NoError(t, err)

	assert.False(t, strings.Contains(body, "<script>"))
}
