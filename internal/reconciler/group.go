package reconciler

import "inkomba-alerts/internal/domain"

// SymbolGroup 同一 symbol 下的全部报警
type SymbolGroup struct {
	Symbol string
	Alerts []*domain.Alert
}

// GroupBySymbol 按 symbol 分组报警快照
// N 条报警引用 M 个不同 symbol 时，每周期只发出 M 次行情请求
// 分组保持 symbol 首次出现顺序，组内保持输入顺序（结果可确定地枚举）
func GroupBySymbol(alerts []*domain.Alert) []SymbolGroup {
	index := make(map[string]int, len(alerts))
	groups := make([]SymbolGroup, 0, len(alerts))

	for _, alert := range alerts {
		if i, ok := index[alert.Symbol]; ok {
			groups[i].Alerts = append(groups[i].Alerts, alert)
			continue
		}
		index[alert.Symbol] = len(groups)
		groups = append(groups, SymbolGroup{
			Symbol: alert.Symbol,
			Alerts: []*domain.Alert{alert},
		})
	}

	return groups
}
