package domain

// SwingLevels is the support-based entry zone and take-profit ladder of a symbol.
type SwingLevels struct {
	SupportFloor    float64 `json:"support_floor"`
	EntryZoneBottom float64 `json:"entry_zone_bottom"`
	EntryZoneTop    float64 `json:"entry_zone_top"`
	TakeProfit1     float64 `json:"take_profit_1"`
	TakeProfit2     float64 `json:"take_profit_2"`
	TakeProfit3     float64 `json:"take_profit_3"`
	Invalidation    float64 `json:"invalidation_level"`
}
