package domain

type Signal string

const (
	SignalLong  Signal = "LONG"
	SignalShort Signal = "SHORT"
	SignalNone  Signal = "NONE"
)

// TimeframeScore holds the LONG and SHORT points (0-4 each) earned on one timeframe.
type TimeframeScore struct {
	Long  int `json:"long"`
	Short int `json:"short"`
}

// SymbolAssessment is the weighted multi-timeframe result for a symbol.
type SymbolAssessment struct {
	Symbol       string                       `json:"symbol"`
	PerTimeframe map[Timeframe]TimeframeScore `json:"per_timeframe"`
	// Timeframes lists the scored labels in weight-table order.
	Timeframes []Timeframe `json:"timeframes"`
	LongTotal  int         `json:"long_total"`
	ShortTotal int         `json:"short_total"`
	Signal     Signal      `json:"signal"`
}

// Candidate is a ranked symbol. It is recomputed every cycle and only seeds positions.
type Candidate struct {
	Symbol string       `json:"symbol"`
	Signal Signal       `json:"signal"`
	Score  float64      `json:"score"`
	Detail string       `json:"detail"`
	Levels *SwingLevels `json:"levels,omitempty"`
}
