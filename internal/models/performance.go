package models

import "time"

// SignalPerformance is the persisted record of one emitted signal. An id is
// SYMBOL_unixsecond; two signals for the same symbol inside the same second
// collide and the later write overwrites. Records transition exactly once
// from unchecked to checked and are never deleted.
type SignalPerformance struct {
	SignalID       string     `json:"signal_id"`
	Symbol         string     `json:"symbol"`
	SignalType     SignalType `json:"signal_type"`
	EntryPrice     float64    `json:"entry_price"`
	Rating         int        `json:"rating"`
	Confidence     float64    `json:"confidence"`
	Timestamp      time.Time  `json:"timestamp"`
	OutcomeChecked bool       `json:"outcome_checked"`
	OutcomeSuccess *bool      `json:"outcome_success"`
	ExitPrice      *float64   `json:"exit_price"`
	PnLPercent     *float64   `json:"pnl_percent"`
}

// PerformanceStats are aggregates recomputed wholesale from all checked
// records on every update. The recomputation is a pure fold over the
// checked subset: idempotent and order-independent.
type PerformanceStats struct {
	TotalSignals      int     `json:"total_signals"`
	CheckedSignals    int     `json:"checked_signals"`
	SuccessfulSignals int     `json:"successful_signals"`
	FailedSignals     int     `json:"failed_signals"`
	PumpWinRate       float64 `json:"pump_win_rate"`
	DumpWinRate       float64 `json:"dump_win_rate"`
	ReversalWinRate   float64 `json:"reversal_win_rate"`
	AvgPnL            float64 `json:"avg_pnl"`
	// Win rate keyed by rating decile ("60", "70", ...).
	WinRateByRating map[string]float64 `json:"win_rate_by_rating"`
}

// PerformanceDocument is the durable store layout: the whole state as one
// structured document, rewritten wholesale on every mutation.
type PerformanceDocument struct {
	Signals map[string]SignalPerformance `json:"signals"`
	Stats   PerformanceStats             `json:"stats"`
}

// NewPerformanceDocument returns an empty document ready for writes.
func NewPerformanceDocument() *PerformanceDocument {
	return &PerformanceDocument{
		Signals: make(map[string]SignalPerformance),
		Stats:   PerformanceStats{WinRateByRating: make(map[string]float64)},
	}
}
