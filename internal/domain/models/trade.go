package models

import "time"

// TradeStatus is the lifecycle state of a synthetic trade.
type TradeStatus string

const (
	TradeOpen   TradeStatus = "OPEN"
	TradeClosed TradeStatus = "CLOSED"
)

// Trade is a bookkeeping record of a confirmed entry. It has no external
// brokerage effect. OPEN -> CLOSED is the only transition; a closed trade
// is never reopened.
type Trade struct {
	ID          string      `json:"id"`
	Symbol      string      `json:"symbol"`
	Direction   Direction   `json:"direction"`
	Combination string      `json:"combination"`
	Groups      []int       `json:"groups"`
	// ConsumedSignals records, per group, the signal texts that justified
	// the open. Kept for audit and notification payloads.
	ConsumedSignals map[int][]string `json:"consumed_signals,omitempty"`
	OpenedAt        time.Time        `json:"opened_at"`
	Status          TradeStatus      `json:"status"`
	ClosedAt        time.Time        `json:"closed_at,omitzero"`
	CloseReason     string           `json:"close_reason,omitempty"`
}

// Clone returns an independent copy safe to hand to background marshalers
// while the ledger keeps mutating the original.
func (t *Trade) Clone() *Trade {
	c := *t
	c.Groups = append([]int(nil), t.Groups...)
	if t.ConsumedSignals != nil {
		c.ConsumedSignals = make(map[int][]string, len(t.ConsumedSignals))
		for g, texts := range t.ConsumedSignals {
			c.ConsumedSignals[g] = append([]string(nil), texts...)
		}
	}
	return &c
}

// Summary flattens a trade for API responses.
func (t *Trade) Summary() TradeSummary {
	return TradeSummary{
		ID:          t.ID,
		Symbol:      t.Symbol,
		Direction:   t.Direction,
		Combination: t.Combination,
		OpenedAt:    t.OpenedAt,
		Status:      t.Status,
	}
}

// TradeSummary is the compact trade view returned by the API.
type TradeSummary struct {
	ID          string      `json:"id"`
	Symbol      string      `json:"symbol"`
	Direction   Direction   `json:"direction"`
	Combination string      `json:"combination"`
	OpenedAt    time.Time   `json:"opened_at"`
	Status      TradeStatus `json:"status"`
}

// TradeEvent is the audit record published for trade lifecycle changes
// and confirmed trend flips.
type TradeEvent struct {
	Type        string    `json:"type"` // trade_opened | trade_closed | trend_flip
	Symbol      string    `json:"symbol"`
	TradeID     string    `json:"trade_id,omitempty"`
	Direction   Direction `json:"direction"`
	Combination string    `json:"combination,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	At          time.Time `json:"at"`
}
