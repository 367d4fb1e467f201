package models

import (
	"strconv"
	"time"
)

// Direction is the side a signal or trade points to.
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
	DirectionUnknown Direction = "unknown"
)

// Opposite returns the mirrored direction, or unknown for unknown.
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionBullish:
		return DirectionBearish
	case DirectionBearish:
		return DirectionBullish
	default:
		return DirectionUnknown
	}
}

// Kind is the coarse classification of an inbound signal.
type Kind string

const (
	KindTrend        Kind = "trend"
	KindTrendConfirm Kind = "trend_confirm"
	KindEntry        Kind = "entry"
	KindExit         Kind = "exit"
	KindUnknown      Kind = "unknown"
)

// Category is the classifier output: a kind plus, for entry signals,
// the confirmation group and implied direction.
type Category struct {
	Kind      Kind
	Group     int
	Direction Direction
}

// Unclassified is the category for input the classifier could not place.
var Unclassified = Category{Kind: KindUnknown, Direction: DirectionUnknown}

func (c Category) IsEntry() bool { return c.Kind == KindEntry }

func (c Category) String() string {
	if c.Kind != KindEntry {
		return string(c.Kind)
	}
	s := "group" + strconv.Itoa(c.Group)
	if c.Direction == DirectionBullish || c.Direction == DirectionBearish {
		s += "_" + string(c.Direction)
	}
	return s
}

// Signal is one inbound directional alert. Immutable after ingestion.
type Signal struct {
	Symbol     string
	RawText    string
	Normalized string
	Category   Category
	ReceivedAt time.Time
}

// ProcessingResult is what a single ingested event produced.
type ProcessingResult struct {
	Symbol         string         `json:"symbol"`
	Classification string         `json:"classification"`
	TradesOpened   []TradeSummary `json:"trades_opened,omitempty"`
	TrendChanged   bool           `json:"trend_changed"`
	TrendDirection Direction      `json:"trend_direction,omitempty"`
	ClosedTrades   int            `json:"closed_trades"`
}
