package models

// Requests for the webhook and query endpoints. Defined in domain for
// consistency and reuse.

type WebhookRequest struct {
	Symbol string `json:"symbol" form:"symbol" validate:"required,max=32"`
	Signal string `json:"signal" form:"signal" validate:"required,max=512"`
	Time   string `json:"time" form:"time"` // RFC3339 or unix seconds; empty = now
}

type TradesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"omitempty,max=32"`
	Status string `query:"status" json:"status" default:"all" validate:"oneof=all open closed"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type TrendResponse struct {
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"`
}
