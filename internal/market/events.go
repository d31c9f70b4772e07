package market

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated   = "OrderCreated"
	EventOrderCompleted = "OrderCompleted"
	EventOrderExpired   = "OrderExpired"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // memo, decimal string
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	CorrelationID uint64 `json:"correlation_id"`
	ProductID     string `json:"product_id"`
	Buyer         string `json:"buyer"`
	Seller        string `json:"seller"`
	Price         uint64 `json:"price"`
}

type OrderCompletedPayload struct {
	CorrelationID uint64 `json:"correlation_id"`
	ProductID     string `json:"product_id"`
	Buyer         string `json:"buyer"`
	Price         uint64 `json:"price"`
	PaidAtBlock   uint64 `json:"paid_at_block"`
}

type OrderExpiredPayload struct {
	CorrelationID uint64 `json:"correlation_id"`
	ProductID     string `json:"product_id"`
	Buyer         string `json:"buyer"`
}
