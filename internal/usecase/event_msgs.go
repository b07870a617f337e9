package usecase

import (
	"time"

	"github.com/shopspring/decimal"
)

// Written to the outbox after the backend accepts an order, relayed to RabbitMQ.
type OrderPlacedMsg struct {
	OrderNumber string          `json:"orderNumber"`
	Email       string          `json:"email"`
	FinalAmount decimal.Decimal `json:"finalAmount"`
	Items       int             `json:"items"`
	PlacedAt    time.Time       `json:"placedAt"`
}

// Sent by the shop backend on Kafka when an admin moves an order along.
type OrderStatusChangedMsg struct {
	OrderNumber string `json:"orderNumber"`
	Status      string `json:"status"`
}
