package models

import "time"

// Notification event types
const (
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypePaymentConfirmed   = "PAYMENT_CONFIRMED"
)

// BaseEvent contains common fields for all notification events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderStatusChangedEvent is published whenever an order moves to a new
// status; the notification worker turns it into an SMS.
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	UserID      int64  `json:"user_id"`
	Status      string `json:"status"`
}

// PaymentConfirmedEvent is published after a successful payment verification
type PaymentConfirmedEvent struct {
	BaseEvent
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	UserID      int64  `json:"user_id"`
	Amount      int64  `json:"amount"`
	RefID       string `json:"ref_id"`
}
