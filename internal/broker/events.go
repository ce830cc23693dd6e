package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"shop-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// NotificationPublisher publishes notification events. Callers treat
// publishing as best-effort: failures are logged by the caller and never
// propagated to the triggering operation.
type NotificationPublisher struct {
	producer *Producer
}

// NewNotificationPublisher creates a new notification publisher
func NewNotificationPublisher(producer *Producer) *NotificationPublisher {
	return &NotificationPublisher{producer: producer}
}

// PublishOrderStatusChanged publishes an OrderStatusChanged event
func (np *NotificationPublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return np.producer.PublishEvent(ctx, key, event)
}

// PublishPaymentConfirmed publishes a PaymentConfirmed event
func (np *NotificationPublisher) PublishPaymentConfirmed(ctx context.Context, event *models.PaymentConfirmedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return np.producer.PublishEvent(ctx, key, event)
}

// NotificationHandler routes consumed notification events
type NotificationHandler struct {
	onOrderStatusChanged func(context.Context, *models.OrderStatusChangedEvent) error
	onPaymentConfirmed   func(context.Context, *models.PaymentConfirmedEvent) error
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler() *NotificationHandler {
	return &NotificationHandler{}
}

// OnOrderStatusChanged registers a handler for OrderStatusChanged events
func (nh *NotificationHandler) OnOrderStatusChanged(handler func(context.Context, *models.OrderStatusChangedEvent) error) {
	nh.onOrderStatusChanged = handler
}

// OnPaymentConfirmed registers a handler for PaymentConfirmed events
func (nh *NotificationHandler) OnPaymentConfirmed(handler func(context.Context, *models.PaymentConfirmedEvent) error) {
	nh.onPaymentConfirmed = handler
}

// HandleMessage routes messages to the registered handlers
func (nh *NotificationHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeOrderStatusChanged:
		if nh.onOrderStatusChanged != nil {
			var event models.OrderStatusChangedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderStatusChanged event: %w", err)
			}
			return nh.onOrderStatusChanged(ctx, &event)
		}

	case models.EventTypePaymentConfirmed:
		if nh.onPaymentConfirmed != nil {
			var event models.PaymentConfirmedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PaymentConfirmed event: %w", err)
			}
			return nh.onPaymentConfirmed(ctx, &event)
		}
	}

	return nil
}
