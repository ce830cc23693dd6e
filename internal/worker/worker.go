package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"shop-service/internal/broker"
	"shop-service/internal/models"
	"shop-service/internal/service"
)

// NotificationWorker turns consumed notification events into SMS messages
type NotificationWorker struct {
	consumer *broker.Consumer
	handler  *broker.NotificationHandler
	sms      *service.SMSService
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, sms *service.SMSService) *NotificationWorker {
	w := &NotificationWorker{
		consumer: consumer,
		handler:  broker.NewNotificationHandler(),
		sms:      sms,
	}

	w.handler.OnOrderStatusChanged(w.handleOrderStatusChanged)
	w.handler.OnPaymentConfirmed(w.handlePaymentConfirmed)

	return w
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	log.Println("Starting notification worker...")
	return w.consumer.StartConsuming(ctx, w.handler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	log.Println("Stopping notification worker...")
	return w.consumer.Close()
}

// handleOrderStatusChanged sends the status update to the order's owner.
// Delivery failures are logged and swallowed so the message is not retried
// forever.
func (w *NotificationWorker) handleOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	message := fmt.Sprintf("Your order %s is now %s.", event.OrderNumber, event.Status)
	if err := w.sms.NotifyUser(ctx, event.UserID, message); err != nil {
		log.Printf("Failed to notify user %d about order %s: %v", event.UserID, event.OrderNumber, err)
	}
	return nil
}

func (w *NotificationWorker) handlePaymentConfirmed(ctx context.Context, event *models.PaymentConfirmedEvent) error {
	message := fmt.Sprintf("Payment of %d received for order %s. Reference: %s.",
		event.Amount, event.OrderNumber, event.RefID)
	if err := w.sms.NotifyUser(ctx, event.UserID, message); err != nil {
		log.Printf("Failed to notify user %d about payment for order %s: %v", event.UserID, event.OrderNumber, err)
	}
	return nil
}

// ExpiryWorker sweeps stale pending transactions on a fixed interval
type ExpiryWorker struct {
	payments  *service.PaymentService
	threshold time.Duration
	interval  time.Duration
	stop      chan struct{}
	done      chan struct{}
}

// NewExpiryWorker creates a new expiry worker
func NewExpiryWorker(payments *service.PaymentService, threshold, interval time.Duration) *ExpiryWorker {
	return &ExpiryWorker{
		payments:  payments,
		threshold: threshold,
		interval:  interval,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs the sweep loop until the context is cancelled or Stop is
// called
func (ew *ExpiryWorker) Start(ctx context.Context) {
	log.Println("Starting expiry worker...")

	go func() {
		defer close(ew.done)
		ticker := time.NewTicker(ew.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ew.stop:
				return
			case <-ticker.C:
				if _, err := ew.payments.ExpireStale(ctx, ew.threshold); err != nil {
					log.Printf("Transaction expiry sweep failed: %v", err)
				}
			}
		}
	}()
}

// Stop stops the worker and waits for the loop to exit
func (ew *ExpiryWorker) Stop() {
	log.Println("Stopping expiry worker...")
	close(ew.stop)
	<-ew.done
}
