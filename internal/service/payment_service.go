package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shop-service/internal/gateway"
	"shop-service/internal/models"
	"shop-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrAmountBelowMinimum  = errors.New("amount is below the gateway minimum")
	ErrOrderAlreadyPaid    = errors.New("order has already been paid")
	ErrTransactionNotFound = errors.New("transaction not found")
)

const cancelledByUserReason = "payment cancelled by user"

// PaymentStore is the persistence surface the payment service needs
type PaymentStore interface {
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	MarkOrderPaid(ctx context.Context, orderID, txID int64, refID string, paidAt time.Time) error
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	GetTransactionByAuthority(ctx context.Context, authority string) (*models.Transaction, error)
	MarkTransactionSuccess(ctx context.Context, txID int64, refID string, verifiedAt time.Time) error
	MarkTransactionFailed(ctx context.Context, txID int64, reason string, verifiedAt time.Time) error
	GetTransactionsByUserID(ctx context.Context, userID int64, page, limit int) ([]models.Transaction, error)
	ListTransactions(ctx context.Context, status string, page, limit int) ([]models.Transaction, error)
	FindExpiredTransactions(ctx context.Context, threshold time.Duration) ([]models.Transaction, error)
	MarkTransactionExpired(ctx context.Context, txID int64) error
}

// PaymentGateway is the external processor surface
type PaymentGateway interface {
	RequestPayment(ctx context.Context, req gateway.PaymentRequest) (string, error)
	VerifyPayment(ctx context.Context, authority string, amount int64) (*gateway.VerifyResult, error)
	StartPayURL(authority string) string
}

// PaymentNotifier publishes best-effort payment notifications
type PaymentNotifier interface {
	PublishPaymentConfirmed(ctx context.Context, event *models.PaymentConfirmedEvent) error
}

// PaymentService drives the transaction state machine:
//
//	(none) --request--> PENDING --verify ok------> SUCCESS
//	                    PENDING --verify fail----> FAILED
//	                    PENDING --user cancel----> FAILED
//	                    PENDING --expiry sweep---> EXPIRED
type PaymentService struct {
	store    PaymentStore
	gateway  PaymentGateway
	notifier PaymentNotifier
	logger   *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(store PaymentStore, gw PaymentGateway, notifier PaymentNotifier) *PaymentService {
	return &PaymentService{
		store:    store,
		gateway:  gw,
		notifier: notifier,
		logger:   util.GetLogger(),
	}
}

// PaymentRequestResult carries the redirect target for a newly opened
// payment
type PaymentRequestResult struct {
	RedirectURL string `json:"redirectUrl"`
	Authority   string `json:"authority"`
}

// RequestPayment opens a payment for an order. The charged amount is always
// the order snapshot's total. Amounts below the gateway minimum are
// rejected before any external call.
func (s *PaymentService) RequestPayment(ctx context.Context, user *models.User, orderID int64) (*PaymentRequestResult, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.RequestPayment")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != user.ID {
		return nil, ErrOrderAccessDenied
	}
	if order.Status == models.OrderStatusPaid {
		return nil, ErrOrderAlreadyPaid
	}
	if order.TotalCost < models.MinTransactionAmount {
		return nil, ErrAmountBelowMinimum
	}

	util.PaymentRequestsTotal.Inc()
	start := time.Now()
	authority, err := s.gateway.RequestPayment(ctx, gateway.PaymentRequest{
		Amount:      order.TotalCost,
		Description: fmt.Sprintf("payment for order %s", order.OrderNumber),
		Email:       user.Email,
		Mobile:      user.Phone,
	})
	util.GatewayRequestLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		util.PaymentFailedTotal.WithLabelValues("gateway_rejected").Inc()
		return nil, err
	}

	tx := &models.Transaction{
		UserID:      user.ID,
		OrderID:     order.ID,
		Amount:      order.TotalCost,
		Authority:   authority,
		Status:      models.TxStatusPending,
		Description: fmt.Sprintf("payment for order %s", order.OrderNumber),
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	s.logger.Info("Payment requested",
		zap.Int64("order_id", order.ID),
		zap.Int64("amount", tx.Amount),
		zap.String("authority", authority))

	return &PaymentRequestResult{
		RedirectURL: s.gateway.StartPayURL(authority),
		Authority:   authority,
	}, nil
}

// VerifyOutcome is the reconciled result of a gateway callback
type VerifyOutcome struct {
	Success    bool
	RefID      string
	FailReason string
}

// VerifyCallback reconciles a gateway callback into a transaction outcome.
// Terminal transactions short-circuit without touching the order, which
// makes a second verification of an already-SUCCESS transaction a no-op.
// A non-OK callback status marks the transaction FAILED without calling
// the gateway; verification always uses the stored transaction amount.
func (s *PaymentService) VerifyCallback(ctx context.Context, authority, callbackStatus string) (*VerifyOutcome, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.VerifyCallback")
	defer span.End()

	tx, err := s.store.GetTransactionByAuthority(ctx, authority)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	if tx.Terminal() {
		if tx.Status == models.TxStatusSuccess {
			return &VerifyOutcome{Success: true, RefID: tx.RefID}, nil
		}
		reason := tx.FailReason
		if reason == "" {
			reason = "transaction is no longer pending"
		}
		return &VerifyOutcome{Success: false, FailReason: reason}, nil
	}

	now := time.Now()

	if callbackStatus != "OK" {
		if err := s.store.MarkTransactionFailed(ctx, tx.ID, cancelledByUserReason, now); err != nil {
			return nil, fmt.Errorf("mark transaction failed: %w", err)
		}
		util.PaymentFailedTotal.WithLabelValues("cancelled").Inc()
		s.logger.Info("Payment cancelled by user", zap.Int64("tx_id", tx.ID))
		return &VerifyOutcome{Success: false, FailReason: cancelledByUserReason}, nil
	}

	result, err := s.gateway.VerifyPayment(ctx, authority, tx.Amount)
	if err != nil {
		var gwErr *gateway.Error
		if errors.As(err, &gwErr) {
			if err := s.store.MarkTransactionFailed(ctx, tx.ID, gwErr.Reason, now); err != nil {
				return nil, fmt.Errorf("mark transaction failed: %w", err)
			}
			util.PaymentFailedTotal.WithLabelValues("verification_rejected").Inc()
			return &VerifyOutcome{Success: false, FailReason: gwErr.Reason}, nil
		}
		// transport failure: leave the transaction PENDING for a retry or
		// the expiry sweep
		return nil, fmt.Errorf("verify payment: %w", err)
	}

	if err := s.store.MarkTransactionSuccess(ctx, tx.ID, result.RefID, now); err != nil {
		return nil, fmt.Errorf("mark transaction success: %w", err)
	}
	if err := s.store.MarkOrderPaid(ctx, tx.OrderID, tx.ID, result.RefID, now); err != nil {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}

	util.PaymentSuccessTotal.Inc()
	s.logger.Info("Payment verified",
		zap.Int64("tx_id", tx.ID),
		zap.Int64("order_id", tx.OrderID),
		zap.String("ref_id", result.RefID))

	s.publishConfirmation(ctx, tx, result.RefID)
	return &VerifyOutcome{Success: true, RefID: result.RefID}, nil
}

// publishConfirmation emits a best-effort payment notification; failures
// are logged and swallowed.
func (s *PaymentService) publishConfirmation(ctx context.Context, tx *models.Transaction, refID string) {
	if s.notifier == nil {
		return
	}

	orderNumber := ""
	if order, err := s.store.GetOrderByID(ctx, tx.OrderID); err == nil {
		orderNumber = order.OrderNumber
	}

	event := &models.PaymentConfirmedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentConfirmed,
			Timestamp: time.Now(),
		},
		OrderID:     tx.OrderID,
		OrderNumber: orderNumber,
		UserID:      tx.UserID,
		Amount:      tx.Amount,
		RefID:       refID,
	}
	if err := s.notifier.PublishPaymentConfirmed(ctx, event); err != nil {
		s.logger.Error("Failed to publish PaymentConfirmed event",
			zap.Int64("order_id", tx.OrderID),
			zap.Error(err))
	}
}

// ListUserTransactions retrieves the user's own transactions
func (s *PaymentService) ListUserTransactions(ctx context.Context, userID int64, page, limit int) ([]models.Transaction, error) {
	page, limit = normalizePage(page, limit)
	return s.store.GetTransactionsByUserID(ctx, userID, page, limit)
}

// ListAllTransactions retrieves all transactions for the admin listing
func (s *PaymentService) ListAllTransactions(ctx context.Context, status string, page, limit int) ([]models.Transaction, error) {
	page, limit = normalizePage(page, limit)
	return s.store.ListTransactions(ctx, status, page, limit)
}

// ExpireStale moves PENDING transactions older than the threshold to
// EXPIRED and reports how many were swept.
func (s *PaymentService) ExpireStale(ctx context.Context, threshold time.Duration) (int, error) {
	txs, err := s.store.FindExpiredTransactions(ctx, threshold)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range txs {
		if err := s.store.MarkTransactionExpired(ctx, txs[i].ID); err != nil {
			s.logger.Error("Failed to expire transaction",
				zap.Int64("tx_id", txs[i].ID),
				zap.Error(err))
			continue
		}
		expired++
		util.TransactionsExpiredTotal.Inc()
	}

	if expired > 0 {
		s.logger.Info("Expired stale transactions", zap.Int("count", expired))
	}
	return expired, nil
}
