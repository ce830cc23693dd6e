package store

import (
	"context"
	"fmt"
	"time"

	"shop-service/internal/models"
)

// CreateTransaction inserts a new payment transaction in PENDING
func (s *Store) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, order_id, amount, authority, status, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := s.db.GetContext(ctx, t, query,
		t.UserID, t.OrderID, t.Amount, t.Authority, t.Status, t.Description)
	return translateErr(err)
}

// GetTransactionByAuthority retrieves a transaction by its gateway authority
func (s *Store) GetTransactionByAuthority(ctx context.Context, authority string) (*models.Transaction, error) {
	var t models.Transaction
	err := s.db.GetContext(ctx, &t,
		"SELECT * FROM transactions WHERE authority = $1", authority)
	if err != nil {
		return nil, translateErr(err)
	}
	return &t, nil
}

// MarkTransactionSuccess finalizes a transaction as SUCCESS with the
// gateway reference id
func (s *Store) MarkTransactionSuccess(ctx context.Context, txID int64, refID string, verifiedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET status = $1, ref_id = $2, verified_at = $3, fail_reason = ''
		WHERE id = $4`,
		models.TxStatusSuccess, refID, verifiedAt, txID)
	return translateErr(err)
}

// MarkTransactionFailed finalizes a transaction as FAILED with a reason
func (s *Store) MarkTransactionFailed(ctx context.Context, txID int64, reason string, verifiedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET status = $1, fail_reason = $2, verified_at = $3
		WHERE id = $4`,
		models.TxStatusFailed, reason, verifiedAt, txID)
	return translateErr(err)
}

// GetTransactionsByUserID retrieves a user's transactions, newest first
func (s *Store) GetTransactionsByUserID(ctx context.Context, userID int64, page, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.SelectContext(ctx, &txs,
		"SELECT * FROM transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3",
		userID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// ListTransactions retrieves all transactions for the admin listing,
// optionally filtered by status
func (s *Store) ListTransactions(ctx context.Context, status string, page, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	var err error
	if status != "" {
		err = s.db.SelectContext(ctx, &txs,
			"SELECT * FROM transactions WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3",
			status, limit, (page-1)*limit)
	} else {
		err = s.db.SelectContext(ctx, &txs,
			"SELECT * FROM transactions ORDER BY created_at DESC LIMIT $1 OFFSET $2",
			limit, (page-1)*limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// FindExpiredTransactions returns PENDING transactions older than the
// threshold, feeding the expiry sweep
func (s *Store) FindExpiredTransactions(ctx context.Context, threshold time.Duration) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.SelectContext(ctx, &txs,
		"SELECT * FROM transactions WHERE status = $1 AND created_at < $2",
		models.TxStatusPending, time.Now().Add(-threshold))
	if err != nil {
		return nil, fmt.Errorf("find expired transactions: %w", err)
	}
	return txs, nil
}

// MarkTransactionExpired moves a PENDING transaction to EXPIRED. The status
// guard keeps the sweep from clobbering a concurrent verification.
func (s *Store) MarkTransactionExpired(ctx context.Context, txID int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET status = $1 WHERE id = $2 AND status = $3",
		models.TxStatusExpired, txID, models.TxStatusPending)
	return translateErr(err)
}
