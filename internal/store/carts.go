package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shop-service/internal/models"
)

// GetOrCreateCart returns the user's cart with its items, creating an empty
// cart on first use.
func (s *Store) GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.GetContext(ctx, &cart, "SELECT * FROM carts WHERE user_id = $1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		err = s.db.GetContext(ctx, &cart, `
			INSERT INTO carts (user_id, total_qty, total_cost)
			VALUES ($1, 0, 0)
			RETURNING *`, userID)
	}
	if err != nil {
		return nil, translateErr(err)
	}

	if err := s.db.SelectContext(ctx, &cart.Items,
		"SELECT * FROM cart_items WHERE cart_id = $1 ORDER BY id", cart.ID); err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	return &cart, nil
}

// SaveCart persists the whole cart document in one transaction: totals are
// updated and the line items are rewritten, never partially.
func (s *Store) SaveCart(ctx context.Context, cart *models.Cart) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"UPDATE carts SET total_qty = $1, total_cost = $2, updated_at = NOW() WHERE id = $3",
		cart.TotalQty, cart.TotalCost, cart.ID)
	if err != nil {
		return fmt.Errorf("update cart totals: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = $1", cart.ID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}

	for i := range cart.Items {
		item := &cart.Items[i]
		err := tx.GetContext(ctx, &item.ID, `
			INSERT INTO cart_items (cart_id, product_id, title, product_code, qty, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			cart.ID, item.ProductID, item.Title, item.ProductCode, item.Qty, item.UnitPrice, item.Subtotal)
		if err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
		item.CartID = cart.ID
	}

	return tx.Commit()
}
