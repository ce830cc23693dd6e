package models

import (
	"errors"
	"time"
)

// Shared persistence-level errors. The store translates driver errors into
// these so handlers never see raw pq codes.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate value for unique field")
	ErrInvalidID = errors.New("malformed identifier")
)

// User represents a registered customer or admin
type User struct {
	ID                int64      `db:"id" json:"id"`
	Username          string     `db:"username" json:"username"`
	Email             string     `db:"email" json:"email"`
	PasswordHash      string     `db:"password_hash" json:"-"`
	IsAdmin           bool       `db:"is_admin" json:"is_admin"`
	Phone             string     `db:"phone" json:"phone,omitempty"`
	PhoneVerified     bool       `db:"phone_verified" json:"phone_verified"`
	Active            bool       `db:"active" json:"-"`
	PasswordChangedAt *time.Time `db:"password_changed_at" json:"-"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// PasswordChangedAfter reports whether the password was changed after the
// given token issue time. Tokens minted before a password change are stale.
func (u *User) PasswordChangedAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.After(issuedAt)
}

// Category groups products; slug is derived from the title when absent
type Category struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Slug      string    `db:"slug" json:"slug"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Product represents a catalog entry. Price is in integer Tomans.
type Product struct {
	ID           int64     `db:"id" json:"id"`
	ProductCode  string    `db:"product_code" json:"product_code"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	ImagePath    string    `db:"image_path" json:"image_path"`
	Price        int64     `db:"price" json:"price"`
	CategoryID   int64     `db:"category_id" json:"category_id"`
	Manufacturer string    `db:"manufacturer" json:"manufacturer"`
	Available    bool      `db:"available" json:"available"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Order statuses. Statuses only advance; CANCELED is reachable from any
// non-terminal status.
const (
	OrderStatusPending    = "PENDING"
	OrderStatusPaid       = "PAID"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCanceled   = "CANCELED"
)

var orderStatusRank = map[string]int{
	OrderStatusPending:    0,
	OrderStatusPaid:       1,
	OrderStatusProcessing: 2,
	OrderStatusShipped:    3,
	OrderStatusDelivered:  4,
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	if s == OrderStatusCanceled {
		return true
	}
	_, ok := orderStatusRank[s]
	return ok
}

// CanTransitionOrder reports whether an order may move from one status to
// another. Transitions are one-directional.
func CanTransitionOrder(from, to string) bool {
	if from == OrderStatusCanceled || from == OrderStatusDelivered {
		return false
	}
	if to == OrderStatusCanceled {
		return true
	}
	fromRank, ok := orderStatusRank[from]
	if !ok {
		return false
	}
	toRank, ok := orderStatusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// Order holds an immutable snapshot of the cart at checkout time
type Order struct {
	ID            int64      `db:"id" json:"id"`
	OrderNumber   string     `db:"order_number" json:"order_number"`
	UserID        int64      `db:"user_id" json:"user_id"`
	Address       string     `db:"address" json:"address"`
	Status        string     `db:"status" json:"status"`
	TotalQty      int        `db:"total_qty" json:"total_qty"`
	TotalCost     int64      `db:"total_cost" json:"total_cost"`
	PaymentMethod string     `db:"payment_method" json:"payment_method,omitempty"`
	PaymentTxID   *int64     `db:"payment_tx_id" json:"payment_tx_id,omitempty"`
	PaymentRefID  string     `db:"payment_ref_id" json:"payment_ref_id,omitempty"`
	PaidAt        *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`

	Items []OrderItem `db:"-" json:"items,omitempty"`
}

// OrderItem is one snapshotted cart line
type OrderItem struct {
	ID          int64  `db:"id" json:"id"`
	OrderID     int64  `db:"order_id" json:"order_id"`
	ProductID   int64  `db:"product_id" json:"product_id"`
	Title       string `db:"title" json:"title"`
	ProductCode string `db:"product_code" json:"product_code"`
	Qty         int    `db:"qty" json:"qty"`
	UnitPrice   int64  `db:"unit_price" json:"unit_price"`
	Subtotal    int64  `db:"subtotal" json:"subtotal"`
}

// Transaction statuses
const (
	TxStatusPending = "PENDING"
	TxStatusSuccess = "SUCCESS"
	TxStatusFailed  = "FAILED"
	TxStatusExpired = "EXPIRED"
)

// Payment methods
const (
	PaymentMethodZarinpal       = "ZARINPAL"
	PaymentMethodCashOnDelivery = "CASH_ON_DELIVERY"
)

// MinTransactionAmount is the gateway's minimum chargeable amount in Tomans.
const MinTransactionAmount = 1000

// Transaction records one payment attempt against the gateway
type Transaction struct {
	ID          int64      `db:"id" json:"id"`
	UserID      int64      `db:"user_id" json:"user_id"`
	OrderID     int64      `db:"order_id" json:"order_id"`
	Amount      int64      `db:"amount" json:"amount"`
	Authority   string     `db:"authority" json:"authority"`
	RefID       string     `db:"ref_id" json:"ref_id,omitempty"`
	Status      string     `db:"status" json:"status"`
	Description string     `db:"description" json:"description"`
	FailReason  string     `db:"fail_reason" json:"fail_reason,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	VerifiedAt  *time.Time `db:"verified_at" json:"verified_at,omitempty"`
}

// Terminal reports whether the transaction reached a final status.
// Terminal transactions are never re-verified.
func (t *Transaction) Terminal() bool {
	return t.Status != TxStatusPending
}
