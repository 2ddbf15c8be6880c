package domain

import "time"

// PaymentStatus represents the payment lifecycle of an order.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusFailed PaymentStatus = "failed"
)

// OrderStatus represents the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is created by the storefront; this service only transitions its
// payment fields. The paid transition happens at most once.
type Order struct {
	ID                   string        `json:"id"`
	UserID               string        `json:"userId"`
	Amount               int64         `json:"amount"` // Minor currency units
	Currency             string        `json:"currency"`
	PaymentStatus        PaymentStatus `json:"paymentStatus"`
	Status               OrderStatus   `json:"status"`
	Verified             bool          `json:"verified"`
	PaymentIntentID      *string       `json:"paymentIntentId,omitempty"`
	ChargeID             *string       `json:"chargeId,omitempty"`
	PaymentFailureReason *string       `json:"paymentFailureReason,omitempty"`
	PaidAt               *time.Time    `json:"paidAt,omitempty"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

// IsPaid returns true once the order has been reconciled as paid.
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}
