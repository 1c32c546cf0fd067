package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GuestUserID is recorded as the user of orders placed without an account.
const GuestUserID = "guest"

// OrderStatus is the fulfilment status of an order.
type OrderStatus string

const (
	OrderStatusInitiated  OrderStatus = "INITIATED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// IsTerminal reports whether no further status transition is permitted.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusInitiated, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// PaymentStatus is the payment axis of an order, orthogonal to OrderStatus.
type PaymentStatus string

const (
	PaymentStatusAwaiting PaymentStatus = "AWAITING_PAYMENT"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusAwaiting, PaymentStatusPaid, PaymentStatusFailed:
		return true
	}
	return false
}

func (s PaymentStatus) String() string {
	return string(s)
}

// AdminActionMarkPaid is the only admin action kind recorded today.
const AdminActionMarkPaid = "MARK_AS_PAID"

// Order represents a placed customer order. Items and amounts are a snapshot
// taken at checkout and are never recomputed.
type Order struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Items          []OrderItem     `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	ShippingAmount decimal.Decimal `json:"shippingAmount" db:"shipping_amount"`
	TaxAmount      decimal.Decimal `json:"taxAmount" db:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"totalAmount" db:"total_amount"`
	Status         OrderStatus     `json:"status" db:"status"`
	PaymentStatus  PaymentStatus   `json:"paymentStatus" db:"payment_status"`
	CustomerName   string          `json:"customerName" db:"customer_name"`
	Email          string          `json:"email" db:"email"`
	Phone          string          `json:"phone" db:"phone"`
	Address        Address         `json:"address"`
	UserID         string          `json:"userId" db:"user_id"`
	CartID         string          `json:"cartId,omitempty" db:"cart_id"`
	Timeline       OrderTimeline   `json:"orderTimeline"`
	AdminActions   []AdminAction   `json:"adminActions,omitempty"`

	RazorpayPaymentID string `json:"razorpay_payment_id,omitempty" db:"razorpay_payment_id"`
	RazorpayOrderID   string `json:"razorpay_order_id,omitempty" db:"razorpay_order_id"`
	RazorpaySignature string `json:"razorpay_signature,omitempty" db:"razorpay_signature"`
	FailureReason     string `json:"failureReason,omitempty" db:"failure_reason"`

	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// State returns the order's position on both lifecycle axes.
func (o *Order) State() OrderState {
	return OrderState{Status: o.Status, PaymentStatus: o.PaymentStatus}
}

// OrderState pairs the two lifecycle axes. Repositories use it as the
// expected state when applying an update.
type OrderState struct {
	Status        OrderStatus
	PaymentStatus PaymentStatus
}

// OrderItem is a line of an order, decoupled from the live product.
type OrderItem struct {
	ProductID string          `json:"productId" db:"product_id"`
	Name      string          `json:"name" db:"name"`
	Variant   string          `json:"variant,omitempty" db:"variant"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Image     string          `json:"image" db:"image"`
}

// LineTotal returns price × quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Address is the structured shipping address captured at checkout.
type Address struct {
	Street         string `json:"street" db:"street" validate:"required,max=200"`
	Locality       string `json:"locality" db:"locality" validate:"max=200"`
	City           string `json:"city" db:"city" validate:"required,max=100"`
	State          string `json:"state" db:"state" validate:"required,max=100"`
	Zip            string `json:"zip" db:"zip" validate:"required,numeric,len=6"`
	Landmark       string `json:"landmark,omitempty" db:"landmark"`
	AlternatePhone string `json:"alternatePhone,omitempty" db:"alternate_phone" validate:"omitempty,min=10,max=15"`
	Country        string `json:"country" db:"country"`
}

// OrderTimeline records lifecycle milestones. A milestone is set once.
type OrderTimeline struct {
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	PaidAt      *time.Time `json:"paidAt,omitempty" db:"paid_at"`
	ShippedAt   *time.Time `json:"shippedAt,omitempty" db:"shipped_at"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty" db:"delivered_at"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty" db:"cancelled_at"`
}

// AdminAction is an entry of the append-only admin audit log.
type AdminAction struct {
	Action    string    `json:"action" db:"action"`
	Timestamp time.Time `json:"timestamp" db:"created_at"`
	AdminID   string    `json:"adminId" db:"admin_id"`
	Reason    string    `json:"reason" db:"reason"`
}

// OrderUpdate is a partial update of an order. Nil fields are left untouched.
type OrderUpdate struct {
	Status            *OrderStatus
	PaymentStatus     *PaymentStatus
	RazorpayPaymentID *string
	RazorpayOrderID   *string
	RazorpaySignature *string
	FailureReason     *string
	PaidAt            *time.Time
	ShippedAt         *time.Time
	DeliveredAt       *time.Time
	CancelledAt       *time.Time

	// AdminAction, when set, is appended to the audit log in the same write.
	AdminAction *AdminAction
}

// IsEmpty reports whether the update changes nothing.
func (u OrderUpdate) IsEmpty() bool {
	return u == OrderUpdate{}
}

// Restocks reports whether applying the update returns items to stock.
func (u OrderUpdate) Restocks() bool {
	return u.Status != nil && *u.Status == OrderStatusCancelled
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	Status        OrderStatus
	PaymentStatus PaymentStatus
	CreatedBefore time.Time
	Limit         int
	Offset        int
}

// CheckoutRequest represents the checkout form submitted by the storefront.
type CheckoutRequest struct {
	CartID       string  `json:"cartId" validate:"required"`
	CustomerName string  `json:"customerName" validate:"required,max=200"`
	Email        string  `json:"email" validate:"required,email"`
	Phone        string  `json:"phone" validate:"required,min=10,max=15"`
	Address      Address `json:"address"`
	UserID       string  `json:"userId,omitempty"`
}

// CheckoutResponse carries the persisted order and the payment intent the
// storefront hands to the payment widget.
type CheckoutResponse struct {
	Order   *Order         `json:"order"`
	Payment *PaymentIntent `json:"payment"`
}

// PaymentIntent is what the client needs to open the provider checkout.
type PaymentIntent struct {
	Provider        string `json:"provider"`
	KeyID           string `json:"keyId"`
	ProviderOrderID string `json:"providerOrderId"`
	OrderID         string `json:"orderId"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Contact         string `json:"contact"`
}

// PaymentSuccess is the provider success callback payload.
type PaymentSuccess struct {
	CartID            string `json:"cartId,omitempty"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpayOrderID   string `json:"razorpay_order_id,omitempty"`
	RazorpaySignature string `json:"razorpay_signature,omitempty"`
}

// PaymentFailure is the provider failure callback payload.
type PaymentFailure struct {
	Reason    string `json:"reason"`
	PaymentID string `json:"paymentId,omitempty"`
}

// PaymentConfirmation is returned after a successful payment.
type PaymentConfirmation struct {
	Order       *Order `json:"order"`
	RedirectURL string `json:"redirectUrl"`
}

// StatusUpdateRequest is the admin fulfilment update payload.
type StatusUpdateRequest struct {
	Status OrderStatus `json:"status"`
}

// MarkPaidRequest is the admin manual reconciliation payload.
type MarkPaidRequest struct {
	Reason string `json:"reason"`
}
