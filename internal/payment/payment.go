// Package payment talks to the payment gateway: creating provider orders,
// verifying checkout signatures and querying payment attempts.
package payment

import (
	"context"

	"ecoshopy/internal/model"

	"github.com/shopspring/decimal"
)

// Payment statuses reported by the provider.
const (
	StatusCreated    = "created"
	StatusAuthorized = "authorized"
	StatusCaptured   = "captured"
	StatusRefunded   = "refunded"
	StatusFailed     = "failed"
)

// Customer is the prefill data handed to the payment widget.
type Customer struct {
	Name    string
	Email   string
	Contact string
}

// Request asks the provider to prepare a payment for an order.
type Request struct {
	OrderID  string
	Amount   decimal.Decimal
	Currency string
	Customer Customer
}

// Payment is one payment attempt recorded by the provider against an order.
type Payment struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Status           string `json:"status"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	ErrorDescription string `json:"error_description"`
}

// Succeeded reports whether the money has moved (or is guaranteed to).
func (p Payment) Succeeded() bool {
	return p.Status == StatusCaptured || p.Status == StatusAuthorized
}

// Provider is a payment gateway.
type Provider interface {
	// Initiate creates a provider-side order for the amount and returns what
	// the client needs to open the checkout widget.
	Initiate(ctx context.Context, req Request) (*model.PaymentIntent, error)

	// VerifySignature checks the signature returned by the checkout widget.
	// Returns model.ErrInvalidSignature on mismatch.
	VerifySignature(providerOrderID, paymentID, signature string) error

	// FetchPayments lists payment attempts made against a provider order.
	FetchPayments(ctx context.Context, providerOrderID string) ([]Payment, error)
}

// ToMinorUnits converts an amount to the smallest currency unit (paise for INR).
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
