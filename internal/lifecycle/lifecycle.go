// Package lifecycle implements the order state machine. Every transition
// validates the current state, mutates the order in memory and returns the
// partial update a repository must persist.
package lifecycle

import (
	"strings"
	"time"

	"ecoshopy/internal/model"
)

// DismissedReason is recorded when the customer closes the payment widget.
const DismissedReason = "Payment cancelled by user"

var statusEdges = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusInitiated:  {model.OrderStatusProcessing, model.OrderStatusCancelled},
	model.OrderStatusProcessing: {model.OrderStatusShipped, model.OrderStatusCancelled},
	model.OrderStatusShipped:    {model.OrderStatusDelivered, model.OrderStatusCancelled},
}

var paymentEdges = map[model.PaymentStatus][]model.PaymentStatus{
	model.PaymentStatusAwaiting: {model.PaymentStatusPaid, model.PaymentStatusFailed},
	model.PaymentStatusFailed:   {model.PaymentStatusAwaiting, model.PaymentStatusPaid},
}

// CanTransition reports whether from → to is a declared status edge.
func CanTransition(from, to model.OrderStatus) bool {
	for _, s := range statusEdges[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanTransitionPayment reports whether from → to is a declared payment edge.
func CanTransitionPayment(from, to model.PaymentStatus) bool {
	for _, s := range paymentEdges[from] {
		if s == to {
			return true
		}
	}
	return false
}

// PaymentSucceeded records a provider success callback: the order becomes
// PAID and PROCESSING. A repeated callback for the recorded payment is a
// no-op and returns an empty update.
func PaymentSucceeded(o *model.Order, paymentID, providerOrderID, signature string, at time.Time) (model.OrderUpdate, error) {
	if paymentID == "" {
		return model.OrderUpdate{}, model.NewValidationError("razorpay_payment_id", "is required")
	}
	if o.PaymentStatus == model.PaymentStatusPaid {
		if o.RazorpayPaymentID == paymentID {
			return model.OrderUpdate{}, nil
		}
		return model.OrderUpdate{}, model.ErrInvalidTransition
	}
	if !CanTransitionPayment(o.PaymentStatus, model.PaymentStatusPaid) || o.Status != model.OrderStatusInitiated {
		return model.OrderUpdate{}, model.ErrInvalidTransition
	}
	if providerOrderID != "" && o.RazorpayOrderID != "" && providerOrderID != o.RazorpayOrderID {
		return model.OrderUpdate{}, model.ErrPaymentMismatch
	}

	u := markPaid(o, at)
	o.RazorpayPaymentID = paymentID
	u.RazorpayPaymentID = &o.RazorpayPaymentID
	if providerOrderID != "" {
		o.RazorpayOrderID = providerOrderID
		u.RazorpayOrderID = &o.RazorpayOrderID
	}
	if signature != "" {
		o.RazorpaySignature = signature
		u.RazorpaySignature = &o.RazorpaySignature
	}
	return u, nil
}

// PaymentFailed records a provider failure callback. The order returns to
// INITIATED with payment FAILED so the customer can retry. A failure while
// already FAILED only refreshes the reason and payment id.
func PaymentFailed(o *model.Order, reason, paymentID string) (model.OrderUpdate, error) {
	if o.PaymentStatus != model.PaymentStatusFailed && !CanTransitionPayment(o.PaymentStatus, model.PaymentStatusFailed) {
		return model.OrderUpdate{}, model.ErrInvalidTransition
	}
	if o.Status != model.OrderStatusInitiated {
		return model.OrderUpdate{}, model.ErrInvalidTransition
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "Payment failed"
	}

	var u model.OrderUpdate
	if o.PaymentStatus != model.PaymentStatusFailed {
		o.PaymentStatus = model.PaymentStatusFailed
		u.PaymentStatus = &o.PaymentStatus
	}
	o.Status = model.OrderStatusInitiated
	u.Status = &o.Status
	o.FailureReason = reason
	u.FailureReason = &o.FailureReason
	if paymentID != "" {
		o.RazorpayPaymentID = paymentID
		u.RazorpayPaymentID = &o.RazorpayPaymentID
	}
	return u, nil
}

// PaymentDismissed records the customer closing the payment widget before
// completing payment. It is a no-op on an order that already failed.
func PaymentDismissed(o *model.Order) (model.OrderUpdate, error) {
	if o.PaymentStatus == model.PaymentStatusFailed && o.Status == model.OrderStatusInitiated {
		return model.OrderUpdate{}, nil
	}
	return PaymentFailed(o, DismissedReason, "")
}

// RetryPayment moves a FAILED order back to AWAITING_PAYMENT. The order id
// is reused. An order still awaiting payment cannot be retried: its current
// provider order may already hold a captured payment.
func RetryPayment(o *model.Order) (model.OrderUpdate, error) {
	if o.Status != model.OrderStatusInitiated || o.PaymentStatus != model.PaymentStatusFailed {
		return model.OrderUpdate{}, model.ErrInvalidTransition
	}
	if !CanTransitionPayment(o.PaymentStatus, model.PaymentStatusAwaiting) {
		return model.OrderUpdate{}, model.ErrInvalidTransition
	}

	var u model.OrderUpdate
	o.PaymentStatus = model.PaymentStatusAwaiting
	u.PaymentStatus = &o.PaymentStatus
	o.FailureReason = ""
	u.FailureReason = &o.FailureReason
	return u, nil
}

// ChangeStatus applies an admin fulfilment transition. Moving to PROCESSING
// requires a paid order; unpaid orders go through MarkPaidByAdmin instead.
func ChangeStatus(o *model.Order, to model.OrderStatus, at time.Time) (model.OrderUpdate, error) {
	if !to.Valid() || !CanTransition(o.Status, to) {
		return model.OrderUpdate{}, model.ErrInvalidTransition
	}
	if to == model.OrderStatusProcessing && o.PaymentStatus != model.PaymentStatusPaid {
		return model.OrderUpdate{}, model.ErrInvalidTransition
	}

	var u model.OrderUpdate
	o.Status = to
	u.Status = &o.Status

	switch to {
	case model.OrderStatusShipped:
		u.ShippedAt = setOnce(&o.Timeline.ShippedAt, at)
	case model.OrderStatusDelivered:
		u.DeliveredAt = setOnce(&o.Timeline.DeliveredAt, at)
	case model.OrderStatusCancelled:
		u.CancelledAt = setOnce(&o.Timeline.CancelledAt, at)
	}
	return u, nil
}

// MarkPaidByAdmin forces an unpaid order to PAID and PROCESSING for manual
// reconciliation, and appends the mandatory audit entry.
func MarkPaidByAdmin(o *model.Order, adminID, reason string, at time.Time) (model.OrderUpdate, error) {
	adminID = strings.TrimSpace(adminID)
	reason = strings.TrimSpace(reason)
	if adminID == "" {
		return model.OrderUpdate{}, model.ErrAdminIDRequired
	}
	if reason == "" {
		return model.OrderUpdate{}, model.ErrAdminReasonRequired
	}
	if !CanTransitionPayment(o.PaymentStatus, model.PaymentStatusPaid) || o.Status != model.OrderStatusInitiated {
		return model.OrderUpdate{}, model.ErrInvalidTransition
	}

	u := markPaid(o, at)
	action := model.AdminAction{
		Action:    model.AdminActionMarkPaid,
		Timestamp: at,
		AdminID:   adminID,
		Reason:    reason,
	}
	o.AdminActions = append(o.AdminActions, action)
	u.AdminAction = &action
	return u, nil
}

// ValidateNew checks the invariants of an order about to be created.
func ValidateNew(o *model.Order) error {
	if len(o.Items) == 0 {
		return model.ErrEmptyCart
	}
	if o.Status != model.OrderStatusInitiated || o.PaymentStatus != model.PaymentStatusAwaiting {
		return model.ErrInvalidTransition
	}
	sum := o.ShippingAmount.Add(o.TaxAmount)
	for _, item := range o.Items {
		if item.Quantity < 1 {
			return model.ErrInvalidQuantity
		}
		sum = sum.Add(item.LineTotal())
	}
	if !sum.Equal(o.TotalAmount) {
		return model.NewValidationError("totalAmount", "does not match the order items")
	}
	return nil
}

func markPaid(o *model.Order, at time.Time) model.OrderUpdate {
	var u model.OrderUpdate
	o.PaymentStatus = model.PaymentStatusPaid
	u.PaymentStatus = &o.PaymentStatus
	o.Status = model.OrderStatusProcessing
	u.Status = &o.Status
	if o.FailureReason != "" {
		o.FailureReason = ""
		u.FailureReason = &o.FailureReason
	}
	u.PaidAt = setOnce(&o.Timeline.PaidAt, at)
	return u
}

// setOnce sets a timeline milestone unless it is already recorded.
func setOnce(field **time.Time, at time.Time) *time.Time {
	if *field != nil {
		return nil
	}
	t := at
	*field = &t
	return &t
}
