package lifecycle

import (
	"testing"
	"time"

	"ecoshopy/internal/cart"
	"ecoshopy/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func newOrder(status model.OrderStatus, payment model.PaymentStatus) *model.Order {
	return &model.Order{
		Items: []model.OrderItem{
			{ProductID: "X", Name: "Product X", Price: decimal.NewFromInt(100), Quantity: 2},
		},
		TotalAmount:   decimal.NewFromInt(200),
		Status:        status,
		PaymentStatus: payment,
		Timeline:      model.OrderTimeline{CreatedAt: now.Add(-time.Hour)},
	}
}

func TestCanTransition(t *testing.T) {
	all := []model.OrderStatus{
		model.OrderStatusInitiated,
		model.OrderStatusProcessing,
		model.OrderStatusShipped,
		model.OrderStatusDelivered,
		model.OrderStatusCancelled,
	}
	allowed := map[[2]model.OrderStatus]bool{
		{model.OrderStatusInitiated, model.OrderStatusProcessing}: true,
		{model.OrderStatusInitiated, model.OrderStatusCancelled}:  true,
		{model.OrderStatusProcessing, model.OrderStatusShipped}:   true,
		{model.OrderStatusProcessing, model.OrderStatusCancelled}: true,
		{model.OrderStatusShipped, model.OrderStatusDelivered}:    true,
		{model.OrderStatusShipped, model.OrderStatusCancelled}:    true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]model.OrderStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransitionPayment(t *testing.T) {
	assert.True(t, CanTransitionPayment(model.PaymentStatusAwaiting, model.PaymentStatusPaid))
	assert.True(t, CanTransitionPayment(model.PaymentStatusAwaiting, model.PaymentStatusFailed))
	assert.True(t, CanTransitionPayment(model.PaymentStatusFailed, model.PaymentStatusAwaiting))
	assert.True(t, CanTransitionPayment(model.PaymentStatusFailed, model.PaymentStatusPaid))
	assert.False(t, CanTransitionPayment(model.PaymentStatusPaid, model.PaymentStatusFailed))
	assert.False(t, CanTransitionPayment(model.PaymentStatusPaid, model.PaymentStatusAwaiting))
}

func TestPaymentSucceeded_MarksPaidAndProcessing(t *testing.T) {
	o := newOrder(model.OrderStatusInitiated, model.PaymentStatusAwaiting)
	o.RazorpayOrderID = "order_abc"

	u, err := PaymentSucceeded(o, "pay_123", "order_abc", "sig", now)

	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, o.PaymentStatus)
	assert.Equal(t, model.OrderStatusProcessing, o.Status)
	assert.Equal(t, "pay_123", o.RazorpayPaymentID)
	assert.Equal(t, "sig", o.RazorpaySignature)
	require.NotNil(t, o.Timeline.PaidAt)
	assert.Equal(t, now, *o.Timeline.PaidAt)

	require.NotNil(t, u.PaymentStatus)
	assert.Equal(t, model.PaymentStatusPaid, *u.PaymentStatus)
	require.NotNil(t, u.Status)
	assert.Equal(t, model.OrderStatusProcessing, *u.Status)
	require.NotNil(t, u.RazorpayPaymentID)
	assert.Equal(t, "pay_123", *u.RazorpayPaymentID)
	assert.NotNil(t, u.PaidAt)
}

func TestPaymentSucceeded(t *testing.T) {
	tests := []struct {
		name          string
		status        model.OrderStatus
		payment       model.PaymentStatus
		recordedPay   string
		paymentID     string
		providerOrder string
		expectErr     error
		expectNoop    bool
	}{
		{name: "From failed (late success)", status: model.OrderStatusInitiated, payment: model.PaymentStatusFailed, paymentID: "pay_1"},
		{name: "Duplicate callback", status: model.OrderStatusProcessing, payment: model.PaymentStatusPaid, recordedPay: "pay_1", paymentID: "pay_1", expectNoop: true},
		{name: "Different payment on paid order", status: model.OrderStatusProcessing, payment: model.PaymentStatusPaid, recordedPay: "pay_1", paymentID: "pay_2", expectErr: model.ErrInvalidTransition},
		{name: "Cancelled order", status: model.OrderStatusCancelled, payment: model.PaymentStatusAwaiting, paymentID: "pay_1", expectErr: model.ErrInvalidTransition},
		{name: "Provider order mismatch", status: model.OrderStatusInitiated, payment: model.PaymentStatusAwaiting, paymentID: "pay_1", providerOrder: "order_other", expectErr: model.ErrPaymentMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOrder(tt.status, tt.payment)
			o.RazorpayOrderID = "order_abc"
			o.RazorpayPaymentID = tt.recordedPay

			u, err := PaymentSucceeded(o, tt.paymentID, tt.providerOrder, "", now)

			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				assert.Equal(t, tt.status, o.Status)
				assert.Equal(t, tt.payment, o.PaymentStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectNoop, u.IsEmpty())
			assert.Equal(t, model.PaymentStatusPaid, o.PaymentStatus)
		})
	}
}

func TestPaymentSucceeded_RequiresPaymentID(t *testing.T) {
	o := newOrder(model.OrderStatusInitiated, model.PaymentStatusAwaiting)

	_, err := PaymentSucceeded(o, "", "", "", now)

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "razorpay_payment_id", verr.Field)
}

func TestPaymentSucceeded_ClearsFailureReason(t *testing.T) {
	o := newOrder(model.OrderStatusInitiated, model.PaymentStatusFailed)
	o.FailureReason = "card declined"

	u, err := PaymentSucceeded(o, "pay_9", "", "", now)

	require.NoError(t, err)
	assert.Empty(t, o.FailureReason)
	require.NotNil(t, u.FailureReason)
	assert.Empty(t, *u.FailureReason)
}

func TestPaymentFailed(t *testing.T) {
	o := newOrder(model.OrderStatusInitiated, model.PaymentStatusAwaiting)

	u, err := PaymentFailed(o, "  card declined ", "pay_fail_1")

	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusFailed, o.PaymentStatus)
	assert.Equal(t, model.OrderStatusInitiated, o.Status)
	assert.Equal(t, "card declined", o.FailureReason)
	assert.Equal(t, "pay_fail_1", o.RazorpayPaymentID)
	require.NotNil(t, u.FailureReason)
	assert.Equal(t, "card declined", *u.FailureReason)

	// A second failure while failed refreshes the reason only.
	u, err = PaymentFailed(o, "bank timeout", "")
	require.NoError(t, err)
	assert.Nil(t, u.PaymentStatus)
	assert.Equal(t, "bank timeout", o.FailureReason)
	assert.Equal(t, "pay_fail_1", o.RazorpayPaymentID)
}

func TestPaymentFailed_DefaultReason(t *testing.T) {
	o := newOrder(model.OrderStatusInitiated, model.PaymentStatusAwaiting)

	_, err := PaymentFailed(o, "", "")

	require.NoError(t, err)
	assert.Equal(t, "Payment failed", o.FailureReason)
}

func TestPaymentFailed_RejectedOnPaidOrder(t *testing.T) {
	o := newOrder(model.OrderStatusProcessing, model.PaymentStatusPaid)

	_, err := PaymentFailed(o, "declined", "pay_x")

	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.Equal(t, model.PaymentStatusPaid, o.PaymentStatus)
	assert.Empty(t, o.FailureReason)
}

func TestPaymentDismissed_MarksFailed(t *testing.T) {
	o := newOrder(model.OrderStatusInitiated, model.PaymentStatusAwaiting)

	u, err := PaymentDismissed(o)

	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusFailed, o.PaymentStatus)
	assert.Equal(t, model.OrderStatusInitiated, o.Status)
	assert.Equal(t, DismissedReason, o.FailureReason)
	assert.False(t, u.IsEmpty())
}

func TestPaymentDismissed_KeepsEarlierFailure(t *testing.T) {
	o := newOrder(model.OrderStatusInitiated, model.PaymentStatusFailed)
	o.FailureReason = "card declined"

	u, err := PaymentDismissed(o)

	require.NoError(t, err)
	assert.True(t, u.IsEmpty())
	assert.Equal(t, "card declined", o.FailureReason)
}

func TestRetryPayment(t *testing.T) {
	o := newOrder(model.OrderStatusInitiated, model.PaymentStatusFailed)
	o.FailureReason = "declined"

	u, err := RetryPayment(o)

	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusAwaiting, o.PaymentStatus)
	assert.Empty(t, o.FailureReason)
	require.NotNil(t, u.PaymentStatus)

	o.RazorpayOrderID = "order_rzp_1"
	_, err = RetryPayment(o)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.Equal(t, "order_rzp_1", o.RazorpayOrderID)

	paid := newOrder(model.OrderStatusProcessing, model.PaymentStatusPaid)
	_, err = RetryPayment(paid)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestChangeStatus(t *testing.T) {
	tests := []struct {
		name      string
		from      model.OrderStatus
		payment   model.PaymentStatus
		to        model.OrderStatus
		expectErr bool
	}{
		{name: "Processing to shipped", from: model.OrderStatusProcessing, payment: model.PaymentStatusPaid, to: model.OrderStatusShipped},
		{name: "Shipped to delivered", from: model.OrderStatusShipped, payment: model.PaymentStatusPaid, to: model.OrderStatusDelivered},
		{name: "Initiated to cancelled", from: model.OrderStatusInitiated, payment: model.PaymentStatusAwaiting, to: model.OrderStatusCancelled},
		{name: "Shipped to cancelled", from: model.OrderStatusShipped, payment: model.PaymentStatusPaid, to: model.OrderStatusCancelled},
		{name: "Initiated to processing when paid", from: model.OrderStatusInitiated, payment: model.PaymentStatusPaid, to: model.OrderStatusProcessing},
		{name: "Initiated to processing unpaid", from: model.OrderStatusInitiated, payment: model.PaymentStatusAwaiting, to: model.OrderStatusProcessing, expectErr: true},
		{name: "Skip to delivered", from: model.OrderStatusProcessing, payment: model.PaymentStatusPaid, to: model.OrderStatusDelivered, expectErr: true},
		{name: "Backwards", from: model.OrderStatusShipped, payment: model.PaymentStatusPaid, to: model.OrderStatusProcessing, expectErr: true},
		{name: "Delivered is terminal", from: model.OrderStatusDelivered, payment: model.PaymentStatusPaid, to: model.OrderStatusCancelled, expectErr: true},
		{name: "Cancelled is terminal", from: model.OrderStatusCancelled, payment: model.PaymentStatusAwaiting, to: model.OrderStatusInitiated, expectErr: true},
		{name: "Cancelled to processing", from: model.OrderStatusCancelled, payment: model.PaymentStatusPaid, to: model.OrderStatusProcessing, expectErr: true},
		{name: "Unknown status", from: model.OrderStatusProcessing, payment: model.PaymentStatusPaid, to: model.OrderStatus("LOST"), expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOrder(tt.from, tt.payment)

			u, err := ChangeStatus(o, tt.to, now)

			if tt.expectErr {
				assert.ErrorIs(t, err, model.ErrInvalidTransition)
				assert.Equal(t, tt.from, o.Status)
				assert.True(t, u.IsEmpty())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, o.Status)
			require.NotNil(t, u.Status)
			assert.Equal(t, tt.to, *u.Status)
			assert.Equal(t, tt.to == model.OrderStatusCancelled, u.Restocks())
		})
	}
}

func TestChangeStatus_RecordsMilestones(t *testing.T) {
	o := newOrder(model.OrderStatusProcessing, model.PaymentStatusPaid)

	u, err := ChangeStatus(o, model.OrderStatusShipped, now)
	require.NoError(t, err)
	require.NotNil(t, u.ShippedAt)

	later := now.Add(48 * time.Hour)
	u, err = ChangeStatus(o, model.OrderStatusDelivered, later)
	require.NoError(t, err)
	require.NotNil(t, u.DeliveredAt)
	assert.Equal(t, later, *o.Timeline.DeliveredAt)
	assert.Equal(t, now, *o.Timeline.ShippedAt)
}

func TestMarkPaidByAdmin(t *testing.T) {
	for _, payment := range []model.PaymentStatus{model.PaymentStatusAwaiting, model.PaymentStatusFailed} {
		t.Run(string(payment), func(t *testing.T) {
			o := newOrder(model.OrderStatusInitiated, payment)

			u, err := MarkPaidByAdmin(o, "admin-7", "Verified on provider dashboard", now)

			require.NoError(t, err)
			assert.Equal(t, model.PaymentStatusPaid, o.PaymentStatus)
			assert.Equal(t, model.OrderStatusProcessing, o.Status)
			require.Len(t, o.AdminActions, 1)
			assert.Equal(t, model.AdminActionMarkPaid, o.AdminActions[0].Action)
			require.NotNil(t, u.AdminAction)
			assert.Equal(t, "admin-7", u.AdminAction.AdminID)
			assert.Equal(t, "Verified on provider dashboard", u.AdminAction.Reason)
			assert.Equal(t, now, u.AdminAction.Timestamp)
		})
	}
}

func TestMarkPaidByAdmin_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		order     *model.Order
		adminID   string
		reason    string
		expectErr error
	}{
		{name: "Missing reason", order: newOrder(model.OrderStatusInitiated, model.PaymentStatusAwaiting), adminID: "a1", reason: "  ", expectErr: model.ErrAdminReasonRequired},
		{name: "Missing admin", order: newOrder(model.OrderStatusInitiated, model.PaymentStatusAwaiting), adminID: "", reason: "r", expectErr: model.ErrAdminIDRequired},
		{name: "Already paid", order: newOrder(model.OrderStatusProcessing, model.PaymentStatusPaid), adminID: "a1", reason: "r", expectErr: model.ErrInvalidTransition},
		{name: "Cancelled", order: newOrder(model.OrderStatusCancelled, model.PaymentStatusFailed), adminID: "a1", reason: "r", expectErr: model.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarkPaidByAdmin(tt.order, tt.adminID, tt.reason, now)

			assert.ErrorIs(t, err, tt.expectErr)
			assert.Empty(t, tt.order.AdminActions)
		})
	}
}

func TestMarkPaidByAdmin_AppendsToExistingLog(t *testing.T) {
	o := newOrder(model.OrderStatusInitiated, model.PaymentStatusFailed)
	earlier := model.AdminAction{Action: model.AdminActionMarkPaid, AdminID: "old", Reason: "earlier", Timestamp: now.Add(-time.Hour)}
	o.AdminActions = []model.AdminAction{earlier}

	_, err := MarkPaidByAdmin(o, "admin-2", "callback lost", now)

	require.NoError(t, err)
	require.Len(t, o.AdminActions, 2)
	assert.Equal(t, earlier, o.AdminActions[0])
	assert.Equal(t, "admin-2", o.AdminActions[1].AdminID)
}

func TestSnapshot_CopiesCartLines(t *testing.T) {
	c := cart.New()
	c.Add(cart.Item{Product: model.Product{ID: "X", Name: "X", Price: decimal.NewFromInt(100), Stock: 10}}, 2)
	c.Add(cart.Item{Product: model.Product{ID: "Y", Name: "Y", Price: decimal.NewFromInt(50), Stock: 10}}, 1)

	o, err := Snapshot(c, model.CheckoutRequest{CartID: " cart-1 ", CustomerName: " Asha "}, decimal.Zero, decimal.Zero, now)

	require.NoError(t, err)
	assert.Equal(t, "cart-1", o.CartID)
	assert.True(t, decimal.NewFromInt(250).Equal(o.TotalAmount))
	assert.Equal(t, model.OrderStatusInitiated, o.Status)
	assert.Equal(t, model.PaymentStatusAwaiting, o.PaymentStatus)
	assert.Len(t, o.Items, 2)
	assert.Equal(t, model.GuestUserID, o.UserID)
	assert.Equal(t, "Asha", o.CustomerName)
	assert.Equal(t, now, o.Timeline.CreatedAt)

	// Later cart changes do not touch the snapshot.
	c.Add(cart.Item{Product: model.Product{ID: "Z", Price: decimal.NewFromInt(999), Stock: 1}}, 1)
	c.UpdateQuantity(cart.Key{ProductID: "X"}, 9)
	assert.True(t, decimal.NewFromInt(250).Equal(o.TotalAmount))
	assert.Equal(t, 2, o.Items[0].Quantity)
}

func TestSnapshot_IncludesCharges(t *testing.T) {
	c := cart.New()
	c.Add(cart.Item{Product: model.Product{ID: "X", Price: decimal.RequireFromString("99.50"), Stock: 3}}, 2)

	o, err := Snapshot(c, model.CheckoutRequest{UserID: "u-1"}, decimal.NewFromInt(40), decimal.RequireFromString("9.95"), now)

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("199").Equal(o.Subtotal))
	assert.True(t, decimal.RequireFromString("248.95").Equal(o.TotalAmount))
	assert.Equal(t, "u-1", o.UserID)
}

func TestSnapshot_EmptyCart(t *testing.T) {
	_, err := Snapshot(cart.New(), model.CheckoutRequest{}, decimal.Zero, decimal.Zero, now)
	assert.ErrorIs(t, err, model.ErrEmptyCart)

	_, err = Snapshot(nil, model.CheckoutRequest{}, decimal.Zero, decimal.Zero, now)
	assert.ErrorIs(t, err, model.ErrEmptyCart)
}

func TestValidateNew(t *testing.T) {
	o := newOrder(model.OrderStatusInitiated, model.PaymentStatusAwaiting)
	require.NoError(t, ValidateNew(o))

	o.TotalAmount = decimal.NewFromInt(199)
	var verr *model.ValidationError
	assert.ErrorAs(t, ValidateNew(o), &verr)

	empty := newOrder(model.OrderStatusInitiated, model.PaymentStatusAwaiting)
	empty.Items = nil
	assert.ErrorIs(t, ValidateNew(empty), model.ErrEmptyCart)
}
