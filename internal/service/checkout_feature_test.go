package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"testing"

	"ecoshopy/internal/cartstore"
	"ecoshopy/internal/config"
	"ecoshopy/internal/model"
	"ecoshopy/internal/payment"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const featureSecret = "feature-secret"

// memoryCatalog is an in-memory ProductRepository.
type memoryCatalog struct {
	mu       sync.Mutex
	products map[string]model.Product
}

func newMemoryCatalog() *memoryCatalog {
	return &memoryCatalog{products: make(map[string]model.Product)}
}

func (c *memoryCatalog) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	return out, nil
}

func (c *memoryCatalog) GetByID(ctx context.Context, id string) (*model.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *memoryCatalog) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []model.Product{}
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *memoryCatalog) UpdatePricing(ctx context.Context, id, variant string, price decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return model.ErrProductNotFound
	}
	p.Price = price
	c.products[id] = p
	return nil
}

func (c *memoryCatalog) Upsert(ctx context.Context, p *model.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = *p
	return nil
}

func (c *memoryCatalog) adjustStock(items []model.OrderItem, sign int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range items {
		if c.products[item.ProductID].Stock+sign*item.Quantity < 0 {
			return model.ErrInsufficientStock
		}
	}
	for _, item := range items {
		p := c.products[item.ProductID]
		p.Stock += sign * item.Quantity
		c.products[item.ProductID] = p
	}
	return nil
}

// memoryOrders is an in-memory OrderRepository sharing stock with a catalog.
type memoryOrders struct {
	mu      sync.Mutex
	catalog *memoryCatalog
	orders  map[uuid.UUID]model.Order
}

func (r *memoryOrders) CreateOrder(ctx context.Context, order *model.Order) error {
	if err := r.catalog.adjustStock(order.Items, -1); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	r.orders[order.ID] = *order
	return nil
}

func (r *memoryOrders) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r *memoryOrders) UpdateOrder(ctx context.Context, id uuid.UUID, expect model.OrderState, u model.OrderUpdate) error {
	r.mu.Lock()
	o, ok := r.orders[id]
	if !ok {
		r.mu.Unlock()
		return model.ErrOrderNotFound
	}
	if o.State() != expect {
		r.mu.Unlock()
		return model.ErrConcurrentUpdate
	}
	applyUpdate(&o, u)
	r.orders[id] = o
	r.mu.Unlock()

	if u.Restocks() {
		return r.catalog.adjustStock(o.Items, 1)
	}
	return nil
}

func (r *memoryOrders) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Order{}
	for _, o := range r.orders {
		if filter.PaymentStatus == "" || o.PaymentStatus == filter.PaymentStatus {
			out = append(out, o)
		}
	}
	return out, nil
}

func applyUpdate(o *model.Order, u model.OrderUpdate) {
	if u.Status != nil {
		o.Status = *u.Status
	}
	if u.PaymentStatus != nil {
		o.PaymentStatus = *u.PaymentStatus
	}
	if u.RazorpayPaymentID != nil {
		o.RazorpayPaymentID = *u.RazorpayPaymentID
	}
	if u.RazorpayOrderID != nil {
		o.RazorpayOrderID = *u.RazorpayOrderID
	}
	if u.RazorpaySignature != nil {
		o.RazorpaySignature = *u.RazorpaySignature
	}
	if u.FailureReason != nil {
		o.FailureReason = *u.FailureReason
	}
	if u.PaidAt != nil && o.Timeline.PaidAt == nil {
		o.Timeline.PaidAt = u.PaidAt
	}
	if u.AdminAction != nil {
		o.AdminActions = append(o.AdminActions, *u.AdminAction)
	}
}

// fakeProvider signs like Razorpay and numbers its provider orders.
type fakeProvider struct {
	mu  sync.Mutex
	seq int
}

func (p *fakeProvider) Initiate(ctx context.Context, req payment.Request) (*model.PaymentIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	return &model.PaymentIntent{
		Provider:        payment.ProviderRazorpay,
		ProviderOrderID: fmt.Sprintf("order_fake_%d", p.seq),
		OrderID:         req.OrderID,
		Amount:          payment.ToMinorUnits(req.Amount),
		Currency:        req.Currency,
	}, nil
}

func (p *fakeProvider) VerifySignature(providerOrderID, paymentID, signature string) error {
	if signature != hex.EncodeToString(payment.Sign(featureSecret, providerOrderID, paymentID)) {
		return model.ErrInvalidSignature
	}
	return nil
}

func (p *fakeProvider) FetchPayments(ctx context.Context, providerOrderID string) ([]payment.Payment, error) {
	return nil, nil
}

type checkoutFeature struct {
	dir     string
	catalog *memoryCatalog
	orders  *memoryOrders
	carts   CartService
	svc     OrderService
	cartID  string
	orderID uuid.UUID
	err     error
}

func (f *checkoutFeature) reset() error {
	dir, err := os.MkdirTemp("", "ecoshopy-feature-*")
	if err != nil {
		return err
	}
	store, err := cartstore.NewFileStore(dir, zerolog.Nop())
	if err != nil {
		return err
	}

	f.dir = dir
	f.catalog = newMemoryCatalog()
	f.orders = &memoryOrders{catalog: f.catalog, orders: make(map[uuid.UUID]model.Order)}
	f.carts = NewCartService(store, f.catalog, Pricing{}, zerolog.Nop())
	cfg := config.PaymentConfig{Currency: "INR", VerifySignatures: true}
	f.svc = NewOrderService(f.orders, f.carts, &fakeProvider{}, Pricing{}, cfg, zerolog.Nop())
	f.cartID = ""
	f.orderID = uuid.Nil
	f.err = nil
	return nil
}

func (f *checkoutFeature) theCatalogueContains(table *godog.Table) error {
	for _, row := range table.Rows[1:] {
		stock, err := strconv.Atoi(row.Cells[3].Value)
		if err != nil {
			return err
		}
		price := decimal.RequireFromString(row.Cells[2].Value)
		p := &model.Product{
			ID:    row.Cells[0].Value,
			Name:  row.Cells[1].Value,
			Price: price,
			MRP:   price,
			Stock: stock,
		}
		if err := f.catalog.Upsert(context.Background(), p); err != nil {
			return err
		}
	}
	return nil
}

func (f *checkoutFeature) anEmptyCart(id string) error {
	f.cartID = id
	return f.carts.Clear(context.Background(), id)
}

func (f *checkoutFeature) iAddOfProductToTheCart(qty int, productID string) error {
	_, err := f.carts.AddItem(context.Background(), f.cartID, model.CartItemRequest{ProductID: productID, Quantity: qty})
	return err
}

func (f *checkoutFeature) theCartHolds(qtyA int, productA string, qtyB int, productB string) error {
	if err := f.iAddOfProductToTheCart(qtyA, productA); err != nil {
		return err
	}
	return f.iAddOfProductToTheCart(qtyB, productB)
}

func (f *checkoutFeature) theCartTotalIs(total string) error {
	summary, err := f.carts.Get(context.Background(), f.cartID)
	if err != nil {
		return err
	}
	if !summary.Total.Equal(decimal.RequireFromString(total)) {
		return fmt.Errorf("expected cart total %s, got %s", total, summary.Total)
	}
	return nil
}

func (f *checkoutFeature) theCartHasLines(n int) error {
	summary, err := f.carts.Get(context.Background(), f.cartID)
	if err != nil {
		return err
	}
	if len(summary.Items) != n {
		return fmt.Errorf("expected %d cart lines, got %d", n, len(summary.Items))
	}
	return nil
}

func (f *checkoutFeature) theCartLineHasQuantity(productID string, qty int) error {
	summary, err := f.carts.Get(context.Background(), f.cartID)
	if err != nil {
		return err
	}
	for _, l := range summary.Items {
		if l.ProductID == productID {
			if l.Quantity != qty {
				return fmt.Errorf("expected quantity %d for %s, got %d", qty, productID, l.Quantity)
			}
			return nil
		}
	}
	return fmt.Errorf("no cart line for product %s", productID)
}

func (f *checkoutFeature) theCartIsEmpty() error {
	return f.theCartHasLines(0)
}

func (f *checkoutFeature) iCheckOut() error {
	resp, err := f.svc.Checkout(context.Background(), &model.CheckoutRequest{
		CartID:       f.cartID,
		CustomerName: "Asha Rao",
		Email:        "asha@example.com",
		Phone:        "9876543210",
		Address: model.Address{
			Street: "12 MG Road",
			City:   "Bengaluru",
			State:  "Karnataka",
			Zip:    "560001",
		},
	})
	if err != nil {
		return err
	}
	f.orderID = resp.Order.ID
	return nil
}

func (f *checkoutFeature) currentOrder() (*model.Order, error) {
	if f.orderID == uuid.Nil {
		return nil, errors.New("no order has been placed")
	}
	return f.svc.GetByID(context.Background(), f.orderID)
}

func (f *checkoutFeature) theOrderTotalIs(total string) error {
	o, err := f.currentOrder()
	if err != nil {
		return err
	}
	if !o.TotalAmount.Equal(decimal.RequireFromString(total)) {
		return fmt.Errorf("expected order total %s, got %s", total, o.TotalAmount)
	}
	return nil
}

func (f *checkoutFeature) theOrderStatusIs(status string) error {
	o, err := f.currentOrder()
	if err != nil {
		return err
	}
	if string(o.Status) != status {
		return fmt.Errorf("expected order status %s, got %s", status, o.Status)
	}
	return nil
}

func (f *checkoutFeature) thePaymentStatusIs(status string) error {
	o, err := f.currentOrder()
	if err != nil {
		return err
	}
	if string(o.PaymentStatus) != status {
		return fmt.Errorf("expected payment status %s, got %s", status, o.PaymentStatus)
	}
	return nil
}

func (f *checkoutFeature) theOrderHasItems(n int) error {
	o, err := f.currentOrder()
	if err != nil {
		return err
	}
	if len(o.Items) != n {
		return fmt.Errorf("expected %d order items, got %d", n, len(o.Items))
	}
	return nil
}

func (f *checkoutFeature) theStockOfProductIs(productID string, stock int) error {
	p, err := f.catalog.GetByID(context.Background(), productID)
	if err != nil {
		return err
	}
	if p.Stock != stock {
		return fmt.Errorf("expected stock %d for %s, got %d", stock, productID, p.Stock)
	}
	return nil
}

func (f *checkoutFeature) theProviderReportsPaymentSucceeded(paymentID string) error {
	o, err := f.currentOrder()
	if err != nil {
		return err
	}
	signature := hex.EncodeToString(payment.Sign(featureSecret, o.RazorpayOrderID, paymentID))
	_, err = f.svc.HandlePaymentSuccess(context.Background(), f.orderID, model.PaymentSuccess{
		CartID:            f.cartID,
		RazorpayPaymentID: paymentID,
		RazorpayOrderID:   o.RazorpayOrderID,
		RazorpaySignature: signature,
	})
	return err
}

func (f *checkoutFeature) aSuccessCallbackArrivesWithSignature(paymentID, signature string) error {
	_, f.err = f.svc.HandlePaymentSuccess(context.Background(), f.orderID, model.PaymentSuccess{
		CartID:            f.cartID,
		RazorpayPaymentID: paymentID,
		RazorpaySignature: signature,
	})
	return nil
}

func (f *checkoutFeature) theCallbackFailsWith(code string) error {
	var domainErr *model.DomainError
	if !errors.As(f.err, &domainErr) {
		return fmt.Errorf("expected a %s error, got %v", code, f.err)
	}
	if domainErr.Code != code {
		return fmt.Errorf("expected error code %s, got %s", code, domainErr.Code)
	}
	return nil
}

func (f *checkoutFeature) theRecordedPaymentIDIs(paymentID string) error {
	o, err := f.currentOrder()
	if err != nil {
		return err
	}
	if o.RazorpayPaymentID != paymentID {
		return fmt.Errorf("expected payment id %s, got %s", paymentID, o.RazorpayPaymentID)
	}
	return nil
}

func (f *checkoutFeature) theCustomerDismissesThePayment() error {
	_, err := f.svc.HandlePaymentDismiss(context.Background(), f.orderID)
	return err
}

func (f *checkoutFeature) iRetryThePayment() error {
	_, err := f.svc.RetryPayment(context.Background(), f.orderID)
	return err
}

func InitializeCheckoutScenario(ctx *godog.ScenarioContext) {
	f := &checkoutFeature{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, f.reset()
	})
	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		return ctx, os.RemoveAll(f.dir)
	})

	// Given steps
	ctx.Step(`^the catalogue contains:$`, f.theCatalogueContains)
	ctx.Step(`^an empty cart "([^"]*)"$`, f.anEmptyCart)
	ctx.Step(`^the cart holds (\d+) of product "([^"]*)" and (\d+) of product "([^"]*)"$`, f.theCartHolds)
	ctx.Step(`^I have checked out$`, f.iCheckOut)

	// When steps
	ctx.Step(`^I add (\d+) of product "([^"]*)" to the cart$`, f.iAddOfProductToTheCart)
	ctx.Step(`^I check out$`, f.iCheckOut)
	ctx.Step(`^the provider reports payment "([^"]*)" succeeded$`, f.theProviderReportsPaymentSucceeded)
	ctx.Step(`^a success callback for payment "([^"]*)" arrives with signature "([^"]*)"$`, f.aSuccessCallbackArrivesWithSignature)
	ctx.Step(`^the customer dismisses the payment$`, f.theCustomerDismissesThePayment)
	ctx.Step(`^I retry the payment$`, f.iRetryThePayment)

	// Then steps
	ctx.Step(`^the cart total is (\d+(?:\.\d+)?)$`, f.theCartTotalIs)
	ctx.Step(`^the cart has (\d+) lines?$`, f.theCartHasLines)
	ctx.Step(`^the cart line for product "([^"]*)" has quantity (\d+)$`, f.theCartLineHasQuantity)
	ctx.Step(`^the cart is empty$`, f.theCartIsEmpty)
	ctx.Step(`^the order total is (\d+(?:\.\d+)?)$`, f.theOrderTotalIs)
	ctx.Step(`^the order status is "([^"]*)"$`, f.theOrderStatusIs)
	ctx.Step(`^the payment status is "([^"]*)"$`, f.thePaymentStatusIs)
	ctx.Step(`^the order has (\d+) items$`, f.theOrderHasItems)
	ctx.Step(`^the stock of product "([^"]*)" is (\d+)$`, f.theStockOfProductIs)
	ctx.Step(`^the recorded payment id is "([^"]*)"$`, f.theRecordedPaymentIDIs)
	ctx.Step(`^the callback fails with "([^"]*)"$`, f.theCallbackFailsWith)
}

func TestCheckoutFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeCheckoutScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"testdata/checkout.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
