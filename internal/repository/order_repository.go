package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ecoshopy/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `
	id, subtotal, shipping_amount, tax_amount, total_amount, status, payment_status,
	customer_name, email, phone, address, user_id, cart_id,
	razorpay_payment_id, razorpay_order_id, razorpay_signature, failure_reason,
	created_at, paid_at, shipped_at, delivered_at, cancelled_at, updated_at`

const defaultListLimit = 50

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// CreateOrder inserts the order and its items and reserves stock in one transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, order *model.Order) error {
	if len(order.Items) == 0 {
		return model.ErrEmptyCart
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.Timeline.CreatedAt.IsZero() {
		order.Timeline.CreatedAt = time.Now()
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.Timeline.CreatedAt
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// No-op once committed.
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`

	_, err = tx.Exec(ctx, query,
		order.ID, order.Subtotal, order.ShippingAmount, order.TaxAmount, order.TotalAmount,
		string(order.Status), string(order.PaymentStatus),
		order.CustomerName, order.Email, order.Phone, order.Address, order.UserID, order.CartID,
		order.RazorpayPaymentID, order.RazorpayOrderID, order.RazorpaySignature, order.FailureReason,
		order.Timeline.CreatedAt, order.Timeline.PaidAt, order.Timeline.ShippedAt,
		order.Timeline.DeliveredAt, order.Timeline.CancelledAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	batch := &pgx.Batch{}
	for _, item := range order.Items {
		batch.Queue(`
			INSERT INTO order_items (order_id, product_id, name, variant, price, quantity, image)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, order.ID, item.ProductID, item.Name, item.Variant, item.Price, item.Quantity, item.Image)
	}
	for _, item := range order.Items {
		queueStockChange(batch, item, -item.Quantity)
	}

	if err = r.sendOrderBatch(ctx, tx, batch, order.ID, len(order.Items), order.Items); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Int("item_count", len(order.Items)).
		Msg("order created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items and admin actions.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	orders := []model.Order{*order}
	if err := r.attachDetails(ctx, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

// UpdateOrder applies a partial update guarded by the expected state.
func (r *orderRepository) UpdateOrder(ctx context.Context, id uuid.UUID, expect model.OrderState, update model.OrderUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	sets := []string{"updated_at = NOW()"}
	var args []any
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	// Milestones are recorded once.
	setOnce := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = COALESCE(%s, $%d)", column, column, len(args)))
	}

	if update.Status != nil {
		set("status", string(*update.Status))
	}
	if update.PaymentStatus != nil {
		set("payment_status", string(*update.PaymentStatus))
	}
	if update.RazorpayPaymentID != nil {
		set("razorpay_payment_id", *update.RazorpayPaymentID)
	}
	if update.RazorpayOrderID != nil {
		set("razorpay_order_id", *update.RazorpayOrderID)
	}
	if update.RazorpaySignature != nil {
		set("razorpay_signature", *update.RazorpaySignature)
	}
	if update.FailureReason != nil {
		set("failure_reason", *update.FailureReason)
	}
	if update.PaidAt != nil {
		setOnce("paid_at", *update.PaidAt)
	}
	if update.ShippedAt != nil {
		setOnce("shipped_at", *update.ShippedAt)
	}
	if update.DeliveredAt != nil {
		setOnce("delivered_at", *update.DeliveredAt)
	}
	if update.CancelledAt != nil {
		setOnce("cancelled_at", *update.CancelledAt)
	}

	args = append(args, id, string(expect.Status), string(expect.PaymentStatus))
	query := fmt.Sprintf(
		"UPDATE orders SET %s WHERE id = $%d AND status = $%d AND payment_status = $%d",
		strings.Join(sets, ", "), len(args)-2, len(args)-1, len(args),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order")
		return fmt.Errorf("failed to update order: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		if !exists {
			return model.ErrOrderNotFound
		}
		r.logger.Warn().
			Str("order_id", id.String()).
			Str("expected_status", expect.Status.String()).
			Str("expected_payment_status", expect.PaymentStatus.String()).
			Msg("order changed since it was read")
		return model.ErrConcurrentUpdate
	}

	if a := update.AdminAction; a != nil {
		_, err := tx.Exec(ctx, `
			INSERT INTO admin_actions (order_id, action, admin_id, reason, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, id, a.Action, a.AdminID, a.Reason, a.Timestamp)
		if err != nil {
			r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to record admin action")
			return fmt.Errorf("failed to record admin action: %w", err)
		}
	}

	if update.Restocks() {
		if err := r.restock(ctx, tx, id); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to update order: %w", err)
	}

	r.logger.Debug().Str("order_id", id.String()).Msg("order updated")

	return nil
}

// List retrieves orders matching the filter, newest first.
func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	var (
		conds []string
		args  []any
	)
	where := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		where("status = $%d", string(filter.Status))
	}
	if filter.PaymentStatus != "" {
		where("payment_status = $%d", string(filter.PaymentStatus))
	}
	if !filter.CreatedBefore.IsZero() {
		where("created_at < $%d", filter.CreatedBefore)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.attachDetails(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// restock returns the items of an order to stock.
func (r *orderRepository) restock(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error {
	rows, err := tx.Query(ctx, `
		SELECT product_id, variant, quantity FROM order_items WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Variant, &item.Quantity); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, item := range items {
		queueStockChange(batch, item, item.Quantity)
	}

	if err := r.sendOrderBatch(ctx, tx, batch, orderID, 0, items); err != nil {
		return err
	}

	r.logger.Info().
		Str("order_id", orderID.String()).
		Int("item_count", len(items)).
		Msg("order items restocked")

	return nil
}

// sendOrderBatch runs a batch of `inserts` plain statements followed by one
// stock change per item. A stock change that matches no row means the item
// could not be reserved.
func (r *orderRepository) sendOrderBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch, orderID uuid.UUID, inserts int, items []model.OrderItem) error {
	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < inserts; i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", orderID.String()).
				Str("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	for _, item := range items {
		tag, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", orderID.String()).
				Str("product_id", item.ProductID).
				Msg("failed to update stock")
			return fmt.Errorf("failed to update stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			r.logger.Warn().
				Str("order_id", orderID.String()).
				Str("product_id", item.ProductID).
				Str("variant", item.Variant).
				Int("quantity", item.Quantity).
				Msg("insufficient stock")
			return model.ErrInsufficientStock
		}
	}

	return nil
}

// queueStockChange adds delta to the stock of the item's product or variant,
// refusing to go below zero.
func queueStockChange(batch *pgx.Batch, item model.OrderItem, delta int) {
	if item.Variant == "" {
		batch.Queue(`
			UPDATE products SET stock = stock + $2
			WHERE id = $1 AND stock + $2 >= 0
		`, item.ProductID, delta)
		return
	}
	batch.Queue(`
		UPDATE product_variants SET stock = stock + $3
		WHERE product_id = $1 AND name = $2 AND stock + $3 >= 0
	`, item.ProductID, item.Variant, delta)
}

// attachDetails loads items and admin actions for the given orders.
func (r *orderRepository) attachDetails(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	index := make(map[uuid.UUID]int, len(orders))
	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		index[o.ID] = i
		ids[i] = o.ID
	}

	rows, err := r.pool.Query(ctx, `
		SELECT order_id, product_id, name, variant, price, quantity, image
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query order items")
		return fmt.Errorf("failed to query order items: %w", err)
	}

	for rows.Next() {
		var (
			orderID uuid.UUID
			item    model.OrderItem
		)
		err := rows.Scan(&orderID, &item.ProductID, &item.Name, &item.Variant, &item.Price, &item.Quantity, &item.Image)
		if err != nil {
			rows.Close()
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		i := index[orderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return fmt.Errorf("error iterating order items: %w", err)
	}

	rows, err = r.pool.Query(ctx, `
		SELECT order_id, action, admin_id, reason, created_at
		FROM admin_actions
		WHERE order_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query admin actions")
		return fmt.Errorf("failed to query admin actions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID uuid.UUID
			a       model.AdminAction
		)
		if err := rows.Scan(&orderID, &a.Action, &a.AdminID, &a.Reason, &a.Timestamp); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan admin action row")
			return fmt.Errorf("failed to scan admin action: %w", err)
		}
		i := index[orderID]
		orders[i].AdminActions = append(orders[i].AdminActions, a)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating admin action rows")
		return fmt.Errorf("error iterating admin actions: %w", err)
	}

	return nil
}

// scanOrder scans one row selected with orderColumns.
func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o             model.Order
		status        string
		paymentStatus string
	)
	err := row.Scan(
		&o.ID, &o.Subtotal, &o.ShippingAmount, &o.TaxAmount, &o.TotalAmount, &status, &paymentStatus,
		&o.CustomerName, &o.Email, &o.Phone, &o.Address, &o.UserID, &o.CartID,
		&o.RazorpayPaymentID, &o.RazorpayOrderID, &o.RazorpaySignature, &o.FailureReason,
		&o.Timeline.CreatedAt, &o.Timeline.PaidAt, &o.Timeline.ShippedAt,
		&o.Timeline.DeliveredAt, &o.Timeline.CancelledAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	o.PaymentStatus = model.PaymentStatus(paymentStatus)
	return &o, nil
}
