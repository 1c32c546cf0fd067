package database

// schema is applied on startup. Every statement is idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS products (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	price       NUMERIC(12,2) NOT NULL CHECK (price >= 0),
	mrp         NUMERIC(12,2) NOT NULL CHECK (mrp >= 0),
	image       TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL,
	stock       INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);

CREATE TABLE IF NOT EXISTS product_variants (
	product_id  TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	price       NUMERIC(12,2) NOT NULL CHECK (price >= 0),
	mrp         NUMERIC(12,2) NOT NULL CHECK (mrp >= 0),
	stock       INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
	position    INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (product_id, name)
);

CREATE TABLE IF NOT EXISTS orders (
	id                   UUID PRIMARY KEY,
	subtotal             NUMERIC(12,2) NOT NULL,
	shipping_amount      NUMERIC(12,2) NOT NULL DEFAULT 0,
	tax_amount           NUMERIC(12,2) NOT NULL DEFAULT 0,
	total_amount         NUMERIC(12,2) NOT NULL CHECK (total_amount >= 0),
	status               TEXT NOT NULL,
	payment_status       TEXT NOT NULL,
	customer_name        TEXT NOT NULL,
	email                TEXT NOT NULL,
	phone                TEXT NOT NULL,
	address              JSONB NOT NULL,
	user_id              TEXT NOT NULL,
	cart_id              TEXT NOT NULL DEFAULT '',
	razorpay_payment_id  TEXT NOT NULL DEFAULT '',
	razorpay_order_id    TEXT NOT NULL DEFAULT '',
	razorpay_signature   TEXT NOT NULL DEFAULT '',
	failure_reason       TEXT NOT NULL DEFAULT '',
	created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	paid_at              TIMESTAMPTZ,
	shipped_at           TIMESTAMPTZ,
	delivered_at         TIMESTAMPTZ,
	cancelled_at         TIMESTAMPTZ,
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
ALTER TABLE orders ADD COLUMN IF NOT EXISTS cart_id TEXT NOT NULL DEFAULT '';
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE INDEX IF NOT EXISTS idx_orders_payment_status_created_at ON orders(payment_status, created_at);
CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id);

CREATE TABLE IF NOT EXISTS order_items (
	id          BIGSERIAL PRIMARY KEY,
	order_id    UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	product_id  TEXT NOT NULL REFERENCES products(id),
	name        TEXT NOT NULL,
	variant     TEXT NOT NULL DEFAULT '',
	price       NUMERIC(12,2) NOT NULL CHECK (price >= 0),
	quantity    INTEGER NOT NULL CHECK (quantity > 0),
	image       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);

CREATE TABLE IF NOT EXISTS admin_actions (
	id          BIGSERIAL PRIMARY KEY,
	order_id    UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	action      TEXT NOT NULL,
	admin_id    TEXT NOT NULL,
	reason      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_admin_actions_order_id ON admin_actions(order_id);
`
