package integration

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ecoshopy/internal/database"
	"ecoshopy/internal/model"
	"ecoshopy/internal/payment"
	"ecoshopy/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, a connection pool and the
// application schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedProducts inserts the test catalogue: X at 100 and Y at 50, ten of each,
// plus rice with a 5kg variant.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	repo := repository.NewProductRepository(pool, zerolog.Nop())
	products := []model.Product{
		{ID: "X", Name: "Product X", Price: decimal.NewFromInt(100), MRP: decimal.NewFromInt(100), Category: "Grains", Stock: 10},
		{ID: "Y", Name: "Product Y", Price: decimal.NewFromInt(50), MRP: decimal.NewFromInt(60), Category: "Oils", Stock: 10},
		{
			ID: "RICE", Name: "Basmati Rice", Price: decimal.NewFromInt(60), MRP: decimal.NewFromInt(75), Category: "Grains", Stock: 20,
			Variants: []model.Variant{{Name: "5kg", Price: decimal.NewFromInt(280), MRP: decimal.NewFromInt(320), Stock: 3}},
		},
	}

	for i := range products {
		if err := repo.Upsert(context.Background(), &products[i]); err != nil {
			t.Fatalf("failed to seed product %s: %v", products[i].ID, err)
		}
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"admin_actions", "order_items", "orders", "product_variants", "products"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

const gatewaySecret = "integration-secret"

// FakeGateway imitates the Razorpay orders API.
type FakeGateway struct {
	*httptest.Server

	mu       sync.Mutex
	seq      int
	down     bool
	payments map[string][]payment.Payment
}

// NewFakeGateway starts a fake Razorpay server.
func NewFakeGateway(t *testing.T) *FakeGateway {
	t.Helper()

	g := &FakeGateway{payments: make(map[string][]payment.Payment)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/orders", g.createOrder)
	mux.HandleFunc("GET /v1/orders/{id}/payments", g.listPayments)
	g.Server = httptest.NewServer(mux)
	t.Cleanup(g.Close)

	return g
}

// SetDown makes order creation fail with a 503.
func (g *FakeGateway) SetDown(down bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.down = down
}

// Capture records a captured payment against a provider order.
func (g *FakeGateway) Capture(providerOrderID, paymentID string, amount int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[providerOrderID] = append(g.payments[providerOrderID], payment.Payment{
		ID:       paymentID,
		OrderID:  providerOrderID,
		Status:   payment.StatusCaptured,
		Amount:   amount,
		Currency: "INR",
	})
}

// Signature returns the checkout signature the widget would hand back.
func (g *FakeGateway) Signature(providerOrderID, paymentID string) string {
	return hex.EncodeToString(payment.Sign(gatewaySecret, providerOrderID, paymentID))
}

func (g *FakeGateway) createOrder(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.down {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"code":"SERVER_ERROR","description":"gateway down"}}`))
		return
	}

	var req struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	g.seq++
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":       fmt.Sprintf("order_rzp_%d", g.seq),
		"amount":   req.Amount,
		"currency": req.Currency,
		"status":   "created",
	})
}

func (g *FakeGateway) listPayments(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	items := g.payments[r.PathValue("id")]
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"count": len(items), "items": items})
}
