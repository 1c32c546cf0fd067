package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"ecoshopy/internal/config"
	"ecoshopy/internal/model"

	"github.com/rs/zerolog"
)

// ProviderRazorpay names the gateway in payment intents.
const ProviderRazorpay = "razorpay"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// razorpayClient implements Provider against the Razorpay REST API.
type razorpayClient struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewRazorpay creates a Razorpay-backed payment provider.
func NewRazorpay(cfg config.PaymentConfig, logger zerolog.Logger) Provider {
	return &razorpayClient{
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With().Str("component", "razorpay").Logger(),
	}
}

type razorpayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type razorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type razorpayCollection struct {
	Count int       `json:"count"`
	Items []Payment `json:"items"`
}

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// Initiate creates a Razorpay order for the amount in minor units.
func (c *razorpayClient) Initiate(ctx context.Context, req Request) (*model.PaymentIntent, error) {
	amount := ToMinorUnits(req.Amount)
	if amount <= 0 {
		return nil, fmt.Errorf("payment amount must be positive, got %s", req.Amount.String())
	}

	body := razorpayOrderRequest{
		Amount:   amount,
		Currency: req.Currency,
		Receipt:  req.OrderID,
		Notes:    map[string]string{"order_id": req.OrderID},
	}

	var order razorpayOrder
	if err := c.do(ctx, http.MethodPost, "/v1/orders", body, &order); err != nil {
		c.logger.Error().Err(err).Str("order_id", req.OrderID).Msg("failed to create razorpay order")
		return nil, err
	}

	c.logger.Info().
		Str("order_id", req.OrderID).
		Str("razorpay_order_id", order.ID).
		Int64("amount", order.Amount).
		Msg("razorpay order created")

	return &model.PaymentIntent{
		Provider:        ProviderRazorpay,
		KeyID:           c.keyID,
		ProviderOrderID: order.ID,
		OrderID:         req.OrderID,
		Amount:          order.Amount,
		Currency:        order.Currency,
		Name:            req.Customer.Name,
		Email:           req.Customer.Email,
		Contact:         req.Customer.Contact,
	}, nil
}

// VerifySignature checks hex(HMAC-SHA256(secret, orderID|paymentID)).
func (c *razorpayClient) VerifySignature(providerOrderID, paymentID, signature string) error {
	if providerOrderID == "" || paymentID == "" || signature == "" {
		return model.ErrInvalidSignature
	}

	got, err := hex.DecodeString(signature)
	if err != nil {
		return model.ErrInvalidSignature
	}

	if !hmac.Equal(got, Sign(c.keySecret, providerOrderID, paymentID)) {
		c.logger.Warn().
			Str("razorpay_order_id", providerOrderID).
			Str("razorpay_payment_id", paymentID).
			Msg("payment signature mismatch")
		return model.ErrInvalidSignature
	}

	return nil
}

// FetchPayments lists the payment attempts of a Razorpay order.
func (c *razorpayClient) FetchPayments(ctx context.Context, providerOrderID string) ([]Payment, error) {
	var collection razorpayCollection
	path := "/v1/orders/" + url.PathEscape(providerOrderID) + "/payments"
	if err := c.do(ctx, http.MethodGet, path, nil, &collection); err != nil {
		c.logger.Error().Err(err).Str("razorpay_order_id", providerOrderID).Msg("failed to fetch razorpay payments")
		return nil, err
	}
	return collection.Items, nil
}

// Sign computes the raw checkout signature for an order and payment.
func Sign(secret, providerOrderID, paymentID string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(providerOrderID + "|" + paymentID))
	return mac.Sum(nil)
}

// do sends an authenticated JSON request and decodes a JSON response into out.
func (c *razorpayClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode razorpay request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build razorpay request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("razorpay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var apiErr razorpayError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Description != "" {
			return fmt.Errorf("razorpay %s %s: %d %s: %s", method, path, resp.StatusCode, apiErr.Error.Code, apiErr.Error.Description)
		}
		return fmt.Errorf("razorpay %s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode razorpay response: %w", err)
	}
	return nil
}
