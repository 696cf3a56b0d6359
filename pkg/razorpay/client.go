// Package razorpay wraps the Razorpay SDK behind a small context-aware gateway
// surface with bounded retries.
package razorpay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	rzp "github.com/razorpay/razorpay-go"
	rzperrors "github.com/razorpay/razorpay-go/errors"

	"github.com/angelmondragon/shopconsole-backend/pkg/config"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
	"github.com/angelmondragon/shopconsole-backend/pkg/metrics"
)

// ErrNotConfigured is returned when API credentials are missing.
var ErrNotConfigured = errors.New("razorpay credentials are not configured")

// Gateway is the payment gateway surface used by order and payment services.
type Gateway interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*RemoteOrder, error)
	FetchPaymentMethod(ctx context.Context, paymentRef string) (string, error)
	CreateInvoice(ctx context.Context, input InvoiceInput) (*Invoice, error)
}

// CreateOrderInput describes a remote order. Amount is in minor units.
type CreateOrderInput struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// RemoteOrder is the gateway's view of a created order.
type RemoteOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
	Status   string `json:"status,omitempty"`
	KeyID    string `json:"keyId,omitempty"`
}

// InvoiceInput describes an invoice for a paid order.
type InvoiceInput struct {
	Receipt       string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Description   string
	Amount        int64
	Currency      string
}

// Invoice is the created gateway invoice.
type Invoice struct {
	ID       string
	ShortURL string
}

type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type paymentAPI interface {
	Fetch(paymentID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type invoiceAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Client implements Gateway on top of razorpay-go.
type Client struct {
	orders   orderAPI
	payments paymentAPI
	invoices invoiceAPI

	keyID      string
	timeout    time.Duration
	maxRetries uint64
	retryBase  time.Duration
	metrics    *metrics.PaymentMetrics
	logg       *logger.Logger
}

// New builds a gateway client from configuration.
func New(cfg config.RazorpayConfig, m *metrics.PaymentMetrics, logg *logger.Logger) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	sdk := rzp.NewClient(cfg.KeyID, cfg.KeySecret)
	return newClient(sdk.Order, sdk.Payment, sdk.Invoice, cfg, m, logg), nil
}

func newClient(orders orderAPI, payments paymentAPI, invoices invoiceAPI, cfg config.RazorpayConfig, m *metrics.PaymentMetrics, logg *logger.Logger) *Client {
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = 200 * time.Millisecond
	}
	return &Client{
		orders:     orders,
		payments:   payments,
		invoices:   invoices,
		keyID:      cfg.KeyID,
		timeout:    cfg.Timeout,
		maxRetries: uint64(maxRetries),
		retryBase:  retryBase,
		metrics:    m,
		logg:       logg,
	}
}

// KeyID returns the public key id the storefront checkout widget needs.
func (c *Client) KeyID() string {
	return c.keyID
}

// CreateOrder creates a remote order with receipt set to the local order id.
func (c *Client) CreateOrder(ctx context.Context, input CreateOrderInput) (*RemoteOrder, error) {
	if input.Amount < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	data := map[string]interface{}{
		"amount":   input.Amount,
		"currency": input.Currency,
		"receipt":  input.Receipt,
	}
	if len(input.Notes) > 0 {
		notes := make(map[string]interface{}, len(input.Notes))
		for k, v := range input.Notes {
			notes[k] = v
		}
		data["notes"] = notes
	}

	body, err := c.do(ctx, "order.create", false, func() (map[string]interface{}, error) {
		return c.orders.Create(data, nil)
	})
	if err != nil {
		return nil, err
	}

	remote := &RemoteOrder{
		ID:       stringField(body, "id"),
		Amount:   int64Field(body, "amount"),
		Currency: stringField(body, "currency"),
		Receipt:  stringField(body, "receipt"),
		Status:   stringField(body, "status"),
		KeyID:    c.keyID,
	}
	if remote.ID == "" {
		return nil, errors.New("gateway response missing order id")
	}
	return remote, nil
}

// FetchPaymentMethod returns the method (card, upi, netbanking...) of a payment.
func (c *Client) FetchPaymentMethod(ctx context.Context, paymentRef string) (string, error) {
	if paymentRef == "" {
		return "", errors.New("payment reference is required")
	}
	body, err := c.do(ctx, "payment.fetch", true, func() (map[string]interface{}, error) {
		return c.payments.Fetch(paymentRef, nil, nil)
	})
	if err != nil {
		return "", err
	}
	return stringField(body, "method"), nil
}

// CreateInvoice issues a gateway invoice and returns its hosted link.
func (c *Client) CreateInvoice(ctx context.Context, input InvoiceInput) (*Invoice, error) {
	data := map[string]interface{}{
		"type":        "invoice",
		"receipt":     input.Receipt,
		"description": input.Description,
		"currency":    input.Currency,
		"customer": map[string]interface{}{
			"name":    input.CustomerName,
			"email":   input.CustomerEmail,
			"contact": input.CustomerPhone,
		},
		"line_items": []map[string]interface{}{
			{"name": input.Description, "amount": input.Amount, "currency": input.Currency, "quantity": 1},
		},
	}

	body, err := c.do(ctx, "invoice.create", false, func() (map[string]interface{}, error) {
		return c.invoices.Create(data, nil)
	})
	if err != nil {
		return nil, err
	}
	inv := &Invoice{ID: stringField(body, "id"), ShortURL: stringField(body, "short_url")}
	if inv.ShortURL == "" {
		return nil, errors.New("gateway response missing invoice url")
	}
	return inv, nil
}

type callFunc func() (map[string]interface{}, error)

type callResult struct {
	body map[string]interface{}
	err  error
}

// do runs call with a per-attempt timeout and jittered exponential backoff.
// Bad request errors are permanent. A timed out attempt may still complete
// remotely, so timeouts are only retried when idempotent is set.
func (c *Client) do(ctx context.Context, op string, idempotent bool, call callFunc) (map[string]interface{}, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryBase
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = 0

	var body map[string]interface{}
	attempt := 0
	operation := func() error {
		attempt++
		started := time.Now()
		res := c.callWithTimeout(ctx, call)
		c.metrics.ObserveGatewayCall(op, res.err, time.Since(started))
		if res.err == nil {
			body = res.body
			return nil
		}
		if ctx.Err() != nil || !isRetryable(res.err) {
			return backoff.Permanent(res.err)
		}
		if !idempotent && errors.Is(res.err, context.DeadlineExceeded) {
			return backoff.Permanent(res.err)
		}
		if c.logg != nil {
			logCtx := c.logg.WithFields(ctx, map[string]any{"operation": op, "attempt": attempt})
			c.logg.Warn(logCtx, "gateway call failed, retrying")
		}
		return res.err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, c.maxRetries), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return nil, fmt.Errorf("razorpay %s: %w", op, err)
	}
	return body, nil
}

// callWithTimeout gives every attempt its own result channel; an abandoned
// attempt writes only to its buffered channel.
func (c *Client) callWithTimeout(ctx context.Context, call callFunc) callResult {
	if c.timeout <= 0 {
		body, err := call()
		return callResult{body: body, err: err}
	}
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		body, err := call()
		done <- callResult{body: body, err: err}
	}()
	select {
	case res := <-done:
		return res
	case <-callCtx.Done():
		return callResult{err: callCtx.Err()}
	}
}

func isRetryable(err error) bool {
	var badRequest *rzperrors.BadRequestError
	return !errors.As(err, &badRequest)
}

func stringField(body map[string]interface{}, key string) string {
	if v, ok := body[key].(string); ok {
		return v
	}
	return ""
}

func int64Field(body map[string]interface{}, key string) int64 {
	switch v := body[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
