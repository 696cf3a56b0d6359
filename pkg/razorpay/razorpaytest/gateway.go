// Package razorpaytest provides an in-memory payment gateway for tests.
package razorpaytest

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/shopconsole-backend/pkg/razorpay"
)

// Gateway records calls and returns canned results.
type Gateway struct {
	mu sync.Mutex

	CreateOrderErr error
	Methods        map[string]string
	FetchErr       error
	InvoiceURL     string
	InvoiceErr     error

	Orders   []razorpay.CreateOrderInput
	Invoices []razorpay.InvoiceInput
	Fetches  []string
}

// New returns a gateway that succeeds on every call.
func New() *Gateway {
	return &Gateway{Methods: map[string]string{}, InvoiceURL: "https://rzp.io/i/test"}
}

func (g *Gateway) CreateOrder(_ context.Context, input razorpay.CreateOrderInput) (*razorpay.RemoteOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Orders = append(g.Orders, input)
	if g.CreateOrderErr != nil {
		return nil, g.CreateOrderErr
	}
	return &razorpay.RemoteOrder{
		ID:       fmt.Sprintf("order_test_%d", len(g.Orders)),
		Amount:   input.Amount,
		Currency: input.Currency,
		Receipt:  input.Receipt,
		Status:   "created",
		KeyID:    "rzp_test_key",
	}, nil
}

func (g *Gateway) FetchPaymentMethod(_ context.Context, paymentRef string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Fetches = append(g.Fetches, paymentRef)
	if g.FetchErr != nil {
		return "", g.FetchErr
	}
	return g.Methods[paymentRef], nil
}

func (g *Gateway) CreateInvoice(_ context.Context, input razorpay.InvoiceInput) (*razorpay.Invoice, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Invoices = append(g.Invoices, input)
	if g.InvoiceErr != nil {
		return nil, g.InvoiceErr
	}
	return &razorpay.Invoice{ID: fmt.Sprintf("inv_test_%d", len(g.Invoices)), ShortURL: g.InvoiceURL}, nil
}

// LastOrder returns the most recent CreateOrder input.
func (g *Gateway) LastOrder() (razorpay.CreateOrderInput, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.Orders) == 0 {
		return razorpay.CreateOrderInput{}, false
	}
	return g.Orders[len(g.Orders)-1], true
}
