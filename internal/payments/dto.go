package payments

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/shopconsole-backend/internal/orders"
	"github.com/angelmondragon/shopconsole-backend/pkg/enums"
)

// Outcome describes what a confirmation did to the order.
type Outcome string

const (
	// OutcomePaid means this confirmation flipped the order to paid.
	OutcomePaid Outcome = "paid"
	// OutcomeAlreadyPaid means another path had already confirmed the order.
	OutcomeAlreadyPaid Outcome = "already_paid"
	// OutcomeNotCaptured means the payment is not captured; the order stays unpaid.
	OutcomeNotCaptured Outcome = "not_captured"
)

// Confirmation is one report that a payment for an order changed state,
// whichever path it arrived on.
type Confirmation struct {
	Source            enums.ConfirmationSource
	OrderID           uuid.UUID
	GatewayPaymentRef string
	Status            enums.PaymentStatus
	PaymentMethod     string
}

// Result is the order after a confirmation was applied.
type Result struct {
	Order        orders.OrderDTO
	Outcome      Outcome
	Transitioned bool
}

// ClientVerification is the storefront's post-checkout confirmation. OrderRef
// is the gateway order reference; OrderID is the local id and is only used
// when OrderRef is absent.
type ClientVerification struct {
	OrderRef   string
	OrderID    string
	PaymentRef string
	Signature  string
}

// VerifyResult is returned to the storefront.
type VerifyResult struct {
	Status  Outcome   `json:"status"`
	OrderID uuid.UUID `json:"orderId"`
}
