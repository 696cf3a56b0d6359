package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopconsole-backend/internal/orders"
	"github.com/angelmondragon/shopconsole-backend/internal/stores"
	"github.com/angelmondragon/shopconsole-backend/pkg/db"
	"github.com/angelmondragon/shopconsole-backend/pkg/db/models"
	"github.com/angelmondragon/shopconsole-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
	"github.com/angelmondragon/shopconsole-backend/pkg/mailer"
	"github.com/angelmondragon/shopconsole-backend/pkg/metrics"
	"github.com/angelmondragon/shopconsole-backend/pkg/razorpay"
	"github.com/angelmondragon/shopconsole-backend/pkg/signature"
)

// Service reconciles payment confirmations from the webhook, the storefront and admins.
type Service interface {
	ApplyPaymentConfirmation(ctx context.Context, confirmation Confirmation) (*Result, error)
	ResolveOrder(ctx context.Context, gatewayOrderRef, localOrderID string) (*models.Order, error)
	VerifyClient(ctx context.Context, input ClientVerification) (*VerifyResult, error)
	ConfirmManual(ctx context.Context, storeID, orderID uuid.UUID, paymentMethod string) (*Result, error)
}

// ServiceParams wires the payment service. Gateway is optional and only used to
// look up the payment method of client confirmations. ClientSecret signs the
// storefront confirmation pair. PublicURL, when set, adds an order link to
// confirmation emails.
type ServiceParams struct {
	Orders       orders.Repository
	Stores       stores.Service
	Gateway      razorpay.Gateway
	Mailer       mailer.Sender
	Metrics      *metrics.PaymentMetrics
	Logger       *logger.Logger
	ClientSecret string
	PublicURL    string
	Now          func() time.Time
}

type service struct {
	orders       orders.Repository
	stores       stores.Service
	gateway      razorpay.Gateway
	mailer       mailer.Sender
	metrics      *metrics.PaymentMetrics
	logg         *logger.Logger
	clientSecret string
	publicURL    string
	now          func() time.Time
}

// NewService builds the payment reconciliation service.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Stores == nil {
		return nil, fmt.Errorf("store service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	sender := params.Mailer
	if sender == nil {
		sender = mailer.Noop{}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		orders:       params.Orders,
		stores:       params.Stores,
		gateway:      params.Gateway,
		mailer:       sender,
		metrics:      params.Metrics,
		logg:         params.Logger,
		clientSecret: params.ClientSecret,
		publicURL:    strings.TrimRight(strings.TrimSpace(params.PublicURL), "/"),
		now:          now,
	}, nil
}

// ApplyPaymentConfirmation is the single write path for payment state. The
// update is conditioned on paid = false, so webhook and client confirmations
// may arrive in any order or more than once and still converge on
// paid = true, status PROCESSING. Only the call that performs the transition
// sends the customer email.
func (s *service) ApplyPaymentConfirmation(ctx context.Context, c Confirmation) (*Result, error) {
	if !c.Source.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown confirmation source %q", c.Source))
	}
	method := strings.TrimSpace(c.PaymentMethod)
	paymentRef := strings.TrimSpace(c.GatewayPaymentRef)
	ctx = s.logg.WithFields(s.logg.WithOrderID(ctx, c.OrderID.String()), map[string]any{
		"confirmation_source": c.Source,
		"payment_status":      c.Status,
		"gateway_payment_ref": paymentRef,
	})

	var (
		outcome      Outcome
		transitioned bool
	)
	if c.Status.IsCaptured() {
		moved, err := s.orders.MarkPaid(ctx, orders.MarkPaidInput{
			OrderID:       c.OrderID,
			PaymentRef:    paymentRef,
			PaymentMethod: method,
			Source:        c.Source,
			PaidAt:        s.now().UTC(),
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		transitioned = moved
		if moved {
			outcome = OutcomePaid
		} else {
			outcome = OutcomeAlreadyPaid
			if err := s.orders.FillPaymentMethod(ctx, c.OrderID, method); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fill payment method")
			}
		}
	} else {
		if err := s.orders.RecordUnpaidAttempt(ctx, c.OrderID, paymentRef, method); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment attempt")
		}
		outcome = OutcomeNotCaptured
	}

	order, err := s.orders.FindByID(ctx, c.OrderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	if outcome == OutcomeNotCaptured && order.Paid {
		outcome = OutcomeAlreadyPaid
	}

	s.metrics.IncConfirmation(string(c.Source), string(outcome))
	ctx = s.logg.WithField(ctx, "outcome", outcome)
	s.logg.Info(ctx, "payments.confirmation_applied")

	if transitioned {
		s.notify(ctx, order)
	}

	return &Result{Order: orders.FromModel(*order), Outcome: outcome, Transitioned: transitioned}, nil
}

// ResolveOrder finds an order by gateway order reference and, when that yields
// nothing, by local id.
func (s *service) ResolveOrder(ctx context.Context, gatewayOrderRef, localOrderID string) (*models.Order, error) {
	if ref := strings.TrimSpace(gatewayOrderRef); ref != "" {
		order, err := s.orders.FindByGatewayOrderRef(ctx, ref)
		if err == nil {
			return order, nil
		}
		if !db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by gateway reference")
		}
	}
	if id, err := uuid.Parse(strings.TrimSpace(localOrderID)); err == nil {
		order, err := s.orders.FindByID(ctx, id)
		if err == nil {
			return order, nil
		}
		if !db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found")
}

// VerifyClient checks the storefront's HMAC over "orderRef|paymentRef" and
// applies the same confirmation as the webhook.
func (s *service) VerifyClient(ctx context.Context, input ClientVerification) (*VerifyResult, error) {
	if s.clientSecret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUpstreamConfig, "payment verification secret is not configured")
	}

	orderRef := strings.TrimSpace(input.OrderRef)
	orderID := strings.TrimSpace(input.OrderID)
	paymentRef := strings.TrimSpace(input.PaymentRef)
	sig := strings.TrimSpace(input.Signature)

	var missing []pkgerrors.FieldError
	if orderRef == "" && orderID == "" {
		missing = append(missing, pkgerrors.FieldError{Field: "orderRef", Message: "is required"})
	}
	if paymentRef == "" {
		missing = append(missing, pkgerrors.FieldError{Field: "paymentRef", Message: "is required"})
	}
	if sig == "" {
		missing = append(missing, pkgerrors.FieldError{Field: "signature", Message: "is required"})
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeMissingParameters, "missing payment verification parameters").WithDetails(missing)
	}

	var order *models.Order
	if orderRef == "" {
		// Legacy callers only send the local id; sign against its gateway reference.
		resolved, err := s.ResolveOrder(ctx, "", orderID)
		if err != nil {
			return nil, err
		}
		if resolved.GatewayOrderRef == nil {
			return nil, pkgerrors.New(pkgerrors.CodeSignatureInvalid, "payment signature mismatch")
		}
		order = resolved
		orderRef = *resolved.GatewayOrderRef
	}

	ctx = s.logg.WithPaymentRefs(ctx, orderRef, paymentRef)
	if !signature.VerifyPayment(s.clientSecret, orderRef, paymentRef, sig) {
		s.metrics.IncConfirmation(string(enums.ConfirmationSourceClient), "signature_invalid")
		s.logg.Warn(ctx, "payments.client_signature_invalid")
		return nil, pkgerrors.New(pkgerrors.CodeSignatureInvalid, "payment signature mismatch")
	}

	if order == nil {
		resolved, err := s.ResolveOrder(ctx, orderRef, orderID)
		if err != nil {
			return nil, err
		}
		// The signature only vouches for orderRef, so the resolved order must carry it.
		if resolved.GatewayOrderRef == nil || *resolved.GatewayOrderRef != orderRef {
			s.metrics.IncConfirmation(string(enums.ConfirmationSourceClient), "signature_invalid")
			s.logg.Warn(ctx, "payments.client_order_ref_mismatch")
			return nil, pkgerrors.New(pkgerrors.CodeSignatureInvalid, "payment signature mismatch")
		}
		order = resolved
	}

	result, err := s.ApplyPaymentConfirmation(ctx, Confirmation{
		Source:            enums.ConfirmationSourceClient,
		OrderID:           order.ID,
		GatewayPaymentRef: paymentRef,
		Status:            enums.PaymentStatusCaptured,
		PaymentMethod:     s.lookupMethod(ctx, paymentRef),
	})
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Status: result.Outcome, OrderID: order.ID}, nil
}

// ConfirmManual records an admin's manual payment confirmation.
func (s *service) ConfirmManual(ctx context.Context, storeID, orderID uuid.UUID, paymentMethod string) (*Result, error) {
	paymentMethod = strings.TrimSpace(paymentMethod)
	if paymentMethod == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method required").
			WithDetails([]pkgerrors.FieldError{{Field: "paymentMethod", Message: "is required"}})
	}
	order, err := s.orders.FindByIDInStore(ctx, storeID, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return s.ApplyPaymentConfirmation(ctx, Confirmation{
		Source:        enums.ConfirmationSourceAdmin,
		OrderID:       order.ID,
		Status:        enums.PaymentStatusCaptured,
		PaymentMethod: paymentMethod,
	})
}

// lookupMethod asks the gateway for the payment method. Failures leave it
// empty so a later webhook can fill it.
func (s *service) lookupMethod(ctx context.Context, paymentRef string) string {
	if s.gateway == nil {
		return ""
	}
	method, err := s.gateway.FetchPaymentMethod(ctx, paymentRef)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "payments.method_lookup_failed")
		return ""
	}
	return method
}
