package razorpaywebhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopconsole-backend/internal/payments"
	"github.com/angelmondragon/shopconsole-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
	"github.com/angelmondragon/shopconsole-backend/pkg/metrics"
	"github.com/angelmondragon/shopconsole-backend/pkg/signature"
)

const provider = "razorpay"

type eventGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// Delivery is one webhook request as received.
type Delivery struct {
	Body      []byte
	Signature string
	EventID   string
}

// Result is the acknowledgement body.
type Result struct {
	Status  string     `json:"status"`
	Event   string     `json:"event,omitempty"`
	OrderID *uuid.UUID `json:"orderId,omitempty"`
}

const (
	statusDuplicate = "duplicate"
	statusIgnored   = "ignored"
)

type ServiceParams struct {
	Payments payments.Service
	Guard    eventGuard
	Secret   string
	Metrics  *metrics.PaymentMetrics
	Logger   *logger.Logger
}

type Service struct {
	payments payments.Service
	guard    eventGuard
	secret   string
	metrics  *metrics.PaymentMetrics
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment service required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		payments: params.Payments,
		guard:    params.Guard,
		secret:   params.Secret,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// Handle verifies, deduplicates and applies one webhook delivery. The body is
// only parsed after its signature checks out. A failed delivery releases its
// dedupe mark so the gateway's retry is processed.
func (s *Service) Handle(ctx context.Context, d Delivery) (*Result, error) {
	if s.secret == "" {
		s.metrics.IncWebhook("misconfigured")
		return nil, pkgerrors.New(pkgerrors.CodeUpstreamConfig, "webhook secret is not configured")
	}
	sig := strings.TrimSpace(d.Signature)
	if sig == "" {
		s.metrics.IncWebhook("signature_missing")
		return nil, pkgerrors.New(pkgerrors.CodeMissingParameters, "webhook signature missing").
			WithDetails([]pkgerrors.FieldError{{Field: "X-Razorpay-Signature", Message: "is required"}})
	}
	if !signature.Verify(s.secret, d.Body, sig) {
		s.metrics.IncWebhook("signature_invalid")
		s.logg.Warn(ctx, "webhooks.razorpay.signature_invalid")
		return nil, pkgerrors.New(pkgerrors.CodeSignatureInvalid, "webhook signature mismatch")
	}

	event, err := ParseEvent(d.Body)
	if err != nil {
		s.metrics.IncWebhook("malformed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook payload")
	}

	eventID := strings.TrimSpace(d.EventID)
	if eventID == "" {
		sum := sha256.Sum256(d.Body)
		eventID = hex.EncodeToString(sum[:])
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"webhook_event": event.Event, "webhook_event_id": eventID})

	if !handled(event.Event) {
		s.metrics.IncWebhook(statusIgnored)
		s.logg.Info(ctx, "webhooks.razorpay.ignored")
		return &Result{Status: statusIgnored, Event: event.Event}, nil
	}

	seen, err := s.guard.CheckAndMark(ctx, eventID)
	if err != nil {
		// The database update is conditional, so processing without the mark is safe.
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "webhooks.razorpay.guard_unavailable")
	} else if seen {
		s.metrics.IncWebhook(statusDuplicate)
		s.logg.Info(ctx, "webhooks.razorpay.duplicate")
		return &Result{Status: statusDuplicate, Event: event.Event}, nil
	}

	result, err := s.apply(ctx, event)
	if err != nil {
		if delErr := s.guard.Delete(ctx, eventID); delErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", delErr.Error()), "webhooks.razorpay.guard_release_failed")
		}
		if pkgerrors.IsCode(err, pkgerrors.CodeOrderNotFound) {
			s.metrics.IncWebhook("order_not_found")
		} else {
			s.metrics.IncWebhook("error")
		}
		return nil, err
	}
	s.metrics.IncWebhook("processed")
	return result, nil
}

func (s *Service) apply(ctx context.Context, event *Event) (*Result, error) {
	orderRef, paymentRef, status, method := event.payment()
	if orderRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook payload has no order reference")
	}
	ctx = s.logg.WithPaymentRefs(ctx, orderRef, paymentRef)

	order, err := s.payments.ResolveOrder(ctx, orderRef, "")
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeOrderNotFound) {
			s.logg.Warn(ctx, "webhooks.razorpay.order_not_found")
		}
		return nil, err
	}

	if status == "" {
		status = enums.PaymentStatusCreated
	}
	res, err := s.payments.ApplyPaymentConfirmation(ctx, payments.Confirmation{
		Source:            enums.ConfirmationSourceWebhook,
		OrderID:           order.ID,
		GatewayPaymentRef: paymentRef,
		Status:            status,
		PaymentMethod:     method,
	})
	if err != nil {
		return nil, err
	}
	return &Result{Status: string(res.Outcome), Event: event.Event, OrderID: &order.ID}, nil
}
