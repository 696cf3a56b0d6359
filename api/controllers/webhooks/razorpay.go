package webhooks

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/shopconsole-backend/api/responses"
	razorpaywebhook "github.com/angelmondragon/shopconsole-backend/internal/webhooks/razorpay"
	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
)

const (
	signatureHeader = "X-Razorpay-Signature"
	eventIDHeader   = "X-Razorpay-Event-Id"
	maxPayloadBytes = 1 << 20
)

type RazorpayWebhookService interface {
	Handle(ctx context.Context, delivery razorpaywebhook.Delivery) (*razorpaywebhook.Result, error)
}

// RazorpayWebhook receives gateway payment events. The body is passed through
// unparsed so the signature is checked over the exact bytes received.
func RazorpayWebhook(svc RazorpayWebhookService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes+1))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}
		if len(payload) > maxPayloadBytes {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "webhook payload too large"))
			return
		}

		result, err := svc.Handle(ctx, razorpaywebhook.Delivery{
			Body:      payload,
			Signature: strings.TrimSpace(r.Header.Get(signatureHeader)),
			EventID:   strings.TrimSpace(r.Header.Get(eventIDHeader)),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
