package payments

import (
	"context"
	"strings"

	"github.com/angelmondragon/shopconsole-backend/pkg/db/models"
	"github.com/angelmondragon/shopconsole-backend/pkg/mailer"
)

// notify emails the customer that payment was received. Failures are logged
// and never fail the confirmation.
func (s *service) notify(ctx context.Context, order *models.Order) {
	if strings.TrimSpace(order.Email) == "" {
		return
	}

	data := mailer.OrderConfirmation{
		CustomerName: order.Name,
		OrderID:      order.ID.String(),
		Amount:       order.TotalAmount.StringFixed(order.Currency.MinorUnitExponent()),
		Currency:     string(order.Currency),
		Items:        make([]mailer.OrderConfirmationItem, 0, len(order.Items)),
	}
	if s.publicURL != "" {
		data.OrderURL = s.publicURL + "/orders/" + order.ID.String()
	}
	if store, err := s.stores.GetByID(ctx, order.StoreID); err == nil {
		data.StoreName = store.Name
	}
	for _, item := range order.Items {
		variant := strings.TrimSpace(strings.Join(nonEmpty(item.Size, item.Color), " / "))
		data.Items = append(data.Items, mailer.OrderConfirmationItem{
			Name:     item.ProductName,
			Variant:  variant,
			Quantity: item.Quantity,
			Total:    item.TotalPrice.StringFixed(2),
		})
	}

	msg, err := mailer.BuildOrderConfirmation(order.Email, data)
	if err != nil {
		s.logg.Error(ctx, "payments.confirmation_email_render_failed", err)
		return
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logg.Error(ctx, "payments.confirmation_email_failed", err)
		return
	}
	s.logg.Info(ctx, "payments.confirmation_email_sent")
}

func nonEmpty(values ...string) []string {
	out := values[:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
