package razorpaywebhook

import (
	"encoding/json"

	"github.com/angelmondragon/shopconsole-backend/pkg/enums"
)

// Event types acted upon. Anything else is acknowledged and ignored.
const (
	EventPaymentCaptured   = "payment.captured"
	EventPaymentAuthorized = "payment.authorized"
	EventPaymentFailed     = "payment.failed"
	EventOrderPaid         = "order.paid"
)

// Event is the subset of a gateway webhook body the receiver reads.
type Event struct {
	Event   string       `json:"event"`
	Payload EventPayload `json:"payload"`
}

type EventPayload struct {
	Payment *entityWrapper[PaymentEntity] `json:"payment,omitempty"`
	Order   *entityWrapper[OrderEntity]   `json:"order,omitempty"`
}

type entityWrapper[T any] struct {
	Entity T `json:"entity"`
}

type PaymentEntity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Method  string `json:"method"`
}

type OrderEntity struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ParseEvent decodes a verified webhook body.
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// payment flattens the event into the fields a confirmation needs. order.paid
// events may omit the payment entity; the order entity then stands in.
func (e *Event) payment() (orderRef, paymentRef string, status enums.PaymentStatus, method string) {
	if e.Payload.Payment != nil {
		p := e.Payload.Payment.Entity
		orderRef, paymentRef, method = p.OrderID, p.ID, p.Method
		status = enums.PaymentStatus(p.Status)
	}
	if e.Event == EventOrderPaid && e.Payload.Order != nil {
		if orderRef == "" {
			orderRef = e.Payload.Order.Entity.ID
		}
		if e.Payload.Order.Entity.Status == "paid" {
			status = enums.PaymentStatusCaptured
		}
	}
	return orderRef, paymentRef, status, method
}

func handled(eventType string) bool {
	switch eventType {
	case EventPaymentCaptured, EventPaymentAuthorized, EventPaymentFailed, EventOrderPaid:
		return true
	}
	return false
}
