package payment

import (
	"encoding/json"
	"strings"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v78"
)

// EventCheckoutCompleted is the only provider event that confirms payment.
const EventCheckoutCompleted = "checkout.session.completed"

// Notification is the part of a provider event the confirmation flow uses.
type Notification struct {
	EventID string
	Type    string
	OrderID string
}

// ParseNotification accepts either {"event": {...}} or a bare provider event.
// The order id is read from the session metadata, falling back to the
// session's client reference id.
func ParseNotification(body []byte) (Notification, error) {
	var wrapped struct {
		Event *stripe.Event `json:"event"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return Notification{}, domain.Validation("malformed webhook payload")
	}
	ev := wrapped.Event
	if ev == nil {
		ev = &stripe.Event{}
		if err := json.Unmarshal(body, ev); err != nil {
			return Notification{}, domain.Validation("malformed webhook payload")
		}
	}
	if ev.Type == "" {
		return Notification{}, domain.FieldError("type", "required")
	}

	n := Notification{EventID: ev.ID, Type: string(ev.Type)}
	if n.Type != EventCheckoutCompleted {
		return n, nil
	}
	if ev.Data == nil || len(ev.Data.Raw) == 0 {
		return Notification{}, domain.FieldError("data.object", "required")
	}
	var session stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &session); err != nil {
		return Notification{}, domain.Validation("malformed checkout session")
	}
	orderID := strings.TrimSpace(session.Metadata["order_id"])
	if orderID == "" {
		orderID = strings.TrimSpace(session.ClientReferenceID)
	}
	if orderID == "" {
		return Notification{}, domain.FieldError("data.object.metadata.order_id", "required")
	}
	if _, err := uuid.Parse(orderID); err != nil {
		return Notification{}, domain.FieldError("data.object.metadata.order_id", "must be a valid order id")
	}
	n.OrderID = orderID
	return n, nil
}
