// Package events publishes order lifecycle notifications after the owning
// transaction commits.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	OrderPlaced    = "order.placed"
	OrderCancelled = "order.cancelled"
	OrderCompleted = "order.completed"
	OrderDeleted   = "order.deleted"
)

const producerName = "storefront-api"

// Envelope wraps every published payload.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// OrderPayload describes an order at the time of the event.
type OrderPayload struct {
	OrderID   string    `json:"order_id"`
	BuyerID   string    `json:"buyer_id"`
	Status    string    `json:"status"`
	TotalCost string    `json:"total_cost"`
	Items     []ItemQty `json:"items,omitempty"`
}

type ItemQty struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// NewEnvelope builds an envelope keyed by the order id.
func NewEnvelope(eventType string, p OrderPayload) (Envelope, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producerName,
		CorrelationID: p.OrderID,
		Payload:       raw,
	}, nil
}

// Publisher delivers envelopes to subscribers.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, Envelope) error { return nil }

// Recorder keeps published envelopes in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Envelope
}

func (r *Recorder) Publish(_ context.Context, env Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, env)
	return nil
}

// Types returns the recorded event types in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

// FromOrder builds the payload for o, including its items and total.
func FromOrder(o domain.Order) OrderPayload {
	p := OrderPayload{
		OrderID:   o.ID,
		BuyerID:   o.BuyerID,
		Status:    string(o.Status),
		TotalCost: o.TotalCost().StringFixed(2),
	}
	for _, it := range o.Items {
		p.Items = append(p.Items, ItemQty{ProductID: it.ProductID, Qty: it.Quantity})
	}
	return p
}

// Emit publishes an order event. Delivery failures are logged and dropped:
// the state change has already committed. Publishing is detached from ctx
// cancellation so a client that hangs up does not lose the event.
func Emit(ctx context.Context, pub Publisher, logger *zap.Logger, eventType string, o domain.Order) {
	env, err := NewEnvelope(eventType, FromOrder(o))
	if err == nil {
		err = pub.Publish(context.WithoutCancel(ctx), env)
	}
	if err != nil {
		logger.Warn("order event not published",
			zap.String("event_type", eventType),
			zap.String("order_id", o.ID),
			zap.Error(err))
	}
}
