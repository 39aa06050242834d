package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewEnvelopeWrapsPayload(t *testing.T) {
	env, err := NewEnvelope(OrderCompleted, OrderPayload{OrderID: "o-1", BuyerID: "u-1", Status: "completed", TotalCost: "25.00"})
	require.NoError(t, err)
	require.NotEmpty(t, env.EventID)
	require.Equal(t, "o-1", env.CorrelationID)
	require.Equal(t, 1, env.EventVersion)

	var p OrderPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	require.Equal(t, "25.00", p.TotalCost)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	for _, typ := range []string{OrderPlaced, OrderCompleted} {
		env, err := NewEnvelope(typ, OrderPayload{OrderID: "o-1"})
		require.NoError(t, err)
		require.NoError(t, r.Publish(context.Background(), env))
	}
	require.Equal(t, []string{OrderPlaced, OrderCompleted}, r.Types())
	require.NoError(t, Noop{}.Publish(context.Background(), Envelope{}))
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, Envelope) error { return errors.New("broker down") }

func TestEmitLogsDeliveryFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	order := domain.Order{
		ID:      "o-1",
		BuyerID: "u-1",
		Status:  domain.OrderPending,
		Items: []domain.OrderItem{
			{ProductID: "p-1", UnitPrice: decimal.RequireFromString("10.00"), Quantity: 2},
		},
	}

	Emit(context.Background(), failingPublisher{}, zap.New(core), OrderPlaced, order)
	require.Equal(t, 1, logs.FilterMessage("order event not published").Len())

	var r Recorder
	Emit(context.Background(), &r, zap.New(core), OrderPlaced, order)
	require.Equal(t, []string{OrderPlaced}, r.Types())

	p := FromOrder(order)
	require.Equal(t, "20.00", p.TotalCost)
	require.Equal(t, []ItemQty{{ProductID: "p-1", Qty: 2}}, p.Items)
}

type ctxCheckingPublisher struct{ seen error }

func (p *ctxCheckingPublisher) Publish(ctx context.Context, _ Envelope) error {
	p.seen = ctx.Err()
	return ctx.Err()
}

func TestEmitSurvivesCancelledRequest(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pub := &ctxCheckingPublisher{}
	Emit(ctx, pub, zap.New(core), OrderCancelled, domain.Order{ID: "o-1"})
	require.NoError(t, pub.seen)
	require.Zero(t, logs.Len())
}
