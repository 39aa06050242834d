package service

import (
	"errors"
	"testing"

	"storefront/internal/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestGuardPassesKnownErrors(t *testing.T) {
	err := domain.Validation("cart is empty")
	require.Same(t, err, Guard(zap.NewNop(), "op", err))
	require.NoError(t, Guard(zap.NewNop(), "op", nil))
}

func TestGuardHidesUnknownErrors(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	err := Guard(zap.New(core), "order.create", errors.New("pq: connection reset"))

	require.Equal(t, domain.KindInternal, domain.KindOf(err))
	require.NotContains(t, err.Error(), "connection reset")
	require.Equal(t, 1, logs.Len())
	require.Equal(t, "order.create", logs.All()[0].ContextMap()["op"])
}
