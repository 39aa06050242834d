package observability

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerFallsBackOnUnknownLevel(t *testing.T) {
	logger, err := NewLogger("chatty")
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	require.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestOrNop(t *testing.T) {
	require.NotNil(t, OrNop(nil))
}

func TestInitTracingDisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "test", false, io.Discard)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
