package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Fatal helpers exit the process, so they are checked at the signature
// level only.
var _ func(msg string, fields ...zap.Field) = Fatal
var _ func(ctx context.Context, msg string, fields ...zap.Field) = FatalCtx

func TestInitialize(t *testing.T) {
	err := Initialize(Config{Debug: true})
	require.NoError(t, err)
	assert.NotNil(t, Default())
}

func TestFromContext(t *testing.T) {
	require.NoError(t, Initialize(Config{Debug: true}))

	//nolint:staticcheck // nil ctx fallback is part of the contract
	assert.NotNil(t, FromContext(nil))
	assert.NotNil(t, FromContext(context.Background()))
}
