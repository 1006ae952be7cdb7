package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestWithRunID(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	ctx, enriched := WithRunID(ctx, log, "run-123")
	assert.NotNil(t, enriched)
	assert.Equal(t, "run-123", GetRunID(ctx))
}

func TestWithOrderID(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	ctx, enriched := WithOrderID(ctx, log, "ORD-42")
	assert.NotNil(t, enriched)
	assert.Equal(t, "ORD-42", GetOrderID(ctx))
}

func TestGetRunID_Missing(t *testing.T) {
	assert.Equal(t, "", GetRunID(context.Background()))
	assert.Equal(t, "", GetOrderID(context.Background()))
}
