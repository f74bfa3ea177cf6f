package testutil

import (
	"context"

	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/postgres"
)

var _ postgres.IClient = (*MockPostgresClient)(nil)

// MockPostgresClient is a no-op transaction runner for service tests
// backed by in-memory stores
type MockPostgresClient struct {
	logger *logger.Logger
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) postgres.IClient {
	return &MockPostgresClient{logger: logger}
}

// WithTx executes the given function without a real transaction
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
