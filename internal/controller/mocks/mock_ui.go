// Package mocks holds testify mocks for the controller interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	m "skippy.dev/pkg/skippy/internal/model"
)

// MockUI is a testify mock of controller.UI.
type MockUI struct {
	mock.Mock
}

// DisplaySelection records the call and returns the configured error.
func (mu *MockUI) DisplaySelection(ctx context.Context, ids []string) error {
	return mu.Called(ctx, ids).Error(0)
}

// DisplayChanges records the call and returns the configured error.
func (mu *MockUI) DisplayChanges(ctx context.Context, outcomes []m.ChangeOutcome) error {
	return mu.Called(ctx, outcomes).Error(0)
}

// DisplayReport records the call and returns the configured error.
func (mu *MockUI) DisplayReport(ctx context.Context, report m.Report) error {
	return mu.Called(ctx, report).Error(0)
}
