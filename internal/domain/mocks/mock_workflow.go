// Package mocks holds testify mocks for the domain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"skippy.dev/pkg/skippy/internal/domain"
	m "skippy.dev/pkg/skippy/internal/model"
)

// MockWorkflow is a testify mock of domain.Workflow.
type MockWorkflow struct {
	mock.Mock
}

// NewMockWorkflow creates a MockWorkflow whose expectations are asserted when
// the test ends.
func NewMockWorkflow(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorkflow {
	mw := &MockWorkflow{}
	mw.Mock.Test(t)

	t.Cleanup(func() { mw.AssertExpectations(t) })

	return mw
}

// Select records the call and returns the configured result.
func (mw *MockWorkflow) Select(ctx context.Context, args domain.SelectArgs) (domain.SelectResult, error) {
	ret := mw.Called(ctx, args)

	result, _ := ret.Get(0).(domain.SelectResult)

	return result, ret.Error(1)
}

// Filter records the call and returns the configured result.
func (mw *MockWorkflow) Filter(ctx context.Context, args domain.FilterArgs) ([]string, error) {
	ret := mw.Called(ctx, args)

	kept, _ := ret.Get(0).([]string)

	return kept, ret.Error(1)
}

// View records the call and returns the configured error.
func (mw *MockWorkflow) View(ctx context.Context, reportPath m.Path) error {
	return mw.Called(ctx, reportPath).Error(0)
}
