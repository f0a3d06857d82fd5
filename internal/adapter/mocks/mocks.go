// Package mocks holds testify mocks for the adapter interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	m "skippy.dev/pkg/skippy/internal/model"
)

// MockGitAdapter is a testify mock of adapter.GitAdapter.
type MockGitAdapter struct {
	mock.Mock
}

// DiffAgainst records the call and returns the configured diff.
func (mg *MockGitAdapter) DiffAgainst(ctx context.Context, dir m.Path, rev string) (string, error) {
	ret := mg.Called(ctx, dir, rev)
	return ret.String(0), ret.Error(1)
}

// DefaultBranch records the call and returns the configured branch.
func (mg *MockGitAdapter) DefaultBranch(ctx context.Context, dir m.Path) (string, error) {
	ret := mg.Called(ctx, dir)
	return ret.String(0), ret.Error(1)
}

// RepositoryRoot records the call and returns the configured root.
func (mg *MockGitAdapter) RepositoryRoot(ctx context.Context, dir m.Path) (m.Path, error) {
	ret := mg.Called(ctx, dir)

	root, _ := ret.Get(0).(m.Path)

	return root, ret.Error(1)
}

// MockReportStore is a testify mock of adapter.ReportStore.
type MockReportStore struct {
	mock.Mock
}

// SaveReport records the call and returns the configured error.
func (ms *MockReportStore) SaveReport(path m.Path, report m.Report) error {
	return ms.Called(path, report).Error(0)
}

// LoadReport records the call and returns the configured report.
func (ms *MockReportStore) LoadReport(path m.Path) (m.Report, error) {
	ret := ms.Called(path)

	report, _ := ret.Get(0).(m.Report)

	return report, ret.Error(1)
}

// MockTestRunnerAdapter is a testify mock of adapter.TestRunnerAdapter.
type MockTestRunnerAdapter struct {
	mock.Mock
}

// CollectTests records the call and returns the configured IDs.
func (mt *MockTestRunnerAdapter) CollectTests(ctx context.Context, workDir string, args ...string) ([]string, error) {
	ret := mt.Called(ctx, workDir, args)

	ids, _ := ret.Get(0).([]string)

	return ids, ret.Error(1)
}

// MockPytestConfigAdapter is a testify mock of adapter.PytestConfigAdapter.
type MockPytestConfigAdapter struct {
	mock.Mock
}

// Value records the call and returns the configured value.
func (mc *MockPytestConfigAdapter) Value(ctx context.Context, key string) (string, bool, error) {
	ret := mc.Called(ctx, key)
	return ret.String(0), ret.Bool(1), ret.Error(2)
}

// ConfigFile records the call and returns the configured path.
func (mc *MockPytestConfigAdapter) ConfigFile(ctx context.Context) (m.Path, error) {
	ret := mc.Called(ctx)

	path, _ := ret.Get(0).(m.Path)

	return path, ret.Error(1)
}

// Reset records the call.
func (mc *MockPytestConfigAdapter) Reset() {
	mc.Called()
}
