package registry

import (
	"context"

	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/schema"
	"github.com/stretchr/testify/mock"
)

// MockRegistrySource is a mock implementation of RegistrySource for testing.
type MockRegistrySource struct {
	mock.Mock
}

var _ contract.RegistrySource = &MockRegistrySource{} // Compile-time check

// Name implements the RegistrySource interface.
func (m *MockRegistrySource) Name() schema.Registry {
	args := m.Called()
	return args.Get(0).(schema.Registry)
}

// DiscoverPopularPackages implements the RegistrySource interface.
func (m *MockRegistrySource) DiscoverPopularPackages(ctx context.Context, maxResults int, useCache bool) ([]schema.Package, error) {
	args := m.Called(ctx, maxResults, useCache)
	pkgs, _ := args.Get(0).([]schema.Package)
	return pkgs, args.Error(1)
}

// FilterByPopularity implements the RegistrySource interface.
func (m *MockRegistrySource) FilterByPopularity(pkgs []schema.Package, minPopularity int64) ([]schema.Package, int) {
	args := m.Called(pkgs, minPopularity)
	filtered, _ := args.Get(0).([]schema.Package)
	return filtered, args.Int(1)
}

// ToRepoRefs implements the RegistrySource interface.
func (m *MockRegistrySource) ToRepoRefs(pkgs []schema.Package) []schema.RepoRef {
	args := m.Called(pkgs)
	refs, _ := args.Get(0).([]schema.RepoRef)
	return refs
}

// Close implements the RegistrySource interface.
func (m *MockRegistrySource) Close() error {
	args := m.Called()
	return args.Error(0)
}
