package github

import (
	"context"

	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/schema"
	"github.com/stretchr/testify/mock"
)

// MockStatsFetcher is a mock implementation of StatsFetcher for testing.
type MockStatsFetcher struct {
	mock.Mock
}

var _ contract.StatsFetcher = &MockStatsFetcher{} // Compile-time check

// FetchBatch implements the StatsFetcher interface.
func (m *MockStatsFetcher) FetchBatch(ctx context.Context, repos []schema.RepoRef) []schema.ActivityRecord {
	args := m.Called(ctx, repos)
	records, _ := args.Get(0).([]schema.ActivityRecord)
	return records
}

// SearchRepositories implements the StatsFetcher interface.
func (m *MockStatsFetcher) SearchRepositories(ctx context.Context, query string, maxResults int) ([]schema.RepoRef, error) {
	args := m.Called(ctx, query, maxResults)
	repos, _ := args.Get(0).([]schema.RepoRef)
	return repos, args.Error(1)
}

// Close implements the StatsFetcher interface.
func (m *MockStatsFetcher) Close() error {
	args := m.Called()
	return args.Error(0)
}
