package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chemviz/pkg/contracts/domain"
)

// MockDatasetStore is a mock for storage.DatasetStore
type MockDatasetStore struct {
	mock.Mock
}

func (m *MockDatasetStore) Create(ctx context.Context, ds *domain.Dataset) error {
	args := m.Called(ctx, ds)
	return args.Error(0)
}

func (m *MockDatasetStore) Get(ctx context.Context, id int64) (domain.Dataset, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Dataset), args.Error(1)
}

func (m *MockDatasetStore) Recent(ctx context.Context, limit int) ([]domain.Dataset, error) {
	args := m.Called(ctx, limit)
	items, _ := args.Get(0).([]domain.Dataset)
	return items, args.Error(1)
}

func (m *MockDatasetStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDatasetStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockSourceStore is a mock for storage.SourceStore
type MockSourceStore struct {
	mock.Mock
}

func (m *MockSourceStore) Save(ctx context.Context, filename string, data []byte) (string, error) {
	args := m.Called(ctx, filename, data)
	return args.String(0), args.Error(1)
}

func (m *MockSourceStore) Load(ctx context.Context, ref string) ([]byte, error) {
	args := m.Called(ctx, ref)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockSourceStore) Remove(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

// MockPublisher is a mock for Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Broadcast(ctx context.Context, eventType string, data interface{}) {
	m.Called(ctx, eventType, data)
}
