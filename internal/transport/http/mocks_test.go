package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chemviz/internal/security"
	"chemviz/internal/services"
	"chemviz/pkg/contracts/domain"
)

// MockDatasetService is a mock implementation of DatasetService
type MockDatasetService struct {
	mock.Mock
}

func (m *MockDatasetService) Upload(ctx context.Context, filename string, data []byte) (*services.DatasetResult, error) {
	args := m.Called(ctx, filename, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DatasetResult), args.Error(1)
}

func (m *MockDatasetService) History(ctx context.Context) ([]domain.Dataset, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]domain.Dataset)
	return items, args.Error(1)
}

func (m *MockDatasetService) Dataset(ctx context.Context, id int64, cfg domain.ThresholdConfig) (*services.DatasetResult, error) {
	args := m.Called(ctx, id, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DatasetResult), args.Error(1)
}

func (m *MockDatasetService) ReportModel(ctx context.Context, id int64, cfg domain.ThresholdConfig) (*services.Report, error) {
	args := m.Called(ctx, id, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Report), args.Error(1)
}

func (m *MockDatasetService) Render(ctx context.Context, id int64, cfg domain.ThresholdConfig, format domain.ReportFormat) (*services.RenderedReport, error) {
	args := m.Called(ctx, id, cfg, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RenderedReport), args.Error(1)
}

// MockAuthService is a mock implementation of AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (security.Token, error) {
	args := m.Called(ctx, username, password)
	return args.Get(0).(security.Token), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) {
	m.Called(ctx, token)
}
