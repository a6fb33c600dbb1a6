package http

import (
	"context"

	"chemviz/internal/security"
	"chemviz/internal/services"
	"chemviz/pkg/contracts/domain"
)

// DatasetService is the dataset pipeline as seen by the HTTP layer.
type DatasetService interface {
	Upload(ctx context.Context, filename string, data []byte) (*services.DatasetResult, error)
	History(ctx context.Context) ([]domain.Dataset, error)
	Dataset(ctx context.Context, id int64, cfg domain.ThresholdConfig) (*services.DatasetResult, error)
	ReportModel(ctx context.Context, id int64, cfg domain.ThresholdConfig) (*services.Report, error)
	Render(ctx context.Context, id int64, cfg domain.ThresholdConfig, format domain.ReportFormat) (*services.RenderedReport, error)
}

// AuthService issues and revokes API tokens.
type AuthService interface {
	Login(ctx context.Context, username, password string) (security.Token, error)
	Logout(ctx context.Context, token string)
}
