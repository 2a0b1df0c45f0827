package http

import (
	"context"
	"io"

	"mediapulse/internal/services"
	"mediapulse/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dataset and view operations the
// handlers depend on
type DashboardServiceInterface interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*services.DatasetSummary, error)
	Summary(ctx context.Context, id string) (*services.DatasetSummary, error)
	Delete(ctx context.Context, id string) error
	Dashboard(ctx context.Context, id string, sel domain.FilterSelection, withInsights bool) (*services.Dashboard, error)
	Chart(ctx context.Context, id string, sel domain.FilterSelection, kind domain.ViewKind, w io.Writer) error
	ViewCSV(ctx context.Context, id string, sel domain.FilterSelection, kind domain.ViewKind, w io.Writer) error
	Export(ctx context.Context, id string, sel domain.FilterSelection, w io.Writer) error
	Filename(id string) (string, error)
}

var _ DashboardServiceInterface = (*services.DashboardService)(nil)
