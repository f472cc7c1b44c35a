package http

import (
	"context"

	"statedash/internal/dataprocessing"
	"statedash/internal/render"
	"statedash/internal/services"
)

// DashboardService defines the dataset operations used by the HTTP handlers
type DashboardService interface {
	LoadSample(ctx context.Context) (*services.Snapshot, error)
	LoadURL(ctx context.Context, rawURL string) (*services.Snapshot, error)
	LoadFile(ctx context.Context, name string, data []byte) (*services.Snapshot, error)
	Fail(ctx context.Context, source string, err error) string

	Dashboard(ctx context.Context) (render.View, error)
	Summary(ctx context.Context) (dataprocessing.Summary, error)
	Groups(ctx context.Context, key dataprocessing.GroupKey, limit int) ([]dataprocessing.AggregatePair, error)
	Records(ctx context.Context, offset, limit int) ([]dataprocessing.Record, int, error)
	Status() services.Status
}

// HealthService defines the probes served under /api/health
type HealthService interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}

var (
	_ DashboardService = (*services.DashboardService)(nil)
	_ HealthService    = (*services.HealthService)(nil)
)
