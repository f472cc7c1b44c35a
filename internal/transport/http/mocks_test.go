package http

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"statedash/internal/dataprocessing"
	apierrors "statedash/internal/errors"
	appmw "statedash/internal/middleware"
	"statedash/internal/render"
	"statedash/internal/services"
	"statedash/internal/shared/testutil"
)

// MockDashboardService is a mock implementation of DashboardService
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) LoadSample(ctx context.Context) (*services.Snapshot, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Snapshot), args.Error(1)
}

func (m *MockDashboardService) LoadURL(ctx context.Context, rawURL string) (*services.Snapshot, error) {
	args := m.Called(rawURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Snapshot), args.Error(1)
}

func (m *MockDashboardService) LoadFile(ctx context.Context, name string, data []byte) (*services.Snapshot, error) {
	args := m.Called(name, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Snapshot), args.Error(1)
}

func (m *MockDashboardService) Fail(ctx context.Context, source string, err error) string {
	args := m.Called(source, err)
	return args.String(0)
}

func (m *MockDashboardService) Dashboard(ctx context.Context) (render.View, error) {
	args := m.Called()
	return args.Get(0).(render.View), args.Error(1)
}

func (m *MockDashboardService) Summary(ctx context.Context) (dataprocessing.Summary, error) {
	args := m.Called()
	return args.Get(0).(dataprocessing.Summary), args.Error(1)
}

func (m *MockDashboardService) Groups(ctx context.Context, key dataprocessing.GroupKey, limit int) ([]dataprocessing.AggregatePair, error) {
	args := m.Called(key, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dataprocessing.AggregatePair), args.Error(1)
}

func (m *MockDashboardService) Records(ctx context.Context, offset, limit int) ([]dataprocessing.Record, int, error) {
	args := m.Called(offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]dataprocessing.Record), args.Int(1), args.Error(2)
}

func (m *MockDashboardService) Status() services.Status {
	args := m.Called()
	return args.Get(0).(services.Status)
}

var testRecords = []dataprocessing.Record{
	{State: "Kerala", Year: 2021, Indicator: "Literacy", Value: 96.2},
	{State: "Bihar", Year: 2021, Indicator: "Literacy", Value: 61.8},
	{State: "Kerala", Year: 2022, Indicator: "Literacy", Value: 96.5},
}

func testSnapshot(source, label string) *services.Snapshot {
	return &services.Snapshot{
		ID:       "7d0f5a8e-2c4b-4e51-9a57-0f9b8b2f6c11",
		Label:    label,
		Source:   source,
		Records:  testRecords,
		Stats:    dataprocessing.ParseStats{Dropped: 1},
		LoadedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func testErrorHandler(t *testing.T) *apierrors.ErrorHandler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return apierrors.NewErrorHandler(logger, false)
}

func newTestDashboardHandler(t *testing.T, svc DashboardService, maxBytes int64) *DashboardHandler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewDashboardHandler(svc, appmw.NewValidator(logger), appmw.NewQueryParamValidator(logger), maxBytes, logger, testErrorHandler(t))
}
