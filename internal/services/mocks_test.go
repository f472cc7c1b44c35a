package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	ws "statedash/internal/websocket"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	args := m.Called(ctx, rawURL)
	return args.String(0), args.Error(1)
}

type MockDecoder struct {
	mock.Mock
}

func (m *MockDecoder) Decode(name string, data []byte) (string, error) {
	args := m.Called(name, data)
	return args.String(0), args.Error(1)
}

type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) BroadcastDatasetLoaded(ctx context.Context, event ws.DatasetEvent) {
	m.Called(ctx, event)
}

func (m *MockBroadcaster) BroadcastDatasetFailed(ctx context.Context, failure ws.DatasetFailure) {
	m.Called(ctx, failure)
}

type stubStatus struct{ st Status }

func (s stubStatus) Status() Status { return s.st }

type stubCounter int

func (c stubCounter) ClientCount() int { return int(c) }
