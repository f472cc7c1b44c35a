package infrastructure

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statedash/internal/shared/testutil"
)

func TestInitializeOTel(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *OTelConfig
		wantErr     bool
		wantMetrics bool
		wantTracing bool
	}{
		{
			name:        "prometheus metrics without tracing",
			cfg:         &OTelConfig{ServiceName: "test", ServiceVersion: "1", TraceExporter: "none", MetricExporter: "prometheus", SampleRatio: 1},
			wantMetrics: true,
		},
		{
			name:        "stdout tracing",
			cfg:         &OTelConfig{ServiceName: "test", ServiceVersion: "1", TraceExporter: "stdout", MetricExporter: "none", SampleRatio: 1},
			wantTracing: true,
		},
		{
			name:    "unsupported trace exporter",
			cfg:     &OTelConfig{ServiceName: "test", TraceExporter: "zipkin", MetricExporter: "none"},
			wantErr: true,
		},
		{
			name:    "unsupported metric exporter",
			cfg:     &OTelConfig{ServiceName: "test", TraceExporter: "none", MetricExporter: "statsd"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)

			providers, err := InitializeOTel(tt.cfg, logger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer providers.Shutdown(context.Background())

			assert.NotNil(t, providers.Meter)
			assert.NotNil(t, providers.Tracer)
			assert.Equal(t, tt.wantMetrics, providers.PrometheusHTTP != nil)
			assert.Equal(t, tt.wantTracing, providers.TracerProvider != nil)
		})
	}
}

func TestBusinessMetrics_ExposedOnPrometheus(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "test",
		ServiceVersion: "1",
		TraceExporter:  "none",
		MetricExporter: "prometheus",
		SampleRatio:    1,
	}, logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordDatasetLoad(ctx, metrics, DatasetLoad{Source: "sample", Accepted: 12, Dropped: 1, Duration: 5 * time.Millisecond})
	RecordDatasetLoad(ctx, metrics, DatasetLoad{Source: "url", Duration: time.Millisecond, Err: errors.New("HTTP 404")})

	srv := httptest.NewServer(providers.PrometheusHTTP)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "dataset_loads_total")
	assert.Contains(t, string(body), "dataset_load_errors_total")
	assert.Contains(t, string(body), "dataset_rows_parsed_total")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestRecordDatasetLoad_NilMetrics(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordDatasetLoad(context.Background(), nil, DatasetLoad{Source: "file"})
		RecordDatasetLoad(context.Background(), NewNoopBusinessMetrics(), DatasetLoad{Source: "file", Accepted: 1})
	})
}
