package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statedash/internal/services"
	"statedash/internal/shared/testutil"
)

type stubDatasetStatus struct{ status services.Status }

func (s stubDatasetStatus) Status() services.Status { return s.status }

type stubClients int

func (s stubClients) ClientCount() int { return int(s) }

func TestHealthHandler_Endpoints(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	tests := []struct {
		name       string
		loaded     bool
		path       string
		wantStatus int
		wantField  string
		wantValue  interface{}
	}{
		{name: "health", path: "/api/health", wantStatus: http.StatusOK, wantField: "status", wantValue: "ok"},
		{name: "liveness", path: "/api/health/live", wantStatus: http.StatusOK, wantField: "status", wantValue: "alive"},
		{name: "ready with dataset", loaded: true, path: "/api/health/ready", wantStatus: http.StatusOK, wantField: "status", wantValue: "ready"},
		{name: "not ready without dataset", path: "/api/health/ready", wantStatus: http.StatusServiceUnavailable, wantField: "status", wantValue: "not_ready"},
		{name: "version", path: "/api/version", wantStatus: http.StatusOK, wantField: "version", wantValue: "v1.0.0-test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := services.NewHealthService("v1.0.0-test", "2024-03-01", stubDatasetStatus{services.Status{Loaded: tt.loaded}}, stubClients(1), logger)
			handler := NewHealthHandler(svc, logger)

			r := chi.NewRouter()
			r.Mount("/api/health", handler.Routes())
			r.Get("/api/version", handler.Version)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantValue, body[tt.wantField])
		})
	}
}
