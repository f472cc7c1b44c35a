package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"statedash/internal/dataprocessing"
	apierrors "statedash/internal/errors"
	"statedash/internal/render"
	"statedash/internal/services"
	"statedash/internal/sources"
)

func serveDashboard(t *testing.T, svc *MockDashboardService, maxBytes int64, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Mount("/api/dashboard", newTestDashboardHandler(t, svc, maxBytes).Routes())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func multipartRequest(t *testing.T, target, field, name string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestDashboardHandler_GetDashboard(t *testing.T) {
	tests := []struct {
		name       string
		setupMock  func(*MockDashboardService)
		wantStatus int
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name: "dataset loaded",
			setupMock: func(m *MockDashboardService) {
				m.On("Dashboard").Return(render.Build(testRecords, services.URLLabel, render.Options{}), nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "success", body["status"])
				data := body["data"].(map[string]interface{})
				assert.Equal(t, "URL CSV", data["label"])
				assert.Equal(t, "Showing 3 records from URL CSV.", data["status"])
				assert.EqualValues(t, 3, data["total_rows"])
			},
		},
		{
			name: "no dataset",
			setupMock: func(m *MockDashboardService) {
				m.On("Dashboard").Return(render.View{}, services.ErrNoDataset)
			},
			wantStatus: http.StatusNotFound,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, apierrors.TypeNoDataset, body["type"])
				assert.Equal(t, "NO_DATASET", body["error_code"])
			},
		},
		{
			name: "unexpected error",
			setupMock: func(m *MockDashboardService) {
				m.On("Dashboard").Return(render.View{}, errors.New("boom"))
			},
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, apierrors.TypeInternal, body["type"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			tt.setupMock(svc)

			w := serveDashboard(t, svc, 1024, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			tt.check(t, decodeBody(t, w))
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_GetSummaryAndStatus(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Summary").Return(dataprocessing.Summary{Rows: 3, States: 2, Years: 2, Indicators: 1, AverageValue: 84.83}, nil)
	svc.On("Status").Return(services.Status{Message: "Showing 3 records from Sample dataset.", Loaded: true, Label: "Sample dataset"})

	w := serveDashboard(t, svc, 1024, httptest.NewRequest(http.MethodGet, "/api/dashboard/summary", nil))
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.EqualValues(t, 3, data["rows"])
	assert.EqualValues(t, 2, data["states"])
	assert.Equal(t, false, data["empty"])

	w = serveDashboard(t, svc, 1024, httptest.NewRequest(http.MethodGet, "/api/dashboard/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Showing 3 records from Sample dataset.", data["message"])
	assert.Equal(t, true, data["loaded"])

	svc.AssertExpectations(t)
}

func TestDashboardHandler_GetGroups(t *testing.T) {
	pairs := []dataprocessing.AggregatePair{
		{Label: "Kerala", Average: 96.35, Count: 2},
		{Label: "Bihar", Average: 61.8, Count: 1},
	}

	tests := []struct {
		name       string
		path       string
		setupMock  func(*MockDashboardService)
		wantStatus int
		wantType   string
		wantCount  int
	}{
		{
			name: "by state with limit",
			path: "/api/dashboard/groups/state?limit=2",
			setupMock: func(m *MockDashboardService) {
				m.On("Groups", dataprocessing.GroupByState, 2).Return(pairs, nil)
			},
			wantStatus: http.StatusOK,
			wantCount:  2,
		},
		{
			name: "key is case insensitive",
			path: "/api/dashboard/groups/YEAR",
			setupMock: func(m *MockDashboardService) {
				m.On("Groups", dataprocessing.GroupByYear, 0).Return([]dataprocessing.AggregatePair{}, nil)
			},
			wantStatus: http.StatusOK,
			wantCount:  0,
		},
		{
			name:       "unknown key",
			path:       "/api/dashboard/groups/indicator",
			setupMock:  func(m *MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeUnknownGroup,
		},
		{
			name:       "negative limit",
			path:       "/api/dashboard/groups/state?limit=-1",
			setupMock:  func(m *MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name: "no dataset",
			path: "/api/dashboard/groups/state",
			setupMock: func(m *MockDashboardService) {
				m.On("Groups", dataprocessing.GroupByState, 0).Return(nil, services.ErrNoDataset)
			},
			wantStatus: http.StatusNotFound,
			wantType:   apierrors.TypeNoDataset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			tt.setupMock(svc)

			w := serveDashboard(t, svc, 1024, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeBody(t, w)
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, body["type"])
			} else {
				assert.EqualValues(t, tt.wantCount, body["count"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_GetRecords(t *testing.T) {
	t.Run("pages records", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("Records", 1, 2).Return(testRecords[1:3], 3, nil)

		w := serveDashboard(t, svc, 1024, httptest.NewRequest(http.MethodGet, "/api/dashboard/records?offset=1&limit=2", nil))

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.EqualValues(t, 2, body["count"])
		assert.EqualValues(t, 3, body["total"])
		assert.EqualValues(t, 1, body["offset"])
		first := body["data"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, "Bihar", first["state"])
		svc.AssertExpectations(t)
	})

	t.Run("default page size", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("Records", 0, defaultRecordPage).Return(testRecords, 3, nil)

		w := serveDashboard(t, svc, 1024, httptest.NewRequest(http.MethodGet, "/api/dashboard/records", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("rejects malformed offset", func(t *testing.T) {
		svc := new(MockDashboardService)

		w := serveDashboard(t, svc, 1024, httptest.NewRequest(http.MethodGet, "/api/dashboard/records?offset=abc", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Records", mock.Anything, mock.Anything)
	})
}

func TestDashboardHandler_GetChart(t *testing.T) {
	pairs := []dataprocessing.AggregatePair{{Label: "Kerala", Average: 96.35, Count: 2}}

	t.Run("png", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("Groups", dataprocessing.GroupByState, render.DefaultTopBars).Return(pairs, nil)

		w := serveDashboard(t, svc, 1024, httptest.NewRequest(http.MethodGet, "/api/dashboard/charts/state.png", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(w.Body.String(), "\x89PNG"))
		svc.AssertExpectations(t)
	})

	t.Run("svg with limit", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("Groups", dataprocessing.GroupByYear, 3).Return(pairs, nil)

		w := serveDashboard(t, svc, 1024, httptest.NewRequest(http.MethodGet, "/api/dashboard/charts/year.svg?limit=3", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "<svg")
	})

	t.Run("unsupported format", func(t *testing.T) {
		svc := new(MockDashboardService)

		w := serveDashboard(t, svc, 1024, httptest.NewRequest(http.MethodGet, "/api/dashboard/charts/state.gif", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apierrors.TypeValidation, decodeBody(t, w)["type"])
	})
}

func TestDashboardHandler_LoadURL(t *testing.T) {
	upstream := apierrors.NewNetworkError("failed to fetch CSV", &sources.HTTPStatusError{StatusCode: 404, URL: "https://example.com/x.csv"})

	tests := []struct {
		name       string
		body       string
		setupMock  func(*MockDashboardService)
		wantStatus int
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name: "loads dataset",
			body: `{"url":"https://example.com/data.csv"}`,
			setupMock: func(m *MockDashboardService) {
				m.On("LoadURL", "https://example.com/data.csv").Return(testSnapshot(services.SourceURL, services.URLLabel), nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				data := body["data"].(map[string]interface{})
				assert.Equal(t, "URL CSV", data["label"])
				assert.Equal(t, "url", data["source"])
				assert.EqualValues(t, 3, data["rows"])
				assert.EqualValues(t, 1, data["dropped"])
				assert.Equal(t, "Showing 3 records from URL CSV.", data["status"])
				assert.Equal(t, "2024-03-01T12:00:00Z", data["loaded_at"])
			},
		},
		{
			name: "empty url",
			body: `{}`,
			setupMock: func(m *MockDashboardService) {
				m.On("LoadURL", "").Return(nil, services.ErrMissingURL)
			},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "MISSING_URL", body["error_code"])
				assert.Equal(t, "Add a CSV URL first.", body["detail"])
			},
		},
		{
			name:       "non http scheme",
			body:       `{"url":"ftp://example.com/data.csv"}`,
			setupMock:  func(m *MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
			},
		},
		{
			name:       "malformed json",
			body:       `{"url":`,
			setupMock:  func(m *MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, apierrors.TypeValidation, body["type"])
			},
		},
		{
			name: "upstream error status",
			body: `{"url":"https://example.com/x.csv"}`,
			setupMock: func(m *MockDashboardService) {
				m.On("LoadURL", "https://example.com/x.csv").Return(nil, upstream)
			},
			wantStatus: http.StatusBadGateway,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, apierrors.TypeUpstreamStatus, body["type"])
				assert.EqualValues(t, 404, body["upstream_status"])
			},
		},
		{
			name: "missing columns",
			body: `{"url":"https://example.com/x.csv"}`,
			setupMock: func(m *MockDashboardService) {
				m.On("LoadURL", "https://example.com/x.csv").Return(nil, fmt.Errorf("parse: %w", &dataprocessing.SchemaError{Missing: []string{"value"}}))
			},
			wantStatus: http.StatusUnprocessableEntity,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, apierrors.TypeSchema, body["type"])
				assert.Equal(t, "CSV missing required columns: value", body["detail"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/dashboard/load/url", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := serveDashboard(t, svc, 1024, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			tt.check(t, decodeBody(t, w))
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_LoadSample(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("LoadSample").Return(testSnapshot(services.SourceSample, "Sample dataset"), nil)

	w := serveDashboard(t, svc, 1024, httptest.NewRequest(http.MethodPost, "/api/dashboard/load/sample", nil))

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "sample", data["source"])
	svc.AssertExpectations(t)
}

func TestDashboardHandler_LoadFile(t *testing.T) {
	csv := []byte("state,year,indicator,value\nKerala,2021,Literacy,96.2\n")

	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		setupMock  func(*MockDashboardService)
		wantStatus int
		wantType   string
	}{
		{
			name: "csv upload",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/dashboard/load/file", FileField, "data.csv", csv)
			},
			setupMock: func(m *MockDashboardService) {
				m.On("LoadFile", "data.csv", csv).Return(testSnapshot(services.SourceFile, "data.csv"), nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "unsupported extension",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/dashboard/load/file", FileField, "data.xls", csv)
			},
			setupMock: func(m *MockDashboardService) {
				m.On("LoadFile", "data.xls", csv).Return(nil, fmt.Errorf("%w: data.xls", sources.ErrUnsupportedFile))
			},
			wantStatus: http.StatusUnsupportedMediaType,
			wantType:   apierrors.TypeUnsupportedFile,
		},
		{
			name: "file above the limit",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/dashboard/load/file", FileField, "big.csv", bytes.Repeat([]byte("a"), 2048))
			},
			setupMock: func(m *MockDashboardService) {
				m.On("Fail", services.SourceFile, sources.ErrTooLarge).Return("File error: input exceeds the maximum allowed size")
			},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   apierrors.TypePayloadTooLarge,
		},
		{
			name: "no file field",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/dashboard/load/file", "", "", nil)
			},
			setupMock:  func(m *MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/dashboard/load/file", strings.NewReader("state,year"))
			},
			setupMock:  func(m *MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			tt.setupMock(svc)

			w := serveDashboard(t, svc, 1024, tt.req(t))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, decodeBody(t, w)["type"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "no dataset", err: services.ErrNoDataset, wantCode: "NO_DATASET"},
		{name: "missing url", err: services.ErrMissingURL, wantCode: "MISSING_URL"},
		{name: "pagination", err: services.ErrInvalidPagination, wantCode: "VALIDATION_FAILED"},
		{name: "too large", err: sources.ErrTooLarge, wantCode: "PAYLOAD_TOO_LARGE"},
		{name: "unsupported file", err: sources.ErrUnsupportedFile, wantCode: "UNSUPPORTED_FILE_TYPE"},
		{name: "invalid url", err: fmt.Errorf("%w: missing host", sources.ErrInvalidURL), wantCode: "VALIDATION_FAILED"},
		{name: "missing file", err: errMissingFile, wantCode: "VALIDATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var apiErr *apierrors.APIError
			require.ErrorAs(t, mapServiceError(tt.err, "data.xls", 1024), &apiErr)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
		})
	}

	t.Run("other errors pass through", func(t *testing.T) {
		err := errors.New("boom")
		assert.Same(t, err, mapServiceError(err, "", 0))
	})
}
