package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"statedash/internal/dataprocessing"
	apierrors "statedash/internal/errors"
	appmw "statedash/internal/middleware"
	viewrender "statedash/internal/render"
	"statedash/internal/services"
	"statedash/internal/sources"
	api "statedash/pkg/contracts/api/v1"
)

// Upload limits
const (
	// FileField is the multipart field carrying an uploaded dataset
	FileField = "file"

	multipartOverhead = 1 << 20
	maxRecordsPage    = 1000
	defaultRecordPage = 50
	maxGroupLimit     = 1000
)

var chartContentTypes = map[string]string{
	"png": "image/png",
	"svg": "image/svg+xml",
}

// DashboardHandler serves the JSON dashboard API
type DashboardHandler struct {
	service      DashboardService
	validator    *appmw.Validator
	query        *appmw.QueryParamValidator
	maxBytes     int64
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler. maxBytes caps uploaded
// files and is reported back when an upload is rejected.
func NewDashboardHandler(service DashboardService, validator *appmw.Validator, query *appmw.QueryParamValidator, maxBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validator:    validator,
		query:        query,
		maxBytes:     maxBytes,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes mounted at /api/dashboard
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/", h.GetDashboard)
		r.Get("/summary", h.GetSummary)
		r.Get("/status", h.GetStatus)
		r.Get("/groups/{key}", h.GetGroups)
		r.Get("/records", h.GetRecords)

		r.Route("/load", func(r chi.Router) {
			r.Post("/sample", h.LoadSample)
			r.Post("/url", h.LoadURL)
			r.Post("/file", h.LoadFile)
		})
	})

	r.Get("/charts/{key}.{format}", h.GetChart)

	return r
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.fail(w, r, "failed to build dashboard", err, "")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}

// GetSummary handles GET /api/dashboard/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.fail(w, r, "failed to summarize dataset", err, "")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// GetStatus handles GET /api/dashboard/status
func (h *DashboardHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.Status(),
	})
}

// GetGroups handles GET /api/dashboard/groups/{key}?limit=N
func (h *DashboardHandler) GetGroups(w http.ResponseWriter, r *http.Request) {
	key, err := dataprocessing.ParseGroupKey(chi.URLParam(r, "key"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	limit, err := h.query.Int(r, "limit", 0, maxGroupLimit, 0)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	pairs, err := h.service.Groups(r.Context(), key, limit)
	if err != nil {
		h.fail(w, r, "failed to group dataset", err, "")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"key":    key,
		"data":   pairs,
		"count":  len(pairs),
	})
}

// GetRecords handles GET /api/dashboard/records?offset=N&limit=N
func (h *DashboardHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	offset, err := h.query.Int(r, "offset", 0, math.MaxInt32, 0)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	limit, err := h.query.Int(r, "limit", 0, maxRecordsPage, defaultRecordPage)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	records, total, err := h.service.Records(r.Context(), offset, limit)
	if err != nil {
		h.fail(w, r, "failed to page records", err, "")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   records,
		"count":  len(records),
		"total":  total,
		"offset": offset,
	})
}

// GetChart handles GET /api/dashboard/charts/{key}.{format}
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	key, err := dataprocessing.ParseGroupKey(chi.URLParam(r, "key"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	format := chi.URLParam(r, "format")
	contentType, ok := chartContentTypes[format]
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", "format must be one of: png, svg"))
		return
	}

	limit, err := h.query.Int(r, "limit", 1, maxGroupLimit, viewrender.DefaultTopBars)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	pairs, err := h.service.Groups(r.Context(), key, limit)
	if err != nil {
		h.fail(w, r, "failed to group dataset", err, "")
		return
	}

	var buf bytes.Buffer
	title := fmt.Sprintf("Average value by %s", key)
	if err := viewrender.WriteBarChart(&buf, title, pairs, format); err != nil {
		h.fail(w, r, "failed to draw chart", err, "")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// LoadSample handles POST /api/dashboard/load/sample
func (h *DashboardHandler) LoadSample(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.LoadSample(r.Context())
	if err != nil {
		h.fail(w, r, "failed to load sample dataset", err, "")
		return
	}
	h.respondLoaded(w, r, snapshot)
}

// LoadURL handles POST /api/dashboard/load/url
func (h *DashboardHandler) LoadURL(w http.ResponseWriter, r *http.Request) {
	var req api.LoadURLRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	snapshot, err := h.service.LoadURL(r.Context(), req.URL)
	if err != nil {
		h.fail(w, r, "failed to load dataset from url", err, "")
		return
	}
	h.respondLoaded(w, r, snapshot)
}

// LoadFile handles POST /api/dashboard/load/file with a multipart "file" field
func (h *DashboardHandler) LoadFile(w http.ResponseWriter, r *http.Request) {
	name, data, err := readUpload(w, r, h.maxBytes)
	if err != nil {
		if errors.Is(err, sources.ErrTooLarge) {
			h.service.Fail(r.Context(), services.SourceFile, err)
		}
		h.fail(w, r, "failed to read upload", err, name)
		return
	}

	snapshot, err := h.service.LoadFile(r.Context(), name, data)
	if err != nil {
		h.fail(w, r, "failed to load uploaded dataset", err, name)
		return
	}
	h.respondLoaded(w, r, snapshot)
}

func (h *DashboardHandler) respondLoaded(w http.ResponseWriter, r *http.Request, snapshot *services.Snapshot) {
	h.logger.InfoContext(r.Context(), "dataset loaded",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("dataset_id", snapshot.ID),
		slog.String("source", snapshot.Source),
		slog.Int("rows", len(snapshot.Records)))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   loadResponse(snapshot),
	})
}

func loadResponse(snapshot *services.Snapshot) api.LoadResponse {
	return api.LoadResponse{
		DatasetID: snapshot.ID,
		Label:     snapshot.Label,
		Source:    snapshot.Source,
		Status:    viewrender.StatusLine(len(snapshot.Records), snapshot.Label),
		Rows:      len(snapshot.Records),
		Dropped:   snapshot.Stats.Dropped,
		LoadedAt:  snapshot.LoadedAt.UTC().Format(time.RFC3339),
	}
}

// fail logs err and writes it as a problem response
func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error, filename string) {
	h.logger.ErrorContext(r.Context(), msg,
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetReqID(r.Context())))

	h.errorHandler.HandleError(w, r, mapServiceError(err, filename, h.maxBytes))
}

// mapServiceError turns service and source sentinels into API errors
func mapServiceError(err error, filename string, maxBytes int64) error {
	switch {
	case errors.Is(err, services.ErrNoDataset):
		return apierrors.ErrNoDataset
	case errors.Is(err, services.ErrMissingURL):
		return apierrors.ErrMissingURL
	case errors.Is(err, services.ErrInvalidPagination):
		return apierrors.ErrValidation("offset", err.Error())
	case errors.Is(err, sources.ErrTooLarge):
		return apierrors.PayloadTooLargeError(maxBytes)
	case errors.Is(err, sources.ErrUnsupportedFile):
		return apierrors.UnsupportedFileError(filename)
	case errors.Is(err, sources.ErrInvalidURL):
		return apierrors.ErrValidation("url", err.Error())
	case errors.Is(err, errMissingFile):
		return apierrors.ErrValidation(FileField, "a file is required")
	}
	return err
}

var errMissingFile = errors.New("no file uploaded")

// readUpload extracts the uploaded file, refusing anything above maxBytes
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, sources.ErrTooLarge
		}
		return "", nil, fmt.Errorf("%w: %v", errMissingFile, err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(FileField)
	if err != nil {
		return "", nil, errMissingFile
	}
	defer file.Close()

	if header.Size > maxBytes {
		return header.Filename, nil, sources.ErrTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return header.Filename, nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return header.Filename, nil, sources.ErrTooLarge
	}
	return header.Filename, data, nil
}
