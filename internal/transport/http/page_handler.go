package http

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apierrors "statedash/internal/errors"
	viewrender "statedash/internal/render"
	"statedash/internal/services"
)

// PageHandler serves the server-rendered dashboard and its form posts.
// Every form post redirects back to the page, which shows the outcome in
// its status line.
type PageHandler struct {
	service      DashboardService
	page         *viewrender.Page
	title        string
	version      string
	maxBytes     int64
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPageHandler creates a new page handler
func NewPageHandler(service DashboardService, page *viewrender.Page, title, version string, maxBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PageHandler {
	return &PageHandler{
		service:      service,
		page:         page,
		title:        title,
		version:      version,
		maxBytes:     maxBytes,
		logger:       logger.With(slog.String("component", "page_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the page routes mounted at the site root
func (h *PageHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Index)
	r.Route("/load", func(r chi.Router) {
		r.Post("/sample", h.LoadSample)
		r.Post("/url", h.LoadURL)
		r.Post("/file", h.LoadFile)
	})

	return r
}

// Index handles GET /
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	status := h.service.Status()
	data := viewrender.PageData{
		Title:    h.title,
		Version:  h.version,
		Status:   status.Message,
		Failed:   status.Failed,
		LastURL:  status.LastURL,
		MaxBytes: h.maxBytes,
	}

	view, err := h.service.Dashboard(r.Context())
	switch {
	case err == nil:
		data.HasData = true
		data.View = view
	case !errors.Is(err, services.ErrNoDataset):
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render dashboard page",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// LoadSample handles the sample dataset form
func (h *PageHandler) LoadSample(w http.ResponseWriter, r *http.Request) {
	_, err := h.service.LoadSample(r.Context())
	h.finish(w, r, services.SourceSample, err)
}

// LoadURL handles the CSV URL form
func (h *PageHandler) LoadURL(w http.ResponseWriter, r *http.Request) {
	_, err := h.service.LoadURL(r.Context(), r.PostFormValue("url"))
	h.finish(w, r, services.SourceURL, err)
}

// LoadFile handles the upload form
func (h *PageHandler) LoadFile(w http.ResponseWriter, r *http.Request) {
	name, data, err := readUpload(w, r, h.maxBytes)
	if err != nil {
		h.service.Fail(r.Context(), services.SourceFile, err)
		h.finish(w, r, services.SourceFile, err)
		return
	}

	_, err = h.service.LoadFile(r.Context(), name, data)
	h.finish(w, r, services.SourceFile, err)
}

// finish redirects back to the page; load failures are already in the status line
func (h *PageHandler) finish(w http.ResponseWriter, r *http.Request, source string, err error) {
	if err != nil {
		h.logger.WarnContext(r.Context(), "form load failed",
			slog.String("source", source),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
