package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"statedash/internal/dataprocessing"
	apierrors "statedash/internal/errors"
	"statedash/internal/infrastructure"
	"statedash/internal/render"
	"statedash/internal/sources"
	ws "statedash/internal/websocket"
)

// TracerName names spans emitted by the dashboard service
const TracerName = "statedash.dashboard"

// Dataset sources
const (
	SourceSample = "sample"
	SourceURL    = "url"
	SourceFile   = "file"
)

// URLLabel is the dataset label used for URL loads
const URLLabel = "URL CSV"

// Status messages shown above the dashboard
const (
	StatusNoData     = "Load a CSV URL, upload a file, or use the sample dataset."
	StatusMissingURL = "Add a CSV URL first."
)

// Fetcher downloads CSV text from a URL
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Decoder turns uploaded bytes into CSV text
type Decoder interface {
	Decode(name string, data []byte) (string, error)
}

// Broadcaster pushes dataset events to live clients
type Broadcaster interface {
	BroadcastDatasetLoaded(ctx context.Context, event ws.DatasetEvent)
	BroadcastDatasetFailed(ctx context.Context, failure ws.DatasetFailure)
}

// Snapshot is one loaded dataset. Snapshots are never mutated after a load.
type Snapshot struct {
	ID       string                    `json:"id"`
	Label    string                    `json:"label"`
	Source   string                    `json:"source"`
	Records  []dataprocessing.Record   `json:"-"`
	Stats    dataprocessing.ParseStats `json:"stats"`
	LoadedAt time.Time                 `json:"loaded_at"`
}

// Status is the message line and the dataset it refers to
type Status struct {
	Message   string    `json:"message"`
	Failed    bool      `json:"failed"`
	Loaded    bool      `json:"loaded"`
	DatasetID string    `json:"dataset_id,omitempty"`
	Label     string    `json:"label,omitempty"`
	LastURL   string    `json:"last_url,omitempty"`
	LoadedAt  time.Time `json:"loaded_at,omitempty"`
}

// DashboardService owns the current dataset and answers dashboard queries
type DashboardService struct {
	fetcher Fetcher
	decoder Decoder
	hub     Broadcaster
	metrics *infrastructure.BusinessMetrics
	opts    render.Options
	tracer  trace.Tracer
	logger  *slog.Logger

	mu      sync.RWMutex
	current *Snapshot
	status  string
	failed  bool
	lastURL string
}

// NewDashboardService creates the service. hub and metrics may be nil.
func NewDashboardService(fetcher Fetcher, decoder Decoder, hub Broadcaster, metrics *infrastructure.BusinessMetrics, opts render.Options, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &DashboardService{
		fetcher: fetcher,
		decoder: decoder,
		hub:     hub,
		metrics: metrics,
		opts:    opts,
		tracer:  otel.Tracer(TracerName),
		logger:  logger.With(slog.String("component", "dashboard_service")),
		status:  StatusNoData,
	}
}

// LoadSample replaces the dataset with the built-in sample
func (s *DashboardService) LoadSample(ctx context.Context) (*Snapshot, error) {
	text, label := sources.Sample()
	return s.load(ctx, SourceSample, label, func(context.Context) (string, error) {
		return text, nil
	})
}

// LoadURL fetches rawURL and replaces the dataset with its contents
func (s *DashboardService) LoadURL(ctx context.Context, rawURL string) (*Snapshot, error) {
	rawURL = strings.TrimSpace(rawURL)

	s.mu.Lock()
	s.lastURL = rawURL
	if rawURL == "" {
		s.status = StatusMissingURL
		s.failed = true
		s.mu.Unlock()
		return nil, ErrMissingURL
	}
	s.mu.Unlock()

	return s.load(ctx, SourceURL, URLLabel, func(ctx context.Context) (string, error) {
		return s.fetcher.Fetch(ctx, rawURL)
	})
}

// LoadFile decodes an uploaded file and replaces the dataset with it
func (s *DashboardService) LoadFile(ctx context.Context, name string, data []byte) (*Snapshot, error) {
	return s.load(ctx, SourceFile, name, func(context.Context) (string, error) {
		return s.decoder.Decode(name, data)
	})
}

func (s *DashboardService) load(ctx context.Context, source, label string, read func(context.Context) (string, error)) (*Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.load."+source,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("dataset.source", source),
			attribute.String("dataset.label", label),
		),
	)
	defer span.End()

	start := time.Now()
	snapshot, err := s.readAndParse(ctx, source, label, read)
	infrastructure.RecordDatasetLoad(ctx, s.metrics, infrastructure.DatasetLoad{
		Source:   source,
		Accepted: snapshot.accepted(),
		Dropped:  snapshot.dropped(),
		Duration: time.Since(start),
		Err:      err,
	})

	if err != nil {
		message := FailureStatus(source, err)
		s.setStatus(message, true)
		span.SetStatus(codes.Error, message)

		s.logger.WarnContext(ctx, "dataset load failed",
			slog.String("source", source),
			slog.String("label", label),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))

		if s.hub != nil {
			s.hub.BroadcastDatasetFailed(ctx, ws.DatasetFailure{Source: source, Status: message})
		}
		return nil, err
	}

	message := render.StatusLine(len(snapshot.Records), snapshot.Label)
	s.mu.Lock()
	s.current = snapshot
	s.status = message
	s.failed = false
	s.mu.Unlock()

	span.SetAttributes(
		attribute.String("dataset.id", snapshot.ID),
		attribute.Int("dataset.rows", snapshot.Stats.Accepted),
		attribute.Int("dataset.dropped", snapshot.Stats.Dropped),
	)

	s.logger.InfoContext(ctx, "dataset loaded",
		slog.String("dataset_id", snapshot.ID),
		slog.String("source", source),
		slog.String("label", label),
		slog.Int("rows", snapshot.Stats.Accepted),
		slog.Int("dropped", snapshot.Stats.Dropped),
		slog.Duration("duration", time.Since(start)))

	if s.hub != nil {
		s.hub.BroadcastDatasetLoaded(ctx, ws.DatasetEvent{
			DatasetID: snapshot.ID,
			Label:     snapshot.Label,
			Status:    message,
			Rows:      snapshot.Stats.Accepted,
			Dropped:   snapshot.Stats.Dropped,
		})
	}
	return snapshot, nil
}

func (s *DashboardService) readAndParse(ctx context.Context, source, label string, read func(context.Context) (string, error)) (*Snapshot, error) {
	text, err := read(ctx)
	if err != nil {
		return nil, err
	}

	records, stats, err := dataprocessing.ParseWithStats(text)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		ID:       uuid.New().String(),
		Label:    label,
		Source:   source,
		Records:  records,
		Stats:    stats,
		LoadedAt: time.Now().UTC(),
	}, nil
}

func (s *Snapshot) accepted() int {
	if s == nil {
		return 0
	}
	return s.Stats.Accepted
}

func (s *Snapshot) dropped() int {
	if s == nil {
		return 0
	}
	return s.Stats.Dropped
}

func (s *DashboardService) setStatus(message string, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = message
	s.failed = failed
}

// Current returns the loaded snapshot
func (s *DashboardService) Current(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNoDataset
	}
	return s.current, nil
}

// Dashboard builds the full view of the current dataset
func (s *DashboardService) Dashboard(ctx context.Context) (render.View, error) {
	snapshot, err := s.Current(ctx)
	if err != nil {
		return render.View{}, err
	}
	return render.Build(snapshot.Records, snapshot.Label, s.opts), nil
}

// Summary returns the KPIs of the current dataset. An empty dataset yields a
// summary with Empty set rather than an error.
func (s *DashboardService) Summary(ctx context.Context) (dataprocessing.Summary, error) {
	snapshot, err := s.Current(ctx)
	if err != nil {
		return dataprocessing.Summary{}, err
	}
	summary, err := dataprocessing.Summarize(snapshot.Records)
	if err != nil && !errors.Is(err, dataprocessing.ErrEmptyResult) {
		return dataprocessing.Summary{}, err
	}
	return summary, nil
}

// Groups returns group averages of the current dataset, best first. A positive
// limit keeps only the leading pairs.
func (s *DashboardService) Groups(ctx context.Context, key dataprocessing.GroupKey, limit int) ([]dataprocessing.AggregatePair, error) {
	if _, err := dataprocessing.ParseGroupKey(string(key)); err != nil {
		return nil, err
	}
	snapshot, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	pairs := dataprocessing.GroupAverage(snapshot.Records, key)
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs, nil
}

// Records returns a page of the current dataset and the total record count
func (s *DashboardService) Records(ctx context.Context, offset, limit int) ([]dataprocessing.Record, int, error) {
	if offset < 0 || limit < 0 {
		return nil, 0, ErrInvalidPagination
	}
	snapshot, err := s.Current(ctx)
	if err != nil {
		return nil, 0, err
	}

	total := len(snapshot.Records)
	if offset >= total {
		return []dataprocessing.Record{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return snapshot.Records[offset:end], total, nil
}

// Status returns the current status line
func (s *DashboardService) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Message: s.status,
		Failed:  s.failed,
		LastURL: s.lastURL,
	}
	if s.current != nil {
		st.Loaded = true
		st.DatasetID = s.current.ID
		st.Label = s.current.Label
		st.LoadedAt = s.current.LoadedAt
	}
	return st
}

// FailureStatus is the status line shown after a failed load
func FailureStatus(source string, err error) string {
	switch source {
	case SourceURL:
		return "Failed to load URL: " + failureMessage(err)
	case SourceFile:
		return "File error: " + failureMessage(err)
	default:
		return fmt.Sprintf("Failed to load %s: %s", source, failureMessage(err))
	}
}

func failureMessage(err error) string {
	var statusErr *sources.HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Error()
	}
	var schemaErr *dataprocessing.SchemaError
	if errors.As(err, &schemaErr) {
		return schemaErr.Error()
	}
	var appErr *apierrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Cause != nil {
			return appErr.Cause.Error()
		}
		return appErr.Message
	}
	return err.Error()
}

// Fail records a load rejected before it reached the service, such as an
// oversized upload, and returns the resulting status line
func (s *DashboardService) Fail(ctx context.Context, source string, err error) string {
	message := FailureStatus(source, err)
	s.setStatus(message, true)

	s.logger.WarnContext(ctx, "dataset load rejected",
		slog.String("source", source),
		slog.String("error", err.Error()))

	if s.hub != nil {
		s.hub.BroadcastDatasetFailed(ctx, ws.DatasetFailure{Source: source, Status: message})
	}
	return message
}
