package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"statedash/internal/config"
	apierrors "statedash/internal/errors"
)

// URLFetcher downloads CSV documents from remote URLs
type URLFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	logger    *slog.Logger
}

// NewURLFetcher creates a fetcher from the dataset configuration
func NewURLFetcher(cfg config.DatasetConfig, logger *slog.Logger) *URLFetcher {
	return &URLFetcher{
		client: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBytes,
		logger:    logger.With(slog.String("component", "url_fetcher")),
	}
}

// Fetch retrieves the body of rawURL as text. A non-2xx response yields a network
// AppError wrapping *HTTPStatusError; a body larger than the limit yields ErrTooLarge.
func (f *URLFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	target, err := validateURL(rawURL)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.WarnContext(ctx, "csv fetch failed",
			slog.String("url", target.Redacted()),
			slog.String("error", err.Error()),
		)
		return "", apierrors.NewNetworkError("failed to fetch CSV", err).
			WithContext("url", target.Redacted())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		statusErr := &HTTPStatusError{StatusCode: resp.StatusCode, URL: target.Redacted()}
		f.logger.WarnContext(ctx, "csv fetch returned error status",
			slog.String("url", statusErr.URL),
			slog.Int("status", resp.StatusCode),
		)
		return "", apierrors.NewNetworkError("failed to fetch CSV", statusErr).
			WithContext("url", statusErr.URL)
	}

	body, err := readLimited(resp.Body, f.maxBytes)
	if err != nil {
		if err == ErrTooLarge {
			return "", err
		}
		return "", apierrors.NewNetworkError("failed to read CSV body", err).
			WithContext("url", target.Redacted())
	}

	f.logger.InfoContext(ctx, "csv fetched",
		slog.String("url", target.Redacted()),
		slog.Int("bytes", len(body)),
		slog.Duration("duration", time.Since(start)),
	)

	return string(stripBOM(body)), nil
}

// validateURL accepts absolute http and https URLs only
func validateURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u, nil
}

// readLimited reads at most limit bytes and fails with ErrTooLarge beyond that
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == utf8BOM[0] && data[1] == utf8BOM[1] && data[2] == utf8BOM[2] {
		return data[3:]
	}
	return data
}
