package csvsource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/quake-compass/internal/domain"
)

// maxBatchBytes caps how much of a batch is read.
const maxBatchBytes = 64 << 20

// ErrBatchTooLarge is returned when a batch exceeds the read limit. The batch
// is rejected whole.
var ErrBatchTooLarge = errors.New("batch exceeds size limit")

// Source loads a CSV batch from a local path or an http(s) URL.
// It implements pipeline.BatchSource.
type Source struct {
	location   string
	httpClient *http.Client
	maxBytes   int64
	logger     *slog.Logger
}

// NewSource creates a Source. timeout bounds remote fetches.
func NewSource(location string, timeout time.Duration, logger *slog.Logger) *Source {
	return &Source{
		location:   location,
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBatchBytes,
		logger:     logger,
	}
}

// Name identifies the source in logs and snapshots.
func (s *Source) Name() string { return s.location }

// Load fetches and parses the whole batch.
func (s *Source) Load(ctx context.Context) ([]domain.RawRecord, error) {
	body, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.location, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("read %s: %w (%d bytes)", s.location, ErrBatchTooLarge, s.maxBytes)
	}

	records, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.location, err)
	}
	s.logger.Debug("batch loaded", "source", s.location, "rows", len(records))
	return records, nil
}

func (s *Source) open(ctx context.Context) (io.ReadCloser, error) {
	if !isRemote(s.location) {
		f, err := os.Open(s.location)
		if err != nil {
			return nil, fmt.Errorf("open batch: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.location, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch batch: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch batch: unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
