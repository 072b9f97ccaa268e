package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conduit-lang/ormbind/internal/orm/report"
)

const (
	reportKeyPrefix = "report:"
	latestReportKey = "report:latest"
)

// ReportStore saves bootstrap reports into a Cache and tracks the latest one
type ReportStore struct {
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewReportStore creates a store over cache; ttl 0 uses the backend default
func NewReportStore(cache Cache, ttl time.Duration, logger *zap.Logger) *ReportStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportStore{cache: cache, ttl: ttl, logger: logger.Named("report-store")}
}

// Save stores r under its run id and marks it as the latest report
func (s *ReportStore) Save(ctx context.Context, r *report.Report) error {
	data, err := r.JSON()
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	id := r.RunID.String()
	if err := s.cache.Set(ctx, reportKeyPrefix+id, data, s.ttl); err != nil {
		return fmt.Errorf("failed to save report %s: %w", id, err)
	}
	if err := s.cache.Set(ctx, latestReportKey, []byte(id), s.ttl); err != nil {
		return fmt.Errorf("failed to mark report %s as latest: %w", id, err)
	}

	s.logger.Debug("saved report", zap.String("run_id", id), zap.Int("bytes", len(data)))
	return nil
}

// Load returns the report with the given run id
func (s *ReportStore) Load(ctx context.Context, runID uuid.UUID) (*report.Report, error) {
	data, err := s.cache.Get(ctx, reportKeyPrefix+runID.String())
	if err != nil {
		return nil, err
	}
	return report.Parse(data)
}

// Latest returns the most recently saved report
func (s *ReportStore) Latest(ctx context.Context) (*report.Report, error) {
	data, err := s.cache.Get(ctx, latestReportKey)
	if err != nil {
		return nil, err
	}
	runID, err := uuid.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("latest report id %q is invalid: %w", string(data), err)
	}
	return s.Load(ctx, runID)
}
