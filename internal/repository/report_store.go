package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"EarnScan/internal/domain/models"
	"EarnScan/internal/domain/repository"
	"EarnScan/pkg/cache"
)

var latestReportKey = cache.GenerateKey("scan", "latest")

// CacheReportStore keeps the latest scan report in the cache.
type CacheReportStore struct {
	cache cache.Service
	ttl   time.Duration
}

// NewCacheReportStore creates a report store. A zero ttl keeps reports until replaced.
func NewCacheReportStore(c cache.Service, ttl time.Duration) repository.ReportStore {
	return &CacheReportStore{cache: c, ttl: ttl}
}

func (s *CacheReportStore) SaveLatest(ctx context.Context, r *models.ScanReport) error {
	if err := s.cache.Set(ctx, latestReportKey, r, s.ttl); err != nil {
		return fmt.Errorf("save report %s: %w", r.RunID, err)
	}
	return nil
}

// Latest returns nil, nil when no report has been stored.
func (s *CacheReportStore) Latest(ctx context.Context) (*models.ScanReport, error) {
	var r models.ScanReport
	if err := s.cache.Get(ctx, latestReportKey, &r); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("load report: %w", err)
	}
	return &r, nil
}
