package usecase

import (
	"context"
	"errors"

	applogger "EarnScan/pkg/logger"
	"EarnScan/pkg/queue"
)

// ScanJobType is the queue message type for background scans.
const ScanJobType = "scan"

// ScanJobPayload is the queued form of a scan request.
type ScanJobPayload struct {
	Analyze bool `json:"analyze"`
}

// ScanJob runs queued scans. The report lands in the report store like any
// other run. A failed scan is returned so the queue retries it.
type ScanJob struct {
	svc *ScanService
	log *applogger.Logger
}

// NewScanJob creates the job.
func NewScanJob(svc *ScanService, l *applogger.Logger) *ScanJob {
	if l == nil {
		l = applogger.Nop()
	}
	return &ScanJob{svc: svc, log: l}
}

func (j *ScanJob) Name() string { return "scan-job" }
func (j *ScanJob) Type() string { return ScanJobType }

func (j *ScanJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[ScanJobPayload](payload)
	if err != nil {
		// malformed payloads never succeed; do not retry them
		j.log.Error("scan job: bad payload", applogger.Error(err))
		return nil
	}

	_, err = j.svc.Run(ctx, ScanOptions{Analyze: p.Analyze})
	if errors.Is(err, ErrScanInProgress) {
		j.log.Info("scan job skipped, another scan is running")
		return nil
	}
	return err
}
