package models

// ScanRequest is the body of POST /api/scan. An empty body runs a full scan
// in the foreground.
type ScanRequest struct {
	Analyze bool `json:"analyze" default:"true"`
	Async   bool `json:"async"`
}

// ScanAccepted is returned for a queued scan.
type ScanAccepted struct {
	JobID string `json:"jobId"`
}
