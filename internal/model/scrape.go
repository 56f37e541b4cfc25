package model

import "time"

// StartScrapeRequest is the body of POST /api/scrape/start
type StartScrapeRequest struct {
	URLs    []string      `json:"urls" validate:"required,min=1,dive,url"`
	City    string        `json:"city,omitempty"`
	State   string        `json:"state,omitempty"`
	Options ScrapeOptions `json:"options,omitempty"`
}

// StartScrapeResponse acknowledges an accepted scrape job
type StartScrapeResponse struct {
	JobID     string    `json:"jobId"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// ScrapeStatusResponse reports job status and progress for polling
type ScrapeStatusResponse struct {
	JobID       string      `json:"jobId"`
	Status      JobStatus   `json:"status"`
	Progress    JobProgress `json:"progress"`
	Error       *string     `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
}

// ScrapeResultsResponse carries the extracted records of a completed job
type ScrapeResultsResponse struct {
	JobID      string           `json:"jobId"`
	Properties []PropertyRecord `json:"properties"`
	Failed     []TargetError    `json:"failed,omitempty"`
	Summary    *MarketSummary   `json:"summary,omitempty"`
	SaveErrors []string         `json:"saveErrors,omitempty"`
}

// CancelScrapeResponse acknowledges a cancellation
type CancelScrapeResponse struct {
	JobID  string    `json:"jobId"`
	Status JobStatus `json:"status"`
}

// JobSummary is a listing entry without the result payload
type JobSummary struct {
	JobID       string      `json:"jobId"`
	Status      JobStatus   `json:"status"`
	Progress    JobProgress `json:"progress"`
	TargetCount int         `json:"targetCount"`
	City        string      `json:"city,omitempty"`
	State       string      `json:"state,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
}
