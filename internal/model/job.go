package model

import "time"

// Job represents a background scrape job in the system
type Job struct {
	ID          string           `json:"id"`
	Status      JobStatus        `json:"status"`
	Request     ScrapeJobPayload `json:"request"`
	Progress    JobProgress      `json:"progress"`
	Error       *string          `json:"error,omitempty"`
	Result      []byte           `json:"-"` // Stored as JSON
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

// JobProgress tracks how far a job has advanced through its target list
type JobProgress struct {
	ItemsTotal int `json:"itemsTotal"`
	ItemsDone  int `json:"itemsDone"`
}

// IsTerminal reports whether the job has reached a final state.
// Terminal jobs are never mutated again.
func (j *Job) IsTerminal() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// ScrapeJobPayload contains the immutable input parameters for a scrape job
type ScrapeJobPayload struct {
	URLs    []string      `json:"urls"`
	City    string        `json:"city,omitempty"`
	State   string        `json:"state,omitempty"`
	Options ScrapeOptions `json:"options,omitempty"`
}

// ScrapeOptions are per-job overrides for the batch runner and extraction
// engine. Zero values fall back to the server configuration.
type ScrapeOptions struct {
	Concurrency int `json:"concurrency,omitempty"`
	MaxRates    int `json:"maxRates,omitempty"`
}

// ScrapeJobResult is the payload stored on a completed job
type ScrapeJobResult struct {
	Properties []PropertyRecord `json:"properties"`
	Failed     []TargetError    `json:"failed,omitempty"`
	Summary    *MarketSummary   `json:"summary,omitempty"`
	SaveErrors []string         `json:"saveErrors,omitempty"`
}

// TargetError records a single target that could not be scraped
type TargetError struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// MarketSummary aggregates rent figures across the succeeded records of one job
type MarketSummary struct {
	PropertyCount   int     `json:"propertyCount"`
	UnitCount       int     `json:"unitCount"`
	AvgRentCents    int64   `json:"avgRentCents"`
	AvgRentPerSqft  float64 `json:"avgRentPerSqft"`
	ConcessionCount int     `json:"concessionCount"`
}
