package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/rentradar/scraper-api/internal/model"
	"github.com/rentradar/scraper-api/internal/store"
)

const TaskTypeScrape = "scrape:batch"

// Orchestrator errors, matched with errors.Is at the handler boundary
var (
	ErrJobNotFound  = errors.New("job not found")
	ErrJobNotReady  = errors.New("job not completed")
	ErrJobTerminal  = errors.New("job already in a terminal state")
	ErrEmptyTargets = errors.New("at least one target url is required")
)

// TaskEnqueuer schedules background work. *asynq.Client satisfies it; tests
// substitute a fake.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ScrapeService is the job orchestrator: it decouples a scrape request from
// its long-running execution, tracks lifecycle state in the durable store,
// and answers polling and cancellation.
//
// Status transitions are monotonic except cancelled, which is reachable only
// from pending or processing. Terminal jobs are never mutated again.
type ScrapeService struct {
	store     store.JobStore
	enqueuer  TaskEnqueuer
	retention time.Duration
}

func NewScrapeService(jobStore store.JobStore, enqueuer TaskEnqueuer, retention time.Duration) *ScrapeService {
	return &ScrapeService{
		store:     jobStore,
		enqueuer:  enqueuer,
		retention: retention,
	}
}

// StartScrape validates the request, persists a pending job, and schedules
// background execution. It returns as soon as the job is durable; callers
// poll for progress.
func (s *ScrapeService) StartScrape(ctx context.Context, req *model.StartScrapeRequest) (*model.StartScrapeResponse, error) {
	if len(req.URLs) == 0 {
		return nil, ErrEmptyTargets
	}

	now := time.Now()
	job := &model.Job{
		ID:     uuid.New().String(),
		Status: model.JobStatusPending,
		Request: model.ScrapeJobPayload{
			URLs:    req.URLs,
			City:    req.City,
			State:   req.State,
			Options: req.Options,
		},
		Progress:  model.JobProgress{ItemsTotal: len(req.URLs)},
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Persist before enqueue: a job id handed to a caller must be pollable
	if err := s.store.Put(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	task, err := newScrapeTask(job.ID, &job.Request)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	_, err = s.enqueuer.Enqueue(task,
		asynq.Queue("scrape"),
		asynq.MaxRetry(2),
		asynq.Retention(s.retention),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return &model.StartScrapeResponse{
		JobID:     job.ID,
		Status:    job.Status,
		CreatedAt: job.CreatedAt,
	}, nil
}

// GetStatus returns the current lifecycle state of a job
func (s *ScrapeService) GetStatus(ctx context.Context, jobID string) (*model.ScrapeStatusResponse, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &model.ScrapeStatusResponse{
		JobID:       job.ID,
		Status:      job.Status,
		Progress:    job.Progress,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
		CompletedAt: job.CompletedAt,
	}, nil
}

// GetResults returns the extracted records of a completed job
func (s *ScrapeService) GetResults(ctx context.Context, jobID string) (*model.ScrapeResultsResponse, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobStatusCompleted {
		return nil, ErrJobNotReady
	}

	var result model.ScrapeJobResult
	if err := json.Unmarshal(job.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &model.ScrapeResultsResponse{
		JobID:      job.ID,
		Properties: result.Properties,
		Failed:     result.Failed,
		Summary:    result.Summary,
		SaveErrors: result.SaveErrors,
	}, nil
}

// Cancel marks a pending or processing job cancelled. Cancellation is
// cooperative: in-flight browser automation is not interrupted, but further
// progress and result writes for the job are suppressed.
func (s *ScrapeService) Cancel(ctx context.Context, jobID string) (*model.CancelScrapeResponse, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.IsTerminal() {
		return nil, ErrJobTerminal
	}

	now := time.Now()
	job.Status = model.JobStatusCancelled
	job.UpdatedAt = now
	job.CompletedAt = &now
	if err := s.store.Put(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	return &model.CancelScrapeResponse{JobID: job.ID, Status: job.Status}, nil
}

// ListJobs returns summaries of retained jobs, without result payloads
func (s *ScrapeService) ListJobs(ctx context.Context) ([]model.JobSummary, error) {
	jobs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	summaries := make([]model.JobSummary, 0, len(jobs))
	for _, job := range jobs {
		summaries = append(summaries, model.JobSummary{
			JobID:       job.ID,
			Status:      job.Status,
			Progress:    job.Progress,
			TargetCount: len(job.Request.URLs),
			City:        job.Request.City,
			State:       job.Request.State,
			CreatedAt:   job.CreatedAt,
			UpdatedAt:   job.UpdatedAt,
			CompletedAt: job.CompletedAt,
		})
	}
	return summaries, nil
}

// Worker-facing transitions. Each one persists before the worker takes its
// next step, so a crash leaves the job observably stuck in processing
// rather than silently lost.

// MarkProcessing transitions pending -> processing. Returns ErrJobTerminal
// when the job was cancelled before pickup.
func (s *ScrapeService) MarkProcessing(ctx context.Context, jobID string, itemsTotal int) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.IsTerminal() {
		return ErrJobTerminal
	}
	job.Status = model.JobStatusProcessing
	job.Progress.ItemsTotal = itemsTotal
	job.UpdatedAt = time.Now()
	return s.store.Put(ctx, job)
}

// UpdateProgress records per-target completion. Progress on a terminal job
// is suppressed and reported as ErrJobTerminal so the worker can stop.
func (s *ScrapeService) UpdateProgress(ctx context.Context, jobID string, itemsDone int) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.IsTerminal() {
		return ErrJobTerminal
	}
	job.Progress.ItemsDone = itemsDone
	job.UpdatedAt = time.Now()
	return s.store.Put(ctx, job)
}

// CompleteJob stores the result and transitions to completed. A job
// cancelled mid-run keeps its cancelled status; the result is dropped.
func (s *ScrapeService) CompleteJob(ctx context.Context, jobID string, result *model.ScrapeJobResult) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.IsTerminal() {
		return ErrJobTerminal
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	now := time.Now()
	job.Status = model.JobStatusCompleted
	job.Progress.ItemsDone = job.Progress.ItemsTotal
	job.Result = data
	job.UpdatedAt = now
	job.CompletedAt = &now
	return s.store.Put(ctx, job)
}

// FailJob records an orchestration-level failure. No-ops on terminal jobs.
func (s *ScrapeService) FailJob(ctx context.Context, jobID, errMsg string) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.IsTerminal() {
		return nil
	}
	now := time.Now()
	job.Status = model.JobStatusFailed
	job.Error = &errMsg
	job.UpdatedAt = now
	job.CompletedAt = &now
	return s.store.Put(ctx, job)
}

func (s *ScrapeService) getJob(ctx context.Context, jobID string) (*model.Job, error) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

func newScrapeTask(jobID string, payload *model.ScrapeJobPayload) (*asynq.Task, error) {
	data, err := json.Marshal(map[string]interface{}{
		"jobId":   jobID,
		"payload": payload,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeScrape, data), nil
}
