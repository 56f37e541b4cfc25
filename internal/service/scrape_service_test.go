package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentradar/scraper-api/internal/model"
	"github.com/rentradar/scraper-api/internal/store"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1"}, nil
}

func newTestService() (*ScrapeService, *fakeEnqueuer) {
	enqueuer := &fakeEnqueuer{}
	svc := NewScrapeService(store.NewMemoryJobStore(), enqueuer, 72*time.Hour)
	return svc, enqueuer
}

func TestStartScrape(t *testing.T) {
	ctx := context.Background()
	svc, enqueuer := newTestService()

	resp, err := svc.StartScrape(ctx, &model.StartScrapeRequest{
		URLs:  []string{"https://example.com/a", "https://example.com/b"},
		City:  "Austin",
		State: "TX",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, model.JobStatusPending, resp.Status)

	// The job is pollable as soon as the id is handed out
	status, err := svc.GetStatus(ctx, resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, status.Status)
	assert.Equal(t, 2, status.Progress.ItemsTotal)
	assert.Equal(t, 0, status.Progress.ItemsDone)

	require.Len(t, enqueuer.tasks, 1)
	assert.Equal(t, TaskTypeScrape, enqueuer.tasks[0].Type())

	var payload struct {
		JobID   string                 `json:"jobId"`
		Payload model.ScrapeJobPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(enqueuer.tasks[0].Payload(), &payload))
	assert.Equal(t, resp.JobID, payload.JobID)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, payload.Payload.URLs)
	assert.Equal(t, "Austin", payload.Payload.City)
}

func TestStartScrapeRejectsEmptyTargets(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.StartScrape(context.Background(), &model.StartScrapeRequest{})
	assert.ErrorIs(t, err, ErrEmptyTargets)
}

func TestGetStatusUnknownJob(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetStatus(context.Background(), "no-such-job")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestGetResultsBeforeCompletion(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	resp, err := svc.StartScrape(ctx, &model.StartScrapeRequest{URLs: []string{"https://example.com/a"}})
	require.NoError(t, err)

	_, err = svc.GetResults(ctx, resp.JobID)
	assert.ErrorIs(t, err, ErrJobNotReady)
}

func TestJobLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	resp, err := svc.StartScrape(ctx, &model.StartScrapeRequest{
		URLs: []string{"https://example.com/a", "https://example.com/b"},
	})
	require.NoError(t, err)
	jobID := resp.JobID

	require.NoError(t, svc.MarkProcessing(ctx, jobID, 2))
	status, err := svc.GetStatus(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusProcessing, status.Status)

	require.NoError(t, svc.UpdateProgress(ctx, jobID, 1))
	status, err = svc.GetStatus(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Progress.ItemsDone)

	result := &model.ScrapeJobResult{
		Properties: []model.PropertyRecord{
			{SourceURL: "https://example.com/a", Name: "The Birchwood"},
		},
		Failed:  []model.TargetError{{URL: "https://example.com/b", Error: "timeout"}},
		Summary: &model.MarketSummary{PropertyCount: 1},
	}
	require.NoError(t, svc.CompleteJob(ctx, jobID, result))

	status, err = svc.GetStatus(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, status.Status)
	assert.Equal(t, 2, status.Progress.ItemsDone)
	require.NotNil(t, status.CompletedAt)

	results, err := svc.GetResults(ctx, jobID)
	require.NoError(t, err)
	require.Len(t, results.Properties, 1)
	assert.Equal(t, "The Birchwood", results.Properties[0].Name)
	require.Len(t, results.Failed, 1)
	assert.Equal(t, 1, results.Summary.PropertyCount)
}

func TestCancelPendingJob(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	resp, err := svc.StartScrape(ctx, &model.StartScrapeRequest{URLs: []string{"https://example.com/a"}})
	require.NoError(t, err)

	cancelResp, err := svc.Cancel(ctx, resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCancelled, cancelResp.Status)

	// Cancelling again is an invalid transition
	_, err = svc.Cancel(ctx, resp.JobID)
	assert.ErrorIs(t, err, ErrJobTerminal)

	// The worker is told to abandon the job when it tries to pick it up
	err = svc.MarkProcessing(ctx, resp.JobID, 1)
	assert.ErrorIs(t, err, ErrJobTerminal)
}

func TestCancelledJobSuppressesLateWrites(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	resp, err := svc.StartScrape(ctx, &model.StartScrapeRequest{URLs: []string{"https://example.com/a"}})
	require.NoError(t, err)
	jobID := resp.JobID

	require.NoError(t, svc.MarkProcessing(ctx, jobID, 1))
	_, err = svc.Cancel(ctx, jobID)
	require.NoError(t, err)

	err = svc.UpdateProgress(ctx, jobID, 1)
	assert.ErrorIs(t, err, ErrJobTerminal)

	err = svc.CompleteJob(ctx, jobID, &model.ScrapeJobResult{})
	assert.ErrorIs(t, err, ErrJobTerminal)

	// FailJob after cancellation is a silent no-op
	require.NoError(t, svc.FailJob(ctx, jobID, "late failure"))

	status, err := svc.GetStatus(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCancelled, status.Status)
	assert.Nil(t, status.Error)

	_, err = svc.GetResults(ctx, jobID)
	assert.ErrorIs(t, err, ErrJobNotReady)
}

func TestCancelCompletedJob(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	resp, err := svc.StartScrape(ctx, &model.StartScrapeRequest{URLs: []string{"https://example.com/a"}})
	require.NoError(t, err)

	require.NoError(t, svc.MarkProcessing(ctx, resp.JobID, 1))
	require.NoError(t, svc.CompleteJob(ctx, resp.JobID, &model.ScrapeJobResult{}))

	_, err = svc.Cancel(ctx, resp.JobID)
	assert.ErrorIs(t, err, ErrJobTerminal)
}

func TestFailJob(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	resp, err := svc.StartScrape(ctx, &model.StartScrapeRequest{URLs: []string{"https://example.com/a"}})
	require.NoError(t, err)

	require.NoError(t, svc.FailJob(ctx, resp.JobID, "browser crashed"))

	status, err := svc.GetStatus(ctx, resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, status.Status)
	require.NotNil(t, status.Error)
	assert.Equal(t, "browser crashed", *status.Error)
	require.NotNil(t, status.CompletedAt)
}

func TestListJobs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	first, err := svc.StartScrape(ctx, &model.StartScrapeRequest{
		URLs: []string{"https://example.com/a"},
		City: "Austin",
	})
	require.NoError(t, err)
	_, err = svc.StartScrape(ctx, &model.StartScrapeRequest{
		URLs: []string{"https://example.com/b", "https://example.com/c"},
		City: "Dallas",
	})
	require.NoError(t, err)

	require.NoError(t, svc.CompleteJob(ctx, first.JobID, &model.ScrapeJobResult{}))

	jobs, err := svc.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	byCity := map[string]model.JobSummary{}
	for _, j := range jobs {
		byCity[j.City] = j
	}
	assert.Equal(t, model.JobStatusCompleted, byCity["Austin"].Status)
	assert.Equal(t, 1, byCity["Austin"].TargetCount)
	assert.Equal(t, model.JobStatusPending, byCity["Dallas"].Status)
	assert.Equal(t, 2, byCity["Dallas"].TargetCount)
}
