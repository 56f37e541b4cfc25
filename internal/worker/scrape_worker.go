package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/rentradar/scraper-api/internal/client"
	"github.com/rentradar/scraper-api/internal/config"
	"github.com/rentradar/scraper-api/internal/logger"
	"github.com/rentradar/scraper-api/internal/model"
	"github.com/rentradar/scraper-api/internal/scraper"
	"github.com/rentradar/scraper-api/internal/service"
	"github.com/rentradar/scraper-api/internal/storage"
	ws "github.com/rentradar/scraper-api/internal/websocket"
)

// ScrapeWorker executes scrape jobs in the background. Per-target failures
// stay inside the batch result; only orchestration-level failures (store
// writes, browser launch) fail the job itself.
type ScrapeWorker struct {
	service  *service.ScrapeService
	renderer scraper.Renderer
	sink     storage.Sink
	archive  client.StorageClient
	hub      *ws.Hub
	cfg      config.ScraperConfig
}

func NewScrapeWorker(
	svc *service.ScrapeService,
	renderer scraper.Renderer,
	sink storage.Sink,
	archive client.StorageClient,
	hub *ws.Hub,
	cfg config.ScraperConfig,
) *ScrapeWorker {
	return &ScrapeWorker{
		service:  svc,
		renderer: renderer,
		sink:     sink,
		archive:  archive,
		hub:      hub,
		cfg:      cfg,
	}
}

// ProcessTask handles one scrape job end to end
func (w *ScrapeWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var taskPayload struct {
		JobID   string                 `json:"jobId"`
		Payload model.ScrapeJobPayload `json:"payload"`
	}
	if err := json.Unmarshal(t.Payload(), &taskPayload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}
	jobID := taskPayload.JobID
	payload := taskPayload.Payload
	log := logger.WithField("jobId", jobID)

	err := w.service.MarkProcessing(ctx, jobID, len(payload.URLs))
	if errors.Is(err, service.ErrJobTerminal) {
		// Cancelled before pickup; nothing to do
		log.Info("job cancelled before pickup")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}
	log.Infof("scraping %d targets", len(payload.URLs))

	// jobCtx is cancelled as soon as a progress write reports the job
	// terminal, which stops the batch at the next chunk boundary. In-flight
	// browser automation is never forcibly aborted.
	jobCtx, cancelJob := context.WithCancel(ctx)
	defer cancelJob()
	cancelled := false

	runner := scraper.NewBatchRunner(
		w.renderer,
		w.concurrency(payload.Options),
		time.Duration(w.cfg.BatchDelayMinMs)*time.Millisecond,
		time.Duration(w.cfg.BatchDelayMaxMs)*time.Millisecond,
		scraper.Options{MaxRates: w.maxRates(payload.Options)},
	)
	batch := runner.Run(jobCtx, payload.URLs, func(done, total int) {
		if err := w.service.UpdateProgress(ctx, jobID, done); err != nil {
			if errors.Is(err, service.ErrJobTerminal) {
				cancelled = true
				cancelJob()
				return
			}
			log.Warnf("failed to update progress: %v", err)
			return
		}
		w.hub.BroadcastProgress(jobID, model.JobStatusProcessing, model.JobProgress{
			ItemsTotal: total,
			ItemsDone:  done,
		})
	})

	if cancelled {
		log.Info("job cancelled, result discarded")
		return nil
	}

	// A single-target job whose only target failed is a failed job; in a
	// batch the failure stays isolated in the result.
	if len(payload.URLs) == 1 && len(batch.Succeeded) == 0 && len(batch.Failed) == 1 {
		return w.failJob(ctx, jobID, batch.Failed[0].Error)
	}

	w.archiveSnapshots(ctx, jobID, batch.Succeeded)

	result := &model.ScrapeJobResult{
		Properties: batch.Succeeded,
		Failed:     batch.Failed,
		Summary:    scraper.Summarize(batch.Succeeded),
		SaveErrors: w.persistRecords(ctx, jobID, batch.Succeeded),
	}

	err = w.service.CompleteJob(ctx, jobID, result)
	if errors.Is(err, service.ErrJobTerminal) {
		log.Info("job cancelled during completion, result discarded")
		return nil
	}
	if err != nil {
		return w.failJob(ctx, jobID, "failed to save result")
	}

	w.hub.BroadcastComplete(jobID, result.Summary)
	log.Infof("job completed: %d succeeded, %d failed", len(batch.Succeeded), len(batch.Failed))
	return nil
}

// persistRecords pushes records to the downstream sink. Sink failures are
// partial-success: the extraction stands, the errors travel in the result.
func (w *ScrapeWorker) persistRecords(ctx context.Context, jobID string, records []model.PropertyRecord) []string {
	if w.sink == nil {
		return nil
	}
	var saveErrors []string
	for i := range records {
		if err := w.sink.SaveProperty(ctx, jobID, &records[i]); err != nil {
			logger.WithField("jobId", jobID).Warnf("failed to persist %s: %v", records[i].SourceURL, err)
			saveErrors = append(saveErrors, fmt.Sprintf("%s: %v", records[i].SourceURL, err))
		}
	}
	return saveErrors
}

// archiveSnapshots uploads raw-HTML diagnostics of empty extractions to
// object storage, when configured.
func (w *ScrapeWorker) archiveSnapshots(ctx context.Context, jobID string, records []model.PropertyRecord) {
	if w.archive == nil {
		return
	}
	for i := range records {
		if records[i].RawHTML == "" {
			continue
		}
		key := fmt.Sprintf("snapshots/%s/%s.html", jobID, uuid.New().String())
		url, err := w.archive.Upload(ctx, key, strings.NewReader(records[i].RawHTML), "text/html")
		if err != nil {
			logger.WithField("jobId", jobID).Warnf("failed to archive snapshot: %v", err)
			continue
		}
		records[i].SnapshotURL = url
	}
}

func (w *ScrapeWorker) failJob(ctx context.Context, jobID, errMsg string) error {
	if err := w.service.FailJob(ctx, jobID, errMsg); err != nil {
		logger.WithField("jobId", jobID).Errorf("failed to mark job failed: %v", err)
		return err
	}
	w.hub.BroadcastError(jobID, "SCRAPE_FAILED", errMsg)
	return nil
}

func (w *ScrapeWorker) concurrency(opts model.ScrapeOptions) int {
	if opts.Concurrency > 0 && opts.Concurrency <= 10 {
		return opts.Concurrency
	}
	return w.cfg.Concurrency
}

func (w *ScrapeWorker) maxRates(opts model.ScrapeOptions) int {
	if opts.MaxRates > 0 {
		return opts.MaxRates
	}
	return w.cfg.MaxRates
}
