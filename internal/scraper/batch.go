package scraper

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rentradar/scraper-api/internal/logger"
	"github.com/rentradar/scraper-api/internal/model"
)

// Renderer produces fully rendered HTML for a target URL. Each call owns one
// browser session which is released before the call returns.
type Renderer interface {
	RenderPage(ctx context.Context, url string) (string, error)
}

// BatchRunner applies the extraction engine to a list of URLs under bounded
// concurrency, sleeping a randomized delay between chunks to spread load.
// This is the only place in the system where concurrency fan-out occurs.
type BatchRunner struct {
	renderer    Renderer
	concurrency int
	delayMin    time.Duration
	delayMax    time.Duration
	opts        Options
}

// BatchResult separates extracted records from per-target failures. A
// failed target never aborts the batch.
type BatchResult struct {
	Succeeded []model.PropertyRecord
	Failed    []model.TargetError
}

func NewBatchRunner(renderer Renderer, concurrency int, delayMin, delayMax time.Duration, opts Options) *BatchRunner {
	if concurrency <= 0 {
		concurrency = 1
	}
	if delayMax < delayMin {
		delayMax = delayMin
	}
	return &BatchRunner{
		renderer:    renderer,
		concurrency: concurrency,
		delayMin:    delayMin,
		delayMax:    delayMax,
		opts:        opts,
	}
}

// Run scrapes all URLs. Targets within a chunk run concurrently; chunks run
// sequentially with a randomized backpressure delay in between. onProgress
// is invoked after each finished target; it may be nil.
func (b *BatchRunner) Run(ctx context.Context, urls []string, onProgress func(done, total int)) BatchResult {
	var result BatchResult
	var mu sync.Mutex
	total := len(urls)
	done := 0

	for start := 0; start < len(urls); start += b.concurrency {
		end := start + b.concurrency
		if end > len(urls) {
			end = len(urls)
		}
		chunk := urls[start:end]

		var wg sync.WaitGroup
		for _, url := range chunk {
			wg.Add(1)
			go func(url string) {
				defer wg.Done()

				record, err := b.scrapeOne(ctx, url)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					logger.WithField("url", url).Warnf("target failed: %v", err)
					result.Failed = append(result.Failed, model.TargetError{URL: url, Error: err.Error()})
				} else {
					result.Succeeded = append(result.Succeeded, *record)
				}
				done++
				if onProgress != nil {
					onProgress(done, total)
				}
			}(url)
		}
		wg.Wait()

		if end < len(urls) {
			select {
			case <-ctx.Done():
				return result
			case <-time.After(b.interBatchDelay()):
			}
		}
	}

	return result
}

// scrapeOne renders and extracts a single target. Extraction itself is
// strictly sequential; only the fan-out above runs in parallel.
func (b *BatchRunner) scrapeOne(ctx context.Context, url string) (*model.PropertyRecord, error) {
	html, err := b.renderer.RenderPage(ctx, url)
	if err != nil {
		return nil, err
	}
	return Extract(html, url, b.opts)
}

// interBatchDelay returns a randomized sleep within the configured bounds
func (b *BatchRunner) interBatchDelay() time.Duration {
	if b.delayMax <= b.delayMin {
		return b.delayMin
	}
	return b.delayMin + time.Duration(rand.Int63n(int64(b.delayMax-b.delayMin)))
}
