package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flowsift/internal/models"
	"github.com/desertthunder/flowsift/internal/services"
	"github.com/desertthunder/flowsift/internal/shared"
	"golang.org/x/time/rate"
)

// BatchFailure records a feature batch that was abandoned after exhausting
// its retry budget. The run continues without its tracks.
type BatchFailure struct {
	BatchIndex int      // zero-based position of the batch in the id sequence
	IDs        []string // track ids the batch covered
	Attempts   int      // attempts made before giving up
	Err        error    // last error observed
}

// BatchFetcher retrieves audio descriptors for large id sets by splitting
// them into provider-sized batches and fetching concurrently.
//
// Recoverable provider errors (rate limits, 5xx) are retried per batch with
// a fixed backoff; a batch that exhausts its attempts is abandoned without
// failing the run. Authentication errors are fatal and abort the whole fetch.
type BatchFetcher struct {
	batchSize   int
	maxAttempts int
	workers     int
	backoff     time.Duration
	limiter     *rate.Limiter
	logger      *log.Logger
}

// NewBatchFetcher creates a fetcher from configuration, clamping obviously
// unusable values to the defaults.
func NewBatchFetcher(cfg shared.FetcherConfig, logger *log.Logger) *BatchFetcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Workers > 10 {
		cfg.Workers = 10
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5.0
	}
	if cfg.BackoffSeconds < 0 {
		cfg.BackoffSeconds = 0
	}

	return &BatchFetcher{
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxAttempts,
		workers:     cfg.Workers,
		backoff:     time.Duration(cfg.BackoffSeconds * float64(time.Second)),
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		logger:      logger,
	}
}

type featureBatch struct {
	index int
	ids   []string
}

type batchResult struct {
	index   int
	records []*models.FeatureRecord
	failure *BatchFailure
	fatal   error
}

// Fetch retrieves descriptors for every id, in batches.
//
// Returned records preserve the input id order with missing entries elided:
// ids the provider has no data for, and ids covered by abandoned batches,
// simply do not appear. The error is non-nil only for fatal conditions
// (authentication failure, cancellation); even then the records collected
// before the abort are returned.
func (f *BatchFetcher) Fetch(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	provider services.FeatureProvider,
	ids []string,
) ([]models.FeatureRecord, []BatchFailure, error) {
	if provider == nil {
		return nil, nil, fmt.Errorf("%w: feature provider not initialized", shared.ErrServiceUnavailable)
	}
	if len(ids) == 0 {
		return nil, nil, nil
	}

	batches := splitBatches(ids, f.batchSize)
	total := len(batches)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan featureBatch, total)
	results := make(chan batchResult, total)

	var wg sync.WaitGroup
	for i := 0; i < f.workers; i++ {
		wg.Add(1)
		go f.fetchWorker(ctx, &wg, provider, jobs, results)
	}

	for _, batch := range batches {
		jobs <- batch
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([][]*models.FeatureRecord, total)
	var failures []BatchFailure
	var fatal error

	completed := 0
	for res := range results {
		completed++

		switch {
		case res.fatal != nil:
			if fatal == nil {
				fatal = res.fatal
			}
			cancel()
		case res.failure != nil:
			failures = append(failures, *res.failure)
			f.logger.Warn("abandoned feature batch",
				"batch", res.failure.BatchIndex,
				"tracks", len(res.failure.IDs),
				"attempts", res.failure.Attempts,
				"error", res.failure.Err)
			sendProgress(prog, batchFailedUpdate(completed, total, res.failure))
		default:
			collected[res.index] = res.records
			sendProgress(prog, batchFetchedUpdate(completed, total))
		}
	}

	var records []models.FeatureRecord
	for _, batch := range collected {
		for _, record := range batch {
			if record == nil {
				continue
			}
			records = append(records, *record)
		}
	}

	if fatal != nil {
		return records, failures, fatal
	}
	if err := ctx.Err(); err != nil {
		return records, failures, err
	}
	return records, failures, nil
}

// fetchWorker consumes batches from jobs, retrying each until it succeeds,
// exhausts its attempts, or hits a fatal error.
func (f *BatchFetcher) fetchWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	provider services.FeatureProvider,
	jobs <-chan featureBatch,
	results chan<- batchResult,
) {
	defer wg.Done()

	for batch := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- f.fetchBatch(ctx, provider, batch)
	}
}

func (f *BatchFetcher) fetchBatch(ctx context.Context, provider services.FeatureProvider, batch featureBatch) batchResult {
	var lastErr error

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return batchResult{index: batch.index, fatal: err}
		}

		records, err := provider.AudioFeatures(ctx, batch.ids)
		if err == nil {
			return batchResult{index: batch.index, records: records}
		}

		if isFatalFetchErr(err) {
			return batchResult{index: batch.index, fatal: err}
		}

		lastErr = err
		f.logger.Debug("feature batch attempt failed",
			"batch", batch.index, "attempt", attempt, "error", err)

		if attempt < f.maxAttempts && f.backoff > 0 {
			timer := time.NewTimer(f.backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return batchResult{index: batch.index, fatal: ctx.Err()}
			case <-timer.C:
			}
		}
	}

	return batchResult{
		index: batch.index,
		failure: &BatchFailure{
			BatchIndex: batch.index,
			IDs:        batch.ids,
			Attempts:   f.maxAttempts,
			Err:        lastErr,
		},
	}
}

// isFatalFetchErr reports whether an error should abort the whole fetch
// rather than burn retries on a batch.
func isFatalFetchErr(err error) bool {
	return errors.Is(err, shared.ErrAuthFailed) ||
		errors.Is(err, shared.ErrNotAuthenticated) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// splitBatches partitions ids into consecutive batches of at most size.
func splitBatches(ids []string, size int) []featureBatch {
	var batches []featureBatch
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, featureBatch{
			index: len(batches),
			ids:   ids[start:end],
		})
	}
	return batches
}
