package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flowsift/internal/models"
	"github.com/desertthunder/flowsift/internal/shared"
)

// mockFeatureProvider scripts AudioFeatures responses per batch.
type mockFeatureProvider struct {
	mu    sync.Mutex
	calls [][]string

	// respond builds the reply for one call. Defaults to a record per id.
	respond func(call int, ids []string) ([]*models.FeatureRecord, error)
}

func (m *mockFeatureProvider) AudioFeatures(ctx context.Context, ids []string) ([]*models.FeatureRecord, error) {
	m.mu.Lock()
	call := len(m.calls)
	m.calls = append(m.calls, ids)
	m.mu.Unlock()

	if m.respond != nil {
		return m.respond(call, ids)
	}

	records := make([]*models.FeatureRecord, len(ids))
	for i, id := range ids {
		records[i] = &models.FeatureRecord{TrackID: id, Tempo: 174.0, Loudness: -4.0, Energy: 0.9, Mode: 1}
	}
	return records, nil
}

func (m *mockFeatureProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func newFetcher(cfg shared.FetcherConfig) *BatchFetcher {
	return NewBatchFetcher(cfg, log.New(io.Discard))
}

func idRange(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%d", i)
	}
	return ids
}

func TestBatchFetcher(t *testing.T) {
	t.Run("covers every id in ceil(n/b) batches", func(t *testing.T) {
		provider := &mockFeatureProvider{}
		fetcher := newFetcher(shared.FetcherConfig{BatchSize: 3, MaxAttempts: 1, Workers: 2, RateLimit: 1000})

		records, failures, err := fetcher.Fetch(context.Background(), nil, provider, idRange(7))
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if len(failures) != 0 {
			t.Errorf("unexpected failures: %v", failures)
		}

		if provider.callCount() != 3 {
			t.Errorf("7 ids at batch size 3 should take 3 calls, got %d", provider.callCount())
		}
		if len(records) != 7 {
			t.Fatalf("expected 7 records, got %d", len(records))
		}

		// Records preserve the input id order across batches.
		for i, record := range records {
			if record.TrackID != fmt.Sprintf("t%d", i) {
				t.Errorf("records[%d] = %s, out of order", i, record.TrackID)
			}
		}
	})

	t.Run("single short batch", func(t *testing.T) {
		provider := &mockFeatureProvider{}
		fetcher := newFetcher(shared.FetcherConfig{BatchSize: 50, MaxAttempts: 1, Workers: 2, RateLimit: 1000})

		records, _, err := fetcher.Fetch(context.Background(), nil, provider, idRange(2))
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if provider.callCount() != 1 {
			t.Errorf("expected a single call, got %d", provider.callCount())
		}
		if len(records) != 2 {
			t.Errorf("expected 2 records, got %d", len(records))
		}
	})

	t.Run("empty id set", func(t *testing.T) {
		provider := &mockFeatureProvider{}
		fetcher := newFetcher(shared.FetcherConfig{BatchSize: 50, MaxAttempts: 1, Workers: 2, RateLimit: 1000})

		records, failures, err := fetcher.Fetch(context.Background(), nil, provider, nil)
		if err != nil || records != nil || failures != nil {
			t.Errorf("empty input should be a no-op, got %v %v %v", records, failures, err)
		}
		if provider.callCount() != 0 {
			t.Error("provider should not be called for an empty id set")
		}
	})

	t.Run("nil descriptor entries are elided", func(t *testing.T) {
		provider := &mockFeatureProvider{
			respond: func(call int, ids []string) ([]*models.FeatureRecord, error) {
				records := make([]*models.FeatureRecord, len(ids))
				for i, id := range ids {
					if id == "t1" {
						continue
					}
					records[i] = &models.FeatureRecord{TrackID: id}
				}
				return records, nil
			},
		}
		fetcher := newFetcher(shared.FetcherConfig{BatchSize: 50, MaxAttempts: 1, Workers: 1, RateLimit: 1000})

		records, failures, err := fetcher.Fetch(context.Background(), nil, provider, idRange(3))
		if err != nil || len(failures) != 0 {
			t.Fatalf("Fetch() = %v, %v", failures, err)
		}
		if len(records) != 2 {
			t.Fatalf("nil entry should be skipped, got %d records", len(records))
		}
		for _, record := range records {
			if record.TrackID == "t1" {
				t.Error("t1 had no descriptor and should not appear")
			}
		}
	})

	t.Run("recoverable errors retry then abandon the batch", func(t *testing.T) {
		provider := &mockFeatureProvider{
			respond: func(call int, ids []string) ([]*models.FeatureRecord, error) {
				if ids[0] == "t0" {
					return nil, fmt.Errorf("%w: status 429", shared.ErrRateLimited)
				}
				records := make([]*models.FeatureRecord, len(ids))
				for i, id := range ids {
					records[i] = &models.FeatureRecord{TrackID: id}
				}
				return records, nil
			},
		}
		fetcher := newFetcher(shared.FetcherConfig{BatchSize: 2, MaxAttempts: 3, Workers: 1, RateLimit: 1000})

		records, failures, err := fetcher.Fetch(context.Background(), nil, provider, idRange(4))
		if err != nil {
			t.Fatalf("an abandoned batch must not fail the run: %v", err)
		}

		if len(failures) != 1 {
			t.Fatalf("expected 1 abandoned batch, got %d", len(failures))
		}
		if failures[0].Attempts != 3 {
			t.Errorf("expected exactly 3 attempts, got %d", failures[0].Attempts)
		}
		if !errors.Is(failures[0].Err, shared.ErrRateLimited) {
			t.Errorf("failure should keep the last error, got %v", failures[0].Err)
		}
		if len(failures[0].IDs) != 2 || failures[0].IDs[0] != "t0" {
			t.Errorf("failure should name the batch ids, got %v", failures[0].IDs)
		}

		// 3 attempts for the bad batch plus 1 for the good one.
		if provider.callCount() != 4 {
			t.Errorf("expected 4 provider calls, got %d", provider.callCount())
		}
		if len(records) != 2 {
			t.Errorf("the surviving batch should contribute records, got %d", len(records))
		}
	})

	t.Run("auth failure aborts without retries", func(t *testing.T) {
		provider := &mockFeatureProvider{
			respond: func(call int, ids []string) ([]*models.FeatureRecord, error) {
				return nil, fmt.Errorf("%w: status 401", shared.ErrAuthFailed)
			},
		}
		fetcher := newFetcher(shared.FetcherConfig{BatchSize: 2, MaxAttempts: 5, Workers: 1, RateLimit: 1000})

		_, _, err := fetcher.Fetch(context.Background(), nil, provider, idRange(6))
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Fatalf("expected ErrAuthFailed, got %v", err)
		}

		if provider.callCount() >= 5 {
			t.Errorf("fatal errors should not burn retries, got %d calls", provider.callCount())
		}
	})

	t.Run("cancellation returns collected records", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		provider := &mockFeatureProvider{
			respond: func(call int, ids []string) ([]*models.FeatureRecord, error) {
				if call == 0 {
					records := make([]*models.FeatureRecord, len(ids))
					for i, id := range ids {
						records[i] = &models.FeatureRecord{TrackID: id}
					}
					return records, nil
				}
				cancel()
				return nil, ctx.Err()
			},
		}
		fetcher := newFetcher(shared.FetcherConfig{BatchSize: 2, MaxAttempts: 3, Workers: 1, RateLimit: 1000})

		records, _, err := fetcher.Fetch(ctx, nil, provider, idRange(6))
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if len(records) != 2 {
			t.Errorf("records collected before cancellation should be returned, got %d", len(records))
		}
	})
}
