package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/biaslab/bias-engine/internal/core/domain"
)

func sealedResult(fingerprint string) *domain.AnalysisResult {
	return &domain.AnalysisResult{DocumentFingerprint: fingerprint, Confidence: 0.8}
}

func TestGetOrComputeCachesResult(t *testing.T) {
	c := New(Config{TTL: time.Minute, Capacity: 8})

	var computes atomic.Int64
	compute := func(context.Context) (*domain.AnalysisResult, error) {
		computes.Add(1)
		return sealedResult("fp-1"), nil
	}

	first, hit, err := c.GetOrCompute(context.Background(), "fp-1", compute)
	if err != nil || hit {
		t.Fatalf("expected computed miss, got hit=%v err=%v", hit, err)
	}
	second, hit, err := c.GetOrCompute(context.Background(), "fp-1", compute)
	if err != nil || !hit {
		t.Fatalf("expected cache hit, got hit=%v err=%v", hit, err)
	}
	if first != second {
		t.Fatal("expected the identical sealed result")
	}
	if computes.Load() != 1 {
		t.Fatalf("expected 1 compute, got %d", computes.Load())
	}
}

func TestGetOrComputeSingleFlight(t *testing.T) {
	c := New(Config{TTL: time.Minute, Capacity: 8})

	var computes atomic.Int64
	release := make(chan struct{})
	compute := func(context.Context) (*domain.AnalysisResult, error) {
		computes.Add(1)
		<-release
		return sealedResult("fp-1"), nil
	}

	const callers = 8
	results := make([]*domain.AnalysisResult, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, errs[i] = c.GetOrCompute(context.Background(), "fp-1", compute)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if computes.Load() != 1 {
		t.Fatalf("expected a single shared compute, got %d", computes.Load())
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Fatalf("caller %d got a different result", i)
		}
	}
}

func TestComputeErrorNotCached(t *testing.T) {
	c := New(Config{TTL: time.Minute, Capacity: 8})

	errBoom := errors.New("boom")
	var computes atomic.Int64
	_, _, err := c.GetOrCompute(context.Background(), "fp-1", func(context.Context) (*domain.AnalysisResult, error) {
		computes.Add(1)
		return nil, errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected compute error, got %v", err)
	}

	result, hit, err := c.GetOrCompute(context.Background(), "fp-1", func(context.Context) (*domain.AnalysisResult, error) {
		computes.Add(1)
		return sealedResult("fp-1"), nil
	})
	if err != nil || hit {
		t.Fatalf("expected fresh compute after error, got hit=%v err=%v", hit, err)
	}
	if result == nil || computes.Load() != 2 {
		t.Fatalf("expected 2 computes, got %d", computes.Load())
	}
}

func TestEntriesExpireAfterTTL(t *testing.T) {
	c := New(Config{TTL: time.Minute, Capacity: 8})
	current := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return current }

	c.Put("fp-1", sealedResult("fp-1"))
	if c.Len() != 1 {
		t.Fatalf("expected 1 live entry, got %d", c.Len())
	}

	current = current.Add(2 * time.Minute)
	if c.Len() != 0 {
		t.Fatalf("expected entry to expire, got %d live", c.Len())
	}

	var computes atomic.Int64
	_, hit, err := c.GetOrCompute(context.Background(), "fp-1", func(context.Context) (*domain.AnalysisResult, error) {
		computes.Add(1)
		return sealedResult("fp-1"), nil
	})
	if err != nil || hit {
		t.Fatalf("expired entry must recompute, got hit=%v err=%v", hit, err)
	}
	if computes.Load() != 1 {
		t.Fatalf("expected recompute, got %d", computes.Load())
	}
}

func TestCapacityEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(Config{TTL: time.Minute, Capacity: 2})

	c.Put("fp-1", sealedResult("fp-1"))
	c.Put("fp-2", sealedResult("fp-2"))

	// Touch fp-1 so fp-2 becomes the LRU victim.
	if _, hit, _ := c.GetOrCompute(context.Background(), "fp-1", nil); !hit {
		t.Fatal("expected fp-1 hit")
	}
	c.Put("fp-3", sealedResult("fp-3"))

	if c.Len() != 2 {
		t.Fatalf("expected capacity 2, got %d", c.Len())
	}
	if _, hit, _ := c.GetOrCompute(context.Background(), "fp-1", nil); !hit {
		t.Fatal("recently used entry must survive eviction")
	}
	var computed atomic.Bool
	_, hit, err := c.GetOrCompute(context.Background(), "fp-2", func(context.Context) (*domain.AnalysisResult, error) {
		computed.Store(true)
		return sealedResult("fp-2"), nil
	})
	if err != nil || hit || !computed.Load() {
		t.Fatalf("evicted entry must recompute, got hit=%v err=%v", hit, err)
	}
}

func TestCallerCancelledComputeStillSeals(t *testing.T) {
	c := New(Config{TTL: time.Minute, Capacity: 8})

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	compute := func(context.Context) (*domain.AnalysisResult, error) {
		close(started)
		<-release
		defer close(done)
		return sealedResult("fp-1"), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, _, err := c.GetOrCompute(ctx, "fp-1", compute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected caller cancellation, got %v", err)
	}
	close(release)

	// The detached computation finishes and seals the entry anyway.
	<-done
	deadline := time.After(2 * time.Second)
	for {
		if _, hit, _ := c.GetOrCompute(context.Background(), "fp-1", nil); hit {
			return
		}
		select {
		case <-deadline:
			t.Fatal("expected the abandoned computation to seal the cache entry")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
