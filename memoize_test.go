package main

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestMemoizeComputesOnce verifies the idempotence contract: two identical
// calls run the compute exactly once and the second result is flagged cached.
func TestMemoizeComputesOnce(t *testing.T) {
	cache := newResultCache(true, time.Hour, 10)
	calls := 0
	compute := func() (any, error) {
		calls++
		return []Insight{{Type: "pattern", Message: "m"}}, nil
	}

	first, err := memoizeAnalysis(cache, opQualityScan, []byte("content"), "a.py", compute)
	if err != nil {
		t.Fatalf("First call failed: %v", err)
	}
	if first.Cached {
		t.Error("First call should not be cached")
	}
	if first.Operation != opQualityScan {
		t.Errorf("Operation = %q, want %q", first.Operation, opQualityScan)
	}

	second, err := memoizeAnalysis(cache, opQualityScan, []byte("content"), "a.py", compute)
	if err != nil {
		t.Fatalf("Second call failed: %v", err)
	}
	if !second.Cached {
		t.Error("Second call should be cached")
	}
	if calls != 1 {
		t.Errorf("Compute ran %d times, want 1", calls)
	}

	insights, ok := second.Payload.([]Insight)
	if !ok || len(insights) != 1 {
		t.Errorf("Cached payload = %v, want original insight slice", second.Payload)
	}
}

// TestMemoizeHitDoesNotMutateStored checks the stored wrapper keeps
// Cached=false while hits return copies flagged true.
func TestMemoizeHitDoesNotMutateStored(t *testing.T) {
	cache := newResultCache(true, time.Hour, 10)
	compute := func() (any, error) { return 42, nil }

	_, _ = memoizeAnalysis(cache, opComplexityScore, []byte("c"), "f", compute)
	_, _ = memoizeAnalysis(cache, opComplexityScore, []byte("c"), "f", compute)

	key := fingerprint([]byte("c"), "f", opComplexityScore)
	stored, ok := cache.Get(key)
	if !ok {
		t.Fatal("Entry missing after memoization")
	}
	if stored.(*AnalysisResult).Cached {
		t.Error("Stored wrapper was mutated to Cached=true")
	}
}

// TestMemoizeErrorPropagates verifies compute failures reach the caller
// unmodified and nothing is stored.
func TestMemoizeErrorPropagates(t *testing.T) {
	cache := newResultCache(true, time.Hour, 10)
	wantErr := errors.New("scan exploded")
	calls := 0
	compute := func() (any, error) {
		calls++
		return nil, wantErr
	}

	if _, err := memoizeAnalysis(cache, opQualityScan, []byte("x"), "f", compute); !errors.Is(err, wantErr) {
		t.Errorf("Error = %v, want %v", err, wantErr)
	}

	// A failed compute must not poison the cache: the next call retries.
	if _, err := memoizeAnalysis(cache, opQualityScan, []byte("x"), "f", compute); !errors.Is(err, wantErr) {
		t.Errorf("Error = %v, want %v", err, wantErr)
	}
	if calls != 2 {
		t.Errorf("Compute ran %d times, want 2 (failures are not cached)", calls)
	}
}

// TestMemoizeWrapsScalar checks bare payloads still get the uniform wrapper.
func TestMemoizeWrapsScalar(t *testing.T) {
	cache := newResultCache(true, time.Hour, 10)

	result, err := memoizeAnalysis(cache, opComplexityScore, []byte("x"), "f", func() (any, error) {
		return 7.5, nil
	})
	if err != nil {
		t.Fatalf("Memoize failed: %v", err)
	}

	if result.Payload != 7.5 {
		t.Errorf("Payload = %v, want 7.5", result.Payload)
	}
	if result.Operation != opComplexityScore {
		t.Errorf("Operation = %q, want %q", result.Operation, opComplexityScore)
	}
	if result.Cached {
		t.Error("Fresh result should not be flagged cached")
	}
	if result.ElapsedMS < 0 {
		t.Errorf("ElapsedMS = %v, want >= 0", result.ElapsedMS)
	}
}

// TestMemoizeDisabledCache: every call computes and none report cached.
func TestMemoizeDisabledCache(t *testing.T) {
	cache := newResultCache(false, time.Hour, 10)
	calls := 0
	compute := func() (any, error) {
		calls++
		return "v", nil
	}

	for range 3 {
		result, err := memoizeAnalysis(cache, opQualityScan, []byte("x"), "f", compute)
		if err != nil {
			t.Fatalf("Memoize failed: %v", err)
		}
		if result.Cached {
			t.Error("Disabled cache produced a cached result")
		}
	}
	if calls != 3 {
		t.Errorf("Compute ran %d times, want 3", calls)
	}
}

// TestMemoizeConcurrentSameKey runs concurrent memoizations of one key with
// a slow compute. The compute may run up to N times, but every result must be
// consistent and the stored entry intact.
func TestMemoizeConcurrentSameKey(t *testing.T) {
	cache := newResultCache(true, time.Hour, 10)
	var calls atomic.Int64
	compute := func() (any, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return "result", nil
	}

	const workers = 8
	results := make([]*AnalysisResult, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			result, err := memoizeAnalysis(cache, opSecurityScan, []byte("shared"), "f", compute)
			if err != nil {
				t.Errorf("Worker %d failed: %v", n, err)
				return
			}
			results[n] = result
		}(i)
	}
	wg.Wait()

	got := calls.Load()
	if got < 1 || got > workers {
		t.Errorf("Compute ran %d times, want between 1 and %d", got, workers)
	}
	for i, result := range results {
		if result == nil || result.Payload != "result" {
			t.Errorf("Worker %d got inconsistent result: %+v", i, result)
		}
	}

	// A follow-up call must hit a consistent stored entry.
	final, err := memoizeAnalysis(cache, opSecurityScan, []byte("shared"), "f", compute)
	if err != nil {
		t.Fatalf("Final call failed: %v", err)
	}
	if !final.Cached || final.Payload != "result" {
		t.Errorf("Final result = %+v, want cached with payload %q", final, "result")
	}
}
