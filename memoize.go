package main

import "time"

// AnalysisResult is the uniform wrapper around every memoized computation.
// Downstream aggregation switches on these fields, so even scalar payloads
// are wrapped rather than returned bare.
type AnalysisResult struct {
	Payload   any     `json:"payload"`
	Cached    bool    `json:"cached"`
	Operation string  `json:"analysis_type"`
	ElapsedMS float64 `json:"execution_time_ms"`
}

// memoizeAnalysis wraps compute with a cache lookup keyed on the content
// fingerprint. On a hit the stored wrapper is returned as a copy flagged
// Cached=true; the stored entry itself is never mutated. On a miss compute
// runs outside any cache lock, its error propagates unmodified and nothing is
// stored, and a successful payload is wrapped, timed and inserted.
func memoizeAnalysis(cache *resultCache, operation string, content []byte, identifier string, compute func() (any, error)) (*AnalysisResult, error) {
	key := fingerprint(content, identifier, operation)

	if cached, ok := cache.Get(key); ok {
		if result, ok := cached.(*AnalysisResult); ok {
			hit := *result
			hit.Cached = true
			return &hit, nil
		}
	}

	start := time.Now()
	payload, err := compute()
	if err != nil {
		return nil, err
	}

	result := &AnalysisResult{
		Payload:   payload,
		Cached:    false,
		Operation: operation,
		ElapsedMS: round2(float64(time.Since(start).Microseconds()) / 1000),
	}
	cache.Set(key, operation, result)
	return result, nil
}
