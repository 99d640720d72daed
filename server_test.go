package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthEndpoint(t *testing.T) {
	s := testServer(t)
	s.monitor.RecordResponseTime(100 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
	if body["environment"] != "test" {
		t.Errorf("environment = %v, want test", body["environment"])
	}
	if body["avg_response_time_ms"] != 100.0 {
		t.Errorf("avg_response_time_ms = %v, want 100", body["avg_response_time_ms"])
	}
}

func TestCacheStatsEndpoint(t *testing.T) {
	s := testServer(t)
	s.cache.Set("k1", opQualityScan, "v")
	s.cache.Get("k1")
	s.cache.Get("missing")

	req := httptest.NewRequest(http.MethodGet, "/analytics/cache-stats", nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Performance  CacheStats     `json:"cache_performance"`
		Distribution map[string]int `json:"cache_distribution"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Performance.Hits != 1 || body.Performance.Misses != 1 {
		t.Errorf("Counters = %d/%d, want 1 hit / 1 miss",
			body.Performance.Hits, body.Performance.Misses)
	}
	if body.Performance.HitRatePercent != 50.0 {
		t.Errorf("Hit rate = %v, want 50.0", body.Performance.HitRatePercent)
	}
	if body.Distribution[opQualityScan] != 1 {
		t.Errorf("Distribution = %v, want one quality_scan entry", body.Distribution)
	}
}

func TestPerformanceEndpoint(t *testing.T) {
	s := testServer(t)
	s.monitor.RecordResponseTime(50 * time.Millisecond)
	s.monitor.RecordOperationTime(opSecurityScan, 5*time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/analytics/performance", nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Metrics PerfStats `json:"performance_metrics"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Metrics.TotalRequests != 1 {
		t.Errorf("Total requests = %d, want 1", body.Metrics.TotalRequests)
	}
	if body.Metrics.AnalysisBreakdown[opSecurityScan].Count != 1 {
		t.Errorf("Breakdown = %v, want one security_scan sample", body.Metrics.AnalysisBreakdown)
	}
}

func TestAnalyticsEndpoint(t *testing.T) {
	s := testServer(t)
	s.monitor.RecordResponseTime(time.Second)
	s.monitor.RecordError()

	req := httptest.NewRequest(http.MethodGet, "/analytics/analytics", nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	summary, ok := body["summary"]
	if !ok {
		t.Fatal("Missing summary section")
	}
	if summary["total_requests_processed"] != 1.0 {
		t.Errorf("total_requests_processed = %v, want 1", summary["total_requests_processed"])
	}
	if summary["error_rate_percent"] != 100.0 {
		t.Errorf("error_rate_percent = %v, want 100", summary["error_rate_percent"])
	}
	if _, ok := body["performance_highlights"]; !ok {
		t.Error("Missing performance_highlights section")
	}
	if _, ok := body["cache_effectiveness"]; !ok {
		t.Error("Missing cache_effectiveness section")
	}
}

func TestCacheClearEndpoint(t *testing.T) {
	s := testServer(t)
	s.cache.Set("k", opQualityScan, "v")

	t.Run("rejects GET", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/analytics/cache/clear", nil)
		rec := httptest.NewRecorder()
		s.routes().ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("Status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}
		if s.cache.Stats().Size != 1 {
			t.Error("GET must not clear the cache")
		}
	})

	t.Run("clears on POST", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/analytics/cache/clear", nil)
		rec := httptest.NewRecorder()
		s.routes().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", rec.Code, http.StatusOK)
		}
		if size := s.cache.Stats().Size; size != 0 {
			t.Errorf("Size after clear = %d, want 0", size)
		}
	})
}

func TestRootEndpoint(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
}
