package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// httpServer exposes the webhook endpoint plus the observability surface:
// health, cache statistics, performance metrics and the admin cache clear.
type httpServer struct {
	settings *Settings
	bot      *ReviewBot
	cache    *resultCache
	monitor  *perfMonitor
}

func newHTTPServer(settings *Settings, bot *ReviewBot, cache *resultCache, monitor *perfMonitor) *httpServer {
	return &httpServer{settings: settings, bot: bot, cache: cache, monitor: monitor}
}

// routes builds the request mux.
func (s *httpServer) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/webhooks/github", s.handleWebhook)
	mux.HandleFunc("/analytics/cache-stats", s.handleCacheStats)
	mux.HandleFunc("/analytics/performance", s.handlePerformance)
	mux.HandleFunc("/analytics/analytics", s.handleAnalytics)
	mux.HandleFunc("/analytics/cache/clear", s.handleCacheClear)
	return mux
}

// listenAndServe runs the server until it fails.
func (s *httpServer) listenAndServe() error {
	server := &http.Server{
		Addr:         ":" + s.settings.Port,
		Handler:      s.routes(),
		ReadTimeout:  serverReadTimeout * time.Second,
		WriteTimeout: serverReadTimeout * time.Second,
		IdleTimeout:  serverIdleTimeout * time.Second,
	}
	log.Printf("[SERVER] Listening on port %s", s.settings.Port)
	return server.ListenAndServe()
}

func (s *httpServer) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Code Review Assistant is running",
		"status":  "healthy",
		"features": []string{
			"heuristic code analysis",
			"result caching",
			"performance monitoring",
			"security vulnerability detection",
		},
	})
}

func (s *httpServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	cacheStats := s.cache.Stats()
	perfStats := s.monitor.Stats()

	avgMS := 0.0
	if perfStats.ResponseTimes != nil {
		avgMS = perfStats.ResponseTimes.AvgMS
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":               "healthy",
		"environment":          s.settings.Environment,
		"cache_enabled":        cacheStats.Enabled,
		"cache_hit_rate":       fmt.Sprintf("%.1f%%", cacheStats.HitRatePercent),
		"avg_response_time_ms": avgMS,
		"uptime_hours":         perfStats.UptimeHours,
		"total_requests":       perfStats.TotalRequests,
	})
}

func (s *httpServer) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	stats := s.cache.Stats()
	distribution := s.cache.EntriesByOperation()

	memoryPerEntryKB := 0.0
	if stats.Size > 0 {
		memoryPerEntryKB = round2(stats.MemoryUsageMB * 1024 / float64(stats.Size))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"cache_performance":  stats,
		"cache_distribution": distribution,
		"cache_efficiency": map[string]any{
			"memory_per_entry_kb":  memoryPerEntryKB,
			"avg_savings_estimate": fmt.Sprintf("%.1f%% faster responses", stats.HitRatePercent),
		},
	})
}

func (s *httpServer) handlePerformance(w http.ResponseWriter, _ *http.Request) {
	perfStats := s.monitor.Stats()
	cacheStats := s.cache.Stats()

	avgMS := 0.0
	if perfStats.ResponseTimes != nil {
		avgMS = perfStats.ResponseTimes.AvgMS
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"performance_metrics": perfStats,
		"cache_impact": map[string]any{
			"hit_rate_percent":        cacheStats.HitRatePercent,
			"estimated_time_saved_ms": round2(avgMS * float64(cacheStats.Hits) * cacheStats.HitRatePercent / 100),
		},
	})
}

func (s *httpServer) handleAnalytics(w http.ResponseWriter, _ *http.Request) {
	cacheStats := s.cache.Stats()
	perfStats := s.monitor.Stats()

	var avgMS, minMS, p95MS float64
	if perfStats.ResponseTimes != nil {
		avgMS = perfStats.ResponseTimes.AvgMS
		minMS = perfStats.ResponseTimes.MinMS
		p95MS = perfStats.ResponseTimes.P95MS
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"summary": map[string]any{
			"total_requests_processed": perfStats.TotalRequests,
			"average_response_time_ms": avgMS,
			"cache_hit_rate_percent":   cacheStats.HitRatePercent,
			"uptime_hours":             perfStats.UptimeHours,
			"error_rate_percent":       perfStats.ErrorRatePercent,
		},
		"performance_highlights": map[string]any{
			"fastest_response_ms":      minMS,
			"p95_response_time_ms":     p95MS,
			"requests_per_hour":        perfStats.RequestsPerHour,
			"total_time_saved_seconds": round2(avgMS * float64(cacheStats.Hits) / 1000),
		},
		"cache_effectiveness": map[string]any{
			"cache_size":         cacheStats.Size,
			"memory_usage_mb":    cacheStats.MemoryUsageMB,
			"cache_distribution": s.cache.EntriesByOperation(),
		},
		"analysis_breakdown": perfStats.AnalysisBreakdown,
	})
}

func (s *httpServer) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.cache.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"message": "cache cleared"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[ERROR] Failed to write response: %v", err)
	}
}
