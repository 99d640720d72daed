package main

import "time"

// Analysis operation labels, stored on cache entries and metrics windows.
const (
	opQualityScan     = "quality_scan"
	opComplexityScore = "complexity_score"
	opSecurityScan    = "security_scan"
)

// Configuration defaults and limits.
const (
	defaultCacheTTL       = 1 * time.Hour // Default TTL for analysis results
	defaultMaxCacheSize   = 1000          // Maximum live cache entries
	defaultMetricsSamples = 1000          // Rolling-window capacity per operation
	defaultPort           = "8080"        // HTTP listen port

	fingerprintHexLen = 16 // 64 bits of SHA-256; collision odds negligible at cache scale

	httpTimeout       = 30 // seconds - GitHub API request timeout
	serverReadTimeout = 10 // seconds - server read timeout
	serverIdleTimeout = 60 // seconds - server idle timeout

	// GitHub API limits.
	perPageLimit = 100       // GitHub API per_page limit
	maxPRNumber  = 999999    // Maximum PR number to validate
	maxAppID     = 999999999 // Maximum valid GitHub App ID
	apiRateLimit = 4000      // Requests per hour budget against the 5000 GitHub allows

	// Installation token lifetime handling.
	installTokenTTL = 55 * time.Minute // GitHub issues 1h tokens; refresh early
	appJWTBackdate  = 60 * time.Second // Issued-at skew allowance
	appJWTLifetime  = 10 * time.Minute // Maximum lifetime GitHub accepts

	// Analysis parameters.
	maxPatchAdditions      = 500 // Skip files with larger patches
	maxConcurrentFileScans = 4   // Bounded per-file analysis workers
	largeChangeThreshold   = 100 // Additions that trigger a split-commit suggestion
	maxCommentInsights     = 3   // Insights shown per section to avoid comment spam
	maxCommentVulns        = 3   // High-severity findings shown per comment

	// Complexity scoring.
	complexityCeiling     = 10.0 // Scores clamp to 0..10
	lengthPenaltyDivisor  = 20.0 // One point per 20 non-blank lines
	nestingPenaltyWeight  = 0.5  // Half a point per nesting level
	highComplexityScore   = 7.0  // Warning threshold
	longBlockLines        = 50   // Maintainability note threshold
	deepNestingLevels     = 4    // Readability warning threshold
	indentWidth           = 4    // Spaces per nesting level
	duplicateLineMinLen   = 10   // Only substantial lines count as duplicates
	duplicateLineMinCount = 3    // Occurrences before a duplicate-code smell
	goodQualityScore      = 7.0  // Quality score treated as healthy

	// Metrics reporting.
	percentile95  = 95
	percentile99  = 99
	minUptimeHour = 0.01 // Floor for throughput division near process start

	analysisTimeout = 5 * time.Minute // Upper bound for one background PR analysis

	// Retry parameters for exponential backoff with jitter.
	maxRetryAttempts  = 5
	initialRetryDelay = 1 * time.Second
	maxRetryDelay     = 2 * time.Minute
)
