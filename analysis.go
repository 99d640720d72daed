package main

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"sync"
	"time"
)

// Suggestion is a change-level recommendation attached to the review.
type Suggestion struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

// PRAnalysis aggregates the per-file scan results for one pull request.
type PRAnalysis struct {
	Repo            string                       `json:"repository"`
	Number          int                          `json:"number"`
	FilesChanged    int                          `json:"files_changed"`
	Languages       []string                     `json:"languages"`
	TotalAdditions  int                          `json:"total_additions"`
	TotalDeletions  int                          `json:"total_deletions"`
	Insights        []Insight                    `json:"insights"`
	Vulnerabilities []Vulnerability              `json:"security_vulnerabilities"`
	Complexity      map[string]ComplexityMetrics `json:"complexity_analysis"`
	Suggestions     []Suggestion                 `json:"suggestions"`
	QualityScore    float64                      `json:"code_quality_score"`
	// CachedScans is a display-only convenience derived from the Cached
	// flags on returned results; the cache's own counters stay authoritative.
	CachedScans int `json:"cached_scans"`
	TotalScans  int `json:"total_scans"`
}

// ReviewBot wires the GitHub client, the result cache and the metrics
// recorder into the PR analysis pipeline. One instance serves the whole
// process; it is constructed in main and handed to every event source.
type ReviewBot struct {
	client  *GitHubClient
	cache   *resultCache
	monitor *perfMonitor
	dryRun  bool
}

// AnalyzePR runs the full pipeline for one pull request: fetch changed
// files, scan them, assemble the review comment and post it. The elapsed
// wall time feeds the global response-time window; failures feed the error
// counter and propagate.
func (b *ReviewBot) AnalyzePR(ctx context.Context, installationID int64, repo string, prNumber int) error {
	start := time.Now()
	log.Printf("[ANALYZE] Starting analysis for %s#%d", repo, prNumber)

	files, err := b.client.prFiles(ctx, installationID, repo, prNumber)
	if err != nil {
		b.monitor.RecordError()
		return fmt.Errorf("fetch changed files: %w", err)
	}

	analysis := b.analyzeFiles(files)
	analysis.Repo = repo
	analysis.Number = prNumber

	comment := buildReviewComment(analysis)
	if b.dryRun {
		log.Printf("[ANALYZE] Dry run, skipping comment on %s#%d", repo, prNumber)
	} else if err := b.client.postComment(ctx, installationID, repo, prNumber, comment); err != nil {
		b.monitor.RecordError()
		return err
	}

	elapsed := time.Since(start)
	b.monitor.RecordResponseTime(elapsed)
	log.Printf("[ANALYZE] Completed %s#%d in %v: %d insights, %d security findings, %d/%d scans cached",
		repo, prNumber, elapsed.Round(time.Millisecond),
		len(analysis.Insights), len(analysis.Vulnerabilities), analysis.CachedScans, analysis.TotalScans)
	return nil
}

// analyzeFiles scans the changed files with bounded concurrency and merges
// the results. One worker per file up to maxConcurrentFileScans.
func (b *ReviewBot) analyzeFiles(files []ChangedFile) *PRAnalysis {
	analysis := &PRAnalysis{
		FilesChanged: len(files),
		Complexity:   make(map[string]ComplexityMetrics),
	}

	languages := make(frequencyCounter)
	var totalQuality float64
	analyzedFiles := 0

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrentFileScans)

	for _, file := range files {
		mu.Lock()
		if lang := detectLanguage(file.Filename); lang != "" {
			languages.add(lang)
		}
		analysis.TotalAdditions += file.Additions
		analysis.TotalDeletions += file.Deletions
		mu.Unlock()

		// Skip binary files and very large patches.
		if file.Patch == "" || file.Additions > maxPatchAdditions {
			continue
		}

		if file.Additions > largeChangeThreshold {
			mu.Lock()
			analysis.Suggestions = append(analysis.Suggestions, Suggestion{
				Type:     "maintainability",
				Message:  fmt.Sprintf("Large change in %s (%d lines added). Consider breaking into smaller commits.", file.Filename, file.Additions),
				Filename: file.Filename,
			})
			mu.Unlock()
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(file ChangedFile) {
			defer wg.Done()
			defer func() { <-sem }()

			scan := b.scanFile(file)

			mu.Lock()
			defer mu.Unlock()
			analysis.Insights = append(analysis.Insights, scan.insights...)
			analysis.Vulnerabilities = append(analysis.Vulnerabilities, scan.vulnerabilities...)
			analysis.Complexity[file.Filename] = scan.complexity
			analysis.CachedScans += scan.cachedScans
			analysis.TotalScans += scan.totalScans
			totalQuality += complexityCeiling - scan.complexity.Score
			analyzedFiles++
		}(file)
	}
	wg.Wait()

	analysis.Languages = languages.names()
	if analyzedFiles > 0 {
		analysis.QualityScore = round2(totalQuality / float64(analyzedFiles))
	}
	return analysis
}

// fileScan holds the outcome of the three memoized scans for one file.
type fileScan struct {
	insights        []Insight
	vulnerabilities []Vulnerability
	complexity      ComplexityMetrics
	cachedScans     int
	totalScans      int
}

// scanFile runs the quality, complexity and security scans for one changed
// file through the memoization wrapper, timing each call into the recorder.
// Scan failures degrade to an empty result rather than aborting the PR.
func (b *ReviewBot) scanFile(file ChangedFile) fileScan {
	var scan fileScan
	patch := file.Patch
	content := []byte(patch)

	quality, err := b.timedScan(opQualityScan, content, file.Filename, func() (any, error) {
		return analyzeQuality(patch, file.Filename), nil
	})
	if err == nil {
		scan.totalScans++
		if quality.Cached {
			scan.cachedScans++
		}
		if insights, ok := quality.Payload.([]Insight); ok {
			scan.insights = insights
		}
	}

	complexity, err := b.timedScan(opComplexityScore, content, file.Filename, func() (any, error) {
		return complexityScore(patch), nil
	})
	if err == nil {
		scan.totalScans++
		if complexity.Cached {
			scan.cachedScans++
		}
		if metrics, ok := complexity.Payload.(ComplexityMetrics); ok {
			scan.complexity = metrics
		}
	}

	security, err := b.timedScan(opSecurityScan, content, file.Filename, func() (any, error) {
		return securityScan(patch, file.Filename), nil
	})
	if err == nil {
		scan.totalScans++
		if security.Cached {
			scan.cachedScans++
		}
		if vulns, ok := security.Payload.([]Vulnerability); ok {
			scan.vulnerabilities = vulns
		}
	}

	return scan
}

// timedScan memoizes one compute and feeds its wall time into the
// per-operation window. Compute errors count against the error rate.
func (b *ReviewBot) timedScan(operation string, content []byte, identifier string, compute func() (any, error)) (*AnalysisResult, error) {
	start := time.Now()
	result, err := memoizeAnalysis(b.cache, operation, content, identifier, compute)
	if err != nil {
		b.monitor.RecordError()
		log.Printf("[ERROR] %s failed for %s: %v", operation, identifier, err)
		return nil, err
	}
	b.monitor.RecordOperationTime(operation, time.Since(start))
	return result, nil
}

// detectLanguage maps a filename to the language bucket used in the report.
func detectLanguage(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".py":
		return "Python"
	case ".js", ".jsx":
		return "JavaScript"
	case ".ts", ".tsx":
		return "TypeScript"
	case ".go":
		return "Go"
	case ".java":
		return "Java"
	case ".rb":
		return "Ruby"
	case ".c", ".cpp", ".cc", ".h", ".hpp":
		return "C/C++"
	case ".rs":
		return "Rust"
	default:
		return ""
	}
}
