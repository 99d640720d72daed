package main

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Insight is a single heuristic finding about a patch.
type Insight struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Pattern  string `json:"pattern,omitempty"`
	Count    int    `json:"count,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// ComplexityMetrics describes the structural complexity of a patch.
type ComplexityMetrics struct {
	Score        float64 `json:"score"`
	LinesOfCode  int     `json:"lines_of_code"`
	NestingDepth int     `json:"nesting_depth"`
	Indicators   int     `json:"complexity_indicators"`
}

// Severity levels for insights and vulnerabilities.
const (
	severityInfo    = "info"
	severityWarning = "warning"
	severityHigh    = "high"
	severityMedium  = "medium"
	severityLow     = "low"
)

// qualityPattern pairs a compiled heuristic with its reporting metadata.
type qualityPattern struct {
	name      string
	re        *regexp.Regexp
	threshold int
	severity  string
	message   string
}

// qualityPatterns are matched against every analyzed patch. A pattern only
// produces an insight once its match count reaches the threshold.
var qualityPatterns = []qualityPattern{
	{
		name:      "print_debugging",
		re:        regexp.MustCompile(`(?m)\b(?:print|console\.log|fmt\.Println)\s*\(`),
		threshold: 1,
		severity:  severityInfo,
		message:   "Print statements detected. Consider using logging for production code.",
	},
	{
		name:      "broad_exception",
		re:        regexp.MustCompile(`(?m)except\s*:|catch\s*\(\s*\w*Exception\w*\s`),
		threshold: 1,
		severity:  severityWarning,
		message:   "Broad exception handling detected. Consider catching specific errors.",
	},
	{
		name:      "todo_fixme",
		re:        regexp.MustCompile(`(?m)(?://|#)\s*(?:TODO|FIXME|HACK|XXX)`),
		threshold: 1,
		severity:  severityInfo,
		message:   "TODO/FIXME comments found. Consider addressing before merging.",
	},
	{
		name:      "magic_numbers",
		re:        regexp.MustCompile(`\b(?:[3-9]\d|\d{3,})\b`),
		threshold: 3,
		severity:  severityInfo,
		message:   "Magic numbers detected. Consider using named constants.",
	},
	{
		name:      "long_lines",
		re:        regexp.MustCompile(`(?m)^.{120,}$`),
		threshold: 2,
		severity:  severityInfo,
		message:   "Long lines detected (>120 chars). Consider breaking for readability.",
	},
	{
		name:      "deep_indentation",
		re:        regexp.MustCompile(`(?m)^[ ]{16,}\S|^\t{4,}\S`),
		threshold: 1,
		severity:  severityWarning,
		message:   "Deep nesting detected. Consider extracting functions or early returns.",
	},
}

var (
	longParamListRe = regexp.MustCompile(`(?:def|func|function)\s+\w+\s*\([^)]{50,}\)`)
	functionDeclRe  = regexp.MustCompile(`(?m)(?:def|func|function)\s+\w+`)

	// Complexity indicators across the languages the bot sees most.
	complexityKeywords = []string{
		"if ", "elif ", "else if ", "else:", "else {", "while ", "for ",
		"try:", "try {", "except", "catch", "case ", "switch ",
		"def ", "func ", "function ", "class ", "with ", "match ",
	}
)

// analyzeQuality runs the full heuristic quality scan over a patch. Pure
// function of its inputs; this is the compute behind the quality_scan cache.
func analyzeQuality(code, filename string) []Insight {
	var insights []Insight

	metrics := complexityScore(code)

	if metrics.Score > highComplexityScore {
		insights = append(insights, Insight{
			Type:     "complexity",
			Severity: severityWarning,
			Message:  fmt.Sprintf("High complexity detected (score: %.1f/10). Consider breaking down large functions.", metrics.Score),
			Filename: filename,
		})
	}

	if metrics.LinesOfCode > longBlockLines {
		insights = append(insights, Insight{
			Type:     "maintainability",
			Severity: severityInfo,
			Message:  fmt.Sprintf("Long code block (%d lines). Consider splitting for better readability.", metrics.LinesOfCode),
			Filename: filename,
		})
	}

	if metrics.NestingDepth > deepNestingLevels {
		insights = append(insights, Insight{
			Type:     "readability",
			Severity: severityWarning,
			Message:  fmt.Sprintf("Deep nesting detected (%d levels). Consider refactoring to reduce complexity.", metrics.NestingDepth),
			Filename: filename,
		})
	}

	for _, p := range qualityPatterns {
		matches := p.re.FindAllStringIndex(code, -1)
		if len(matches) >= p.threshold {
			insights = append(insights, Insight{
				Type:     "pattern",
				Severity: p.severity,
				Message:  p.message,
				Pattern:  p.name,
				Count:    len(matches),
				Filename: filename,
			})
		}
	}

	insights = append(insights, detectCodeSmells(code, filename)...)
	return insights
}

// detectCodeSmells flags structural smells: long parameter lists, duplicated
// lines and a single oversized function.
func detectCodeSmells(code, filename string) []Insight {
	var insights []Insight

	if longParamListRe.MatchString(code) {
		insights = append(insights, Insight{
			Type:     "code_smell",
			Severity: severityInfo,
			Message:  "Long parameter list detected. Consider grouping parameters into a struct.",
			Filename: filename,
		})
	}

	lineCounts := make(map[string]int)
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= duplicateLineMinLen || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		lineCounts[line]++
	}
	duplicates := 0
	for _, count := range lineCounts {
		if count >= duplicateLineMinCount {
			duplicates++
		}
	}
	if duplicates > 0 {
		insights = append(insights, Insight{
			Type:     "code_smell",
			Severity: severityInfo,
			Message:  fmt.Sprintf("Duplicate code detected (%d repeated patterns). Consider refactoring common logic.", duplicates),
			Count:    duplicates,
			Filename: filename,
		})
	}

	functions := functionDeclRe.FindAllString(code, -1)
	if len(functions) == 1 && len(strings.Split(code, "\n")) > 100 {
		insights = append(insights, Insight{
			Type:     "code_smell",
			Severity: severityWarning,
			Message:  "Very large function detected. Consider breaking into smaller, focused functions.",
			Filename: filename,
		})
	}

	return insights
}

// complexityScore estimates cyclomatic-ish complexity from keyword density,
// indentation depth and length. Scores clamp to 0..10; this is the compute
// behind the complexity_score cache.
func complexityScore(code string) ComplexityMetrics {
	var lines []string
	for _, line := range strings.Split(code, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	indicators := 1 // base complexity
	maxNesting := 0

	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		indent := 0
		for _, r := range line[:len(line)-len(trimmed)] {
			if r == '\t' {
				indent += indentWidth
			} else {
				indent++
			}
		}
		if level := indent / indentWidth; level > maxNesting {
			maxNesting = level
		}

		lower := strings.ToLower(trimmed)
		for _, keyword := range complexityKeywords {
			if strings.Contains(lower, keyword) {
				indicators++
			}
		}
	}

	score := float64(indicators) +
		float64(len(lines))/lengthPenaltyDivisor +
		float64(maxNesting)*nestingPenaltyWeight
	if score > complexityCeiling {
		score = complexityCeiling
	}

	return ComplexityMetrics{
		Score:        math.Round(score*10) / 10, // one decimal, matching the report format
		LinesOfCode:  len(lines),
		NestingDepth: maxNesting,
		Indicators:   indicators,
	}
}
