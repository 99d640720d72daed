package main

import (
	"strings"
	"testing"
)

func TestBuildReviewCommentSections(t *testing.T) {
	analysis := &PRAnalysis{
		FilesChanged:   2,
		Languages:      []string{"Go", "Python"},
		TotalAdditions: 120,
		TotalDeletions: 30,
		QualityScore:   5.5,
		Vulnerabilities: []Vulnerability{
			{
				Type:           "code_injection",
				Severity:       severityHigh,
				Description:    "Dynamic code execution (eval/exec)",
				Recommendation: "Avoid executing dynamically built code; parse input explicitly instead.",
				Filename:       "app.py",
				Line:           12,
			},
			{
				Type:        "weak_hash",
				Severity:    severityMedium,
				Description: "Weak cryptographic hash (MD5/SHA-1)",
				Filename:    "hash.py",
				Line:        3,
			},
		},
		Insights: []Insight{
			{Type: "complexity", Severity: severityWarning, Message: "High complexity detected (score: 8.0/10). Consider breaking down large functions.", Filename: "app.py"},
			{Type: "pattern", Severity: severityInfo, Message: "Print statements detected. Consider using logging for production code.", Pattern: "print_debugging"},
		},
		Suggestions: []Suggestion{
			{Type: "large_change", Message: "Consider splitting this change into smaller commits."},
		},
	}

	comment := buildReviewComment(analysis)

	wantFragments := []string{
		"Code Review Assistant",
		"Files analyzed: 2",
		"Languages: Go, Python",
		"+120 / -30 lines",
		"5.5/10",
		"Security Issues",
		"High Severity",
		"Dynamic code execution (eval/exec)",
		"`app.py` (line 12)",
		"Medium Severity",
		"Weak cryptographic hash (MD5/SHA-1)",
		"Insights",
		"High complexity detected",
		"Suggestions",
		"Consider splitting this change into smaller commits.",
	}
	for _, want := range wantFragments {
		if !strings.Contains(comment, want) {
			t.Errorf("Comment missing %q", want)
		}
	}

	if strings.Contains(comment, "Great Work") {
		t.Error("Comment with findings must not include the clean-review section")
	}
}

func TestBuildReviewCommentClean(t *testing.T) {
	analysis := &PRAnalysis{
		FilesChanged:   1,
		Languages:      []string{"Go"},
		TotalAdditions: 10,
		QualityScore:   9.0,
	}

	comment := buildReviewComment(analysis)

	if !strings.Contains(comment, "Great Work") {
		t.Error("Clean analysis should produce the positive section")
	}
	if strings.Contains(comment, "Security Issues") {
		t.Error("Clean analysis must not render a security section")
	}
	if strings.Contains(comment, "Insights") {
		t.Error("Clean analysis must not render an insights section")
	}
}

func TestBuildReviewCommentCapsFindings(t *testing.T) {
	analysis := &PRAnalysis{FilesChanged: 1, QualityScore: 3.0}
	for range 10 {
		analysis.Vulnerabilities = append(analysis.Vulnerabilities, Vulnerability{
			Severity:    severityHigh,
			Description: "Possible hardcoded credential",
			Filename:    "settings.py",
			Line:        1,
		})
	}

	comment := buildReviewComment(analysis)
	if got := strings.Count(comment, "Possible hardcoded credential"); got != maxCommentVulns {
		t.Errorf("Comment shows %d high findings, want capped at %d", got, maxCommentVulns)
	}
}

func TestCleanReview(t *testing.T) {
	tests := []struct {
		name     string
		analysis *PRAnalysis
		want     bool
	}{
		{
			name:     "good score and no findings",
			analysis: &PRAnalysis{QualityScore: 8.0},
			want:     true,
		},
		{
			name:     "low score",
			analysis: &PRAnalysis{QualityScore: 5.0},
			want:     false,
		},
		{
			name: "vulnerability present",
			analysis: &PRAnalysis{
				QualityScore:    9.0,
				Vulnerabilities: []Vulnerability{{Severity: severityHigh}},
			},
			want: false,
		},
		{
			name: "warning insight present",
			analysis: &PRAnalysis{
				QualityScore: 9.0,
				Insights:     []Insight{{Severity: severityWarning}},
			},
			want: false,
		},
		{
			name: "info insights are fine",
			analysis: &PRAnalysis{
				QualityScore: 8.0,
				Insights:     []Insight{{Severity: severityInfo}},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanReview(tt.analysis); got != tt.want {
				t.Errorf("cleanReview() = %v, want %v", got, tt.want)
			}
		})
	}
}
