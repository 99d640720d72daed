package main

import (
	"fmt"
	"strings"
)

// buildReviewComment renders the analysis into the Markdown comment posted
// on the pull request.
func buildReviewComment(analysis *PRAnalysis) string {
	var b strings.Builder

	b.WriteString("## 🤖 Code Review Assistant\n\n")

	b.WriteString("**📊 Analysis Summary:**\n")
	fmt.Fprintf(&b, "- Files analyzed: %d\n", analysis.FilesChanged)
	languages := "Mixed/Unknown"
	if len(analysis.Languages) > 0 {
		languages = strings.Join(analysis.Languages, ", ")
	}
	fmt.Fprintf(&b, "- Languages: %s\n", languages)
	fmt.Fprintf(&b, "- Changes: +%d / -%d lines\n", analysis.TotalAdditions, analysis.TotalDeletions)

	if analysis.QualityScore > 0 {
		icon := "🔴"
		switch {
		case analysis.QualityScore >= goodQualityScore:
			icon = "🟢"
		case analysis.QualityScore >= 4:
			icon = "🟡"
		}
		fmt.Fprintf(&b, "- Code quality score: %s %.1f/10\n", icon, analysis.QualityScore)
	}
	b.WriteString("\n")

	writeSecuritySection(&b, analysis.Vulnerabilities)
	writeInsightsSection(&b, analysis.Insights)

	if len(analysis.Suggestions) > 0 {
		b.WriteString("## 💡 Suggestions\n\n")
		for i, s := range analysis.Suggestions {
			if i >= maxCommentInsights {
				break
			}
			fmt.Fprintf(&b, "- %s\n", s.Message)
		}
		b.WriteString("\n")
	}

	if cleanReview(analysis) {
		b.WriteString("## ✨ Great Work!\n\n")
		b.WriteString("Your code looks good! No major issues detected.\n\n")
	}

	b.WriteString("---\n")
	b.WriteString("*Powered by regex heuristics and a healthy cache hit rate*\n")
	return b.String()
}

// writeSecuritySection renders security findings grouped by severity,
// highest first, capped to keep the comment readable.
func writeSecuritySection(b *strings.Builder, vulns []Vulnerability) {
	if len(vulns) == 0 {
		return
	}

	b.WriteString("## 🚨 Security Issues\n\n")

	bySeverity := make(map[string][]Vulnerability)
	for _, v := range vulns {
		bySeverity[v.Severity] = append(bySeverity[v.Severity], v)
	}

	if high := bySeverity[severityHigh]; len(high) > 0 {
		b.WriteString("**🔴 High Severity:**\n")
		for i, v := range high {
			if i >= maxCommentVulns {
				break
			}
			fmt.Fprintf(b, "- **%s** in `%s` (line %d)\n", v.Description, v.Filename, v.Line)
			fmt.Fprintf(b, "  💡 *%s*\n", v.Recommendation)
		}
		b.WriteString("\n")
	}

	if medium := bySeverity[severityMedium]; len(medium) > 0 {
		b.WriteString("**🟡 Medium Severity:**\n")
		for i, v := range medium {
			if i >= maxCommentVulns {
				break
			}
			fmt.Fprintf(b, "- %s in `%s`\n", v.Description, v.Filename)
		}
		b.WriteString("\n")
	}
}

// writeInsightsSection renders heuristic insights grouped by type.
func writeInsightsSection(b *strings.Builder, insights []Insight) {
	if len(insights) == 0 {
		return
	}

	b.WriteString("## 🧠 Insights\n\n")

	byType := make(map[string][]Insight)
	for _, insight := range insights {
		byType[insight.Type] = append(byType[insight.Type], insight)
	}

	sections := []struct {
		key   string
		title string
	}{
		{"complexity", "**⚡ Complexity:**"},
		{"pattern", "**🔍 Code Patterns:**"},
		{"code_smell", "**👃 Code Smells:**"},
		{"maintainability", "**📏 Maintainability:**"},
		{"readability", "**🪆 Readability:**"},
	}

	for _, section := range sections {
		group := byType[section.key]
		if len(group) == 0 {
			continue
		}
		b.WriteString(section.title + "\n")
		for i, insight := range group {
			if i >= maxCommentInsights {
				break
			}
			if insight.Filename != "" {
				fmt.Fprintf(b, "- %s (`%s`)\n", insight.Message, insight.Filename)
			} else {
				fmt.Fprintf(b, "- %s\n", insight.Message)
			}
		}
		b.WriteString("\n")
	}
}

// cleanReview reports whether the analysis found nothing worth flagging.
func cleanReview(analysis *PRAnalysis) bool {
	if len(analysis.Vulnerabilities) > 0 {
		return false
	}
	for _, insight := range analysis.Insights {
		if insight.Severity == severityWarning {
			return false
		}
	}
	return analysis.QualityScore >= goodQualityScore
}
