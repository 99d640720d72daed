package main

import (
	"regexp"
	"strings"
)

// Vulnerability is a single security finding in a patch.
type Vulnerability struct {
	Type           string `json:"type"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
	Filename       string `json:"filename"`
	Line           int    `json:"line"`
}

// securityPattern pairs a vulnerability regex with its report metadata.
type securityPattern struct {
	name           string
	re             *regexp.Regexp
	severity       string
	description    string
	recommendation string
}

var securityPatterns = []securityPattern{
	{
		name:           "code_injection",
		re:             regexp.MustCompile(`\b(?:eval|exec)\s*\(`),
		severity:       severityHigh,
		description:    "Dynamic code execution (eval/exec)",
		recommendation: "Avoid executing dynamically built code; parse input explicitly instead.",
	},
	{
		name:           "hardcoded_credentials",
		re:             regexp.MustCompile(`(?i)\b(?:password|passwd|secret|api_key|apikey|token)\s*[:=]\s*["'][^"']{4,}["']`),
		severity:       severityHigh,
		description:    "Possible hardcoded credential",
		recommendation: "Load secrets from the environment or a secret manager, never from source.",
	},
	{
		name:           "sql_injection",
		re:             regexp.MustCompile(`(?i)(?:execute|query|exec)\s*\(\s*["'].*(?:SELECT|INSERT|UPDATE|DELETE).*["']\s*(?:%|\+|\.format)`),
		severity:       severityHigh,
		description:    "SQL built by string interpolation",
		recommendation: "Use parameterized queries or prepared statements.",
	},
	{
		name:           "weak_hash",
		re:             regexp.MustCompile(`(?i)\b(?:md5|sha1)\s*\(|hashlib\.(?:md5|sha1)\b`),
		severity:       severityMedium,
		description:    "Weak cryptographic hash (MD5/SHA-1)",
		recommendation: "Use SHA-256 or stronger for anything security-sensitive.",
	},
	{
		name:           "insecure_tls",
		re:             regexp.MustCompile(`(?i)verify\s*=\s*False|InsecureSkipVerify\s*:\s*true`),
		severity:       severityMedium,
		description:    "TLS certificate verification disabled",
		recommendation: "Keep certificate verification enabled outside of tests.",
	},
	{
		name:           "shell_injection",
		re:             regexp.MustCompile(`(?i)os\.system\s*\(|subprocess\.\w+\([^)]*shell\s*=\s*True`),
		severity:       severityMedium,
		description:    "Shell command built from program data",
		recommendation: "Invoke commands with argument vectors rather than shell strings.",
	},
	{
		name:           "debug_enabled",
		re:             regexp.MustCompile(`(?i)debug\s*=\s*True`),
		severity:       severityLow,
		description:    "Debug mode enabled",
		recommendation: "Disable debug mode before deploying.",
	},
}

// securityScan checks a patch line by line against the vulnerability pattern
// table. Pure function of its inputs; this is the compute behind the
// security_scan cache.
func securityScan(code, filename string) []Vulnerability {
	var findings []Vulnerability

	for lineNo, line := range strings.Split(code, "\n") {
		for _, p := range securityPatterns {
			if p.re.MatchString(line) {
				findings = append(findings, Vulnerability{
					Type:           p.name,
					Severity:       p.severity,
					Description:    p.description,
					Recommendation: p.recommendation,
					Filename:       filename,
					Line:           lineNo + 1,
				})
			}
		}
	}

	return findings
}
