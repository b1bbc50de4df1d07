// Package report renders lint violations for terminals, CI annotations and
// machine consumers.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"alcr/internal/rules"
)

// Format names an output format.
type Format string

const (
	FormatNameCLI  Format = "cli"
	FormatNameCI   Format = "ci"
	FormatNameJSON Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatNameCLI, FormatNameCI, FormatNameJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want cli, ci or json)", s)
}

// Report is the JSON output format.
type Report struct {
	Violations []ViolationJSON `json:"violations"`
	Count      int             `json:"count"`
	Files      int             `json:"files"`
	Suppressed int             `json:"suppressed,omitempty"`
}

// ViolationJSON is a single violation in JSON output.
type ViolationJSON struct {
	rules.Violation
	Fingerprint string `json:"fingerprint"`
}

// FormatViolation formats one violation as path:line: [rule] message.
func FormatViolation(v rules.Violation) string {
	return fmt.Sprintf("%s:%d: [%s] %s", v.Path, v.Line, v.RuleID, v.Message)
}

// FormatCLI formats violations for terminal output, followed by a summary
// line. Nothing is written for a clean run.
func FormatCLI(violations []rules.Violation) string {
	if len(violations) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, v := range violations {
		sb.WriteString(FormatViolation(v))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(Summary(violations))
	sb.WriteString("\n")
	return sb.String()
}

// FormatCI formats violations as GitHub Actions error annotations.
func FormatCI(violations []rules.Violation) string {
	var sb strings.Builder
	for _, v := range violations {
		sb.WriteString(fmt.Sprintf("::error file=%s,line=%d,title=%s::%s\n",
			escapeProperty(v.Path), v.Line, escapeProperty(v.RuleID), escapeData(v.Message)))
	}
	return sb.String()
}

// FormatJSON formats violations as an indented JSON document.
func FormatJSON(violations []rules.Violation, files, suppressed int) (string, error) {
	report := Report{
		Violations: make([]ViolationJSON, 0, len(violations)),
		Count:      len(violations),
		Files:      files,
		Suppressed: suppressed,
	}
	for _, v := range violations {
		report.Violations = append(report.Violations, ViolationJSON{Violation: v, Fingerprint: v.Fingerprint()})
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal violations: %w", err)
	}
	return string(data), nil
}

// Summary counts violations and the files they occur in.
func Summary(violations []rules.Violation) string {
	files := make(map[string]bool)
	for _, v := range violations {
		files[v.Path] = true
	}
	return fmt.Sprintf("%d violation(s) in %d file(s)", len(violations), len(files))
}

// Workflow command escaping.
func escapeData(s string) string {
	r := strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	return r.Replace(s)
}

func escapeProperty(s string) string {
	r := strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")
	return r.Replace(s)
}
