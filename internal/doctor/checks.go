// Package doctor runs diagnostic checks against the config file and the
// serial devices serialmon would connect to.
package doctor

import (
	"fmt"
)

// CheckStatus represents the result status of a check.
type CheckStatus int

const (
	StatusPass CheckStatus = iota
	StatusWarn
	StatusFail
)

// String returns a human-readable status string.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON output.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CheckResult contains the outcome of running a check.
type CheckResult struct {
	Name       string      `json:"name"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
	Fixable    bool        `json:"fixable,omitempty"` // Whether --fix can address this
}

// Check defines the interface for diagnostic checks.
type Check interface {
	// Name returns the check's identifier.
	Name() string

	// Category returns the check's category ("CONFIG" or "SERIAL").
	Category() string

	// Run executes the check and returns the result.
	Run() CheckResult

	// Fix attempts to address a fixable issue. Checks that cannot fix
	// anything return nil.
	Fix() error
}

// RunAll executes checks in order. Serial checks touch the hardware, so they
// never run concurrently.
func RunAll(checks []Check) []CheckResult {
	results := make([]CheckResult, len(checks))
	for i, check := range checks {
		results[i] = check.Run()
	}
	return results
}

// FixAll calls Fix on every fixable, failing check and re-runs it.
func FixAll(checks []Check, results []CheckResult) []CheckResult {
	out := make([]CheckResult, len(results))
	copy(out, results)
	for i, r := range out {
		if !r.Fixable || r.Status == StatusPass {
			continue
		}
		if err := checks[i].Fix(); err == nil {
			out[i] = checks[i].Run()
		}
	}
	return out
}

// CountByStatus counts results by status.
func CountByStatus(results []CheckResult) map[CheckStatus]int {
	counts := make(map[CheckStatus]int)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}

// HasFailures returns true if any result has a fail status.
func HasFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.Status == StatusFail {
			return true
		}
	}
	return false
}

// HasIssues returns true if any result has a fail or warn status.
func HasIssues(results []CheckResult) bool {
	for _, r := range results {
		if r.Status != StatusPass {
			return true
		}
	}
	return false
}

// FixableCount returns the number of issues that can be fixed automatically.
func FixableCount(results []CheckResult) int {
	count := 0
	for _, r := range results {
		if r.Fixable && r.Status != StatusPass {
			count++
		}
	}
	return count
}

// Summary returns a one-line summary of the results.
func Summary(results []CheckResult) string {
	counts := CountByStatus(results)
	total := counts[StatusWarn] + counts[StatusFail]
	if total == 0 {
		return "Everything looks good"
	}
	return fmt.Sprintf("%d issue%s found", total, Pluralize(total))
}

// Pluralize returns "s" unless n is 1.
func Pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
