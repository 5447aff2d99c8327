package doctor

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// Check is the interface that diagnostic checks must implement.
type Check interface {
	// Name returns the unique identifier for this check.
	Name() string

	// Category returns the grouping for this check (e.g., "runtime", "system").
	Category() string

	// Run executes the diagnostic check and returns its result.
	Run() *CheckResult
}

// Exit codes reported by a DoctorReport.
const (
	ExitClean    = 0
	ExitWarnings = 1
	ExitErrors   = 2
)

// Runner executes diagnostic checks and aggregates their results.
type Runner struct {
	checks     []Check
	categories []string
	logger     *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger the runner reports progress to.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithCategories restricts a run to checks in the named categories,
// compared case-insensitively. No categories means every check runs.
func WithCategories(categories ...string) RunnerOption {
	return func(r *Runner) {
		for _, c := range categories {
			if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
				r.categories = append(r.categories, c)
			}
		}
	}
}

// NewRunner creates a new diagnostic runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		checks: make([]Check, 0),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddCheck registers a diagnostic check with the runner.
func (r *Runner) AddCheck(c Check) {
	r.checks = append(r.checks, c)
}

// Checks returns the registered checks in run order.
func (r *Runner) Checks() []Check {
	return r.checks
}

// Run executes the selected checks in registration order and returns a
// report. A check that panics is reported as an error result.
func (r *Runner) Run() *DoctorReport {
	start := time.Now()
	report := &DoctorReport{
		Timestamp: start.UTC(),
		Results:   make([]*CheckResult, 0, len(r.checks)),
	}

	for _, check := range r.checks {
		if !r.selected(check) {
			continue
		}
		result := r.runCheck(check)
		if result == nil {
			continue
		}
		report.Results = append(report.Results, result)
		r.logger.Debug("check finished", "check", result.Name, "status", result.Status.String())

		switch result.Status {
		case SeverityPass:
			report.Summary.Passed++
		case SeverityInfo:
			report.Summary.Info++
		case SeverityWarning:
			report.Summary.Warnings++
		case SeverityError:
			report.Summary.Errors++
		}
	}

	report.Duration = time.Since(start)
	return report
}

func (r *Runner) selected(c Check) bool {
	return len(r.categories) == 0 || slices.Contains(r.categories, strings.ToLower(c.Category()))
}

func (r *Runner) runCheck(c Check) (result *CheckResult) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("check panicked", "check", c.Name(), "panic", p)
			result = newResult(c, SeverityError, fmt.Sprintf("check failed: %v", p))
		}
	}()
	return c.Run()
}

// DoctorReport aggregates all check results with timing and summary.
type DoctorReport struct {
	// Timestamp is when the diagnostic run started.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Duration is how long the run took.
	Duration time.Duration `json:"duration_ns" yaml:"duration"`

	// Results contains the outcome of each check.
	Results []*CheckResult `json:"results" yaml:"results"`

	// Summary contains counts by severity level.
	Summary Summary `json:"summary" yaml:"summary"`
}

// HasErrors returns true if any check has SeverityError.
func (r *DoctorReport) HasErrors() bool {
	return r.Summary.Errors > 0
}

// HasWarnings returns true if any check has SeverityWarning.
func (r *DoctorReport) HasWarnings() bool {
	return r.Summary.Warnings > 0
}

// ExitCode returns ExitErrors when any check failed, ExitWarnings when any
// warned, and ExitClean otherwise.
func (r *DoctorReport) ExitCode() int {
	switch {
	case r.HasErrors():
		return ExitErrors
	case r.HasWarnings():
		return ExitWarnings
	default:
		return ExitClean
	}
}
