// Package selfcheck is a local readiness probe run before the scheduler
// starts. None of its checks touch the network.
package selfcheck

import (
	"fmt"
	"strings"
	"time"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// CheckResult represents the result of an individual check
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Check inspects one collaborator
type Check func() CheckResult

// Report is the rolled up result of all checks
type Report struct {
	Status    string                 `json:"status"`
	Timestamp int64                  `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
	Issues    []string               `json:"issues,omitempty"`
}

// Ready is true only when no check reported an issue. Degraded and
// unhealthy results both block startup.
func (r Report) Ready() bool {
	return len(r.Issues) == 0
}

type namedCheck struct {
	name  string
	check Check
}

// Checker runs checks in the order they were added
type Checker struct {
	checks []namedCheck
}

func New() *Checker {
	return &Checker{}
}

func (c *Checker) AddCheck(name string, check Check) {
	c.checks = append(c.checks, namedCheck{name: name, check: check})
}

// Run executes every check. Any non-healthy result contributes a human
// readable issue line.
func (c *Checker) Run() Report {
	report := Report{
		Timestamp: time.Now().Unix(),
		Checks:    make(map[string]CheckResult, len(c.checks)),
	}

	anyUnhealthy := false
	anyDegraded := false
	for _, nc := range c.checks {
		result := nc.check()
		report.Checks[nc.name] = result

		switch result.Status {
		case StatusHealthy:
			continue
		case StatusDegraded:
			anyDegraded = true
		default:
			anyUnhealthy = true
		}
		report.Issues = append(report.Issues, fmt.Sprintf("%s: %s", nc.name, result.Message))
	}

	switch {
	case anyUnhealthy:
		report.Status = StatusUnhealthy
	case anyDegraded:
		report.Status = StatusDegraded
	default:
		report.Status = StatusHealthy
	}

	return report
}

// Common checks

type imageSource interface {
	Available() bool
	HasFallback() bool
}

// ImageSourceCheck is degraded when the store client is missing but a
// fallback list exists, unhealthy when neither is available.
func ImageSourceCheck(src imageSource) Check {
	return func() CheckResult {
		switch {
		case src.Available():
			return CheckResult{Status: StatusHealthy, Message: "Image store client ready"}
		case src.HasFallback():
			return CheckResult{Status: StatusDegraded, Message: "Image store not configured, using fallback image list"}
		default:
			return CheckResult{Status: StatusUnhealthy, Message: "No image store configured and no fallback images listed"}
		}
	}
}

type captionGenerator interface {
	Available() bool
}

// CaptionCheck is degraded when no model client exists since fallback
// captions still let a run complete.
func CaptionCheck(gen captionGenerator) Check {
	return func() CheckResult {
		if gen.Available() {
			return CheckResult{Status: StatusHealthy, Message: "Caption model ready"}
		}
		return CheckResult{Status: StatusDegraded, Message: "Caption model not configured, fallback captions will be used"}
	}
}

type publisher interface {
	Issues() []string
}

// PublisherCheck is unhealthy when publish credentials are missing or left
// at placeholder values.
func PublisherCheck(p publisher) Check {
	return func() CheckResult {
		if issues := p.Issues(); len(issues) > 0 {
			return CheckResult{Status: StatusUnhealthy, Message: strings.Join(issues, "; ")}
		}
		return CheckResult{Status: StatusHealthy, Message: "Instagram credentials present"}
	}
}

// ConfigFileCheck is degraded when no settings document was found.
func ConfigFileCheck(source string) Check {
	return func() CheckResult {
		if source == "" {
			return CheckResult{Status: StatusDegraded, Message: "No config file found, using environment only"}
		}
		return CheckResult{Status: StatusHealthy, Message: "Loaded " + source}
	}
}
