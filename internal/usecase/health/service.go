package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates every component failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type namedCheck struct {
	name string
	p    Pinger
}

// Service coordinates health checks.
type Service struct {
	checks []namedCheck
}

// New creates a Service with no checks.
func New() *Service {
	return &Service{}
}

// Add registers a component check under name. Nil pingers are ignored.
func (s *Service) Add(name string, p Pinger) *Service {
	if p != nil {
		s.checks = append(s.checks, namedCheck{name: name, p: p})
	}
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.checks))
	failed := 0

	for _, c := range s.checks {
		if err := c.p.Ping(ctx); err != nil {
			checks[c.name] = CheckError
			failed++
			continue
		}
		checks[c.name] = CheckOK
	}

	status := Healthy
	switch {
	case failed > 0 && failed == len(s.checks):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
