package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
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

// Service coordinates health checks.
type Service struct {
	search    SearchPinger
	database  DatabasePinger
	embedding EmbeddingChecker
	llm       LLMChecker
}

// New creates a Service. embedding and llm can be nil.
func New(search SearchPinger, database DatabasePinger, embedding EmbeddingChecker, llm LLMChecker) *Service {
	return &Service{search: search, database: database, embedding: embedding, llm: llm}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks["search"] = resultOf(s.search.Ping(ctx))
	checks["database"] = resultOf(s.database.Ping(ctx))

	if s.embedding != nil {
		checks["embedding"] = resultOf(s.embedding.HealthCheck(ctx))
	}
	if s.llm != nil {
		checks["llm"] = resultOf(s.llm.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

func resultOf(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
