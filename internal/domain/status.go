package domain

// StatusCode is the machine-readable outcome of a knowledgebase query.
// The numeric values are part of the API contract and must not change.
type StatusCode int

const (
	// StatusSuccess means at least one summary or digest was produced.
	StatusSuccess StatusCode = 0
	// StatusNoResults means retrieval or the relational query matched nothing.
	StatusNoResults StatusCode = 1
	// StatusNoLiterature means candidates existed but none yielded a summary.
	StatusNoLiterature StatusCode = 2
	// StatusReportFailed is reserved for downstream report generation.
	// Nothing in this service emits it.
	StatusReportFailed StatusCode = 3
	// StatusOtherError covers translation, provider and storage failures.
	StatusOtherError StatusCode = 4
)

// String returns the snake_case name used in logs.
func (c StatusCode) String() string {
	switch c {
	case StatusSuccess:
		return "success"
	case StatusNoResults:
		return "no_results"
	case StatusNoLiterature:
		return "no_literature"
	case StatusReportFailed:
		return "report_failed"
	case StatusOtherError:
		return "other_error"
	default:
		return "unknown"
	}
}

// Outcome is the assembled result of a query: ordered summary texts plus
// the status code. An Outcome is always well-formed, even on failure paths.
type Outcome struct {
	Summaries []string
	Code      StatusCode
}
