package domain

import "github.com/matkb-cloud/matkb/internal/domain/filter"

// SummaryKind tells how a per-document result was produced.
type SummaryKind string

const (
	// SummaryFull is a model-generated summary of the document fulltext.
	SummaryFull SummaryKind = "full"
	// SummaryDigest is a digest assembled from metadata fields, used when
	// no fulltext is available.
	SummaryDigest SummaryKind = "digest"
	// SummaryFailed carries the human-readable error text of a generation
	// that exhausted its retries. It still counts as output.
	SummaryFailed SummaryKind = "failed"
)

// SummaryResult is the per-document outcome of the summarization fan-out.
type SummaryResult struct {
	DocID string
	Text  string
	Kind  SummaryKind
}

// DocumentCandidate is a document selected for summarization, either from
// semantic retrieval or from a relational query. Row holds whatever fields
// the relational path produced; it is nil on the pure semantic path until
// the metadata lookup fills it in. Synthetic candidates have no real
// document id and never get a fulltext probe.
type DocumentCandidate struct {
	DocID     string
	Synthetic bool
	Row       map[string]any
}

// TableQuery is one element of a structured query plan: a table name plus
// a filter predicate over its columns. A zero Filter means "no filter",
// which executes as an unconditioned scan of the table.
type TableQuery struct {
	Table  string
	Filter filter.Predicate
}
