// Package query is the top-level pipeline: route a question down the
// semantic or structured path, fan candidates out to summarization, and
// assemble the outcome. Ask never returns an error; every failure maps to
// a status code so callers always get a well-formed response.
package query

import (
	"context"

	"go.uber.org/zap"

	"github.com/matkb-cloud/matkb/internal/domain"
	"github.com/matkb-cloud/matkb/internal/logger"
	"github.com/matkb-cloud/matkb/internal/metrics"
	"github.com/matkb-cloud/matkb/internal/usecase/retrieve"
)

// Mode selects the candidate-selection path.
type Mode string

const (
	// ModeSemantic retrieves chunks by vector similarity.
	ModeSemantic Mode = "semantic"
	// ModeStructured plans and executes relational table queries.
	ModeStructured Mode = "structured"
)

// Request is one knowledgebase question.
type Request struct {
	Question string
	Mode     Mode // empty defaults to semantic
	TopK     int  // semantic path only; 0 takes the configured default
}

// Service runs the pipeline.
type Service struct {
	retriever   Retriever
	planner     Planner
	executor    Executor
	summarizer  Summarizer
	meta        MetadataReader
	defaultTopK int
	maxTopK     int
}

// New creates the pipeline service.
func New(
	retriever Retriever,
	planner Planner,
	executor Executor,
	summarizer Summarizer,
	meta MetadataReader,
	defaultTopK, maxTopK int,
) *Service {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	if maxTopK <= 0 {
		maxTopK = 20
	}
	return &Service{
		retriever:   retriever,
		planner:     planner,
		executor:    executor,
		summarizer:  summarizer,
		meta:        meta,
		defaultTopK: defaultTopK,
		maxTopK:     maxTopK,
	}
}

// Ask answers one question. The outcome is always well-formed: failures
// come back as StatusOtherError, empty candidate sets as StatusNoResults,
// and candidate sets that produce no output as StatusNoLiterature.
func (s *Service) Ask(ctx context.Context, req Request) domain.Outcome {
	log := logger.FromContext(ctx)

	mode := req.Mode
	if mode == "" {
		mode = ModeSemantic
	}

	out := s.ask(ctx, mode, req)
	metrics.QueriesTotal.WithLabelValues(string(mode), out.Code.String()).Inc()
	log.Info("query answered",
		zap.String("mode", string(mode)),
		zap.String("code", out.Code.String()),
		zap.Int("summaries", len(out.Summaries)))
	return out
}

func (s *Service) ask(ctx context.Context, mode Mode, req Request) domain.Outcome {
	log := logger.FromContext(ctx)

	var candidates []domain.DocumentCandidate
	var err error
	switch mode {
	case ModeSemantic:
		candidates, err = s.semanticCandidates(ctx, req.Question, s.clampTopK(req.TopK))
	case ModeStructured:
		candidates, err = s.structuredCandidates(ctx, req.Question)
	default:
		log.Warn("unknown query mode", zap.String("mode", string(mode)))
		return domain.Outcome{Code: domain.StatusOtherError}
	}
	if err != nil {
		log.Error("candidate selection failed", zap.Error(err))
		return domain.Outcome{Code: domain.StatusOtherError}
	}
	if len(candidates) == 0 {
		return domain.Outcome{Code: domain.StatusNoResults}
	}

	results := s.summarizer.Run(ctx, req.Question, candidates)
	if len(results) == 0 {
		return domain.Outcome{Code: domain.StatusNoLiterature}
	}

	summaries := make([]string, len(results))
	for i, r := range results {
		summaries[i] = r.Text
	}
	return domain.Outcome{Summaries: summaries, Code: domain.StatusSuccess}
}

// semanticCandidates retrieves chunks, collapses them to distinct document
// ids in rank order, and fills candidate rows from the metadata table.
// Metadata failures degrade to rowless candidates.
func (s *Service) semanticCandidates(ctx context.Context, question string, k int) ([]domain.DocumentCandidate, error) {
	chunks, err := s.retriever.Retrieve(ctx, question, k)
	if err != nil {
		return nil, err
	}
	ids := retrieve.DocumentIDs(chunks)
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.meta.MetadataByDocIDs(ctx, ids)
	if err != nil {
		logger.FromContext(ctx).Warn("metadata lookup failed", zap.Error(err))
		rows = nil
	}

	candidates := make([]domain.DocumentCandidate, len(ids))
	for i, id := range ids {
		candidates[i] = domain.DocumentCandidate{DocID: id, Row: rows[id]}
	}
	return candidates, nil
}

func (s *Service) structuredCandidates(ctx context.Context, question string) ([]domain.DocumentCandidate, error) {
	queries, err := s.planner.Translate(ctx, question)
	if err != nil {
		return nil, err
	}
	return s.executor.Execute(ctx, queries)
}

func (s *Service) clampTopK(k int) int {
	if k <= 0 {
		return s.defaultTopK
	}
	if k > s.maxTopK {
		return s.maxTopK
	}
	return k
}
