// Package relquery executes planned table queries and merges their
// results into one deduplicated candidate list.
package relquery

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/matkb-cloud/matkb/internal/config"
	"github.com/matkb-cloud/matkb/internal/domain"
	"github.com/matkb-cloud/matkb/internal/logger"
)

// Service is the relational query executor.
type Service struct {
	store      Store
	docIDField string
	pageSize   int
	synthetic  map[string]string // table -> synthetic key field
}

// New creates an executor. Tables listed with a synthetic key produce
// "<table>_<key>" candidates instead of document ids.
func New(store Store, meta config.MetadataConfig) *Service {
	synthetic := make(map[string]string)
	for _, t := range meta.Tables {
		if t.SyntheticKey != "" {
			synthetic[t.Name] = t.SyntheticKey
		}
	}
	return &Service{
		store:      store,
		docIDField: meta.DocIDField,
		pageSize:   meta.PageSize,
		synthetic:  synthetic,
	}
}

// Execute runs every table query and merges the per-table results.
// Identifier sets are unioned preserving first-seen order; row maps merge
// with later-table-wins precedence on key collision — a deliberate,
// documented choice, not an accident of map iteration. Candidates with a
// real document id additionally get canonical metadata merged in
// (metadata fields override inline row fields).
func (s *Service) Execute(ctx context.Context, queries []domain.TableQuery) ([]domain.DocumentCandidate, error) {
	log := logger.FromContext(ctx)

	var order []string
	rows := make(map[string]map[string]any)
	syntheticIDs := make(map[string]bool)

	for _, q := range queries {
		page := 0
		for {
			batch, err := s.store.Query(ctx, q.Table, q.Filter, page, s.pageSize)
			if err != nil {
				return nil, fmt.Errorf("query table %s: %w", q.Table, err)
			}
			for _, row := range batch {
				id, synthetic := s.candidateID(q.Table, row)
				if id == "" {
					continue
				}
				if _, seen := rows[id]; !seen {
					order = append(order, id)
					rows[id] = row
					syntheticIDs[id] = synthetic
					continue
				}
				// later table wins on collision
				rows[id] = row
			}
			if len(batch) < s.pageSize {
				break
			}
			page++
		}
		log.Debug("executed table query",
			zap.String("table", q.Table), zap.Int("candidates", len(order)))
	}

	if len(order) == 0 {
		return nil, nil
	}

	s.mergeMetadata(ctx, order, rows, syntheticIDs)

	candidates := make([]domain.DocumentCandidate, len(order))
	for i, id := range order {
		candidates[i] = domain.DocumentCandidate{
			DocID:     id,
			Synthetic: syntheticIDs[id],
			Row:       rows[id],
		}
	}
	return candidates, nil
}

// candidateID extracts the identifier for one row: the document id column
// when present, otherwise the table's synthetic key.
func (s *Service) candidateID(table string, row map[string]any) (string, bool) {
	if v, ok := row[s.docIDField]; ok {
		if id := toString(v); id != "" {
			return id, false
		}
	}
	if keyField, ok := s.synthetic[table]; ok {
		if v, ok := row[keyField]; ok {
			if key := toString(v); key != "" {
				return table + "_" + key, true
			}
		}
	}
	return "", false
}

// mergeMetadata runs the secondary lookup against the canonical metadata
// table for all real document ids. Lookup failures degrade to inline row
// data only.
func (s *Service) mergeMetadata(
	ctx context.Context,
	order []string,
	rows map[string]map[string]any,
	syntheticIDs map[string]bool,
) {
	var docIDs []string
	for _, id := range order {
		if !syntheticIDs[id] {
			docIDs = append(docIDs, id)
		}
	}
	if len(docIDs) == 0 {
		return
	}

	meta, err := s.store.MetadataByDocIDs(ctx, docIDs)
	if err != nil {
		logger.FromContext(ctx).Warn("metadata lookup failed", zap.Error(err))
		return
	}
	for id, metaRow := range meta {
		merged := make(map[string]any, len(rows[id])+len(metaRow))
		for k, v := range rows[id] {
			merged[k] = v
		}
		for k, v := range metaRow {
			merged[k] = v
		}
		rows[id] = merged
	}
}

func toString(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	default:
		return fmt.Sprintf("%v", vv)
	}
}
