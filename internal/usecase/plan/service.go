// Package plan translates natural-language requests into table queries
// via the generation API, normalizing every filter shape the model has
// historically produced.
package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/matkb-cloud/matkb/internal/config"
	"github.com/matkb-cloud/matkb/internal/domain"
	"github.com/matkb-cloud/matkb/internal/domain/filter"
	"github.com/matkb-cloud/matkb/internal/logger"
	"github.com/matkb-cloud/matkb/internal/prompts"
)

// Service is the structured-query planner.
type Service struct {
	gen          Generator
	systemPrompt string
	defaultTable string
}

// New creates a planner over the configured table catalog. defaultTable
// receives bare filters that arrive without a tables wrapper.
func New(gen Generator, tables []config.TableConfig, defaultTable string) *Service {
	return &Service{
		gen:          gen,
		systemPrompt: prompts.DatabaseQuerySystem(tables),
		defaultTable: defaultTable,
	}
}

// wirePlan is the expected response shape.
type wirePlan struct {
	Tables []struct {
		TableName string          `json:"table_name"`
		Filters   json.RawMessage `json:"filters"`
	} `json:"tables"`
}

// Translate converts a natural-language request into table queries.
// All failures wrap domain.ErrTranslation; the caller maps that to the
// top-level error status.
func (s *Service) Translate(ctx context.Context, query string) ([]domain.TableQuery, error) {
	raw, err := s.gen.Generate(ctx, s.systemPrompt, prompts.DatabaseQueryUser(query))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTranslation, err)
	}

	payload := stripFences(raw)
	logger.FromContext(ctx).Debug("translated query", zap.String("plan", payload))

	var plan wirePlan
	if err := json.Unmarshal([]byte(payload), &plan); err == nil && len(plan.Tables) > 0 {
		queries := make([]domain.TableQuery, 0, len(plan.Tables))
		for i, t := range plan.Tables {
			if t.TableName == "" {
				return nil, fmt.Errorf("%w: tables[%d] has no table_name", domain.ErrTranslation, i)
			}
			pred, err := filter.FromJSON(t.Filters)
			if err != nil {
				return nil, fmt.Errorf("%w: tables[%d]: %w", domain.ErrTranslation, i, err)
			}
			queries = append(queries, domain.TableQuery{Table: t.TableName, Filter: pred})
		}
		return queries, nil
	}

	// legacy shape: a bare filter (object or list) without a tables
	// wrapper targets the default table
	pred, err := filter.FromJSON(json.RawMessage(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTranslation, err)
	}
	return []domain.TableQuery{{Table: s.defaultTable, Filter: pred}}, nil
}

// stripFences removes a ```json ... ``` wrapper, if present.
func stripFences(raw string) string {
	out := strings.TrimSpace(raw)
	if !strings.HasPrefix(out, "```") {
		return out
	}
	if nl := strings.IndexByte(out, '\n'); nl >= 0 {
		out = out[nl+1:]
	} else {
		out = strings.TrimPrefix(out, "```json")
		out = strings.TrimPrefix(out, "```")
	}
	out = strings.TrimSuffix(strings.TrimSpace(out), "```")
	return strings.TrimSpace(out)
}
