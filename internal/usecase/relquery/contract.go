package relquery

import (
	"context"

	"github.com/matkb-cloud/matkb/internal/domain/filter"
)

// Store executes filter queries against the relational metadata database.
type Store interface {
	Query(ctx context.Context, table string, pred filter.Predicate, page, pageSize int) ([]map[string]any, error)
	MetadataByDocIDs(ctx context.Context, ids []string) (map[string]map[string]any, error)
}
