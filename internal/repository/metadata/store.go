// Package metadata is the relational side of the knowledgebase: paper
// metadata tables queried by filter predicates, plus the fulltext table.
// Backed by SQLite.
package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/matkb-cloud/matkb/internal/domain/filter"
)

var identRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Config names the canonical tables and columns of the metadata database.
type Config struct {
	// DocIDField is the document identifier column shared by all keyed
	// tables, typically "doi".
	DocIDField string
	// MetadataTable holds one row of bibliographic metadata per document.
	MetadataTable string
	// FulltextTable maps document ids to extracted fulltext.
	FulltextTable string
	// FulltextColumn is the fulltext payload column.
	FulltextColumn string
}

// Store executes filter queries and lookups against the metadata database.
type Store struct {
	db  *sql.DB
	cfg Config
}

// NewStore opens (or creates) the SQLite database at path with WAL mode.
func NewStore(path string, cfg Config) (*Store, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return &Store{db: db, cfg: cfg}, nil
}

func validateConfig(cfg Config) error {
	for name, v := range map[string]string{
		"doc id field":    cfg.DocIDField,
		"metadata table":  cfg.MetadataTable,
		"fulltext table":  cfg.FulltextTable,
		"fulltext column": cfg.FulltextColumn,
	} {
		if !identRe.MatchString(v) {
			return fmt.Errorf("invalid %s %q", name, v)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks database availability.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Query runs a filter predicate against one table, returning one page of
// rows as column-name maps. A zero predicate scans the whole table.
// Pages are zero-based.
func (s *Store) Query(
	ctx context.Context,
	table string,
	pred filter.Predicate,
	page, pageSize int,
) ([]map[string]any, error) {
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	if page < 0 {
		page = 0
	}

	where, args, err := buildWhere(pred)
	if err != nil {
		return nil, fmt.Errorf("build filter for %s: %w", table, err)
	}

	q := "SELECT * FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	q += " LIMIT ? OFFSET ?"
	args = append(args, pageSize, page*pageSize)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("scan %s rows: %w", table, err)
	}
	return out, nil
}

// MetadataByDocIDs fetches metadata rows for the given document ids,
// keyed by id. Ids without a metadata row are absent from the result.
func (s *Store) MetadataByDocIDs(ctx context.Context, ids []string) (map[string]map[string]any, error) {
	if len(ids) == 0 {
		return map[string]map[string]any{}, nil
	}

	placeholders := ""
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args[i] = id
	}

	q := fmt.Sprintf("SELECT * FROM %s WHERE %s IN (%s)",
		s.cfg.MetadataTable, s.cfg.DocIDField, placeholders)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("metadata lookup: %w", err)
	}
	defer rows.Close()

	scanned, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("scan metadata rows: %w", err)
	}

	out := make(map[string]map[string]any, len(scanned))
	for _, row := range scanned {
		if id, ok := row[s.cfg.DocIDField].(string); ok && id != "" {
			out[id] = row
		}
	}
	return out, nil
}

// Fulltext returns the stored fulltext for a document id, or empty when
// the document has no fulltext row. Absence is not an error.
func (s *Store) Fulltext(ctx context.Context, docID string) (string, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 1",
		s.cfg.FulltextColumn, s.cfg.FulltextTable, s.cfg.DocIDField)

	var text sql.NullString
	err := s.db.QueryRowContext(ctx, q, docID).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("fulltext lookup %s: %w", docID, err)
	}
	return text.String, nil
}

// scanRows reads all rows into column-name maps. BLOB/text columns come
// back from the driver as []byte and are normalized to string.
func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
