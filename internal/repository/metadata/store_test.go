package metadata

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/matkb-cloud/matkb/internal/domain/filter"
)

func testConfig() Config {
	return Config{
		DocIDField:     "doi",
		MetadataTable:  "papers",
		FulltextTable:  "paper_texts",
		FulltextColumn: "main_text",
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "meta.db"), testConfig())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ddl := []string{
		`CREATE TABLE polymers (doi TEXT, polymer_type TEXT, year INTEGER, tensile_strength REAL)`,
		`CREATE TABLE papers (doi TEXT, title TEXT, authors TEXT, journal TEXT, year INTEGER)`,
		`CREATE TABLE paper_texts (doi TEXT, main_text TEXT)`,
	}
	for _, q := range ddl {
		if _, err := s.db.Exec(q); err != nil {
			t.Fatalf("ddl: %v", err)
		}
	}

	seed := []string{
		`INSERT INTO polymers VALUES ('10.1/a', 'epoxy', 2021, 80.5)`,
		`INSERT INTO polymers VALUES ('10.1/b', 'polyimide', 2019, 120.0)`,
		`INSERT INTO polymers VALUES ('10.1/c', 'epoxy', 2017, 65.0)`,
		`INSERT INTO papers VALUES ('10.1/a', 'Epoxy networks', 'Ito; Chen', 'Polymer', 2021)`,
		`INSERT INTO papers VALUES ('10.1/b', 'Polyimide films', 'Park', 'Macromolecules', 2019)`,
		`INSERT INTO paper_texts VALUES ('10.1/a', 'Full text of the epoxy study.')`,
	}
	for _, q := range seed {
		if _, err := s.db.Exec(q); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return s
}

func TestQueryLeafPredicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	pred, err := filter.NewLeaf("polymer_type", filter.OpEq, "epoxy")
	if err != nil {
		t.Fatalf("NewLeaf: %v", err)
	}

	rows, err := s.Query(ctx, "polymers", pred, 0, 100)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	for _, row := range rows {
		if row["polymer_type"] != "epoxy" {
			t.Errorf("row polymer_type = %v", row["polymer_type"])
		}
	}
}

func TestQueryCompositePredicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	epoxy, _ := filter.NewLeaf("polymer_type", filter.OpLike, "epox")
	recent, _ := filter.NewLeaf("year", filter.OpGt, 2018)
	pred, err := filter.NewGroup(filter.GroupAnd, epoxy, recent)
	if err != nil {
		t.Fatalf("NewGroup: %v", err)
	}

	rows, err := s.Query(ctx, "polymers", pred, 0, 100)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0]["doi"] != "10.1/a" {
		t.Errorf("doi = %v, want 10.1/a", rows[0]["doi"])
	}
}

func TestQueryInPredicate(t *testing.T) {
	s := openTestStore(t)

	pred, err := filter.NewLeaf("doi", filter.OpIn, []string{"10.1/a", "10.1/c"})
	if err != nil {
		t.Fatalf("NewLeaf: %v", err)
	}
	rows, err := s.Query(context.Background(), "polymers", pred, 0, 100)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("rows = %d, want 2", len(rows))
	}
}

func TestQueryZeroPredicateScansAll(t *testing.T) {
	s := openTestStore(t)

	rows, err := s.Query(context.Background(), "polymers", filter.Predicate{}, 0, 100)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("rows = %d, want 3", len(rows))
	}
}

func TestQueryPagination(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Query(ctx, "polymers", filter.Predicate{}, 0, 2)
	if err != nil {
		t.Fatalf("Query page 0: %v", err)
	}
	second, err := s.Query(ctx, "polymers", filter.Predicate{}, 1, 2)
	if err != nil {
		t.Fatalf("Query page 1: %v", err)
	}
	if len(first) != 2 || len(second) != 1 {
		t.Errorf("page sizes = %d, %d; want 2, 1", len(first), len(second))
	}
}

func TestQueryRejectsBadIdentifiers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Query(ctx, "polymers; DROP TABLE papers", filter.Predicate{}, 0, 10); err == nil {
		t.Error("want error for invalid table name")
	}

	injected, err := filter.NewLeaf("year) OR (1=1", filter.OpEq, 1)
	if err != nil {
		t.Fatalf("NewLeaf: %v", err)
	}
	if _, err := s.Query(ctx, "polymers", injected, 0, 10); err == nil {
		t.Error("want error for invalid field name")
	}
}

func TestMetadataByDocIDs(t *testing.T) {
	s := openTestStore(t)

	meta, err := s.MetadataByDocIDs(context.Background(), []string{"10.1/a", "10.1/zz"})
	if err != nil {
		t.Fatalf("MetadataByDocIDs: %v", err)
	}
	if len(meta) != 1 {
		t.Fatalf("meta = %d entries, want 1", len(meta))
	}
	row, ok := meta["10.1/a"]
	if !ok {
		t.Fatal("missing 10.1/a")
	}
	if row["title"] != "Epoxy networks" {
		t.Errorf("title = %v", row["title"])
	}
}

func TestFulltext(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	text, err := s.Fulltext(ctx, "10.1/a")
	if err != nil {
		t.Fatalf("Fulltext: %v", err)
	}
	if text != "Full text of the epoxy study." {
		t.Errorf("text = %q", text)
	}

	// absence is empty, not an error
	text, err = s.Fulltext(ctx, "10.1/b")
	if err != nil {
		t.Fatalf("Fulltext missing: %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
}
