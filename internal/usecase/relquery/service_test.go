package relquery

import (
	"context"
	"errors"
	"testing"

	"github.com/matkb-cloud/matkb/internal/config"
	"github.com/matkb-cloud/matkb/internal/domain"
	"github.com/matkb-cloud/matkb/internal/domain/filter"
)

// fakeStore serves canned pages per table.
type fakeStore struct {
	pages    map[string][][]map[string]any // table -> pages
	meta     map[string]map[string]any
	queryErr error
	metaErr  error
}

func (f *fakeStore) Query(
	_ context.Context, table string, _ filter.Predicate, page, _ int,
) ([]map[string]any, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	pages := f.pages[table]
	if page >= len(pages) {
		return nil, nil
	}
	return pages[page], nil
}

func (f *fakeStore) MetadataByDocIDs(_ context.Context, ids []string) (map[string]map[string]any, error) {
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	out := make(map[string]map[string]any)
	for _, id := range ids {
		if row, ok := f.meta[id]; ok {
			out[id] = row
		}
	}
	return out, nil
}

func testMeta() config.MetadataConfig {
	return config.MetadataConfig{
		DocIDField: "doi",
		PageSize:   100,
		Tables: []config.TableConfig{
			{Name: "polymers"},
			{Name: "formulations", SyntheticKey: "formulation_id"},
		},
	}
}

func TestExecuteUnionsAndDeduplicates(t *testing.T) {
	store := &fakeStore{
		pages: map[string][][]map[string]any{
			"polymers": {{
				{"doi": "10.1/a", "polymer_type": "epoxy"},
				{"doi": "10.1/b", "polymer_type": "polyimide"},
			}},
			"measurements": {{
				{"doi": "10.1/b", "viscosity": 0.4},
				{"doi": "10.1/c", "viscosity": 1.2},
			}},
		},
	}
	svc := New(store, testMeta())

	got, err := svc.Execute(context.Background(), []domain.TableQuery{
		{Table: "polymers"},
		{Table: "measurements"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("candidates = %d, want 3", len(got))
	}

	// first-seen order is preserved
	want := []string{"10.1/a", "10.1/b", "10.1/c"}
	for i, c := range got {
		if c.DocID != want[i] {
			t.Errorf("candidate %d = %q, want %q", i, c.DocID, want[i])
		}
		if c.Synthetic {
			t.Errorf("candidate %q marked synthetic", c.DocID)
		}
	}

	// later table wins on key collision
	if _, ok := got[1].Row["viscosity"]; !ok {
		t.Errorf("10.1/b row not replaced by later table: %+v", got[1].Row)
	}
}

func TestExecuteSyntheticKeys(t *testing.T) {
	store := &fakeStore{
		pages: map[string][][]map[string]any{
			"formulations": {{
				{"formulation_id": "F42", "viscosity": 0.7},
				{"formulation_id": "F43", "viscosity": 0.9},
			}},
		},
	}
	svc := New(store, testMeta())

	got, err := svc.Execute(context.Background(), []domain.TableQuery{{Table: "formulations"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("candidates = %d, want 2", len(got))
	}
	if got[0].DocID != "formulations_F42" || !got[0].Synthetic {
		t.Errorf("candidate = %+v, want synthetic formulations_F42", got[0])
	}
}

func TestExecutePaginates(t *testing.T) {
	// two full pages then a partial one
	meta := testMeta()
	meta.PageSize = 2
	full := func(a, b string) []map[string]any {
		return []map[string]any{{"doi": a}, {"doi": b}}
	}
	store := &fakeStore{
		pages: map[string][][]map[string]any{
			"polymers": {full("d1", "d2"), full("d3", "d4"), {{"doi": "d5"}}},
		},
	}
	svc := New(store, meta)

	got, err := svc.Execute(context.Background(), []domain.TableQuery{{Table: "polymers"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("candidates = %d, want 5 across pages", len(got))
	}
}

func TestExecuteMergesMetadata(t *testing.T) {
	store := &fakeStore{
		pages: map[string][][]map[string]any{
			"polymers": {{{"doi": "10.1/a", "polymer_type": "epoxy", "title": "inline title"}}},
		},
		meta: map[string]map[string]any{
			"10.1/a": {"title": "Canonical title", "journal": "Polymer"},
		},
	}
	svc := New(store, testMeta())

	got, err := svc.Execute(context.Background(), []domain.TableQuery{{Table: "polymers"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	row := got[0].Row
	if row["journal"] != "Polymer" {
		t.Errorf("journal not merged: %+v", row)
	}
	if row["title"] != "Canonical title" {
		t.Errorf("metadata should override inline fields, got %v", row["title"])
	}
	if row["polymer_type"] != "epoxy" {
		t.Errorf("inline field lost: %+v", row)
	}
}

func TestExecuteMetadataFailureDegrades(t *testing.T) {
	store := &fakeStore{
		pages:   map[string][][]map[string]any{"polymers": {{{"doi": "10.1/a"}}}},
		metaErr: errors.New("metadata table locked"),
	}
	svc := New(store, testMeta())

	got, err := svc.Execute(context.Background(), []domain.TableQuery{{Table: "polymers"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("candidates = %d, want 1", len(got))
	}
}

func TestExecuteQueryErrorPropagates(t *testing.T) {
	store := &fakeStore{queryErr: errors.New("no such table")}
	svc := New(store, testMeta())

	if _, err := svc.Execute(context.Background(), []domain.TableQuery{{Table: "polymers"}}); err == nil {
		t.Error("want error")
	}
}

func TestExecuteNoMatches(t *testing.T) {
	store := &fakeStore{pages: map[string][][]map[string]any{}}
	svc := New(store, testMeta())

	got, err := svc.Execute(context.Background(), []domain.TableQuery{{Table: "polymers"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("candidates = %d, want 0", len(got))
	}
}
