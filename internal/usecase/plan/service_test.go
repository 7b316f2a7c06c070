package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/matkb-cloud/matkb/internal/config"
	"github.com/matkb-cloud/matkb/internal/domain"
	"github.com/matkb-cloud/matkb/internal/domain/filter"
)

type fakeGenerator struct {
	response string
	err      error
	gotUser  string
}

func (f *fakeGenerator) Generate(_ context.Context, _, userPrompt string) (string, error) {
	f.gotUser = userPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testTables() []config.TableConfig {
	return []config.TableConfig{
		{Name: "polymers", Description: "polymer records with DOI"},
		{Name: "formulations", Description: "formulation measurements", SyntheticKey: "formulation_id"},
	}
}

func newService(gen Generator) *Service {
	return New(gen, testTables(), "polymers")
}

func TestTranslateTablesShape(t *testing.T) {
	gen := &fakeGenerator{response: `{
		"tables": [
			{"table_name": "polymers",
			 "filters": {"type": 1, "field": "polymer_type", "operator": "like", "value": "epoxy"}},
			{"table_name": "formulations",
			 "filters": {"type": 2, "groupOperator": "and", "sub": [
				{"type": 1, "field": "temperature", "operator": "eq", "value": 25}]}}
		]
	}`}

	queries, err := newService(gen).Translate(context.Background(), "epoxy viscosity at 25C")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(queries) != 2 {
		t.Fatalf("queries = %d, want 2", len(queries))
	}
	if queries[0].Table != "polymers" || !queries[0].Filter.IsLeaf() {
		t.Errorf("first query = %+v", queries[0])
	}
	if queries[1].Table != "formulations" || !queries[1].Filter.IsGroup() {
		t.Errorf("second query = %+v", queries[1])
	}
}

func TestTranslateStripsCodeFences(t *testing.T) {
	gen := &fakeGenerator{response: "```json\n" + `{
		"tables": [{"table_name": "polymers",
			"filters": {"type": 1, "field": "year", "operator": "gt", "value": 2020}}]
	}` + "\n```"}

	queries, err := newService(gen).Translate(context.Background(), "recent polymers")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(queries) != 1 || queries[0].Filter.Leaf().Op != filter.OpGt {
		t.Errorf("queries = %+v", queries)
	}
}

func TestTranslateBareFilterTargetsDefaultTable(t *testing.T) {
	gen := &fakeGenerator{response: `{"field": "polymer_type", "operator": "like", "value": "polyimide"}`}

	queries, err := newService(gen).Translate(context.Background(), "polyimides")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(queries) != 1 {
		t.Fatalf("queries = %d, want 1", len(queries))
	}
	if queries[0].Table != "polymers" {
		t.Errorf("table = %q, want default", queries[0].Table)
	}
}

func TestTranslateFilterListFoldsToAnd(t *testing.T) {
	gen := &fakeGenerator{response: `[
		{"field": "year", "operator": "gt", "value": 2019},
		{"field": "polymer_type", "operator": "like", "value": "epoxy"}
	]`}

	queries, err := newService(gen).Translate(context.Background(), "recent epoxies")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(queries) != 1 {
		t.Fatalf("queries = %d, want 1", len(queries))
	}
	pred := queries[0].Filter
	if !pred.IsGroup() || pred.Group().Op != filter.GroupAnd {
		t.Errorf("filter = %+v, want and-group", pred)
	}
}

func TestTranslateGeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("api down")}

	_, err := newService(gen).Translate(context.Background(), "q")
	if !errors.Is(err, domain.ErrTranslation) {
		t.Errorf("err = %v, want ErrTranslation", err)
	}
}

func TestTranslateMalformedJSON(t *testing.T) {
	gen := &fakeGenerator{response: "I could not build a query for that."}

	_, err := newService(gen).Translate(context.Background(), "q")
	if !errors.Is(err, domain.ErrTranslation) {
		t.Errorf("err = %v, want ErrTranslation", err)
	}
}

func TestTranslateMissingTableName(t *testing.T) {
	gen := &fakeGenerator{response: `{"tables": [{"filters": {"field": "year", "operator": "eq", "value": 2020}}]}`}

	_, err := newService(gen).Translate(context.Background(), "q")
	if !errors.Is(err, domain.ErrTranslation) {
		t.Errorf("err = %v, want ErrTranslation", err)
	}
}
