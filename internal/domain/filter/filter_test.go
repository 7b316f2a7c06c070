package filter

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewLeaf(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		op      Operator
		wantErr error
	}{
		{name: "valid eq", field: "year", op: OpEq},
		{name: "valid in", field: "journal", op: OpIn},
		{name: "empty field", field: "", op: OpEq, wantErr: ErrEmptyField},
		{name: "bad operator", field: "year", op: Operator("between"), wantErr: ErrInvalidOperator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewLeaf(tt.field, tt.op, 2020)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !p.IsLeaf() || p.IsGroup() || p.IsZero() {
				t.Fatalf("predicate shape wrong: %+v", p)
			}
			if got := p.Leaf().Field; got != tt.field {
				t.Errorf("field = %q, want %q", got, tt.field)
			}
		})
	}
}

func TestNewGroupDropsZeroChildren(t *testing.T) {
	leaf, err := NewLeaf("year", OpGt, 2015)
	if err != nil {
		t.Fatalf("NewLeaf: %v", err)
	}

	p, err := NewGroup(GroupAnd, Predicate{}, leaf, Predicate{})
	if err != nil {
		t.Fatalf("NewGroup: %v", err)
	}
	if got := len(p.Group().Children); got != 1 {
		t.Errorf("children = %d, want 1", got)
	}

	if _, err := NewGroup(GroupOr); !errors.Is(err, ErrEmptyGroup) {
		t.Errorf("empty group err = %v, want ErrEmptyGroup", err)
	}
	if _, err := NewGroup(GroupOperator("xor"), leaf); !errors.Is(err, ErrInvalidGroupOperator) {
		t.Errorf("bad group op err = %v, want ErrInvalidGroupOperator", err)
	}
}

func TestFromJSON(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		check   func(t *testing.T, p Predicate)
		wantErr bool
	}{
		{
			name:    "typed leaf",
			payload: `{"type":1,"field":"polymer_type","operator":"like","value":"epoxy"}`,
			check: func(t *testing.T, p Predicate) {
				if !p.IsLeaf() {
					t.Fatalf("want leaf, got %+v", p)
				}
				leaf := p.Leaf()
				if leaf.Field != "polymer_type" || leaf.Op != OpLike || leaf.Value != "epoxy" {
					t.Errorf("leaf = %+v", leaf)
				}
			},
		},
		{
			name: "typed composite",
			payload: `{"type":2,"groupOperator":"or","sub":[
				{"type":1,"field":"year","operator":"gt","value":2020},
				{"type":1,"field":"year","operator":"eq","value":2018}]}`,
			check: func(t *testing.T, p Predicate) {
				if !p.IsGroup() || p.Group().Op != GroupOr {
					t.Fatalf("want or-group, got %+v", p)
				}
				if got := len(p.Group().Children); got != 2 {
					t.Errorf("children = %d, want 2", got)
				}
			},
		},
		{
			name:    "untyped bare leaf",
			payload: `{"field":"journal","operator":"eq","value":"Macromolecules"}`,
			check: func(t *testing.T, p Predicate) {
				if !p.IsLeaf() {
					t.Fatalf("want leaf, got %+v", p)
				}
			},
		},
		{
			name: "list folds into implicit and",
			payload: `[{"field":"year","operator":"gt","value":2019},
				{"field":"polymer_type","operator":"like","value":"polyimide"}]`,
			check: func(t *testing.T, p Predicate) {
				if !p.IsGroup() || p.Group().Op != GroupAnd {
					t.Fatalf("want and-group, got %+v", p)
				}
			},
		},
		{
			name:    "single-element list unwraps",
			payload: `[{"field":"year","operator":"lt","value":2000}]`,
			check: func(t *testing.T, p Predicate) {
				if !p.IsLeaf() {
					t.Fatalf("want leaf, got %+v", p)
				}
			},
		},
		{
			name:    "operator aliases",
			payload: `{"field":"year","operator":">","value":2020}`,
			check: func(t *testing.T, p Predicate) {
				if p.Leaf().Op != OpGt {
					t.Errorf("op = %q, want gt", p.Leaf().Op)
				}
			},
		},
		{
			name:    "null is zero predicate",
			payload: `null`,
			check: func(t *testing.T, p Predicate) {
				if !p.IsZero() {
					t.Errorf("want zero predicate, got %+v", p)
				}
			},
		},
		{
			name:    "empty object is zero predicate",
			payload: `{}`,
			check: func(t *testing.T, p Predicate) {
				if !p.IsZero() {
					t.Errorf("want zero predicate, got %+v", p)
				}
			},
		},
		{
			name:    "composite defaults to and",
			payload: `{"sub":[{"field":"year","operator":"eq","value":2021}]}`,
			check: func(t *testing.T, p Predicate) {
				if !p.IsGroup() || p.Group().Op != GroupAnd {
					t.Fatalf("want and-group, got %+v", p)
				}
			},
		},
		{
			name:    "unknown operator",
			payload: `{"field":"year","operator":"between","value":2020}`,
			wantErr: true,
		},
		{
			name:    "unrecognized shape",
			payload: `{"foo":"bar"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FromJSON(json.RawMessage(tt.payload))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("want error, got %+v", p)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromJSON: %v", err)
			}
			tt.check(t, p)
		})
	}
}

func TestFromJSONNested(t *testing.T) {
	payload := `{"type":2,"groupOperator":"and","sub":[
		{"type":1,"field":"polymer_type","operator":"like","value":"epoxy"},
		{"type":2,"groupOperator":"or","sub":[
			{"type":1,"field":"year","operator":"gt","value":2018},
			{"type":1,"field":"journal","operator":"eq","value":"Polymer"}]}]}`

	p, err := FromJSON(json.RawMessage(payload))
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if !p.IsGroup() {
		t.Fatalf("want group, got %+v", p)
	}
	children := p.Group().Children
	if len(children) != 2 {
		t.Fatalf("children = %d, want 2", len(children))
	}
	if !children[1].IsGroup() || children[1].Group().Op != GroupOr {
		t.Errorf("nested child = %+v, want or-group", children[1])
	}
}
