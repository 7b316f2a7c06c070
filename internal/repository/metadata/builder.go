package metadata

import (
	"fmt"
	"strings"

	"github.com/matkb-cloud/matkb/internal/domain/filter"
)

// buildWhere renders a predicate as a parameterized SQL fragment. Column
// names are validated against the identifier pattern; values always travel
// as placeholders. A zero predicate renders as an empty fragment.
func buildWhere(p filter.Predicate) (string, []any, error) {
	if p.IsZero() {
		return "", nil, nil
	}
	if p.IsLeaf() {
		return buildLeaf(p.Leaf())
	}

	group := p.Group()
	joiner := " AND "
	if group.Op == filter.GroupOr {
		joiner = " OR "
	}

	parts := make([]string, 0, len(group.Children))
	var args []any
	for _, child := range group.Children {
		frag, childArgs, err := buildWhere(child)
		if err != nil {
			return "", nil, err
		}
		if frag == "" {
			continue
		}
		parts = append(parts, frag)
		args = append(args, childArgs...)
	}
	if len(parts) == 0 {
		return "", nil, nil
	}
	return "(" + strings.Join(parts, joiner) + ")", args, nil
}

func buildLeaf(leaf filter.Leaf) (string, []any, error) {
	if !identRe.MatchString(leaf.Field) {
		return "", nil, fmt.Errorf("invalid field name %q", leaf.Field)
	}

	switch leaf.Op {
	case filter.OpEq:
		return leaf.Field + " = ?", []any{leaf.Value}, nil
	case filter.OpLt:
		return leaf.Field + " < ?", []any{leaf.Value}, nil
	case filter.OpGt:
		return leaf.Field + " > ?", []any{leaf.Value}, nil
	case filter.OpLike:
		return leaf.Field + " LIKE ?", []any{fmt.Sprintf("%%%v%%", leaf.Value)}, nil
	case filter.OpIn:
		vals := valueList(leaf.Value)
		if len(vals) == 0 {
			// empty membership set matches nothing
			return "1 = 0", nil, nil
		}
		placeholders := strings.Repeat("?,", len(vals))
		return leaf.Field + " IN (" + placeholders[:len(placeholders)-1] + ")", vals, nil
	default:
		return "", nil, fmt.Errorf("%w: %q", filter.ErrInvalidOperator, leaf.Op)
	}
}

// valueList normalizes an in-operator value to a flat argument slice.
func valueList(v any) []any {
	switch vv := v.(type) {
	case nil:
		return nil
	case []any:
		return vv
	case []string:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out
	case []int:
		out := make([]any, len(vv))
		for i, n := range vv {
			out[i] = n
		}
		return out
	case []float64:
		out := make([]any, len(vv))
		for i, f := range vv {
			out[i] = f
		}
		return out
	default:
		return []any{v}
	}
}
