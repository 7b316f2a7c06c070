package filter

import (
	"encoding/json"
	"fmt"
)

// Wire type tags used by the historical filter format.
const (
	wireLeaf      = 1
	wireComposite = 2
)

// wireNode is the superset of all filter shapes the planner has ever
// produced: typed leaves, typed composites, and untyped variants of both.
type wireNode struct {
	Type          int             `json:"type"`
	Field         string          `json:"field"`
	Operator      string          `json:"operator"`
	Value         any             `json:"value"`
	GroupOperator string          `json:"groupOperator"`
	Sub           []json.RawMessage `json:"sub"`
}

// FromJSON normalizes a raw filter payload into a Predicate. Accepted
// shapes: a typed leaf {type:1,field,operator,value}, a typed composite
// {type:2,groupOperator,sub:[...]}, their untyped equivalents (detected by
// the presence of "field" vs "sub"), a bare list (folded into an implicit
// AND composite), and null/empty (the zero Predicate).
func FromJSON(raw json.RawMessage) (Predicate, error) {
	trimmed := trimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" || string(trimmed) == "{}" {
		return Predicate{}, nil
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Predicate{}, fmt.Errorf("decode filter list: %w", err)
		}
		if len(items) == 0 {
			return Predicate{}, nil
		}
		children := make([]Predicate, 0, len(items))
		for i, item := range items {
			child, err := FromJSON(item)
			if err != nil {
				return Predicate{}, fmt.Errorf("filter list item %d: %w", i, err)
			}
			if !child.IsZero() {
				children = append(children, child)
			}
		}
		if len(children) == 0 {
			return Predicate{}, nil
		}
		if len(children) == 1 {
			return children[0], nil
		}
		return NewGroup(GroupAnd, children...)
	}

	var node wireNode
	if err := json.Unmarshal(trimmed, &node); err != nil {
		return Predicate{}, fmt.Errorf("decode filter node: %w", err)
	}

	switch {
	case node.Type == wireComposite || (node.Type == 0 && len(node.Sub) > 0):
		op := GroupOperator(node.GroupOperator)
		if op == "" {
			op = GroupAnd
		}
		children := make([]Predicate, 0, len(node.Sub))
		for i, sub := range node.Sub {
			child, err := FromJSON(sub)
			if err != nil {
				return Predicate{}, fmt.Errorf("filter sub %d: %w", i, err)
			}
			if !child.IsZero() {
				children = append(children, child)
			}
		}
		if len(children) == 0 {
			return Predicate{}, nil
		}
		return NewGroup(op, children...)
	case node.Type == wireLeaf || node.Field != "":
		op, err := normalizeOperator(node.Operator)
		if err != nil {
			return Predicate{}, err
		}
		return NewLeaf(node.Field, op, node.Value)
	default:
		return Predicate{}, fmt.Errorf("unrecognized filter shape: %s", compact(trimmed))
	}
}

// normalizeOperator maps wire operator spellings onto the canonical set.
func normalizeOperator(raw string) (Operator, error) {
	switch raw {
	case "eq", "=", "==":
		return OpEq, nil
	case "lt", "<":
		return OpLt, nil
	case "gt", ">":
		return OpGt, nil
	case "like", "contains":
		return OpLike, nil
	case "in":
		return OpIn, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOperator, raw)
	}
}

func trimSpace(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && isSpace(b[start]) {
		start++
	}
	for end > start && isSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func compact(b []byte) string {
	if len(b) > 80 {
		return string(b[:80]) + "..."
	}
	return string(b)
}
