// Package filter models relational filter predicates as a validated
// Leaf | Group tagged union, plus the boundary normalization that accepts
// every historically-produced wire shape exactly once.
package filter

import (
	"errors"
	"fmt"
)

// Operator is a leaf comparison operator.
type Operator string

const (
	// OpEq matches rows where field equals value.
	OpEq Operator = "eq"
	// OpLt matches rows where field is less than value.
	OpLt Operator = "lt"
	// OpGt matches rows where field is greater than value.
	OpGt Operator = "gt"
	// OpLike matches rows where field contains value as a substring.
	OpLike Operator = "like"
	// OpIn matches rows where field is one of the listed values.
	OpIn Operator = "in"
)

// GroupOperator combines child predicates.
type GroupOperator string

const (
	// GroupAnd requires all children to match.
	GroupAnd GroupOperator = "and"
	// GroupOr requires at least one child to match.
	GroupOr GroupOperator = "or"
)

var (
	// ErrInvalidOperator signals an unrecognized comparison operator.
	ErrInvalidOperator = errors.New("invalid filter operator")
	// ErrInvalidGroupOperator signals an unrecognized group operator.
	ErrInvalidGroupOperator = errors.New("invalid group operator")
	// ErrEmptyField signals a leaf without a field name.
	ErrEmptyField = errors.New("filter field must not be empty")
	// ErrEmptyGroup signals a composite without children.
	ErrEmptyGroup = errors.New("filter group must have at least one child")
)

// Leaf is a single field comparison.
type Leaf struct {
	Field string
	Op    Operator
	Value any
}

// Group combines child predicates with and/or semantics.
type Group struct {
	Op       GroupOperator
	Children []Predicate
}

// Predicate is either a Leaf or a Group. The zero Predicate means
// "no filter" and is valid wherever an unconditioned scan is acceptable.
type Predicate struct {
	leaf  *Leaf
	group *Group
}

// NewLeaf creates a validated leaf predicate.
func NewLeaf(field string, op Operator, value any) (Predicate, error) {
	if field == "" {
		return Predicate{}, ErrEmptyField
	}
	switch op {
	case OpEq, OpLt, OpGt, OpLike, OpIn:
	default:
		return Predicate{}, fmt.Errorf("%w: %q", ErrInvalidOperator, op)
	}
	return Predicate{leaf: &Leaf{Field: field, Op: op, Value: value}}, nil
}

// NewGroup creates a validated composite predicate.
func NewGroup(op GroupOperator, children ...Predicate) (Predicate, error) {
	if op != GroupAnd && op != GroupOr {
		return Predicate{}, fmt.Errorf("%w: %q", ErrInvalidGroupOperator, op)
	}
	if len(children) == 0 {
		return Predicate{}, ErrEmptyGroup
	}
	kept := make([]Predicate, 0, len(children))
	for _, child := range children {
		if child.IsZero() {
			continue
		}
		kept = append(kept, child)
	}
	if len(kept) == 0 {
		return Predicate{}, ErrEmptyGroup
	}
	return Predicate{group: &Group{Op: op, Children: kept}}, nil
}

// IsZero reports whether the predicate is the empty "no filter" value.
func (p Predicate) IsZero() bool { return p.leaf == nil && p.group == nil }

// IsLeaf reports whether the predicate is a single comparison.
func (p Predicate) IsLeaf() bool { return p.leaf != nil }

// IsGroup reports whether the predicate is a composite.
func (p Predicate) IsGroup() bool { return p.group != nil }

// Leaf returns the leaf payload. Valid only when IsLeaf.
func (p Predicate) Leaf() Leaf {
	if p.leaf == nil {
		return Leaf{}
	}
	return *p.leaf
}

// Group returns the composite payload. Valid only when IsGroup.
func (p Predicate) Group() Group {
	if p.group == nil {
		return Group{}
	}
	return *p.group
}

// String renders the predicate for logs.
func (p Predicate) String() string {
	switch {
	case p.leaf != nil:
		return fmt.Sprintf("%s %s %v", p.leaf.Field, p.leaf.Op, p.leaf.Value)
	case p.group != nil:
		s := "("
		for i, child := range p.group.Children {
			if i > 0 {
				s += " " + string(p.group.Op) + " "
			}
			s += child.String()
		}
		return s + ")"
	default:
		return "<none>"
	}
}
