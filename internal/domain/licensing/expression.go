package licensing

import (
	"fmt"
	"slices"
	"strings"
)

// Operator is the boolean operator of a compound expression.
type Operator int

const (
	// OpLicense marks a leaf: a single license, optionally WITH an exception.
	OpLicense Operator = iota
	OpAnd
	OpOr
)

func (o Operator) String() string {
	switch o {
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	default:
		return "LICENSE"
	}
}

// Expression is an immutable parsed SPDX license expression.
type Expression struct {
	op        Operator
	license   string
	exception string
	args      []*Expression
}

// ExpressionError reports an expression that cannot be parsed or that fails
// identifier validation.
type ExpressionError struct {
	Expr   string
	Reason string
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("invalid license expression %q: %s", e.Expr, e.Reason)
}

// Op returns the operator; OpLicense for leaves.
func (e *Expression) Op() Operator { return e.op }

// Args returns the operands of a compound expression.
func (e *Expression) Args() []*Expression { return slices.Clone(e.args) }

// Licenses returns the sorted, de-duplicated license keys of every leaf.
// A key includes its WITH exception.
func (e *Expression) Licenses() []string {
	seen := make(map[string]bool)
	var walk func(*Expression)
	walk = func(x *Expression) {
		if x.op == OpLicense {
			seen[x.key()] = true
			return
		}
		for _, a := range x.args {
			walk(a)
		}
	}
	walk(e)

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (e *Expression) key() string {
	if e.exception != "" {
		return e.license + " WITH " + e.exception
	}
	return e.license
}

// String renders the expression with canonical operators. Nested compound
// operands are parenthesized.
func (e *Expression) String() string {
	if e.op == OpLicense {
		return e.key()
	}
	parts := make([]string, len(e.args))
	for i, a := range e.args {
		if a.op == OpLicense {
			parts[i] = a.String()
		} else {
			parts[i] = "(" + a.String() + ")"
		}
	}
	return strings.Join(parts, " "+e.op.String()+" ")
}

// simplify flattens same-operator groups bottom-up, drops duplicate operands,
// collapses single-operand groups and sorts operands.
func simplify(e *Expression) *Expression {
	if e.op == OpLicense {
		return e
	}

	var flat []*Expression
	for _, a := range e.args {
		s := simplify(a)
		if s.op == e.op {
			flat = append(flat, s.args...)
			continue
		}
		flat = append(flat, s)
	}

	seen := make(map[string]bool, len(flat))
	args := flat[:0:0]
	for _, a := range flat {
		r := a.String()
		if seen[r] {
			continue
		}
		seen[r] = true
		args = append(args, a)
	}
	slices.SortStableFunc(args, compareExpressions)

	if len(args) == 1 {
		return args[0]
	}
	return &Expression{op: e.op, args: args}
}

// compareExpressions orders leaves before groups, leaves by key and groups by
// operator and then rendering.
func compareExpressions(a, b *Expression) int {
	aLeaf, bLeaf := a.op == OpLicense, b.op == OpLicense
	switch {
	case aLeaf && !bLeaf:
		return -1
	case !aLeaf && bLeaf:
		return 1
	case !aLeaf && a.op != b.op:
		return int(a.op) - int(b.op)
	}
	return strings.Compare(a.String(), b.String())
}
