// Package licensing parses, simplifies, combines and compares SPDX license
// expressions.
package licensing

import (
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the parse and simplify caches of the default engine.
const DefaultCacheSize = 500

// CombineOptions controls Combine.
type CombineOptions struct {
	ParseOptions
	// RecursiveSimplify simplifies every input on its own before joining.
	// Detectors that report unsimplified compound expressions need it.
	RecursiveSimplify bool
}

type cacheKey struct {
	expr string
	opts ParseOptions
}

type parseResult struct {
	expr *Expression
	err  error
}

type simplifyResult struct {
	text string
	err  error
}

// Engine evaluates license expressions and memoizes the results. It is safe
// for concurrent use.
type Engine struct {
	parsed     *lru.Cache[cacheKey, parseResult]
	simplified *lru.Cache[cacheKey, simplifyResult]
}

// NewEngine creates an engine whose caches hold at most size entries each.
func NewEngine(size int) *Engine {
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New only fails for non-positive sizes.
	parsed, _ := lru.New[cacheKey, parseResult](size)
	simplified, _ := lru.New[cacheKey, simplifyResult](size)
	return &Engine{parsed: parsed, simplified: simplified}
}

var defaultEngine = NewEngine(DefaultCacheSize)

// Default returns the process-wide engine.
func Default() *Engine { return defaultEngine }

// Parse parses expr. The returned expression must not be modified.
func (e *Engine) Parse(expr string, opts ParseOptions) (*Expression, error) {
	key := cacheKey{expr: expr, opts: opts}
	if r, ok := e.parsed.Get(key); ok {
		return r.expr, r.err
	}
	x, err := parse(expr, opts)
	e.parsed.Add(key, parseResult{expr: x, err: err})
	return x, err
}

// Simplify returns the canonical rendering of expr.
func (e *Engine) Simplify(expr string, opts ParseOptions) (string, error) {
	key := cacheKey{expr: expr, opts: opts}
	if r, ok := e.simplified.Get(key); ok {
		return r.text, r.err
	}
	var text string
	x, err := e.Parse(expr, opts)
	if err == nil {
		text = simplify(x).String()
	}
	e.simplified.Add(key, simplifyResult{text: text, err: err})
	return text, err
}

// Combine ANDs every non-empty expression together and simplifies the
// result. It returns "" when there is nothing to combine.
func (e *Engine) Combine(opts CombineOptions, exprs ...string) (string, error) {
	parts := make([]string, 0, len(exprs))
	for _, x := range exprs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if opts.RecursiveSimplify {
			s, err := e.Simplify(x, Lenient)
			if err != nil {
				return "", err
			}
			x = s
		}
		parts = append(parts, x)
	}
	switch len(parts) {
	case 0:
		return "", nil
	case 1:
		return e.Simplify(parts[0], opts.ParseOptions)
	}
	slices.Sort(parts)
	return e.Simplify("("+strings.Join(parts, ") AND (")+")", opts.ParseOptions)
}

// Compare reports whether a and b are the same expression once simplified.
// Identifiers are not validated.
func (e *Engine) Compare(a, b string) (bool, error) {
	sa, err := e.Simplify(a, Lenient)
	if err != nil {
		return false, err
	}
	sb, err := e.Simplify(b, Lenient)
	if err != nil {
		return false, err
	}
	return sa == sb, nil
}

// Validate reports whether expr is a well-formed expression made of known
// SPDX identifiers.
func (e *Engine) Validate(expr string) bool {
	_, err := e.Parse(expr, Strict)
	return err == nil
}

// Simplify simplifies expr with the default engine.
func Simplify(expr string, opts ParseOptions) (string, error) {
	return defaultEngine.Simplify(expr, opts)
}

// Combine combines exprs with the default engine.
func Combine(opts CombineOptions, exprs ...string) (string, error) {
	return defaultEngine.Combine(opts, exprs...)
}

// Compare compares a and b with the default engine.
func Compare(a, b string) (bool, error) {
	return defaultEngine.Compare(a, b)
}

// Validate validates expr with the default engine.
func Validate(expr string) bool {
	return defaultEngine.Validate(expr)
}
