package licensing

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseOptions controls identifier validation.
//
// With Validate unset identifiers are taken as written (known ones are still
// normalized to canonical case). With Validate set, Strict rejects
// identifiers missing from the SPDX lists; otherwise unknown identifiers pass
// through as free-form keys.
type ParseOptions struct {
	Validate bool
	Strict   bool
}

var (
	// Lenient accepts any syntactically valid expression.
	Lenient = ParseOptions{}
	// Strict rejects anything that is not a known SPDX identifier.
	Strict = ParseOptions{Validate: true, Strict: true}
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokAnd
	tokOr
	tokWith
	tokOpen
	tokClose
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(expr string) []token {
	var (
		toks []token
		cur  strings.Builder
	)
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		word := cur.String()
		cur.Reset()
		switch strings.ToUpper(word) {
		case "AND":
			toks = append(toks, token{tokAnd, word})
		case "OR":
			toks = append(toks, token{tokOr, word})
		case "WITH":
			toks = append(toks, token{tokWith, word})
		default:
			toks = append(toks, token{tokIdent, word})
		}
	}
	for _, r := range expr {
		switch {
		case r == '(':
			flush()
			toks = append(toks, token{tokOpen, "("})
		case r == ')':
			flush()
			toks = append(toks, token{tokClose, ")"})
		case unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

type parser struct {
	expr string
	toks []token
	pos  int
	opts ParseOptions
}

func parse(expr string, opts ParseOptions) (*Expression, error) {
	p := &parser{expr: expr, toks: tokenize(expr), opts: opts}
	if len(p.toks) == 0 {
		return nil, p.errorf("empty expression")
	}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.toks) {
		return nil, p.errorf("unexpected %q", p.toks[p.pos].text)
	}
	return e, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &ExpressionError{Expr: p.expr, Reason: fmt.Sprintf(format, args...)}
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) parseOr() (*Expression, error) {
	return p.parseGroup(OpOr, tokOr, p.parseAnd)
}

func (p *parser) parseAnd() (*Expression, error) {
	return p.parseGroup(OpAnd, tokAnd, p.parseWith)
}

func (p *parser) parseGroup(op Operator, kind tokenKind, next func() (*Expression, error)) (*Expression, error) {
	first, err := next()
	if err != nil {
		return nil, err
	}
	args := []*Expression{first}
	for {
		t, ok := p.peek()
		if !ok || t.kind != kind {
			break
		}
		p.pos++
		e, err := next()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
	}
	if len(args) == 1 {
		return first, nil
	}
	return &Expression{op: op, args: args}, nil
}

func (p *parser) parseWith() (*Expression, error) {
	t, ok := p.peek()
	if !ok {
		return nil, p.errorf("unexpected end of expression")
	}
	switch t.kind {
	case tokOpen:
		p.pos++
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if c, ok := p.peek(); !ok || c.kind != tokClose {
			return nil, p.errorf("missing closing parenthesis")
		}
		p.pos++
		if w, ok := p.peek(); ok && w.kind == tokWith {
			return nil, p.errorf("WITH must follow a single license")
		}
		return e, nil
	case tokIdent:
		p.pos++
	default:
		return nil, p.errorf("unexpected %q", t.text)
	}

	lic, err := p.license(t.text)
	if err != nil {
		return nil, err
	}
	leaf := &Expression{op: OpLicense, license: lic}

	if w, ok := p.peek(); ok && w.kind == tokWith {
		p.pos++
		exc, ok := p.peek()
		if !ok || exc.kind != tokIdent {
			return nil, p.errorf("WITH must be followed by an exception")
		}
		p.pos++
		if leaf.exception, err = p.exception(exc.text); err != nil {
			return nil, err
		}
	}
	return leaf, nil
}

func (p *parser) license(id string) (string, error) {
	if isUserDefined(id) {
		return id, nil
	}
	if canon, ok := canonicalLicense(id); ok {
		return canon, nil
	}
	if !p.opts.Validate {
		return id, nil
	}
	if p.opts.Strict {
		if IsKnownException(id) {
			return "", p.errorf("%q is an exception, not a license", id)
		}
		return "", p.errorf("unknown license identifier %q", id)
	}
	return id, nil
}

func (p *parser) exception(id string) (string, error) {
	if canon, ok := canonicalException(id); ok {
		return canon, nil
	}
	if !p.opts.Validate || !p.opts.Strict {
		return id, nil
	}
	if IsKnownLicense(id) {
		return "", p.errorf("%q is a license, not an exception", id)
	}
	return "", p.errorf("unknown license exception %q", id)
}
