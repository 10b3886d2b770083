package pep508

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Marker is a parsed PEP 508 environment marker expression.
type Marker struct {
	node markerNode
	raw  string
}

// ParseMarker parses a marker expression such as
//
//	python_version >= "3.8" and sys_platform != "win32"
func ParseMarker(text string) (*Marker, error) {
	tokens, err := lexMarker(text)
	if err != nil {
		return nil, fmt.Errorf("marker %q: %w", text, err)
	}
	p := &markerParser{tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return nil, fmt.Errorf("marker %q: %w", text, err)
	}
	if !p.atEnd() {
		return nil, fmt.Errorf("marker %q: unexpected trailing %q", text, p.peek().text)
	}
	return &Marker{node: node, raw: text}, nil
}

// String returns the original marker text.
func (m *Marker) String() string {
	return m.raw
}

// Evaluate reports whether the marker holds under the given environment.
// extras is the set of extras the depending package was installed with;
// pass nil to evaluate without extras, as the dependency index does.
func (m *Marker) Evaluate(env Environment, extras []string) bool {
	set := make(map[string]bool, len(extras))
	for _, e := range extras {
		set[NormalizeName(e)] = true
	}
	return m.node.eval(env, set)
}

type markerNode interface {
	eval(env Environment, extras map[string]bool) bool
}

type orNode []markerNode

func (n orNode) eval(env Environment, extras map[string]bool) bool {
	for _, c := range n {
		if c.eval(env, extras) {
			return true
		}
	}
	return false
}

type andNode []markerNode

func (n andNode) eval(env Environment, extras map[string]bool) bool {
	for _, c := range n {
		if !c.eval(env, extras) {
			return false
		}
	}
	return true
}

// operand is one side of a comparison: either a marker variable or a quoted
// literal.
type operand struct {
	variable bool
	text     string
}

func (o operand) resolve(env Environment) string {
	if o.variable {
		return env.lookup(o.text)
	}
	return o.text
}

type cmpNode struct {
	lhs operand
	op  string
	rhs operand
}

func (n cmpNode) eval(env Environment, extras map[string]bool) bool {
	// "extra" compares against the active extras set rather than a single
	// environment value.
	if n.lhs.variable && n.lhs.text == "extra" && !n.rhs.variable {
		return evalExtra(n.op, n.rhs.text, extras)
	}
	if n.rhs.variable && n.rhs.text == "extra" && !n.lhs.variable {
		return evalExtra(n.op, n.lhs.text, extras)
	}

	lhs := n.lhs.resolve(env)
	rhs := n.rhs.resolve(env)

	switch n.op {
	case "in":
		return strings.Contains(rhs, lhs)
	case "not in":
		return !strings.Contains(rhs, lhs)
	case "===":
		return lhs == rhs
	case "~=":
		return compatibleRelease(lhs, rhs)
	}

	cmp := compareValues(lhs, rhs)
	switch n.op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}

func evalExtra(op, literal string, extras map[string]bool) bool {
	member := extras[NormalizeName(literal)]
	switch op {
	case "==":
		return member
	case "!=":
		return !member
	}
	return false
}

// compareValues orders two marker operands. When both parse as versions the
// comparison is version-ordered; otherwise it falls back to lexicographic
// comparison, mirroring how uv degrades on non-version operands.
func compareValues(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	return strings.Compare(a, b)
}

// compatibleRelease implements the ~= operator: have ~= want means
// have >= want with the leading components of want (all but the last) held
// fixed, e.g. ~= 3.7 is >= 3.7, < 4.0.
func compatibleRelease(have, want string) bool {
	wantParts := strings.Split(want, ".")
	if len(wantParts) < 2 {
		return false
	}
	if compareValues(have, want) < 0 {
		return false
	}
	haveParts := strings.Split(have, ".")
	prefix := wantParts[:len(wantParts)-1]
	if len(haveParts) < len(prefix) {
		return false
	}
	for i, p := range prefix {
		pn, err1 := strconv.Atoi(p)
		hn, err2 := strconv.Atoi(haveParts[i])
		if err1 == nil && err2 == nil {
			if pn != hn {
				return false
			}
			continue
		}
		if p != haveParts[i] {
			return false
		}
	}
	return true
}

// Lexer.

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenLParen
	tokenRParen
	tokenOp     // == != <= >= < > ~= ===
	tokenIdent  // marker variable, and, or, in, not
	tokenString // quoted literal
)

type token struct {
	kind tokenKind
	text string
}

func lexMarker(s string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			tokens = append(tokens, token{tokenLParen, "("})
			i++
		case c == ')':
			tokens = append(tokens, token{tokenRParen, ")"})
			i++
		case c == '\'' || c == '"':
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				return nil, fmt.Errorf("unterminated string at offset %d", i)
			}
			tokens = append(tokens, token{tokenString, s[i+1 : i+1+end]})
			i += end + 2
		case strings.ContainsRune("<>=!~", rune(c)):
			j := i
			for j < len(s) && strings.ContainsRune("<>=!~", rune(s[j])) {
				j++
			}
			op := s[i:j]
			switch op {
			case "==", "!=", "<=", ">=", "<", ">", "~=", "===":
				tokens = append(tokens, token{tokenOp, op})
			default:
				return nil, fmt.Errorf("invalid operator %q", op)
			}
			i = j
		case isIdentByte(c):
			j := i
			for j < len(s) && isIdentByte(s[j]) {
				j++
			}
			tokens = append(tokens, token{tokenIdent, s[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q", c)
		}
	}
	return tokens, nil
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '.' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Recursive-descent parser over the token stream.

type markerParser struct {
	tokens []token
	pos    int
}

func (p *markerParser) peek() token {
	if p.pos >= len(p.tokens) {
		return token{kind: tokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *markerParser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *markerParser) atEnd() bool {
	return p.peek().kind == tokenEOF
}

func (p *markerParser) parseOr() (markerNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	terms := orNode{left}
	for p.peek().kind == tokenIdent && p.peek().text == "or" {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		terms = append(terms, right)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return terms, nil
}

func (p *markerParser) parseAnd() (markerNode, error) {
	left, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	terms := andNode{left}
	for p.peek().kind == tokenIdent && p.peek().text == "and" {
		p.next()
		right, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		terms = append(terms, right)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return terms, nil
}

func (p *markerParser) parseExpr() (markerNode, error) {
	if p.peek().kind == tokenLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokenRParen {
			return nil, fmt.Errorf("expected ) after group")
		}
		p.next()
		return inner, nil
	}

	lhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	op, err := p.parseCompOp()
	if err != nil {
		return nil, err
	}
	rhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return cmpNode{lhs: lhs, op: op, rhs: rhs}, nil
}

func (p *markerParser) parseOperand() (operand, error) {
	t := p.next()
	switch t.kind {
	case tokenIdent:
		if t.text == "and" || t.text == "or" || t.text == "in" || t.text == "not" {
			return operand{}, fmt.Errorf("unexpected keyword %q", t.text)
		}
		return operand{variable: true, text: t.text}, nil
	case tokenString:
		return operand{text: t.text}, nil
	}
	return operand{}, fmt.Errorf("expected operand, got %q", t.text)
}

func (p *markerParser) parseCompOp() (string, error) {
	t := p.next()
	switch {
	case t.kind == tokenOp:
		return t.text, nil
	case t.kind == tokenIdent && t.text == "in":
		return "in", nil
	case t.kind == tokenIdent && t.text == "not":
		if p.peek().kind == tokenIdent && p.peek().text == "in" {
			p.next()
			return "not in", nil
		}
		return "", fmt.Errorf("expected 'in' after 'not'")
	}
	return "", fmt.Errorf("expected comparison operator, got %q", t.text)
}
