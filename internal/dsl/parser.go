package dsl

import (
	"fmt"
	"strconv"

	"piper/internal/value"
)

// Parser errors are always SyntaxErrors: they are fatal at pipeline-load
// time and never reach a Value.
type SyntaxError struct {
	Message string
	Pos     int
}

func (e *SyntaxError) Error() string { return fmt.Sprintf("syntax error at %d: %s", e.Pos, e.Message) }

// Parse parses the full text of a pipeline-script file (one or more
// semicolon-terminated pipeline declarations) into a slice of Pipeline ASTs.
func Parse(src string) ([]*Pipeline, error) {
	toks, err := newLexer(src).tokenize()
	if err != nil {
		return nil, &SyntaxError{Message: err.Error()}
	}
	p := &parser{toks: toks}
	var out []*Pipeline
	for !p.at(tokEOF) {
		pl, err := p.parsePipeline()
		if err != nil {
			return nil, err
		}
		out = append(out, pl)
	}
	return out, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) at(k tokenKind) bool { return p.cur().kind == k }

func (p *parser) atSym(s string) bool {
	return p.cur().kind == tokSymbol && p.cur().text == s
}

func (p *parser) atKw(s string) bool {
	return p.cur().kind == tokKeyword && p.cur().text == s
}

func (p *parser) advance() token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expectSym(s string) error {
	if !p.atSym(s) {
		return p.errf("expected %q, found %q", s, p.cur().text)
	}
	p.advance()
	return nil
}

func (p *parser) expectKw(s string) error {
	if !p.atKw(s) {
		return p.errf("expected keyword %q, found %q", s, p.cur().text)
	}
	p.advance()
	return nil
}

func (p *parser) errf(format string, args ...any) error {
	return &SyntaxError{Message: fmt.Sprintf(format, args...), Pos: p.cur().pos}
}

func (p *parser) expectIdentLike() (string, error) {
	t := p.cur()
	if t.kind == tokIdent || t.kind == tokKeyword {
		p.advance()
		return t.text, nil
	}
	return "", p.errf("expected identifier, found %q", t.text)
}

// parsePipeline parses `name(col as type, ...) | clause | clause ... ;`.
func (p *parser) parsePipeline() (*Pipeline, error) {
	name, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}
	if err := p.expectSym("("); err != nil {
		return nil, err
	}
	var cols []value.Column
	for !p.atSym(")") {
		colName, err := p.expectIdentLike()
		if err != nil {
			return nil, err
		}
		if err := p.expectKw("as"); err != nil {
			return nil, err
		}
		typName, err := p.expectIdentLike()
		if err != nil {
			return nil, err
		}
		typ, ok := parseColumnType(typName)
		if !ok {
			return nil, p.errf("unknown declared type %q", typName)
		}
		cols = append(cols, value.Column{Name: colName, Type: typ})
		if p.atSym(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectSym(")"); err != nil {
		return nil, err
	}
	pl := &Pipeline{Name: name, InputSchema: value.Schema{Columns: cols}}
	for p.atSym("|") {
		p.advance()
		clause, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		pl.Clauses = append(pl.Clauses, clause)
	}
	if err := p.expectSym(";"); err != nil {
		return nil, err
	}
	return pl, nil
}

func parseColumnType(s string) (value.ColumnType, bool) {
	switch value.ColumnType(s) {
	case value.TypeBool, value.TypeInt, value.TypeLong, value.TypeFloat, value.TypeDouble,
		value.TypeString, value.TypeDateTime, value.TypeArray, value.TypeObject, value.TypeDynamic:
		return value.ColumnType(s), true
	}
	return "", false
}

func (p *parser) parseClause() (Clause, error) {
	t := p.cur()
	if t.kind != tokKeyword {
		return nil, p.errf("expected clause keyword, found %q", t.text)
	}
	switch t.text {
	case "where":
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return WhereClause{Cond: e}, nil
	case "take":
		p.advance()
		n, err := p.expectIntLiteral()
		if err != nil {
			return nil, err
		}
		return TakeClause{N: n}, nil
	case "project":
		p.advance()
		items, err := p.parseAssignList()
		if err != nil {
			return nil, err
		}
		out := make([]ProjectItem, len(items))
		for i, it := range items {
			out[i] = ProjectItem{Name: it.name, Expr: it.expr}
		}
		return ProjectClause{Items: out}, nil
	case "project-remove":
		p.advance()
		names, err := p.parseIdentList()
		if err != nil {
			return nil, err
		}
		return ProjectRemoveClause{Names: names}, nil
	case "project-keep":
		p.advance()
		names, err := p.parseIdentList()
		if err != nil {
			return nil, err
		}
		return ProjectKeepClause{Names: names}, nil
	case "project-rename":
		p.advance()
		var items []RenameItem
		for {
			newName, err := p.expectIdentLike()
			if err != nil {
				return nil, err
			}
			if err := p.expectSym("="); err != nil {
				return nil, err
			}
			oldName, err := p.expectIdentLike()
			if err != nil {
				return nil, err
			}
			items = append(items, RenameItem{New: newName, Old: oldName})
			if p.atSym(",") {
				p.advance()
				continue
			}
			break
		}
		return ProjectRenameClause{Items: items}, nil
	case "top":
		p.advance()
		n, err := p.expectIntLiteral()
		if err != nil {
			return nil, err
		}
		if err := p.expectKw("by"); err != nil {
			return nil, err
		}
		var keys []SortKey
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			desc := false
			if p.atKw("asc") {
				p.advance()
			} else if p.atKw("desc") {
				desc = true
				p.advance()
			}
			keys = append(keys, SortKey{Expr: e, Desc: desc})
			if p.atSym(",") {
				p.advance()
				continue
			}
			break
		}
		return TopClause{N: n, By: keys}, nil
	case "summarize":
		p.advance()
		var aggs []AggItem
		for {
			name, err := p.expectIdentLike()
			if err != nil {
				return nil, err
			}
			if err := p.expectSym("="); err != nil {
				return nil, err
			}
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call, ok := e.(CallExpr)
			if !ok {
				return nil, p.errf("summarize assignment %q must be an aggregate call", name)
			}
			aggs = append(aggs, AggItem{Name: name, Expr: &call})
			if p.atSym(",") {
				p.advance()
				continue
			}
			break
		}
		var by []Expr
		if p.atKw("by") {
			p.advance()
			for {
				e, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				by = append(by, e)
				if p.atSym(",") {
					p.advance()
					continue
				}
				break
			}
		}
		return SummarizeClause{Aggs: aggs, By: by}, nil
	case "distinct":
		p.advance()
		return DistinctClause{}, nil
	case "explode":
		p.advance()
		col, err := p.expectIdentLike()
		if err != nil {
			return nil, err
		}
		var as value.ColumnType
		if p.atKw("as") {
			p.advance()
			typName, err := p.expectIdentLike()
			if err != nil {
				return nil, err
			}
			typ, ok := parseColumnType(typName)
			if !ok {
				return nil, p.errf("unknown declared type %q", typName)
			}
			as = typ
		}
		return ExplodeClause{Column: col, As: as}, nil
	case "ignore-errors":
		p.advance()
		return IgnoreErrorsClause{}, nil
	case "lookup":
		p.advance()
		fields, err := p.parseIdentList()
		if err != nil {
			return nil, err
		}
		if err := p.expectKw("from"); err != nil {
			return nil, err
		}
		src, err := p.expectIdentLike()
		if err != nil {
			return nil, err
		}
		if err := p.expectKw("on"); err != nil {
			return nil, err
		}
		key, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return LookupClause{Fields: fields, Source: src, Key: key}, nil
	case "join":
		p.advance()
		if err := p.expectKw("kind"); err != nil {
			return nil, err
		}
		if err := p.expectSym("="); err != nil {
			return nil, err
		}
		kindName, err := p.expectIdentLike()
		if err != nil {
			return nil, err
		}
		if kindName != "left-inner" && kindName != "left-outer" {
			return nil, p.errf("unknown join kind %q", kindName)
		}
		fields, err := p.parseIdentList()
		if err != nil {
			return nil, err
		}
		if err := p.expectKw("from"); err != nil {
			return nil, err
		}
		src, err := p.expectIdentLike()
		if err != nil {
			return nil, err
		}
		if err := p.expectKw("on"); err != nil {
			return nil, err
		}
		key, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return JoinClause{Kind: kindName, Fields: fields, Source: src, Key: key}, nil
	default:
		return nil, p.errf("unknown clause keyword %q", t.text)
	}
}

func (p *parser) expectIntLiteral() (int, error) {
	if !p.at(tokInt) {
		return 0, p.errf("expected integer literal, found %q", p.cur().text)
	}
	n, err := strconv.Atoi(p.cur().text)
	if err != nil {
		return 0, p.errf("invalid integer literal %q", p.cur().text)
	}
	p.advance()
	return n, nil
}

func (p *parser) parseIdentList() ([]string, error) {
	var out []string
	for {
		name, err := p.expectIdentLike()
		if err != nil {
			return nil, err
		}
		out = append(out, name)
		if p.atSym(",") {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

type assignItem struct {
	name string
	expr Expr
}

func (p *parser) parseAssignList() ([]assignItem, error) {
	var out []assignItem
	for {
		name, err := p.expectIdentLike()
		if err != nil {
			return nil, err
		}
		if err := p.expectSym("="); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, assignItem{name: name, expr: e})
		if p.atSym(",") {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

// --- expression grammar, tightest to loosest precedence:
// unary(- not) > * / % > + - > comparisons > not(prefix) > and > or

func (p *parser) parseExpr() (Expr, error) { return p.parseOr() }

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.atKw("or") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: "or", L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.atKw("and") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: "and", L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.atKw("not") {
		p.advance()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: "not", X: x}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.cur().kind == tokSymbol && comparisonOps[p.cur().text] {
		op := p.advance().text
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: op, L: left, R: right}, nil
	}
	return left, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokSymbol && (p.cur().text == "+" || p.cur().text == "-") {
		op := p.advance().text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokSymbol && (p.cur().text == "*" || p.cur().text == "/" || p.cur().text == "%") {
		op := p.advance().text
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.atSym("-") {
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: "-", X: x}, nil
	}
	if p.atKw("not") {
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: "not", X: x}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		if p.atSym("[") {
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectSym("]"); err != nil {
				return nil, err
			}
			x = IndexExpr{X: x, Index: idx}
			continue
		}
		if p.atSym(".") {
			p.advance()
			name, err := p.expectIdentLike()
			if err != nil {
				return nil, err
			}
			x = FieldExpr{X: x, Name: name}
			continue
		}
		break
	}
	return x, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.cur()
	switch t.kind {
	case tokInt:
		p.advance()
		n, _ := strconv.ParseInt(t.text, 10, 64)
		return LiteralExpr{Value: value.Int(n)}, nil
	case tokFloat:
		p.advance()
		f, _ := strconv.ParseFloat(t.text, 64)
		return LiteralExpr{Value: value.Double(f)}, nil
	case tokString:
		p.advance()
		return LiteralExpr{Value: value.String(t.text)}, nil
	case tokKeyword:
		switch t.text {
		case "null":
			p.advance()
			return LiteralExpr{Value: value.Null()}, nil
		case "true":
			p.advance()
			return LiteralExpr{Value: value.Bool(true)}, nil
		case "false":
			p.advance()
			return LiteralExpr{Value: value.Bool(false)}, nil
		case "case":
			return p.parseCase()
		}
		return nil, p.errf("unexpected keyword %q in expression", t.text)
	case tokIdent:
		name := t.text
		p.advance()
		if p.atSym("(") {
			p.advance()
			var args []Expr
			for !p.atSym(")") {
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.atSym(",") {
					p.advance()
					continue
				}
				break
			}
			if err := p.expectSym(")"); err != nil {
				return nil, err
			}
			return CallExpr{Func: name, Args: args}, nil
		}
		return ColumnExpr{Name: name}, nil
	case tokSymbol:
		if t.text == "(" {
			p.advance()
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectSym(")"); err != nil {
				return nil, err
			}
			return e, nil
		}
	}
	return nil, p.errf("unexpected token %q in expression", t.text)
}

func (p *parser) parseCase() (Expr, error) {
	p.advance() // "case"
	var whens []WhenClause
	for p.atKw("when") {
		p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectKw("then"); err != nil {
			return nil, err
		}
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		whens = append(whens, WhenClause{Cond: cond, Then: then})
	}
	if len(whens) == 0 {
		return nil, p.errf("case expression requires at least one when clause")
	}
	var elseExpr Expr
	if p.atKw("else") {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elseExpr = e
	}
	if err := p.expectKw("end"); err != nil {
		return nil, err
	}
	return CaseExpr{Whens: whens, Else: elseExpr}, nil
}
