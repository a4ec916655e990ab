package parser

import (
	"github.com/fuuzen/yam-go/internal/ast"
	"github.com/fuuzen/yam-go/internal/token"
	"github.com/fuuzen/yam-go/internal/yamerr"
)

// Expression grammar, low to high precedence (§4.A): logical-or,
// logical-and, equality, relational, additive, multiplicative, unary,
// primary. All operators are left-associative within their level.

func (p *parser) parseExpr() (ast.Expr, error) { return p.parseOr() }

func (p *parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(token.OR) {
		line := p.cur().Line
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{ID: p.id(), Op: ast.OpOr, L: left, R: right, Line: line}
	}
	return left, nil
}

func (p *parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.at(token.AND) {
		line := p.cur().Line
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{ID: p.id(), Op: ast.OpAnd, L: left, R: right, Line: line}
	}
	return left, nil
}

func (p *parser) parseEquality() (ast.Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.at(token.EQ) || p.at(token.NEQ) {
		op := ast.OpEq
		if p.at(token.NEQ) {
			op = ast.OpNeq
		}
		line := p.cur().Line
		p.advance()
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{ID: p.id(), Op: op, L: left, R: right, Line: line}
	}
	return left, nil
}

func (p *parser) parseRelational() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.at(token.LT) || p.at(token.LE) || p.at(token.GT) || p.at(token.GE) {
		var op ast.BinOp
		switch p.cur().Kind {
		case token.LT:
			op = ast.OpLt
		case token.LE:
			op = ast.OpLe
		case token.GT:
			op = ast.OpGt
		case token.GE:
			op = ast.OpGe
		}
		line := p.cur().Line
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{ID: p.id(), Op: op, L: left, R: right, Line: line}
	}
	return left, nil
}

func (p *parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.at(token.PLUS) || p.at(token.MINUS) {
		op := ast.OpAdd
		if p.at(token.MINUS) {
			op = ast.OpSub
		}
		line := p.cur().Line
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{ID: p.id(), Op: op, L: left, R: right, Line: line}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(token.STAR) || p.at(token.SLASH) || p.at(token.PERCENT) {
		var op ast.BinOp
		switch p.cur().Kind {
		case token.STAR:
			op = ast.OpMul
		case token.SLASH:
			op = ast.OpDiv
		case token.PERCENT:
			op = ast.OpMod
		}
		line := p.cur().Line
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{ID: p.id(), Op: op, L: left, R: right, Line: line}
	}
	return left, nil
}

func (p *parser) parseUnary() (ast.Expr, error) {
	switch p.cur().Kind {
	case token.PLUS, token.MINUS, token.NOT:
		line := p.cur().Line
		var op ast.UnaryOp
		switch p.cur().Kind {
		case token.PLUS:
			op = ast.UnaryPlus
		case token.MINUS:
			op = ast.UnaryNeg
		case token.NOT:
			op = ast.UnaryNot
		}
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{ID: p.id(), Op: op, X: x, Line: line}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	line := p.cur().Line
	switch p.cur().Kind {
	case token.LPAREN:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN, "')'"); err != nil {
			return nil, err
		}
		return e, nil

	case token.INT:
		t := p.advance()
		return &ast.IntLit{ID: p.id(), Value: t.Int, Line: line}, nil

	case token.IDENT:
		name := p.advance()
		if p.at(token.LPAREN) {
			return p.parseCallArgs(name.Text, line)
		}
		return &ast.LVal{ID: p.id(), Name: name.Text, Line: line}, nil
	}
	return nil, yamerr.ParseErrorf("line %d: unexpected token %q in expression", line, p.cur().Text)
}

func (p *parser) parseCallArgs(name string, line int) (*ast.FuncCall, error) {
	if _, err := p.expect(token.LPAREN, "'('"); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for !p.at(token.RPAREN) {
		if len(args) > 0 {
			if _, err := p.expect(token.COMMA, "','"); err != nil {
				return nil, err
			}
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
	}
	if _, err := p.expect(token.RPAREN, "')'"); err != nil {
		return nil, err
	}
	return &ast.FuncCall{ID: p.id(), Name: name, Args: args, Line: line}, nil
}
