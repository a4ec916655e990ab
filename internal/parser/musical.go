package parser

import (
	"github.com/fuuzen/yam-go/internal/ast"
	"github.com/fuuzen/yam-go/internal/token"
	"github.com/fuuzen/yam-go/internal/yamerr"
)

// parseRHS parses an assignment/declaration right-hand side: one of the four
// musical literals (recognized unambiguously by their leading keyword) or a
// plain expression. expected is advisory only (some callers, e.g. the `for`
// loop's init clause, don't know the target's declared type yet); sema does
// the real type check afterwards.
func (p *parser) parseRHS(expected ast.BaseType) (ast.RHS, error) {
	switch p.cur().Kind {
	case token.KW_NOTE:
		return p.parseNoteLit()
	case token.KW_MEASURE:
		return p.parseMeasureLit()
	case token.KW_PHRASE:
		return p.parsePhraseLit()
	case token.KW_TRACK:
		return p.parseTrackLit()
	}
	return p.parseExpr()
}

func (p *parser) parseNoteLit() (*ast.NoteLit, error) {
	line := p.cur().Line
	p.advance() // Note
	if _, err := p.expect(token.LPAREN, "'('"); err != nil {
		return nil, err
	}
	var pitches []ast.Expr
	for !p.at(token.RPAREN) {
		if len(pitches) > 0 {
			if _, err := p.expect(token.COMMA, "','"); err != nil {
				return nil, err
			}
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		pitches = append(pitches, e)
	}
	if _, err := p.expect(token.RPAREN, "')'"); err != nil {
		return nil, err
	}
	n := &ast.NoteLit{ID: p.id(), Pitch: pitches, Line: line}
	if p.at(token.KW_LEN) {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		n.Length = e
	}
	return n, nil
}

func (p *parser) parseMeasureLit() (*ast.MeasureLit, error) {
	line := p.cur().Line
	p.advance() // Measure
	if _, err := p.expect(token.LBRACE, "'{'"); err != nil {
		return nil, err
	}
	m := &ast.MeasureLit{ID: p.id(), Line: line}
	for !p.at(token.RBRACE) {
		switch p.cur().Kind {
		case token.LT:
			p.advance()
			m.Units = append(m.Units, ast.MeasureUnit{Kind: ast.UnitDilate})
		case token.GT:
			p.advance()
			m.Units = append(m.Units, ast.MeasureUnit{Kind: ast.UnitCompress})
		case token.DOT:
			p.advance()
			m.Units = append(m.Units, ast.MeasureUnit{Kind: ast.UnitRest})
		case token.KW_NOTE:
			n, err := p.parseNoteLit()
			if err != nil {
				return nil, err
			}
			m.Units = append(m.Units, ast.MeasureUnit{Kind: ast.UnitNote, Note: n})
		default:
			return nil, yamerr.ParseErrorf("line %d: expected '<', '>', '.' or a Note, found %q", p.cur().Line, p.cur().Text)
		}
	}
	if _, err := p.expect(token.RBRACE, "'}'"); err != nil {
		return nil, err
	}
	return m, nil
}

func (p *parser) parseMeasureProducer() (ast.MeasureProducer, error) {
	switch p.cur().Kind {
	case token.KW_MEASURE:
		return p.parseMeasureLit()
	case token.IDENT:
		name := p.advance()
		if p.at(token.LPAREN) {
			return p.parseCallArgs(name.Text, name.Line)
		}
		return &ast.LVal{ID: p.id(), Name: name.Text, Line: name.Line}, nil
	}
	return nil, yamerr.ParseErrorf("line %d: expected a Measure literal, identifier or call, found %q", p.cur().Line, p.cur().Text)
}

func (p *parser) parsePhraseLit() (*ast.PhraseLit, error) {
	line := p.cur().Line
	p.advance() // Phrase
	if _, err := p.expect(token.LBRACE, "'{'"); err != nil {
		return nil, err
	}
	ph := &ast.PhraseLit{ID: p.id(), Line: line}
	for !p.at(token.RBRACE) {
		if len(ph.Measures) > 0 {
			if _, err := p.expect(token.COMMA, "','"); err != nil {
				return nil, err
			}
		}
		m, err := p.parseMeasureProducer()
		if err != nil {
			return nil, err
		}
		ph.Measures = append(ph.Measures, m)
	}
	if _, err := p.expect(token.RBRACE, "'}'"); err != nil {
		return nil, err
	}
	return ph, nil
}

func (p *parser) parsePhraseProducer() (ast.PhraseProducer, error) {
	switch p.cur().Kind {
	case token.KW_PHRASE:
		return p.parsePhraseLit()
	case token.IDENT:
		name := p.advance()
		if p.at(token.LPAREN) {
			return p.parseCallArgs(name.Text, name.Line)
		}
		return &ast.LVal{ID: p.id(), Name: name.Text, Line: name.Line}, nil
	}
	return nil, yamerr.ParseErrorf("line %d: expected a Phrase literal, identifier or call, found %q", p.cur().Line, p.cur().Text)
}

func (p *parser) parseTrackLit() (*ast.TrackLit, error) {
	line := p.cur().Line
	p.advance() // Track
	if _, err := p.expect(token.LBRACE, "'{'"); err != nil {
		return nil, err
	}
	t := &ast.TrackLit{ID: p.id(), Line: line}
	for !p.at(token.RBRACE) {
		if len(t.Phrases) > 0 {
			if _, err := p.expect(token.COMMA, "','"); err != nil {
				return nil, err
			}
		}
		ph, err := p.parsePhraseProducer()
		if err != nil {
			return nil, err
		}
		t.Phrases = append(t.Phrases, ph)
	}
	if _, err := p.expect(token.RBRACE, "'}'"); err != nil {
		return nil, err
	}
	return t, nil
}

func (p *parser) parseTrackRHS() (ast.TrackRHS, error) {
	switch p.cur().Kind {
	case token.KW_TRACK:
		return p.parseTrackLit()
	case token.IDENT:
		name := p.advance()
		if p.at(token.LPAREN) {
			return p.parseCallArgs(name.Text, name.Line)
		}
		return &ast.LVal{ID: p.id(), Name: name.Text, Line: name.Line}, nil
	}
	return nil, yamerr.ParseErrorf("line %d: expected a Track literal, identifier or call, found %q", p.cur().Line, p.cur().Text)
}

// --- Score ---

func (p *parser) parseScore() (*ast.Score, error) {
	line := p.cur().Line
	p.advance() // score
	if _, err := p.expect(token.LBRACE, "'{'"); err != nil {
		return nil, err
	}
	score := &ast.Score{ID: p.id(), Body: &ast.Block{ID: p.id()}, Line: line}
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		switch p.cur().Kind {
		case token.KW_SET_TEMPO:
			ss, err := p.parseSetTempo()
			if err != nil {
				return nil, err
			}
			score.Stmts = append(score.Stmts, ss)
		case token.KW_SET_TIME_SIG:
			ss, err := p.parseSetTimeSig()
			if err != nil {
				return nil, err
			}
			score.Stmts = append(score.Stmts, ss)
		case token.KW_SET_CHANNEL_INSTRUMENT:
			ss, err := p.parseSetChannelInstrument()
			if err != nil {
				return nil, err
			}
			score.Stmts = append(score.Stmts, ss)
		case token.KW_SET_CHANNEL_TRACK:
			ss, err := p.parseSetChannelTrack()
			if err != nil {
				return nil, err
			}
			score.Stmts = append(score.Stmts, ss)
		default:
			st, err := p.parseStmt()
			if err != nil {
				return nil, err
			}
			score.Body.Stmts = append(score.Body.Stmts, st...)
		}
	}
	if _, err := p.expect(token.RBRACE, "'}'"); err != nil {
		return nil, err
	}
	return score, nil
}

func (p *parser) parseSetTempo() (*ast.SetTempo, error) {
	line := p.cur().Line
	p.advance()
	if _, err := p.expect(token.LPAREN, "'('"); err != nil {
		return nil, err
	}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, "')'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMI, "';'"); err != nil {
		return nil, err
	}
	return &ast.SetTempo{ID: p.id(), N: n, Line: line}, nil
}

func (p *parser) parseSetTimeSig() (*ast.SetTimeSignature, error) {
	line := p.cur().Line
	p.advance()
	if _, err := p.expect(token.LPAREN, "'('"); err != nil {
		return nil, err
	}
	top, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COMMA, "','"); err != nil {
		return nil, err
	}
	bottom, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, "')'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMI, "';'"); err != nil {
		return nil, err
	}
	return &ast.SetTimeSignature{ID: p.id(), Numerator: top, Denominator: bottom, Line: line}, nil
}

func (p *parser) parseSetChannelInstrument() (*ast.SetChannelInstrument, error) {
	line := p.cur().Line
	p.advance()
	if _, err := p.expect(token.LPAREN, "'('"); err != nil {
		return nil, err
	}
	ch, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COMMA, "','"); err != nil {
		return nil, err
	}
	instr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, "')'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMI, "';'"); err != nil {
		return nil, err
	}
	return &ast.SetChannelInstrument{ID: p.id(), Channel: ch, Instrument: instr, Line: line}, nil
}

func (p *parser) parseSetChannelTrack() (*ast.SetChannelTrack, error) {
	line := p.cur().Line
	p.advance()
	if _, err := p.expect(token.LPAREN, "'('"); err != nil {
		return nil, err
	}
	ch, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COMMA, "','"); err != nil {
		return nil, err
	}
	trk, err := p.parseTrackRHS()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, "')'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMI, "';'"); err != nil {
		return nil, err
	}
	return &ast.SetChannelTrack{ID: p.id(), Channel: ch, Track: trk, Line: line}, nil
}
