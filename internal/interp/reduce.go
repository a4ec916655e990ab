package interp

import (
	"github.com/fuuzen/yam-go/internal/ast"
	"github.com/fuuzen/yam-go/internal/yamerr"
)

// ReduceRHS reduces an assignment/declaration right-hand side to a runtime
// Value (§4.F). A plain expression reduces through ReduceExpr; a musical
// literal reduces its own components.
func (it *Interp) ReduceRHS(rhs ast.RHS, expected ast.BaseType) (ast.Value, error) {
	switch v := rhs.(type) {
	case *ast.NoteLit:
		return it.reduceNote(v)
	case *ast.MeasureLit:
		return it.reduceMeasure(v)
	case *ast.PhraseLit:
		return it.reducePhrase(v)
	case *ast.TrackLit:
		return it.reduceTrack(v)
	case ast.Expr:
		return it.ReduceExpr(v, expected)
	}
	return nil, yamerr.Internalf("unknown RHS node %T", rhs)
}

// ReduceExpr reduces a plain expression (used for return values, call
// arguments via ReduceRHS, and ExprStmt) to a Value of the given expected
// type. A Measure/Phrase/Track-typed expression is never anything but a bare
// LVal or call (the parser has no musical-literal primary), so once a call
// is ruled out the only thing left to load is the named variable's own
// cell — exactly what reduceMeasureProducer/reducePhraseProducer/
// ReduceTrackRHS already do for a Phrase/Track literal's own members.
func (it *Interp) ReduceExpr(e ast.Expr, expected ast.BaseType) (ast.Value, error) {
	// A call may return any Value kind; delegate directly so a Note/Measure/
	// Phrase/Track-returning call used as `return f();`, a call argument, or
	// a bare statement works without forcing it through EvalInt.
	if call, ok := e.(*ast.FuncCall); ok {
		return it.Call(call)
	}

	switch expected {
	case ast.TNote:
		return it.reduceNotePitchAsValue(e)
	case ast.TMeasure:
		mp, ok := e.(ast.MeasureProducer)
		if !ok {
			return nil, yamerr.Internalf("expected a bare Measure identifier, found %T", e)
		}
		return it.reduceMeasureProducer(mp)
	case ast.TPhrase:
		pp, ok := e.(ast.PhraseProducer)
		if !ok {
			return nil, yamerr.Internalf("expected a bare Phrase identifier, found %T", e)
		}
		return it.reducePhraseProducer(pp)
	case ast.TTrack:
		tr, ok := e.(ast.TrackRHS)
		if !ok {
			return nil, yamerr.Internalf("expected a bare Track identifier, found %T", e)
		}
		return it.ReduceTrackRHS(tr)
	}

	n, err := it.EvalInt(e)
	if err != nil {
		return nil, err
	}
	return ast.IntValue(n), nil
}

// reduceNotePitchAsValue handles a Note-expected plain expression: an LVal
// or call of Note type is used as-is (no flattening at this level — it IS
// the note), anything else (Int/Bool) is coerced to a single-pitch note.
func (it *Interp) reduceNotePitchAsValue(e ast.Expr) (ast.Value, error) {
	switch v := e.(type) {
	case *ast.LVal:
		sym, err := it.symbolFor(v.ID)
		if err != nil {
			return nil, err
		}
		if sym.Type == ast.TNote {
			nv, ok := it.cellFor(sym).Value.(*ast.NoteValue)
			if !ok {
				return nil, yamerr.Runtimef(yamerr.TypeError, "%q is not a Note", v.Name)
			}
			return nv, nil
		}
	case *ast.FuncCall:
		fd, err := it.declFor(v.ID)
		if err != nil {
			return nil, err
		}
		if fd.Ret == ast.TNote {
			return it.Call(v)
		}
	}
	n, err := it.EvalInt(e)
	if err != nil {
		return nil, err
	}
	return &ast.NoteValue{Pitches: []int32{n}}, nil
}

// reduceNote reduces a Note literal: each pitch expression evaluates to an
// Int, except one that itself evaluates to a Note, whose pitches flatten
// into the enclosing chord.
func (it *Interp) reduceNote(n *ast.NoteLit) (*ast.NoteValue, error) {
	var pitches []int32
	for _, p := range n.Pitch {
		ps, err := it.reducePitchExpr(p)
		if err != nil {
			return nil, err
		}
		pitches = append(pitches, ps...)
	}
	nv := &ast.NoteValue{Pitches: pitches}
	if n.Length != nil {
		l, err := it.EvalInt(n.Length)
		if err != nil {
			return nil, err
		}
		nv.Len = &l
	}
	return nv, nil
}

// reducePitchExpr evaluates one pitch expression of a Note literal, flattening
// chord members when the expression is itself Note-typed.
func (it *Interp) reducePitchExpr(e ast.Expr) ([]int32, error) {
	switch v := e.(type) {
	case *ast.LVal:
		sym, err := it.symbolFor(v.ID)
		if err != nil {
			return nil, err
		}
		if sym.Type == ast.TNote {
			nv, ok := it.cellFor(sym).Value.(*ast.NoteValue)
			if !ok {
				return nil, yamerr.Runtimef(yamerr.TypeError, "%q is not a Note", v.Name)
			}
			return nv.Pitches, nil
		}
	case *ast.FuncCall:
		fd, err := it.declFor(v.ID)
		if err != nil {
			return nil, err
		}
		if fd.Ret == ast.TNote {
			val, err := it.Call(v)
			if err != nil {
				return nil, err
			}
			nv, ok := val.(*ast.NoteValue)
			if !ok {
				return nil, yamerr.Runtimef(yamerr.TypeError, "call to %q did not yield a Note", v.Name)
			}
			return nv.Pitches, nil
		}
	}
	n, err := it.EvalInt(e)
	if err != nil {
		return nil, err
	}
	return []int32{n}, nil
}

func (it *Interp) reduceMeasure(m *ast.MeasureLit) (*ast.MeasureValue, error) {
	units := make([]ast.MeasureUnitValue, 0, len(m.Units))
	for _, u := range m.Units {
		switch u.Kind {
		case ast.UnitDilate, ast.UnitCompress, ast.UnitRest:
			units = append(units, ast.MeasureUnitValue{Kind: u.Kind})
		case ast.UnitNote:
			nv, err := it.reduceNote(u.Note)
			if err != nil {
				return nil, err
			}
			units = append(units, ast.MeasureUnitValue{Kind: ast.UnitNote, Note: *nv})
		}
	}
	return &ast.MeasureValue{Units: units}, nil
}

func (it *Interp) reducePhrase(p *ast.PhraseLit) (*ast.PhraseValue, error) {
	measures := make([]ast.MeasureValue, 0, len(p.Measures))
	for _, mp := range p.Measures {
		mv, err := it.reduceMeasureProducer(mp)
		if err != nil {
			return nil, err
		}
		measures = append(measures, *mv)
	}
	return &ast.PhraseValue{Measures: measures}, nil
}

func (it *Interp) reduceMeasureProducer(mp ast.MeasureProducer) (*ast.MeasureValue, error) {
	switch v := mp.(type) {
	case *ast.MeasureLit:
		return it.reduceMeasure(v)
	case *ast.LVal:
		sym, err := it.symbolFor(v.ID)
		if err != nil {
			return nil, err
		}
		mv, ok := it.cellFor(sym).Value.(*ast.MeasureValue)
		if !ok {
			return nil, yamerr.Runtimef(yamerr.TypeError, "%q is not a Measure", v.Name)
		}
		return mv, nil
	case *ast.FuncCall:
		fd, err := it.declFor(v.ID)
		if err != nil {
			return nil, err
		}
		if fd.Ret != ast.TMeasure {
			return nil, yamerr.Runtimef(yamerr.TypeError, "call to %q does not return a Measure", v.Name)
		}
		val, err := it.Call(v)
		if err != nil {
			return nil, err
		}
		mv, ok := val.(*ast.MeasureValue)
		if !ok {
			return nil, yamerr.Runtimef(yamerr.TypeError, "call to %q did not yield a Measure", v.Name)
		}
		return mv, nil
	}
	return nil, yamerr.Internalf("unknown measure producer %T", mp)
}

func (it *Interp) reduceTrack(t *ast.TrackLit) (*ast.TrackValue, error) {
	phrases := make([]ast.PhraseValue, 0, len(t.Phrases))
	for _, pp := range t.Phrases {
		pv, err := it.reducePhraseProducer(pp)
		if err != nil {
			return nil, err
		}
		phrases = append(phrases, *pv)
	}
	return &ast.TrackValue{Phrases: phrases}, nil
}

func (it *Interp) reducePhraseProducer(pp ast.PhraseProducer) (*ast.PhraseValue, error) {
	switch v := pp.(type) {
	case *ast.PhraseLit:
		return it.reducePhrase(v)
	case *ast.LVal:
		sym, err := it.symbolFor(v.ID)
		if err != nil {
			return nil, err
		}
		pv, ok := it.cellFor(sym).Value.(*ast.PhraseValue)
		if !ok {
			return nil, yamerr.Runtimef(yamerr.TypeError, "%q is not a Phrase", v.Name)
		}
		return pv, nil
	case *ast.FuncCall:
		fd, err := it.declFor(v.ID)
		if err != nil {
			return nil, err
		}
		if fd.Ret != ast.TPhrase {
			return nil, yamerr.Runtimef(yamerr.TypeError, "call to %q does not return a Phrase", v.Name)
		}
		val, err := it.Call(v)
		if err != nil {
			return nil, err
		}
		pv, ok := val.(*ast.PhraseValue)
		if !ok {
			return nil, yamerr.Runtimef(yamerr.TypeError, "call to %q did not yield a Phrase", v.Name)
		}
		return pv, nil
	}
	return nil, yamerr.Internalf("unknown phrase producer %T", pp)
}

// ReduceTrackRHS reduces a Score SetChannelTrack's track argument (§4.G).
func (it *Interp) ReduceTrackRHS(t ast.TrackRHS) (*ast.TrackValue, error) {
	switch v := t.(type) {
	case *ast.TrackLit:
		return it.reduceTrack(v)
	case *ast.LVal:
		sym, err := it.symbolFor(v.ID)
		if err != nil {
			return nil, err
		}
		tv, ok := it.cellFor(sym).Value.(*ast.TrackValue)
		if !ok {
			return nil, yamerr.Runtimef(yamerr.TypeError, "%q is not a Track", v.Name)
		}
		return tv, nil
	case *ast.FuncCall:
		fd, err := it.declFor(v.ID)
		if err != nil {
			return nil, err
		}
		if fd.Ret != ast.TTrack {
			return nil, yamerr.Runtimef(yamerr.TypeError, "call to %q does not return a Track", v.Name)
		}
		val, err := it.Call(v)
		if err != nil {
			return nil, err
		}
		tv, ok := val.(*ast.TrackValue)
		if !ok {
			return nil, yamerr.Runtimef(yamerr.TypeError, "call to %q did not yield a Track", v.Name)
		}
		return tv, nil
	}
	return nil, yamerr.Internalf("unknown track rhs %T", t)
}

// BadChannel/BadInstrument bounds checks are used by the score scheduler
// (internal/midi), which calls EvalInt directly for numeric score-statement
// arguments.
