// Package sema implements the semantic analyzer of §4.C: it walks the
// program, builds the lexical scope tree (internal/scope), resolves every
// identifier and call site, and type-checks expressions over the mixed
// numeric/musical type system. Per §9's redesign note, resolution results
// are never written back onto the AST; they are collected in a Result side
// table keyed by ast.NodeID.
package sema

import (
	"github.com/fuuzen/yam-go/internal/ast"
	"github.com/fuuzen/yam-go/internal/scope"
	"github.com/fuuzen/yam-go/internal/yamerr"
)

// Result is the side table of post-parse resolution slots the original
// design mutated onto the AST: LVal -> Symbol, FuncCall -> FuncDecl,
// Block -> Scope (which in turn carries the parent link), and, for function
// bodies, Block -> owning FuncDecl.
type Result struct {
	LValSym    map[ast.NodeID]*scope.Symbol
	CallDecl   map[ast.NodeID]*ast.FuncDecl
	BlockScope map[ast.NodeID]*scope.Scope
	FuncOwner  map[ast.NodeID]*ast.FuncDecl // keyed by function-body block id
}

func newResult() *Result {
	return &Result{
		LValSym:    make(map[ast.NodeID]*scope.Symbol),
		CallDecl:   make(map[ast.NodeID]*ast.FuncDecl),
		BlockScope: make(map[ast.NodeID]*scope.Scope),
		FuncOwner:  make(map[ast.NodeID]*ast.FuncDecl),
	}
}

type analyzer struct {
	res       *Result
	global    *scope.Scope
	loopDepth int
}

// Analyze type-checks and resolves prog, returning the resolution side table
// or the first error encountered (analysis stops at the first failure; there
// is no partial recovery, per §7).
func Analyze(prog *ast.Program) (*Result, error) {
	a := &analyzer{res: newResult()}
	a.global = scope.New(0, nil)
	a.res.BlockScope[0] = a.global

	for _, d := range prog.Decls {
		if err := a.declareTop(d); err != nil {
			return nil, err
		}
	}
	for _, d := range prog.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok {
			if err := a.analyzeFunc(fd); err != nil {
				return nil, err
			}
		}
	}

	if prog.Score == nil {
		return nil, yamerr.ParseErrorf("program has no Score block")
	}
	scoreScope := scope.New(prog.Score.Body.ID, a.global)
	a.res.BlockScope[prog.Score.Body.ID] = scoreScope
	if err := a.analyzeBlock(prog.Score.Body, scoreScope); err != nil {
		return nil, err
	}
	for _, ss := range prog.Score.Stmts {
		if err := a.analyzeScoreStmt(ss, scoreScope); err != nil {
			return nil, err
		}
	}
	return a.res, nil
}

// declareTop registers one top-level declaration into the global scope. For
// const/var it also type-checks the initializer immediately since the
// global scope is complete enough for that (no forward references to other
// top-level names are required by any initializer rule beyond normal
// resolve-up-the-chain semantics, which also covers globals declared later
// textually being invisible — §4.C resolves up the *current* chain only).
func (a *analyzer) declareTop(d ast.Decl) error {
	switch v := d.(type) {
	case *ast.ConstDecl:
		sym, err := a.global.Declare(v.Name, true, v.Type)
		if err != nil {
			return err
		}
		a.res.LValSym[v.ID] = sym
		if v.Init != nil {
			if err := a.checkRHS(v.Init, v.Type, a.global); err != nil {
				return err
			}
		}
	case *ast.VarDecl:
		sym, err := a.global.Declare(v.Name, false, v.Type)
		if err != nil {
			return err
		}
		a.res.LValSym[v.ID] = sym
		if v.Init != nil {
			if err := a.checkRHS(v.Init, v.Type, a.global); err != nil {
				return err
			}
		}
	case *ast.FuncDecl:
		if _, err := a.global.DeclareFunc(v.Name, v); err != nil {
			return err
		}
	}
	return nil
}

// analyzeFunc attaches the owning function to its body block and sets the
// body block's parent to the GLOBAL block, not the textual enclosing block
// (§4.C: functions close over globals and their own parameters only — kept
// explicit here as a scoping rule rather than an AST mutation, per §9).
func (a *analyzer) analyzeFunc(fd *ast.FuncDecl) error {
	body := scope.New(fd.Body.ID, a.global)
	a.res.BlockScope[fd.Body.ID] = body
	a.res.FuncOwner[fd.Body.ID] = fd

	for _, p := range fd.Params {
		sym, err := body.Declare(p.Name, false, p.Type)
		if err != nil {
			return err
		}
		sym.Local = true
	}
	return a.analyzeBlock(fd.Body, body)
}

// analyzeBlock type-checks every statement of b within the scope sc, which
// must already be registered in a.res.BlockScope.
func (a *analyzer) analyzeBlock(b *ast.Block, sc *scope.Scope) error {
	for _, st := range b.Stmts {
		if err := a.analyzeStmt(st, sc); err != nil {
			return err
		}
	}
	return nil
}

func (a *analyzer) analyzeStmt(st ast.Stmt, sc *scope.Scope) error {
	switch v := st.(type) {
	case *ast.ConstStmt:
		sym, err := sc.Declare(v.Name, true, v.Type)
		if err != nil {
			return err
		}
		sym.Local = a.findOwningFunc(sc) != nil
		a.res.LValSym[v.ID] = sym
		if v.Init != nil {
			return a.checkRHS(v.Init, v.Type, sc)
		}
		return nil

	case *ast.VarStmt:
		sym, err := sc.Declare(v.Name, false, v.Type)
		if err != nil {
			return err
		}
		sym.Local = a.findOwningFunc(sc) != nil
		a.res.LValSym[v.ID] = sym
		if v.Init != nil {
			return a.checkRHS(v.Init, v.Type, sc)
		}
		return nil

	case *ast.AssignStmt:
		sym, err := sc.Resolve(v.Target.Name)
		if err != nil {
			return err
		}
		if sym.IsFunc || sym.Const {
			return yamerr.Semanticf(yamerr.NotAssignable, "%q is not assignable", v.Target.Name)
		}
		a.res.LValSym[v.Target.ID] = sym
		return a.checkRHS(v.Value, sym.Type, sc)

	case *ast.IfStmt:
		if err := a.checkExpr(v.Cond, ast.TBool, sc); err != nil {
			return err
		}
		thenScope := scope.New(v.Then.ID, sc)
		a.res.BlockScope[v.Then.ID] = thenScope
		if err := a.analyzeBlock(v.Then, thenScope); err != nil {
			return err
		}
		if v.Else != nil {
			elseScope := scope.New(v.Else.ID, sc)
			a.res.BlockScope[v.Else.ID] = elseScope
			if err := a.analyzeBlock(v.Else, elseScope); err != nil {
				return err
			}
		}
		return nil

	case *ast.WhileStmt:
		if err := a.checkExpr(v.Cond, ast.TBool, sc); err != nil {
			return err
		}
		bodyScope := scope.New(v.Body.ID, sc)
		a.res.BlockScope[v.Body.ID] = bodyScope
		a.loopDepth++
		err := a.analyzeBlock(v.Body, bodyScope)
		a.loopDepth--
		if err != nil {
			return err
		}
		// The desugared `for` loop's increment clause (§3): analyzed in the
		// same scope as the body so it can see the loop variable, but not
		// part of Body itself since it must run on the Continue path too.
		for _, ps := range v.Post {
			if err := a.analyzeStmt(ps, bodyScope); err != nil {
				return err
			}
		}
		return nil

	case *ast.BlockStmt:
		inner := scope.New(v.Body.ID, sc)
		a.res.BlockScope[v.Body.ID] = inner
		return a.analyzeBlock(v.Body, inner)

	case *ast.BreakStmt:
		if a.loopDepth == 0 {
			return yamerr.Semanticf(yamerr.LoopOnlyKeyword, "break outside a loop")
		}
		return nil

	case *ast.ContinueStmt:
		if a.loopDepth == 0 {
			return yamerr.Semanticf(yamerr.LoopOnlyKeyword, "continue outside a loop")
		}
		return nil

	case *ast.ReturnStmt:
		fd := a.findOwningFunc(sc)
		if fd == nil {
			return yamerr.Semanticf(yamerr.ReturnOutsideFunc, "return outside a function")
		}
		if fd.Ret == ast.TVoid {
			if v.Value != nil {
				return yamerr.Semanticf(yamerr.ReturnTypeMismatch, "void function %q must not return a value", fd.Name)
			}
			return nil
		}
		if v.Value == nil {
			return yamerr.Semanticf(yamerr.ReturnTypeMismatch, "function %q must return a value of type %s", fd.Name, fd.Ret)
		}
		if err := a.checkExpr(v.Value, fd.Ret, sc); err != nil {
			return err
		}
		return nil

	case *ast.ExprStmt:
		return a.checkExprUnspecified(v.Value, sc)

	case *ast.FuncDefStmt:
		// Binding happened at top-level declareTop/analyzeFunc; nested
		// function definitions are not part of this language's grammar, but
		// the node exists for completeness. No-op here.
		return nil
	}
	return yamerr.Internalf("unknown statement node %T", st)
}

// findOwningFunc walks sc's parent chain looking up a.res.FuncOwner for the
// nearest enclosing function body block.
func (a *analyzer) findOwningFunc(sc *scope.Scope) *ast.FuncDecl {
	for cur := sc; cur != nil; cur = cur.Parent {
		if fd, ok := a.res.FuncOwner[cur.BlockID]; ok {
			return fd
		}
	}
	return nil
}

// checkRHS type-checks an assignment/declaration RHS against an expected
// type. A Note/Measure/Phrase/Track literal recursively checks its
// components and requires an exact kind match; a plain expression defers to
// checkExpr.
func (a *analyzer) checkRHS(rhs ast.RHS, expected ast.BaseType, sc *scope.Scope) error {
	switch v := rhs.(type) {
	case *ast.NoteLit:
		if expected != ast.TNote {
			return yamerr.Semanticf(yamerr.TypeMismatch, "expected %s, found Note literal", expected)
		}
		for _, p := range v.Pitch {
			if err := a.checkExpr(p, ast.TNote, sc); err != nil {
				return err
			}
		}
		if v.Length != nil {
			return a.checkExpr(v.Length, ast.TInt, sc)
		}
		return nil

	case *ast.MeasureLit:
		if expected != ast.TMeasure {
			return yamerr.Semanticf(yamerr.TypeMismatch, "expected %s, found Measure literal", expected)
		}
		for _, u := range v.Units {
			if u.Kind == ast.UnitNote {
				if err := a.checkRHS(u.Note, ast.TNote, sc); err != nil {
					return err
				}
			}
		}
		return nil

	case *ast.PhraseLit:
		if expected != ast.TPhrase {
			return yamerr.Semanticf(yamerr.TypeMismatch, "expected %s, found Phrase literal", expected)
		}
		for _, m := range v.Measures {
			if err := a.checkMeasureProducer(m, sc); err != nil {
				return err
			}
		}
		return nil

	case *ast.TrackLit:
		if expected != ast.TTrack {
			return yamerr.Semanticf(yamerr.TypeMismatch, "expected %s, found Track literal", expected)
		}
		for _, p := range v.Phrases {
			if err := a.checkPhraseProducer(p, sc); err != nil {
				return err
			}
		}
		return nil

	case ast.Expr:
		return a.checkExpr(v, expected, sc)
	}
	return yamerr.Internalf("unknown RHS node %T", rhs)
}

func (a *analyzer) checkMeasureProducer(m ast.MeasureProducer, sc *scope.Scope) error {
	switch v := m.(type) {
	case *ast.MeasureLit:
		return a.checkRHS(v, ast.TMeasure, sc)
	case *ast.LVal:
		return a.bindLValType(v, ast.TMeasure, sc)
	case *ast.FuncCall:
		return a.bindCallType(v, ast.TMeasure, sc)
	}
	return yamerr.Internalf("unknown measure producer %T", m)
}

func (a *analyzer) checkPhraseProducer(p ast.PhraseProducer, sc *scope.Scope) error {
	switch v := p.(type) {
	case *ast.PhraseLit:
		return a.checkRHS(v, ast.TPhrase, sc)
	case *ast.LVal:
		return a.bindLValType(v, ast.TPhrase, sc)
	case *ast.FuncCall:
		return a.bindCallType(v, ast.TPhrase, sc)
	}
	return yamerr.Internalf("unknown phrase producer %T", p)
}

func (a *analyzer) bindLValType(lv *ast.LVal, expected ast.BaseType, sc *scope.Scope) error {
	sym, err := sc.Resolve(lv.Name)
	if err != nil {
		return err
	}
	if sym.IsFunc || sym.Type != expected {
		return yamerr.Semanticf(yamerr.TypeMismatch, "expected %s, found %q", expected, lv.Name)
	}
	a.res.LValSym[lv.ID] = sym
	return nil
}

func (a *analyzer) bindCallType(call *ast.FuncCall, expected ast.BaseType, sc *scope.Scope) error {
	fd, err := a.resolveCall(call, sc)
	if err != nil {
		return err
	}
	if err := a.checkArgs(call, fd, sc); err != nil {
		return err
	}
	if fd.Ret != expected {
		return yamerr.Semanticf(yamerr.TypeMismatch, "call to %q returns %s, expected %s", call.Name, fd.Ret, expected)
	}
	return nil
}

func (a *analyzer) resolveCall(call *ast.FuncCall, sc *scope.Scope) (*ast.FuncDecl, error) {
	sym, err := sc.Resolve(call.Name)
	if err != nil || !sym.IsFunc {
		return nil, yamerr.Semanticf(yamerr.UnknownFunction, "unknown function %q", call.Name)
	}
	a.res.CallDecl[call.ID] = sym.Func
	return sym.Func, nil
}

func (a *analyzer) checkArgs(call *ast.FuncCall, fd *ast.FuncDecl, sc *scope.Scope) error {
	if len(call.Args) != len(fd.Params) {
		return yamerr.Semanticf(yamerr.ArityMismatch, "%q expects %d arguments, got %d", call.Name, len(fd.Params), len(call.Args))
	}
	for i, arg := range call.Args {
		if err := a.checkExpr(arg, fd.Params[i].Type, sc); err != nil {
			return err
		}
	}
	return nil
}

// checkExprUnspecified checks an expression with no expected type — used
// for ExprStmt, where only arithmetic/call validity matters. A bare call is
// accepted whatever its return type (void included), since its result is
// discarded; any other expression is checked as arithmetic.
func (a *analyzer) checkExprUnspecified(e ast.Expr, sc *scope.Scope) error {
	if call, ok := e.(*ast.FuncCall); ok {
		fd, err := a.resolveCall(call, sc)
		if err != nil {
			return err
		}
		return a.checkArgs(call, fd, sc)
	}
	return a.checkExpr(e, ast.TInt, sc)
}

// checkExpr is the recursive expr_check(expr, expected_type) of §4.C.
// Int and Bool are mutually convertible; Int/Bool is also accepted where
// Note is expected (single-pitch coercion at reduction time, §4.F). Measure/
// Phrase/Track expect a single primary (LVal or call) with no operator.
func (a *analyzer) checkExpr(e ast.Expr, expected ast.BaseType, sc *scope.Scope) error {
	switch expected {
	case ast.TMeasure, ast.TPhrase, ast.TTrack:
		switch v := e.(type) {
		case *ast.LVal:
			return a.bindLValType(v, expected, sc)
		case *ast.FuncCall:
			return a.bindCallType(v, expected, sc)
		default:
			return yamerr.Semanticf(yamerr.NonArithmeticOperand, "expected a bare %s identifier or call, found an operator expression", expected)
		}
	}

	switch v := e.(type) {
	case *ast.IntLit:
		return nil

	case *ast.LVal:
		sym, err := sc.Resolve(v.Name)
		if err != nil {
			return err
		}
		if sym.IsFunc {
			return yamerr.Semanticf(yamerr.TypeMismatch, "%q is a function, not a value", v.Name)
		}
		if !typesCompatible(sym.Type, expected) {
			return yamerr.Semanticf(yamerr.TypeMismatch, "expected %s, found %s %q", expected, sym.Type, v.Name)
		}
		a.res.LValSym[v.ID] = sym
		return nil

	case *ast.FuncCall:
		fd, err := a.resolveCall(v, sc)
		if err != nil {
			return err
		}
		if err := a.checkArgs(v, fd, sc); err != nil {
			return err
		}
		if fd.Ret == ast.TVoid || !typesCompatible(fd.Ret, expected) {
			return yamerr.Semanticf(yamerr.TypeMismatch, "call to %q returns %s, expected %s", v.Name, fd.Ret, expected)
		}
		return nil

	case *ast.UnaryExpr:
		return a.checkExpr(v.X, ast.TInt, sc)

	case *ast.BinaryExpr:
		if err := a.checkExpr(v.L, ast.TInt, sc); err != nil {
			return err
		}
		return a.checkExpr(v.R, ast.TInt, sc)
	}
	return yamerr.Internalf("unknown expression node %T", e)
}

// analyzeScoreStmt type-checks one order-significant score statement
// (§4.G). All numeric arguments are checked as Int; SetChannelTrack's track
// argument follows the same single-primary rule as any other Track-typed
// expression.
func (a *analyzer) analyzeScoreStmt(ss ast.ScoreStmt, sc *scope.Scope) error {
	switch v := ss.(type) {
	case *ast.SetTempo:
		return a.checkExpr(v.N, ast.TInt, sc)
	case *ast.SetTimeSignature:
		if err := a.checkExpr(v.Numerator, ast.TInt, sc); err != nil {
			return err
		}
		return a.checkExpr(v.Denominator, ast.TInt, sc)
	case *ast.SetChannelInstrument:
		if err := a.checkExpr(v.Channel, ast.TInt, sc); err != nil {
			return err
		}
		return a.checkExpr(v.Instrument, ast.TInt, sc)
	case *ast.SetChannelTrack:
		if err := a.checkExpr(v.Channel, ast.TInt, sc); err != nil {
			return err
		}
		switch t := v.Track.(type) {
		case *ast.TrackLit:
			return a.checkRHS(t, ast.TTrack, sc)
		case *ast.LVal:
			return a.bindLValType(t, ast.TTrack, sc)
		case *ast.FuncCall:
			return a.bindCallType(t, ast.TTrack, sc)
		}
		return yamerr.Internalf("unknown track rhs %T", v.Track)
	}
	return yamerr.Internalf("unknown score statement %T", ss)
}

// typesCompatible implements Int/Bool mutual convertibility and the
// Int/Bool -> Note coercion rule.
func typesCompatible(have, want ast.BaseType) bool {
	if have == want {
		return true
	}
	if (have == ast.TInt || have == ast.TBool) && (want == ast.TInt || want == ast.TBool) {
		return true
	}
	if (have == ast.TInt || have == ast.TBool) && want == ast.TNote {
		return true
	}
	return false
}
