package interp

import (
	"github.com/fuuzen/yam-go/internal/ast"
	"github.com/fuuzen/yam-go/internal/yamerr"
)

// ExecBlock runs b's statements in order, stopping and propagating the first
// non-Normal signal (§4.E).
func (it *Interp) ExecBlock(b *ast.Block) (Signal, error) {
	return it.execStmts(b.Stmts)
}

// execStmts runs a bare statement list the same way ExecBlock runs a Block's
// — used for a desugared `for` loop's Post clause, which must execute
// outside the body Block it logically follows (§9 open question).
func (it *Interp) execStmts(stmts []ast.Stmt) (Signal, error) {
	for _, st := range stmts {
		sig, err := it.execStmt(st)
		if err != nil {
			return Signal{}, err
		}
		if sig.Kind != Normal {
			return sig, nil
		}
	}
	return sigNormal, nil
}

func (it *Interp) execStmt(st ast.Stmt) (Signal, error) {
	switch v := st.(type) {
	case *ast.ConstStmt:
		return it.execDecl(v.ID, v.Init)
	case *ast.VarStmt:
		return it.execDecl(v.ID, v.Init)

	case *ast.AssignStmt:
		sym, err := it.symbolFor(v.Target.ID)
		if err != nil {
			return Signal{}, err
		}
		val, err := it.ReduceRHS(v.Value, sym.Type)
		if err != nil {
			return Signal{}, err
		}
		it.cellFor(sym).Value = val
		return sigNormal, nil

	case *ast.IfStmt:
		cond, err := it.EvalInt(v.Cond)
		if err != nil {
			return Signal{}, err
		}
		if cond != 0 {
			return it.ExecBlock(v.Then)
		}
		if v.Else != nil {
			return it.ExecBlock(v.Else)
		}
		return sigNormal, nil

	case *ast.WhileStmt:
		for {
			cond, err := it.EvalInt(v.Cond)
			if err != nil {
				return Signal{}, err
			}
			if cond == 0 {
				return sigNormal, nil
			}
			sig, err := it.ExecBlock(v.Body)
			if err != nil {
				return Signal{}, err
			}
			switch sig.Kind {
			case Break:
				return sigNormal, nil
			case Return:
				return sig, nil
			case Continue, Normal:
				// Re-test the condition (§9 open question, resolved:
				// continue re-tests, it does not skip the test) — but first
				// run the desugared `for` loop's increment clause, the same
				// way a Go/C `for`'s post statement runs on both a normal
				// fall-through and a `continue`, never on `break`.
				if len(v.Post) > 0 {
					postSig, err := it.execStmts(v.Post)
					if err != nil {
						return Signal{}, err
					}
					if postSig.Kind != Normal {
						return postSig, nil
					}
				}
			}
		}

	case *ast.BreakStmt:
		return sigBreak, nil

	case *ast.ContinueStmt:
		return sigContinue, nil

	case *ast.BlockStmt:
		return it.ExecBlock(v.Body)

	case *ast.ReturnStmt:
		if v.Value == nil {
			return sigReturn(nil), nil
		}
		val, err := it.ReduceExpr(v.Value, it.cur.retType)
		if err != nil {
			return Signal{}, err
		}
		return sigReturn(val), nil

	case *ast.ExprStmt:
		if _, err := it.ReduceExpr(v.Value, ast.TInt); err != nil {
			return Signal{}, err
		}
		return sigNormal, nil

	case *ast.FuncDefStmt:
		return sigNormal, nil
	}
	return Signal{}, yamerr.Internalf("unknown statement node %T", st)
}

func (it *Interp) execDecl(id ast.NodeID, init ast.RHS) (Signal, error) {
	sym, err := it.symbolFor(id)
	if err != nil {
		return Signal{}, err
	}
	it.declare(sym)
	if init != nil {
		val, err := it.ReduceRHS(init, sym.Type)
		if err != nil {
			return Signal{}, err
		}
		it.cellFor(sym).Value = val
	}
	return sigNormal, nil
}

// Call evaluates arguments left-to-right, writes each into a fresh
// activation Frame's parameter cells, executes the body, and expects a
// Return signal (a Normal exit from a non-void function is MissingReturn).
// Because each call gets its own Frame, recursion is safe: an inner call
// cannot observe or clobber an outer activation's arguments (§9).
func (it *Interp) Call(call *ast.FuncCall) (ast.Value, error) {
	fd, err := it.declFor(call.ID)
	if err != nil {
		return nil, err
	}

	argVals := make([]ast.Value, len(call.Args))
	for i, a := range call.Args {
		val, err := it.ReduceRHS(a, fd.Params[i].Type)
		if err != nil {
			return nil, err
		}
		argVals[i] = val
	}

	bodyScope, ok := it.res.BlockScope[fd.Body.ID]
	if !ok {
		return nil, yamerr.Internalf("function %q has no resolved body scope", fd.Name)
	}

	callerFrame := it.cur
	it.cur = newFrame(fd.Ret)
	for i, p := range fd.Params {
		sym, ok := bodyScope.LookupHere(p.Name)
		if !ok {
			it.cur = callerFrame
			return nil, yamerr.Internalf("parameter %q of %q not found in body scope", p.Name, fd.Name)
		}
		it.cur.locals[sym] = &Cell{Value: argVals[i]}
	}

	sig, err := it.ExecBlock(fd.Body)
	it.cur = callerFrame
	if err != nil {
		return nil, err
	}

	if fd.Ret == ast.TVoid {
		return nil, nil
	}
	if sig.Kind != Return {
		return nil, yamerr.Runtimef(yamerr.MissingReturn, "function %q must return a value of type %s", fd.Name, fd.Ret)
	}
	return sig.Value, nil
}
