// Package interp implements §4.D (expression evaluator), §4.E (statement
// interpreter) and §4.F (musical-value reducer) as a single tree-walking
// evaluator driven off the sema.Result side table.
//
// Per §9's redesign notes, value storage is an explicit environment rather
// than cells hanging off the AST: symbols declared outside any function (top
// level and the Score's own block) live in a persistent Globals map for the
// life of the program; symbols declared inside a function body (its
// parameters and any locals, including those in nested if/while blocks) live
// in a fresh activation Frame allocated per call and discarded when the call
// returns. This gives every call its own parameter storage, closing the
// latent recursion bug the original's shared-cell design had: a recursive
// call can no longer stomp an outer activation's argument before it is used.
package interp

import (
	"github.com/fuuzen/yam-go/internal/ast"
	"github.com/fuuzen/yam-go/internal/scope"
	"github.com/fuuzen/yam-go/internal/sema"
	"github.com/fuuzen/yam-go/internal/yamerr"
)

// Cell is a single mutable value slot.
type Cell struct {
	Value ast.Value
}

// Frame is one function activation's local storage.
type Frame struct {
	locals  map[*scope.Symbol]*Cell
	retType ast.BaseType // the owning function's declared return type
}

func newFrame(retType ast.BaseType) *Frame {
	return &Frame{locals: make(map[*scope.Symbol]*Cell), retType: retType}
}

// Interp holds the program-lifetime state: the sema resolution results, the
// global cell storage, and function definitions reachable for calls.
type Interp struct {
	res     *sema.Result
	globals map[*scope.Symbol]*Cell
	cur     *Frame // current call activation; nil at top level / in Score
}

func New(res *sema.Result) *Interp {
	return &Interp{res: res, globals: make(map[*scope.Symbol]*Cell)}
}

// cellFor returns the storage cell for sym, creating it with the type's zero
// value on first access (§3 lifecycle: "created at declaration").
func (it *Interp) cellFor(sym *scope.Symbol) *Cell {
	if sym.Local && it.cur != nil {
		if c, ok := it.cur.locals[sym]; ok {
			return c
		}
		c := &Cell{Value: ast.ZeroValue(sym.Type)}
		it.cur.locals[sym] = c
		return c
	}
	if c, ok := it.globals[sym]; ok {
		return c
	}
	c := &Cell{Value: ast.ZeroValue(sym.Type)}
	it.globals[sym] = c
	return c
}

// declare (re)initializes sym's cell to its zero value — called whenever a
// Const/Var declaration statement executes, including repeated executions
// inside a loop body (each execution is an ordinary fresh declaration).
func (it *Interp) declare(sym *scope.Symbol) *Cell {
	c := &Cell{Value: ast.ZeroValue(sym.Type)}
	if sym.Local && it.cur != nil {
		it.cur.locals[sym] = c
	} else {
		it.globals[sym] = c
	}
	return c
}

func (it *Interp) symbolFor(id ast.NodeID) (*scope.Symbol, error) {
	sym, ok := it.res.LValSym[id]
	if !ok {
		return nil, yamerr.Internalf("unbound LVal node %d", id)
	}
	return sym, nil
}

func (it *Interp) declFor(id ast.NodeID) (*ast.FuncDecl, error) {
	fd, ok := it.res.CallDecl[id]
	if !ok {
		return nil, yamerr.Internalf("unbound FuncCall node %d", id)
	}
	return fd, nil
}
