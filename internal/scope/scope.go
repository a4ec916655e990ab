// Package scope implements the block-indexed symbol table of §4.B: a name to
// Symbol map per block with a parent-block chain walked by resolve. Blocks,
// once built, own their own map — shadowing across blocks is permitted,
// redeclaration within one is not.
package scope

import (
	"github.com/fuuzen/yam-go/internal/ast"
	"github.com/fuuzen/yam-go/internal/yamerr"
)

// Symbol is either a value symbol (constant flag + declared type) or a
// function symbol (handle to its FuncDecl). The runtime value cell itself is
// not stored here — per §9's redesign note, storage lives in the
// interpreter's global map or a per-call interp.Frame, not on the symbol
// table or the AST.
type Symbol struct {
	Name   string
	IsFunc bool
	Const  bool
	Type   ast.BaseType // meaningful when !IsFunc
	Func   *ast.FuncDecl
	// Local is true when this symbol's storage lives in a per-call activation
	// frame (it is a function parameter, or declared inside a function body)
	// rather than in the program's persistent global storage. Set by sema.
	Local bool
}

// Scope is one block's symbol table plus a link to its lexical parent.
// Parent is nil for the global scope.
type Scope struct {
	BlockID ast.NodeID
	Parent  *Scope
	names   map[string]*Symbol
}

func New(blockID ast.NodeID, parent *Scope) *Scope {
	return &Scope{BlockID: blockID, Parent: parent, names: make(map[string]*Symbol)}
}

// Declare registers a value symbol in this scope. Fails Redeclared if the
// name already exists in THIS block (shadowing an outer block is fine).
func (s *Scope) Declare(name string, constFlag bool, t ast.BaseType) (*Symbol, error) {
	if _, exists := s.names[name]; exists {
		return nil, yamerr.Semanticf(yamerr.Redeclared, "%q already declared in this block", name)
	}
	sym := &Symbol{Name: name, Const: constFlag, Type: t}
	s.names[name] = sym
	return sym, nil
}

// DeclareFunc registers a function symbol, same uniqueness rule as Declare.
func (s *Scope) DeclareFunc(name string, fn *ast.FuncDecl) (*Symbol, error) {
	if _, exists := s.names[name]; exists {
		return nil, yamerr.Semanticf(yamerr.Redeclared, "%q already declared in this block", name)
	}
	sym := &Symbol{Name: name, IsFunc: true, Func: fn}
	s.names[name] = sym
	return sym, nil
}

// LookupHere returns the symbol declared directly in this block, if any.
func (s *Scope) LookupHere(name string) (*Symbol, bool) {
	sym, ok := s.names[name]
	return sym, ok
}

// Resolve walks the parent chain starting at s until a symbol named name is
// found, returning Undefined if the chain is exhausted.
func (s *Scope) Resolve(name string) (*Symbol, error) {
	for cur := s; cur != nil; cur = cur.Parent {
		if sym, ok := cur.names[name]; ok {
			return sym, nil
		}
	}
	return nil, yamerr.Semanticf(yamerr.Undefined, "undefined identifier %q", name)
}
