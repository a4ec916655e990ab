package interp

import (
	"github.com/fuuzen/yam-go/internal/ast"
	"github.com/fuuzen/yam-go/internal/yamerr"
)

// EvalInt reduces an expression to an Int value (§4.D). Operators are
// standard two's-complement; division and modulo by zero fail
// ArithmeticError. && and || short-circuit: the right operand is not
// evaluated (so no side-effecting call inside it runs) when the left
// operand already determines the result.
func (it *Interp) EvalInt(e ast.Expr) (int32, error) {
	switch v := e.(type) {
	case *ast.IntLit:
		return v.Value, nil

	case *ast.LVal:
		sym, err := it.symbolFor(v.ID)
		if err != nil {
			return 0, err
		}
		cell := it.cellFor(sym)
		iv, ok := cell.Value.(ast.IntValue)
		if !ok {
			return 0, yamerr.Runtimef(yamerr.TypeError, "%q is not an Int", v.Name)
		}
		return int32(iv), nil

	case *ast.FuncCall:
		val, err := it.Call(v)
		if err != nil {
			return 0, err
		}
		iv, ok := val.(ast.IntValue)
		if !ok {
			return 0, yamerr.Runtimef(yamerr.TypeError, "call to %q did not yield an Int", v.Name)
		}
		return int32(iv), nil

	case *ast.UnaryExpr:
		x, err := it.EvalInt(v.X)
		if err != nil {
			return 0, err
		}
		switch v.Op {
		case ast.UnaryPlus:
			return x, nil
		case ast.UnaryNeg:
			return -x, nil
		case ast.UnaryNot:
			return boolToInt(x == 0), nil
		}
		return 0, yamerr.Internalf("unknown unary op %d", v.Op)

	case *ast.BinaryExpr:
		return it.evalBinary(v)
	}
	return 0, yamerr.Internalf("unknown expression node %T", e)
}

func (it *Interp) evalBinary(v *ast.BinaryExpr) (int32, error) {
	// && and || short-circuit before the right operand is touched.
	if v.Op == ast.OpAnd {
		l, err := it.EvalInt(v.L)
		if err != nil {
			return 0, err
		}
		if l == 0 {
			return 0, nil
		}
		r, err := it.EvalInt(v.R)
		if err != nil {
			return 0, err
		}
		return boolToInt(r != 0), nil
	}
	if v.Op == ast.OpOr {
		l, err := it.EvalInt(v.L)
		if err != nil {
			return 0, err
		}
		if l != 0 {
			return 1, nil
		}
		r, err := it.EvalInt(v.R)
		if err != nil {
			return 0, err
		}
		return boolToInt(r != 0), nil
	}

	l, err := it.EvalInt(v.L)
	if err != nil {
		return 0, err
	}
	r, err := it.EvalInt(v.R)
	if err != nil {
		return 0, err
	}

	switch v.Op {
	case ast.OpAdd:
		return l + r, nil
	case ast.OpSub:
		return l - r, nil
	case ast.OpMul:
		return l * r, nil
	case ast.OpDiv:
		if r == 0 {
			return 0, yamerr.Runtimef(yamerr.ArithmeticError, "division by zero")
		}
		return l / r, nil
	case ast.OpMod:
		if r == 0 {
			return 0, yamerr.Runtimef(yamerr.ArithmeticError, "modulo by zero")
		}
		return l % r, nil
	case ast.OpEq:
		return boolToInt(l == r), nil
	case ast.OpNeq:
		return boolToInt(l != r), nil
	case ast.OpLt:
		return boolToInt(l < r), nil
	case ast.OpLe:
		return boolToInt(l <= r), nil
	case ast.OpGt:
		return boolToInt(l > r), nil
	case ast.OpGe:
		return boolToInt(l >= r), nil
	}
	return 0, yamerr.Internalf("unknown binary op %d", v.Op)
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
