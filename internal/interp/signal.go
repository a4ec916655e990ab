package interp

import "github.com/fuuzen/yam-go/internal/ast"

// SignalKind is the three-way (really four-way) control-flow signal
// produced by every statement (§4.E, §9): Normal, Break, Continue, or
// Return carrying an optional value.
type SignalKind int

const (
	Normal SignalKind = iota
	Break
	Continue
	Return
)

type Signal struct {
	Kind   SignalKind
	Value  ast.Value // set iff Kind == Return and the function is non-void
	HasVal bool
}

var sigNormal = Signal{Kind: Normal}
var sigBreak = Signal{Kind: Break}
var sigContinue = Signal{Kind: Continue}

func sigReturn(v ast.Value) Signal {
	if v == nil {
		return Signal{Kind: Return}
	}
	return Signal{Kind: Return, Value: v, HasVal: true}
}
