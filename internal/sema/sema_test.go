package sema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fuuzen/yam-go/internal/parser"
	"github.com/fuuzen/yam-go/internal/yamerr"
)

func analyzeSrc(t *testing.T, src string) (*Result, error) {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	return Analyze(prog)
}

func TestAnalyzeValidProgram(t *testing.T) {
	_, err := analyzeSrc(t, `
const int limit = 10;
func int add(int a, int b) {
	return a + b;
}
score {
	var int x = add(1, 2);
	SetTempo(120);
	SetTimeSignature(4, 4);
}
`)
	require.NoError(t, err)
}

func TestRedeclaredInSameBlock(t *testing.T) {
	_, err := analyzeSrc(t, `
score {
	var int x = 1;
	var int x = 2;
}
`)
	requireSemanticSub(t, err, yamerr.Redeclared)
}

func TestShadowingAcrossBlocksIsFine(t *testing.T) {
	_, err := analyzeSrc(t, `
score {
	var int x = 1;
	if (x == 1) {
		var int x = 2;
	}
}
`)
	require.NoError(t, err)
}

func TestUndefinedIdentifier(t *testing.T) {
	_, err := analyzeSrc(t, `
score {
	var int x = y;
}
`)
	requireSemanticSub(t, err, yamerr.Undefined)
}

func TestAssignToConstIsNotAssignable(t *testing.T) {
	_, err := analyzeSrc(t, `
score {
	const int x = 1;
	x = 2;
}
`)
	requireSemanticSub(t, err, yamerr.NotAssignable)
}

func TestTypeMismatchOnDecl(t *testing.T) {
	_, err := analyzeSrc(t, `
score {
	var Note n = Measure {};
}
`)
	requireSemanticSub(t, err, yamerr.TypeMismatch)
}

func TestMeasureTypeRequiresBarePrimary(t *testing.T) {
	_, err := analyzeSrc(t, `
func Measure m1() { var Measure a; return a; }
func Measure m2() { var Measure a; return a; }
score {
	var Measure a = m1();
	var Measure b = m2();
	var Phrase p = Phrase { a, b };
}
`)
	require.NoError(t, err)
}

func TestNonArithmeticOperandOnMeasureExpr(t *testing.T) {
	// Bare Measure-typed primaries (LVal or call) are accepted wherever a
	// Measure is expected...
	_, err := analyzeSrc(t, `
func Measure f() { var Measure a; return a; }
score {
	var Measure a = f();
	var Phrase p = Phrase { a, a };
}
`)
	require.NoError(t, err)

	// ...but a Measure-typed function parameter fed an operator expression
	// is rejected: Measure/Phrase/Track never participate in operators.
	_, err = analyzeSrc(t, `
func int useMeasure(Measure m) { return 0; }
score {
	var Measure a;
	var int x = useMeasure(a + a);
}
`)
	requireSemanticSub(t, err, yamerr.NonArithmeticOperand)
}

func TestArityMismatch(t *testing.T) {
	_, err := analyzeSrc(t, `
func int add(int a, int b) { return a + b; }
score {
	var int x = add(1);
}
`)
	requireSemanticSub(t, err, yamerr.ArityMismatch)
}

func TestUnknownFunction(t *testing.T) {
	_, err := analyzeSrc(t, `
score {
	var int x = doesNotExist(1);
}
`)
	requireSemanticSub(t, err, yamerr.UnknownFunction)
}

func TestReturnOutsideFunction(t *testing.T) {
	_, err := analyzeSrc(t, `score { return 1; }`)
	requireSemanticSub(t, err, yamerr.ReturnOutsideFunc)
}

func TestReturnTypeMismatch(t *testing.T) {
	_, err := analyzeSrc(t, `
func int f() { return; }
score { var int x = f(); }
`)
	requireSemanticSub(t, err, yamerr.ReturnTypeMismatch)
}

func TestBreakOutsideLoop(t *testing.T) {
	_, err := analyzeSrc(t, `
score {
	break;
}
`)
	requireSemanticSub(t, err, yamerr.LoopOnlyKeyword)
}

func TestContinueInsideLoopIsFine(t *testing.T) {
	_, err := analyzeSrc(t, `
score {
	var int i = 0;
	while (i < 3) {
		i = i + 1;
		continue;
	}
}
`)
	require.NoError(t, err)
}

func TestFunctionBodyDoesNotSeeEnclosingBlockOnlyGlobals(t *testing.T) {
	// Functions close over globals + own params only: a global is visible
	// inside a function body...
	_, err := analyzeSrc(t, `
var int g = 1;
func int readsGlobal() { return g; }
score {
	var int x = readsGlobal();
}
`)
	require.NoError(t, err)

	// ...but a Score-local variable is not.
	_, err = analyzeSrc(t, `
func int readsLocal() { return x; }
score {
	var int x = 1;
	var int y = readsLocal();
}
`)
	requireSemanticSub(t, err, yamerr.Undefined)
}

func requireSemanticSub(t *testing.T, err error, want yamerr.Sub) {
	t.Helper()
	require.Error(t, err)
	ye, ok := err.(*yamerr.Error)
	require.True(t, ok, "expected *yamerr.Error, got %T", err)
	require.Equal(t, yamerr.Semantic, ye.Kind)
	require.Equal(t, want, ye.Sub)
}
