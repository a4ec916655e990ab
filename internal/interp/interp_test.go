package interp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fuuzen/yam-go/internal/ast"
	"github.com/fuuzen/yam-go/internal/parser"
	"github.com/fuuzen/yam-go/internal/sema"
)

// compile parses and analyzes src, returning a fresh interpreter ready to
// execute prog.Score.Body.
func compile(t *testing.T, src string) (*ast.Program, *Interp) {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	res, err := sema.Analyze(prog)
	require.NoError(t, err)
	return prog, New(res)
}

// intOf reads the Int value a top-level Score-body VarStmt/ConstStmt ended
// up holding in globals, looked up by its declared name among the body's
// statements.
func intOf(t *testing.T, it *Interp, prog *ast.Program, name string) int32 {
	t.Helper()
	for _, st := range prog.Score.Body.Stmts {
		var id ast.NodeID
		switch v := st.(type) {
		case *ast.VarStmt:
			if v.Name == name {
				id = v.ID
			}
		case *ast.ConstStmt:
			if v.Name == name {
				id = v.ID
			}
		}
		if id != 0 {
			sym, err := it.symbolFor(id)
			require.NoError(t, err)
			val := it.cellFor(sym).Value
			iv, ok := val.(ast.IntValue)
			require.True(t, ok, "%s is not an Int value", name)
			return int32(iv)
		}
	}
	t.Fatalf("no top-level declaration named %q in score body", name)
	return 0
}

func TestArithmeticAndPrecedence(t *testing.T) {
	prog, it := compile(t, `
score {
	var int x = 2 + 3 * 4;
	var int y = (2 + 3) * 4;
}
`)
	sig, err := it.ExecBlock(prog.Score.Body)
	require.NoError(t, err)
	require.Equal(t, Normal, sig.Kind)
	require.EqualValues(t, 14, intOf(t, it, prog, "x"))
	require.EqualValues(t, 20, intOf(t, it, prog, "y"))
}

func TestDivisionAndModuloByZero(t *testing.T) {
	prog, it := compile(t, `
score {
	var int z = 1 / 0;
}
`)
	_, err := it.ExecBlock(prog.Score.Body)
	require.Error(t, err)

	prog, it = compile(t, `
score {
	var int z = 1 % 0;
}
`)
	_, err = it.ExecBlock(prog.Score.Body)
	require.Error(t, err)
}

func TestShortCircuitOr(t *testing.T) {
	// y = 1 || setX() must NOT call setX, whose body assigns the global x:
	// x stays 0.
	prog, it := compile(t, `
var int x;
func int setX() {
	x = 5;
	return 1;
}
score {
	var int y = 1 || setX();
	var int xAfter = x;
}
`)
	_, err := it.ExecBlock(prog.Score.Body)
	require.NoError(t, err)
	require.EqualValues(t, 0, intOf(t, it, prog, "xAfter"))
	require.EqualValues(t, 1, intOf(t, it, prog, "y"))
}

func TestShortCircuitAnd(t *testing.T) {
	prog, it := compile(t, `
var int x;
func int setX() {
	x = 5;
	return 1;
}
score {
	var int y = 0 && setX();
	var int xAfter = x;
}
`)
	_, err := it.ExecBlock(prog.Score.Body)
	require.NoError(t, err)
	require.EqualValues(t, 0, intOf(t, it, prog, "xAfter"), "right side of && must not run once left is false")
	require.EqualValues(t, 0, intOf(t, it, prog, "y"))
}

func TestWhileBreakAndContinue(t *testing.T) {
	prog, it := compile(t, `
score {
	var int i = 0;
	var int sum = 0;
	while (i < 10) {
		i = i + 1;
		if (i == 5) {
			continue;
		}
		if (i > 7) {
			break;
		}
		sum = sum + i;
	}
}
`)
	_, err := it.ExecBlock(prog.Score.Body)
	require.NoError(t, err)
	// i goes 1..8, skipping the sum add at i==5, breaking once i>7 (i==8,
	// sum not updated that iteration either): sum = 1+2+3+4+6+7 = 23
	require.EqualValues(t, 23, intOf(t, it, prog, "sum"))
	require.EqualValues(t, 8, intOf(t, it, prog, "i"))
}

func TestForLoopContinueStillRunsPost(t *testing.T) {
	// Regression: a desugared for-loop's increment clause must run on a
	// `continue`d iteration, not be skipped along with the rest of the body.
	prog, it := compile(t, `
score {
	var int sum = 0;
	for (var int i = 0; i < 5; i = i + 1) {
		if (i == 2) {
			continue;
		}
		sum = sum + i;
	}
}
`)
	_, err := it.ExecBlock(prog.Score.Body)
	require.NoError(t, err)
	// i runs 0,1,2,3,4 (skipping the sum add at i==2): 0+1+3+4 = 8
	require.EqualValues(t, 8, intOf(t, it, prog, "sum"))
}

func TestRecursionFactorial(t *testing.T) {
	prog, it := compile(t, `
func int fact(int n) {
	if (n <= 1) {
		return 1;
	}
	return n * fact(n - 1);
}
score {
	var int r = fact(5);
}
`)
	_, err := it.ExecBlock(prog.Score.Body)
	require.NoError(t, err)
	require.EqualValues(t, 120, intOf(t, it, prog, "r"))
}

func TestMissingReturnIsRuntimeError(t *testing.T) {
	prog, it := compile(t, `
func int broken(int n) {
	if (n > 0) {
		return n;
	}
}
score {
	var int r = broken(0);
}
`)
	_, err := it.ExecBlock(prog.Score.Body)
	require.Error(t, err)
}

func TestEachCallGetsFreshFrame(t *testing.T) {
	// Regression for the shared-cell recursion bug: two sibling calls to a
	// function with the same parameter name must not observe each other's
	// argument.
	prog, it := compile(t, `
func int double(int n) {
	return n * 2;
}
score {
	var int a = double(3);
	var int b = double(10);
}
`)
	_, err := it.ExecBlock(prog.Score.Body)
	require.NoError(t, err)
	require.EqualValues(t, 6, intOf(t, it, prog, "a"))
	require.EqualValues(t, 20, intOf(t, it, prog, "b"))
}

func TestNoteReduction(t *testing.T) {
	prog, it := compile(t, `
score {
	var Note chord = Note(60, 64, 67) len 2;
}
`)
	sig, err := it.ExecBlock(prog.Score.Body)
	require.NoError(t, err)
	require.Equal(t, Normal, sig.Kind)

	for _, st := range prog.Score.Body.Stmts {
		vs, ok := st.(*ast.VarStmt)
		if !ok || vs.Name != "chord" {
			continue
		}
		sym, err := it.symbolFor(vs.ID)
		require.NoError(t, err)
		nv, ok := it.cellFor(sym).Value.(*ast.NoteValue)
		require.True(t, ok)
		require.Equal(t, []int32{60, 64, 67}, nv.Pitches)
		require.NotNil(t, nv.Len)
		require.EqualValues(t, 2, *nv.Len)
	}
}
