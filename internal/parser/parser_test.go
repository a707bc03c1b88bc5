package parser

import (
	"testing"
	"time"

	"github.com/dekarrin/eac/internal/ast"
	"github.com/stretchr/testify/assert"
)

func Test_Parse_funcDecl(t *testing.T) {
	src := `func fib(n: i32) -> i32 { if (n <= 1) { return n; } return fib(n-1) + fib(n-2); }`
	f, errs := Parse("test.ea", []byte(src))
	assert.Empty(t, errs)
	assert.Len(t, f.Decls, 1)

	fn, ok := f.Decls[0].(*ast.FuncDecl)
	assert.True(t, ok)
	assert.Equal(t, "fib", fn.Name)
	assert.Len(t, fn.Params, 1)
	assert.Equal(t, "n", fn.Params[0].Name)
	assert.Len(t, fn.Body.Stmts, 2)
}

func Test_Parse_simdVectorLiteral(t *testing.T) {
	src := `func main() -> i32 {
		let a = [1.0,2.0,3.0,4.0]f32x4;
		let b = [5.0,6.0,7.0,8.0]f32x4;
		let c = a .+ b;
		return 0;
	}`
	f, errs := Parse("test.ea", []byte(src))
	assert.Empty(t, errs)

	fn := f.Decls[0].(*ast.FuncDecl)
	letA := fn.Body.Stmts[0].(*ast.LetStmt)
	lit, ok := letA.Init.(*ast.ArrayLit)
	assert.True(t, ok)
	assert.Equal(t, "f32x4", lit.SIMDSuffix)
	assert.Len(t, lit.Elements, 4)

	letC := fn.Body.Stmts[2].(*ast.LetStmt)
	bin, ok := letC.Init.(*ast.BinaryExpr)
	assert.True(t, ok)
	_ = bin
}

func Test_Parse_ifExpression(t *testing.T) {
	src := `func main() -> i32 { let x = if (true) { 1 } else { 2 }; return x; }`
	f, errs := Parse("test.ea", []byte(src))
	assert.Empty(t, errs)

	fn := f.Decls[0].(*ast.FuncDecl)
	let := fn.Body.Stmts[0].(*ast.LetStmt)
	cond, ok := let.Init.(*ast.CondExpr)
	assert.True(t, ok)
	assert.NotNil(t, cond.Then.Tail)
	assert.NotNil(t, cond.Else)
}

func Test_Parse_precedence(t *testing.T) {
	// `1 + 2 * 3` must parse as `1 + (2 * 3)`.
	src := `func main() -> i32 { return 1 + 2 * 3; }`
	f, errs := Parse("test.ea", []byte(src))
	assert.Empty(t, errs)

	fn := f.Decls[0].(*ast.FuncDecl)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	add, ok := ret.Value.(*ast.BinaryExpr)
	assert.True(t, ok)
	_, leftIsLit := add.Left.(*ast.IntLit)
	assert.True(t, leftIsLit)
	mul, ok := add.Right.(*ast.BinaryExpr)
	assert.True(t, ok)
	_, mulLeftIsLit := mul.Left.(*ast.IntLit)
	assert.True(t, mulLeftIsLit)
}

// Test_Parse_recoveryAndForwardProgress exercises spec §8 scenario 6: garbage
// input still yields at least one diagnostic, and the parser terminates.
func Test_Parse_recoveryAndForwardProgress(t *testing.T) {
	src := `func main() -> () { let x = ; let y = 1; return; }`
	f, errs := Parse("test.ea", []byte(src))
	assert.NotEmpty(t, errs)
	assert.NotNil(t, f)
}

// Test_Parse_pathologicalInputTerminates is a coarse stand-in for the linear
// forward-progress property (spec §8): the watchdog guarantees termination
// even when every recovery attempt lands on the same kind of garbage token.
func Test_Parse_pathologicalInputTerminates(t *testing.T) {
	src := "func func func func func func func func func func"
	done := make(chan struct{})
	go func() {
		Parse("test.ea", []byte(src))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("parser did not terminate on pathological input")
	}
}
