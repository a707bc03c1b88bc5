package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/eac/internal/parser"
)

func checkSource(t *testing.T, src string) (*SymbolTable, []string) {
	t.Helper()
	f, errs := parser.Parse("test.ea", []byte(src))
	if len(errs) > 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	symtab, diags := Check(f, "i32")
	msgs := make([]string, len(diags))
	for i, d := range diags {
		msgs[i] = string(d.Kind)
	}
	return symtab, msgs
}

func Test_Check_binaryArithmetic(t *testing.T) {
	src := `func add(a: i32, b: i32) -> i32 { return a + b; }`
	_, diags := checkSource(t, src)
	assert.Empty(t, diags)
}

func Test_Check_binaryMismatchRejected(t *testing.T) {
	src := `func bad(a: i32, b: f32) -> i32 { return a + b; }`
	_, diags := checkSource(t, src)
	assert.NotEmpty(t, diags)
}

func Test_Check_simdBinary(t *testing.T) {
	src := `func vadd() -> f32x4 {
		let a = [1.0,2.0,3.0,4.0]f32x4;
		let b = [5.0,6.0,7.0,8.0]f32x4;
		return a .+ b;
	}`
	_, diags := checkSource(t, src)
	assert.Empty(t, diags)
}

func Test_Check_simdRelationalAccepted(t *testing.T) {
	src := `func cmp() -> i32 {
		let a = [1.0,2.0,3.0,4.0]f32x4;
		let b = [5.0,6.0,7.0,8.0]f32x4;
		let mask = a .< b;
		return 0;
	}`
	_, diags := checkSource(t, src)
	assert.Empty(t, diags)
}

func Test_Check_simdWidthMismatchRejected(t *testing.T) {
	src := `func bad() -> i32 {
		let a = [1.0,2.0,3.0,4.0]f32x4;
		let b = [5.0,6.0]f32x2;
		let c = a .+ b;
		return 0;
	}`
	_, diags := checkSource(t, src)
	assert.NotEmpty(t, diags)
}

func Test_Check_callArityMismatch(t *testing.T) {
	src := `
		func add(a: i32, b: i32) -> i32 { return a + b; }
		func main() -> i32 { return add(1); }
	`
	_, diags := checkSource(t, src)
	assert.Contains(t, diags, "ArityMismatch")
}

func Test_Check_callUndefinedFunction(t *testing.T) {
	src := `func main() -> i32 { return ghost(1); }`
	_, diags := checkSource(t, src)
	assert.Contains(t, diags, "UndefinedName")
}

func Test_Check_assignToImmutableRejected(t *testing.T) {
	src := `func main() -> i32 { let x = 1; x = 2; return x; }`
	_, diags := checkSource(t, src)
	assert.Contains(t, diags, "NotMutable")
}

func Test_Check_ifExpressionValue(t *testing.T) {
	src := `func main() -> i32 {
		let x = if (true) { 1 } else { 2 };
		return x;
	}`
	_, diags := checkSource(t, src)
	assert.Empty(t, diags)
}

func Test_Check_arrayIndexByInteger(t *testing.T) {
	src := `func main() -> i32 {
		let a = [1,2,3];
		return a[0];
	}`
	_, diags := checkSource(t, src)
	assert.Empty(t, diags)
}

func Test_Check_forwardFunctionReference(t *testing.T) {
	src := `
		func main() -> i32 { return helper(); }
		func helper() -> i32 { return 42; }
	`
	symtab, diags := checkSource(t, src)
	assert.Empty(t, diags)
	assert.Contains(t, symtab.Functions, "helper")
}
