package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/eac/internal/config"
)

func Test_Compile_simpleFunction(t *testing.T) {
	src := `func main() -> i32 { return 42; }`
	res := Compile("test.ea", []byte(src), config.Default(), nil)
	require.Empty(t, res.Diagnostics)
	assert.Contains(t, res.IR, "@main")
	assert.False(t, res.FromCache)
}

func Test_Compile_lexErrorStopsPipeline(t *testing.T) {
	src := `func main() -> i32 { return "unterminated }`
	res := Compile("test.ea", []byte(src), config.Default(), nil)
	assert.NotEmpty(t, res.Diagnostics)
	assert.Nil(t, res.Module)
}

func Test_Compile_semaErrorStopsBeforeCodegen(t *testing.T) {
	src := `func main() -> i32 { return "not an int"; }`
	res := Compile("test.ea", []byte(src), config.Default(), nil)
	assert.NotEmpty(t, res.Diagnostics)
	assert.Nil(t, res.Module)
}

func Test_CompileToAST_and_Check(t *testing.T) {
	src := `func add(a: i32, b: i32) -> i32 { return a + b; }`
	file, errs := CompileToAST("test.ea", []byte(src))
	require.Empty(t, errs)

	symtab, errs := Check(file, "i32")
	require.Empty(t, errs)
	assert.Contains(t, symtab.Functions, "add")
}

func Test_Compile_defaultIntWidthOverrideChangesInference(t *testing.T) {
	src := `func main() -> i32 { let x: i64 = 1; return 0; }`

	cfgI32 := config.Default()
	cfgI32.DefaultIntWidth = "i32"
	res := Compile("test.ea", []byte(src), cfgI32, nil)
	assert.NotEmpty(t, res.Diagnostics, "unsuffixed 1 should infer i32 and mismatch the i64 annotation")

	cfgI64 := config.Default()
	cfgI64.DefaultIntWidth = "i64"
	res = Compile("test.ea", []byte(src), cfgI64, nil)
	assert.Empty(t, res.Diagnostics, "unsuffixed 1 should infer i64 under the override and match the annotation")
}
