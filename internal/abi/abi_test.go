package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Lookup_coreSymbol(t *testing.T) {
	sym, ok := Lookup("puts")
	assert.True(t, ok)
	assert.Equal(t, "puts", sym.Name)
}

func Test_Lookup_optionalSymbol(t *testing.T) {
	sym, ok := Lookup("vec_new")
	assert.True(t, ok)
	assert.Equal(t, "vec_new", sym.Name)
}

func Test_Lookup_unknownSymbol(t *testing.T) {
	_, ok := Lookup("not_a_real_symbol")
	assert.False(t, ok)
}

func Test_All_includesCoreAndOptional(t *testing.T) {
	all := All()
	assert.Len(t, all, len(Core)+len(Optional))
	assert.Equal(t, Core[0].Name, all[0].Name)
}

func Test_LookupBuiltin_printlnAndPrintShareSignature(t *testing.T) {
	println_, ok := LookupBuiltin("println")
	assert.True(t, ok)
	print_, ok := LookupBuiltin("print")
	assert.True(t, ok)
	assert.Equal(t, println_.Params, print_.Params)
}

func Test_LookupBuiltin_unknown(t *testing.T) {
	_, ok := LookupBuiltin("println_with_typo")
	assert.False(t, ok)
}
