package evm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWordReinterpretation(t *testing.T) {
	require.EqualValues(t, 42, WordU64(42).U64())
	require.EqualValues(t, -1, WordI64(-1).I64())
	require.InDelta(t, 3.5, WordF64(3.5).F64(), 0.0)
	require.EqualValues(t, uint64(0xFFFFFFFFFFFFFFFF), WordI64(-1).U64())
}

func TestInstByName(t *testing.T) {
	typ, ok := InstByName("jmp_if")
	require.True(t, ok)
	require.Equal(t, JmpIf, typ)
	require.True(t, typ.HasOperand())
	require.Equal(t, "jmp_if", typ.Name())

	_, ok = InstByName("not_an_inst")
	require.False(t, ok)
}

func TestTrapIsError(t *testing.T) {
	var err error = DivByZero
	require.EqualError(t, err, "ERR_DIV_BY_ZERO")
}
