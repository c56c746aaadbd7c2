package nasm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"evm/evm"
)

func TestLowerMinimalProgram(t *testing.T) {
	prog := Program{
		Insts: []evm.Inst{
			{Type: evm.Push, Operand: evm.WordU64(10)},
			{Type: evm.Push, Operand: evm.WordU64(32)},
			{Type: evm.Plusi},
			{Type: evm.Halt},
		},
		Entry: 0,
	}

	out, err := Lower(prog)
	require.NoError(t, err)
	require.Contains(t, out, "_start:")
	require.Contains(t, out, "inst_0:")
	require.Contains(t, out, "inst_map: dq inst_0, inst_1, inst_2, inst_3,")
	require.Contains(t, out, "syscall")
	require.True(t, strings.HasPrefix(out, "BITS 64\n"))
}

func TestLowerRejectsUnmappedNative(t *testing.T) {
	prog := Program{
		Insts: []evm.Inst{
			{Type: evm.Native, Operand: evm.WordU64(3)},
		},
	}
	_, err := Lower(prog)
	require.Error(t, err)
}

func TestLowerAcceptsWriteNative(t *testing.T) {
	prog := Program{
		Insts: []evm.Inst{
			{Type: evm.Native, Operand: evm.WordU64(0)},
			{Type: evm.Halt},
		},
	}
	out, err := Lower(prog)
	require.NoError(t, err)
	require.Contains(t, out, "SYS_WRITE")
}

func TestLowerEmbedsMemory(t *testing.T) {
	prog := Program{
		Insts:  []evm.Inst{{Type: evm.Halt}},
		Memory: []byte("hi"),
	}
	out, err := Lower(prog)
	require.NoError(t, err)
	require.Contains(t, out, "db 104,105,")
}

func TestLowerComparisonOrder(t *testing.T) {
	prog := Program{
		Insts: []evm.Inst{{Type: evm.Lti}},
	}
	out, err := Lower(prog)
	require.NoError(t, err)
	// second-from-top is loaded into rax, top into rbx: cmp rax, rbx.
	require.Contains(t, out, "\tmov rbx, [rsi]\n\tsub rsi, EVM_WORD_SIZE\n\tmov rax, [rsi]\n\tcmp rax, rbx\n\tmov rax, 0\n\tsetl al\n")
}
