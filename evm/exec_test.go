package evm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func program(insts ...Inst) *VM {
	vm := New()
	for _, inst := range insts {
		vm.PushInst(inst)
	}
	return vm
}

func push(v Word) Inst { return Inst{Type: Push, Operand: v} }

func TestArithmetic(t *testing.T) {
	vm := program(
		push(WordI64(10)),
		push(WordI64(3)),
		Inst{Type: Minusi},
		Inst{Type: Halt},
	)
	require.Equal(t, Ok, vm.Run(-1))
	require.EqualValues(t, 1, vm.StackSize)
	require.EqualValues(t, 7, vm.Stack[0].I64())
}

func TestDivByZero(t *testing.T) {
	vm := program(
		push(WordI64(1)),
		push(WordI64(0)),
		Inst{Type: Divi},
	)
	require.Equal(t, DivByZero, vm.Run(-1))
}

func TestStackUnderflow(t *testing.T) {
	vm := program(Inst{Type: Drop})
	require.Equal(t, StackUnderflow, vm.Run(-1))
}

func TestStackOverflowOnLoop(t *testing.T) {
	vm := program(
		push(WordU64(5)),
		Inst{Type: Jmp, Operand: WordU64(0)},
	)
	require.Equal(t, StackOverflow, vm.Run(-1))
}

func TestIllegalInstAccess(t *testing.T) {
	vm := New()
	require.Equal(t, IllegalInstAccess, vm.Step())
}

func TestDupAndSwap(t *testing.T) {
	vm := program(
		push(WordU64(1)),
		push(WordU64(2)),
		Inst{Type: Dup, Operand: WordU64(1)},
		Inst{Type: Halt},
	)
	require.Equal(t, Ok, vm.Run(-1))
	require.EqualValues(t, 3, vm.StackSize)
	require.EqualValues(t, 1, vm.Stack[2].U64())

	vm = program(
		push(WordU64(1)),
		push(WordU64(2)),
		Inst{Type: Swap, Operand: WordU64(1)},
		Inst{Type: Halt},
	)
	require.Equal(t, Ok, vm.Run(-1))
	require.EqualValues(t, 2, vm.Stack[0].U64())
	require.EqualValues(t, 1, vm.Stack[1].U64())

	vm = program(push(WordU64(1)), Inst{Type: Dup, Operand: WordU64(1)})
	require.Equal(t, StackUnderflow, vm.Run(-1))
}

func TestCallRet(t *testing.T) {
	// call fn; halt; fn: push 42; swap 1; ret
	vm := program(
		Inst{Type: Call, Operand: WordU64(2)},
		Inst{Type: Halt},
		push(WordU64(42)),
		Inst{Type: Swap, Operand: WordU64(1)},
		Inst{Type: Ret},
	)
	require.Equal(t, Ok, vm.Run(-1))
	require.EqualValues(t, 1, vm.StackSize)
	require.EqualValues(t, 42, vm.Stack[0].U64())
}

func TestMemoryRoundTrip(t *testing.T) {
	vm := program(
		push(WordU64(100)),  // addr
		push(WordU64(0xABCD)), // value
		Inst{Type: Write32},
		push(WordU64(100)), // addr
		Inst{Type: Read32},
		Inst{Type: Halt},
	)
	require.Equal(t, Ok, vm.Run(-1))
	require.EqualValues(t, 1, vm.StackSize)
	require.EqualValues(t, 0xABCD, vm.Stack[0].U64())
}

func TestIllegalMemoryAccess(t *testing.T) {
	vm := program(
		push(WordU64(MemoryCap)),
		Inst{Type: Read8},
	)
	require.Equal(t, IllegalMemoryAccess, vm.Run(-1))
}

func TestNativeDispatch(t *testing.T) {
	vm := New()
	called := false
	idx := vm.PushNative(func(vm *VM) Trap {
		called = true
		return Ok
	})
	vm.PushInst(Inst{Type: Native, Operand: WordU64(idx)})
	vm.PushInst(Inst{Type: Halt})
	require.Equal(t, Ok, vm.Run(-1))
	require.True(t, called)
}

func TestNullNative(t *testing.T) {
	vm := New()
	vm.nativesSize = 1 // slot reserved, never assigned
	vm.PushInst(Inst{Type: Native, Operand: WordU64(0)})
	require.Equal(t, NullNative, vm.Run(-1))
}

func TestCasts(t *testing.T) {
	vm := program(
		push(WordI64(-7)),
		Inst{Type: I2f},
		Inst{Type: F2i},
		Inst{Type: Halt},
	)
	require.Equal(t, Ok, vm.Run(-1))
	require.EqualValues(t, -7, vm.Stack[0].I64())
}

func TestComparisonOperandOrder(t *testing.T) {
	// second-from-top OP top: 10 lti 3 -> false (10 < 3 is false)
	vm := program(
		push(WordI64(10)),
		push(WordI64(3)),
		Inst{Type: Lti},
		Inst{Type: Halt},
	)
	require.Equal(t, Ok, vm.Run(-1))
	require.EqualValues(t, 0, vm.Stack[0].U64())
}
