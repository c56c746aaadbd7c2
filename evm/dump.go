package evm

import "fmt"

// StackRow is one renderable line of a stack dump: the four overlayed
// interpretations of a single Word, as evm_dump_stack prints them.
type StackRow struct {
	U64 uint64
	I64 int64
	F64 float64
	Ptr uint64
}

// DumpStack returns the current stack contents bottom-to-top, for a
// caller to render as a table or plain listing.
func (vm *VM) DumpStack() []StackRow {
	rows := make([]StackRow, vm.StackSize)
	for i := uint64(0); i < vm.StackSize; i++ {
		w := vm.Stack[i]
		rows[i] = StackRow{U64: w.U64(), I64: w.I64(), F64: w.F64(), Ptr: w.U64()}
	}
	return rows
}

// Strings renders a StackRow the way a debugger table cell would.
func (r StackRow) Strings() []string {
	return []string{
		fmt.Sprintf("%d", r.U64),
		fmt.Sprintf("%d", r.I64),
		fmt.Sprintf("%g", r.F64),
		fmt.Sprintf("%#x", r.Ptr),
	}
}

// MemoryWindow returns count bytes of memory starting at addr, clamped to
// the memory capacity. It never panics on an out-of-range request; callers
// get back whatever prefix is in bounds.
func (vm *VM) MemoryWindow(addr, count uint64) []byte {
	if addr >= MemoryCap {
		return nil
	}
	end := addr + count
	if end > MemoryCap || end < addr {
		end = MemoryCap
	}
	return vm.Memory[addr:end]
}
