package evm

// Resource bounds are compile-time constants, not growable containers.
// The bounded nature of stack/program/memory/natives is part of the
// contract the file format and invariants are tested against.
const (
	StackCap   = 1024
	ProgramCap = 1024
	NativesCap = 1024
	MemoryCap  = 640_000
)

// NativeFunc is a host-provided callback invoked by the native instruction.
// It sees the full VM state and runs to completion before control returns
// to the engine; it must never call Step or Run recursively.
type NativeFunc func(vm *VM) Trap

// VM owns a fixed-capacity value stack, program, linear memory, and
// native-callback table. Stack, program, and memory are never aliased by
// anything else; callers must re-load from a saved file to hand a program
// to a fresh VM.
type VM struct {
	Stack     [StackCap]Word
	StackSize uint64

	Program     [ProgramCap]Inst
	ProgramSize uint64
	IP          uint64

	Memory [MemoryCap]byte

	natives     [NativesCap]NativeFunc
	nativesSize uint64

	Halt bool
}

// New returns a zeroed VM ready to have a program pushed or loaded into it.
func New() *VM {
	return &VM{}
}

// PushInst appends an instruction to the program, as used when building a
// VM's program directly (tests, in-memory assembly) rather than loading a
// saved file.
func (vm *VM) PushInst(inst Inst) {
	if vm.ProgramSize >= ProgramCap {
		panic("evm: program capacity exceeded")
	}
	vm.Program[vm.ProgramSize] = inst
	vm.ProgramSize++
}

// PushNative registers a native callback at the next free index and
// returns that index, mirroring evm_push_native's append-only dispatch
// table.
func (vm *VM) PushNative(n NativeFunc) uint64 {
	if vm.nativesSize >= NativesCap {
		panic("evm: natives capacity exceeded")
	}
	idx := vm.nativesSize
	vm.natives[idx] = n
	vm.nativesSize++
	return idx
}
