// Package nasm lowers a finalized EASM program into x86-64 NASM source
// that behaves identically to interpreting the program, short of any
// instruction with no native template. The generated code makes none of
// the interpreter's trap checks (stack bounds, memory bounds, division by
// zero), so the two agree only on programs that do not trap.
package nasm

import (
	"fmt"
	"strings"

	"evm/evm"
)

// ErrUnimplemented wraps an instruction index and type that has no NASM
// template yet, in the spirit of the reference lowering's UNIMPLEMENTED
// macro but recoverable as a normal Go error instead of aborting the
// process.
type ErrUnimplemented struct {
	Index uint64
	Type  evm.InstType
}

func (e *ErrUnimplemented) Error() string {
	return fmt.Sprintf("nasm: instruction %d (%s) has no native lowering", e.Index, e.Type.Name())
}

// Program is the input to Lower: a finalized instruction stream, the
// memory image to embed, and the entry instruction index.
type Program struct {
	Insts  []evm.Inst
	Memory []byte
	Entry  uint64
}

// Lower translates prog into NASM source implementing the same semantics
// on a native stack and linear memory buffer.
func Lower(prog Program) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "BITS 64\n")
	fmt.Fprintf(&b, "%%define EVM_STACK_CAPACITY %d\n", evm.StackCap)
	fmt.Fprintf(&b, "%%define EVM_WORD_SIZE %d\n", evm.WordSize)
	fmt.Fprintf(&b, "%%define STDOUT 1\n")
	fmt.Fprintf(&b, "%%define SYS_EXIT 60\n")
	fmt.Fprintf(&b, "%%define SYS_WRITE 1\n")
	fmt.Fprintf(&b, "segment .text\n")
	fmt.Fprintf(&b, "global _start\n")

	jmpIfEscape := 0
	for i, inst := range prog.Insts {
		idx := uint64(i)
		if idx == prog.Entry {
			fmt.Fprintf(&b, "_start:\n")
		}
		fmt.Fprintf(&b, "inst_%d:\n", idx)

		snippet, err := lowerInst(idx, inst, &jmpIfEscape)
		if err != nil {
			return "", err
		}
		b.WriteString(snippet)
	}

	fmt.Fprintf(&b, "\tret\n")
	fmt.Fprintf(&b, "segment .data\n")
	fmt.Fprintf(&b, "stack_top: dq stack\n")

	fmt.Fprintf(&b, "inst_map: dq")
	for i := range prog.Insts {
		fmt.Fprintf(&b, " inst_%d,", i)
	}
	fmt.Fprintf(&b, "\n")

	fmt.Fprintf(&b, "memory:\n")
	const rowSize = 10
	for row := 0; row*rowSize < len(prog.Memory); row++ {
		b.WriteString("\tdb ")
		for col := 0; col < rowSize && row*rowSize+col < len(prog.Memory); col++ {
			fmt.Fprintf(&b, "%d,", prog.Memory[row*rowSize+col])
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\ttimes %d db 0\n", evm.MemoryCap-len(prog.Memory))

	fmt.Fprintf(&b, "segment .bss\n")
	fmt.Fprintf(&b, "stack: resq EVM_STACK_CAPACITY\n")

	return b.String(), nil
}
