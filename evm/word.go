// Package evm implements the stack-based virtual machine: a fixed-capacity
// value stack, program and linear memory, and the closed instruction set
// that operates on them.
package evm

import "math"

// WordSize is the width in bytes of a single stack/memory cell. It is a
// contract of the binary file format and the NASM backend, not just an
// implementation detail.
const WordSize = 8

// Word is a 64-bit cell with four overlayed interpretations: unsigned,
// signed, IEEE-754 double, and opaque pointer. No tag is stored; callers
// reinterpret the same bits through whichever accessor the instruction
// calls for.
type Word uint64

// WordU64 builds a Word from its unsigned interpretation.
func WordU64(u uint64) Word { return Word(u) }

// WordI64 builds a Word from its signed interpretation.
func WordI64(i int64) Word { return Word(uint64(i)) }

// WordF64 builds a Word from its IEEE-754 double interpretation.
func WordF64(f float64) Word { return Word(math.Float64bits(f)) }

// WordPtr builds a Word from an opaque pointer-sized interpretation.
func WordPtr(p uint64) Word { return Word(p) }

// U64 reinterprets the word as unsigned.
func (w Word) U64() uint64 { return uint64(w) }

// I64 reinterprets the word as signed.
func (w Word) I64() int64 { return int64(w) }

// F64 reinterprets the word as an IEEE-754 double.
func (w Word) F64() float64 { return math.Float64frombits(uint64(w)) }

// Ptr reinterprets the word as an opaque pointer-sized value.
func (w Word) Ptr() uint64 { return uint64(w) }
