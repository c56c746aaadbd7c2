// Package easm implements the two-pass assembler that translates EASM
// source text into an evm.VM program and memory image.
package easm

import "fmt"

// Location identifies a source position for diagnostics: a file path and
// a 1-based line number, the same granularity the reference assembler's
// File_Location carries.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}
