package easm

import (
	"strconv"
	"strings"

	"evm/evm"
)

// translateLiteral parses a single token as a char, string, integer, or
// float literal, in that order. String literals are pushed into the
// assembler's memory image and the literal's Word is the address they
// were written to; everything else just encodes into the Word's bits.
// There is no escape-sequence support, matching the reference lexer.
func (a *Assembler) translateLiteral(tok string) (evm.Word, bool) {
	if n := len(tok); n >= 2 && tok[0] == '\'' && tok[n-1] == '\'' {
		if n-2 != 1 {
			return 0, false
		}
		return evm.WordU64(uint64(tok[1])), true
	}

	if n := len(tok); n >= 2 && tok[0] == '"' && tok[n-1] == '"' {
		return a.pushString(tok[1 : n-1]), true
	}

	if u, err := strconv.ParseUint(tok, 10, 64); err == nil {
		return evm.WordU64(u), true
	}
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return evm.WordI64(i), true
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return evm.WordF64(f), true
	}
	return 0, false
}

// pushString copies s into the assembler's memory image and returns a
// Word holding the address it was written at.
func (a *Assembler) pushString(s string) evm.Word {
	if a.memorySize+uint64(len(s)) > evm.MemoryCap {
		panic("easm: memory capacity exceeded")
	}
	addr := a.memorySize
	copy(a.memory[addr:], s)
	a.memorySize += uint64(len(s))
	if a.memorySize > a.memoryCapacity {
		a.memoryCapacity = a.memorySize
	}
	return evm.WordU64(addr)
}

// trimComment strips everything from the first comment character onward.
func trimComment(line string, commentChar byte) string {
	if idx := strings.IndexByte(line, commentChar); idx >= 0 {
		return line[:idx]
	}
	return line
}
