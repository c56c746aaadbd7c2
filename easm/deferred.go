package easm

// deferredOperand records an instruction whose operand is a name rather
// than a literal. It is resolved once the whole source (and all of its
// includes) has been read.
type deferredOperand struct {
	Addr     uint64
	Label    string
	Location Location
}

// DeferredCap bounds how many forward references a translation unit may
// accumulate before the second pass runs.
const DeferredCap = 1024
