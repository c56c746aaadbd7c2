package easm

import "evm/evm"

// BindingKind distinguishes what a name in the unified binding table
// stands for.
type BindingKind int

const (
	BindingConst BindingKind = iota
	BindingLabel
	BindingNative
)

func (k BindingKind) String() string {
	switch k {
	case BindingConst:
		return "const"
	case BindingLabel:
		return "label"
	case BindingNative:
		return "native"
	default:
		return "unknown"
	}
}

// Binding is one entry of the assembler's unified const/label/native
// namespace. All three kinds share one table so that a name collision
// between, say, a label and a #const is caught as a single duplicate-
// definition diagnostic instead of being invisible across separate tables.
type Binding struct {
	Kind     BindingKind
	Name     string
	Value    evm.Word
	Location Location
}

// BindingsCap bounds the number of names an assembly unit (including all
// of its #include targets) may define.
const BindingsCap = 1024
