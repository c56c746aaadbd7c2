package evm

import "github.com/samber/lo"

// InstType is the closed opcode enumeration. Values are stored as-is in
// the binary file format, so new opcodes must only ever be appended.
type InstType uint64

const (
	Nop InstType = iota
	Push
	Drop
	Dup
	Swap
	Plusi
	Minusi
	Multi
	Divi
	Modi
	Multu
	Divu
	Modu
	Plusf
	Minusf
	Multf
	Divf
	Jmp
	JmpIf
	Ret
	Call
	Native
	Not
	Eqi
	Gei
	Gti
	Lei
	Lti
	Nei
	Eqf
	Gef
	Gtf
	Lef
	Ltf
	Nef
	Equ
	Geu
	Gtu
	Leu
	Ltu
	Neu
	Andb
	Orb
	Xor
	Shr
	Shl
	Notb
	Read8
	Read16
	Read32
	Read64
	Write8
	Write16
	Write32
	Write64
	I2f
	U2f
	F2i
	F2u
	Halt
	numInsts
)

type instMeta struct {
	name       string
	hasOperand bool
}

// instTable is the single declarative source for name, operand arity, and
// name->type lookup; every derived function below is mechanical over it.
var instTable = [numInsts]instMeta{
	Nop:    {"nop", false},
	Push:   {"push", true},
	Drop:   {"drop", false},
	Dup:    {"dup", true},
	Swap:   {"swap", true},
	Plusi:  {"plusi", false},
	Minusi: {"minusi", false},
	Multi:  {"multi", false},
	Divi:   {"divi", false},
	Modi:   {"modi", false},
	Multu:  {"multu", false},
	Divu:   {"divu", false},
	Modu:   {"modu", false},
	Plusf:  {"plusf", false},
	Minusf: {"minusf", false},
	Multf:  {"multf", false},
	Divf:   {"divf", false},
	Jmp:    {"jmp", true},
	JmpIf:  {"jmp_if", true},
	Ret:    {"ret", false},
	Call:   {"call", true},
	Native: {"native", true},
	Not:    {"not", false},
	Eqi:    {"eqi", false},
	Gei:    {"gei", false},
	Gti:    {"gti", false},
	Lei:    {"lei", false},
	Lti:    {"lti", false},
	Nei:    {"nei", false},
	Eqf:    {"eqf", false},
	Gef:    {"gef", false},
	Gtf:    {"gtf", false},
	Lef:    {"lef", false},
	Ltf:    {"ltf", false},
	Nef:    {"nef", false},
	Equ:    {"equ", false},
	Geu:    {"geu", false},
	Gtu:    {"gtu", false},
	Leu:    {"leu", false},
	Ltu:    {"ltu", false},
	Neu:    {"neu", false},
	Andb:   {"andb", false},
	Orb:    {"orb", false},
	Xor:    {"xor", false},
	Shr:    {"shr", false},
	Shl:    {"shl", false},
	Notb:   {"notb", false},
	Read8:  {"read8", false},
	Read16: {"read16", false},
	Read32: {"read32", false},
	Read64: {"read64", false},
	Write8:  {"write8", false},
	Write16: {"write16", false},
	Write32: {"write32", false},
	Write64: {"write64", false},
	I2f:     {"i2f", false},
	U2f:     {"u2f", false},
	F2i:     {"f2i", false},
	F2u:     {"f2u", false},
	Halt:    {"halt", false},
}

type namedInst struct {
	typ  InstType
	name string
}

// instByName is derived once from instTable via lo.Map/lo.Associate: name,
// operand arity, and name->type lookup all come from the same table instead
// of three hand-maintained switches.
var instByName = lo.Associate(
	lo.Map(instTable[:], func(m instMeta, i int) namedInst { return namedInst{InstType(i), m.name} }),
	func(n namedInst) (string, InstType) { return n.name, n.typ },
)

// Name returns the lowercase mnemonic for an instruction type.
func (t InstType) Name() string {
	if uint64(t) >= uint64(numInsts) {
		return "<invalid>"
	}
	return instTable[t].name
}

// HasOperand reports whether the assembler must supply an operand for this
// opcode.
func (t InstType) HasOperand() bool {
	if uint64(t) >= uint64(numInsts) {
		return false
	}
	return instTable[t].hasOperand
}

// InstByName resolves a mnemonic to its InstType, as used by the assembler
// when matching a line's first token against the closed instruction table.
func InstByName(name string) (InstType, bool) {
	t, ok := instByName[name]
	return t, ok
}

// Inst is a single (opcode, operand) pair. Opcodes without an operand still
// carry a zero Word; native lowering reads Operand unconditionally.
type Inst struct {
	Type    InstType
	Operand Word
}
