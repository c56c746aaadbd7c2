package easm

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"evm/evm"
)

// MaxIncludeLevel bounds #include recursion depth.
const MaxIncludeLevel = 64

const ppChar = '#'
const commentChar = ';'

// Assembler holds the two-pass translation state for one assembly run,
// including everything pulled in transitively via #include.
type Assembler struct {
	bindings []Binding
	deferred []deferredOperand

	program     [evm.ProgramCap]evm.Inst
	programSize uint64

	memory         [evm.MemoryCap]byte
	memorySize     uint64
	memoryCapacity uint64

	hasEntry          bool
	entry             uint64
	deferredEntryName string
	entryLocation     Location

	includeLevel int
}

// New returns an Assembler ready to translate one or more source files
// into a single program and memory image.
func New() *Assembler {
	return &Assembler{}
}

// resolve looks up name in the unified binding table (shadowing is not
// allowed, so there is at most one match; the table is capped at
// BindingsCap entries so a linear scan is cheap enough).
func (a *Assembler) resolve(name string) (Binding, bool) {
	binding, _, ok := lo.FindIndexOf(a.bindings, func(b Binding) bool { return b.Name == name })
	return binding, ok
}

// bind adds a new name to the unified binding table, returning the
// existing binding (and false) if name is already defined.
func (a *Assembler) bind(name string, value evm.Word, kind BindingKind, loc Location) (Binding, bool) {
	if existing, ok := a.resolve(name); ok {
		return existing, false
	}
	if len(a.bindings) >= BindingsCap {
		panic("easm: bindings capacity exceeded")
	}
	a.bindings = append(a.bindings, Binding{Kind: kind, Name: name, Value: value, Location: loc})
	return Binding{}, true
}

// Translate assembles path (and anything it #includes) into the
// assembler's program and memory image. It is safe to call more than once
// on the same Assembler to link multiple top-level files together.
func (a *Assembler) Translate(path string) error {
	if err := a.translateFile(path); err != nil {
		return err
	}
	if err := a.resolveDeferredOperands(); err != nil {
		return err
	}
	return a.resolveDeferredEntry()
}

func (a *Assembler) translateFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "easm: read %s", path)
	}

	lines := strings.Split(string(raw), "\n")
	loc := Location{File: path}

	for _, raw := range lines {
		loc.Line++

		line := strings.TrimSpace(trimComment(raw, commentChar))
		if line == "" {
			continue
		}

		token, rest := chopToken(line)

		if len(token) > 0 && token[0] == ppChar {
			if err := a.translateDirective(token[1:], rest, loc); err != nil {
				return err
			}
			continue
		}

		if err := a.translateInstructionLine(token, rest, loc); err != nil {
			return err
		}
	}

	return nil
}

func (a *Assembler) translateDirective(name, rest string, loc Location) error {
	switch name {
	case "const":
		return a.translateConst(rest, loc)
	case "native":
		return a.translateNative(rest, loc)
	case "include":
		return a.translateInclude(rest, loc)
	case "entry":
		return a.translateEntry(rest, loc)
	default:
		return errf(loc, "unknown pre-processor directive '%s'", name)
	}
}

func (a *Assembler) translateConst(rest string, loc Location) error {
	rest = strings.TrimSpace(rest)
	label, value := chopToken(rest)
	if label == "" {
		return errf(loc, "label name is not provided")
	}
	word, ok := a.translateLiteral(strings.TrimSpace(value))
	if !ok {
		return errf(loc, "unknown pre-processor directive value '%s'", strings.TrimSpace(value))
	}
	if existing, ok := a.bind(label, word, BindingConst, loc); !ok {
		return errDuplicate(loc, "label", label, existing.Location)
	}
	return nil
}

func (a *Assembler) translateNative(rest string, loc Location) error {
	rest = strings.TrimSpace(rest)
	name, value := chopToken(rest)
	if name == "" {
		return errf(loc, "binding name is not provided")
	}
	word, ok := a.translateLiteral(strings.TrimSpace(value))
	if !ok {
		return errf(loc, "'%s' is not a number", strings.TrimSpace(value))
	}
	if existing, ok := a.bind(name, word, BindingNative, loc); !ok {
		return errDuplicate(loc, "name", name, existing.Location)
	}
	return nil
}

func (a *Assembler) translateInclude(rest string, loc Location) error {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return errf(loc, "include file path is not provided")
	}
	if len(rest) < 2 || rest[0] != '"' || rest[len(rest)-1] != '"' {
		return errf(loc, "path must be surrounded by quotation marks")
	}
	path := rest[1 : len(rest)-1]

	if a.includeLevel+1 >= MaxIncludeLevel {
		return errf(loc, "exceeded maximum include level")
	}

	a.includeLevel++
	err := a.translateFile(path)
	a.includeLevel--
	return err
}

func (a *Assembler) translateEntry(rest string, loc Location) error {
	if a.hasEntry {
		return errDuplicate(loc, "entry point", "", a.entryLocation)
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return errf(loc, "entry point is not specified")
	}

	if word, ok := a.translateLiteral(rest); ok {
		a.entry = word.U64()
	} else {
		a.deferredEntryName = rest
	}

	a.hasEntry = true
	a.entryLocation = loc
	return nil
}

func (a *Assembler) translateInstructionLine(token, rest string, loc Location) error {
	if token == "" {
		return nil
	}

	if strings.HasSuffix(token, ":") {
		label := token[:len(token)-1]
		if existing, ok := a.bind(label, evm.WordU64(a.programSize), BindingLabel, loc); !ok {
			return errDuplicate(loc, "label", label, existing.Location)
		}
		token, rest = chopToken(strings.TrimSpace(rest))
	}

	if token == "" {
		return nil
	}

	typ, ok := evm.InstByName(token)
	if !ok {
		return errf(loc, "unknown instruction '%s'", token)
	}

	if a.programSize >= evm.ProgramCap {
		return errf(loc, "program capacity exceeded")
	}

	inst := evm.Inst{Type: typ}
	if typ.HasOperand() {
		operand := strings.TrimSpace(rest)
		if operand == "" {
			return errf(loc, "instruction '%s' requires an operand", token)
		}
		if word, ok := a.translateLiteral(operand); ok {
			inst.Operand = word
		} else {
			if len(a.deferred) >= DeferredCap {
				return errf(loc, "deferred operands capacity exceeded")
			}
			a.deferred = append(a.deferred, deferredOperand{Addr: a.programSize, Label: operand, Location: loc})
		}
	}

	a.program[a.programSize] = inst
	a.programSize++
	return nil
}

func (a *Assembler) resolveDeferredOperands() error {
	for _, d := range a.deferred {
		binding, ok := a.resolve(d.Label)
		if !ok {
			return errf(d.Location, "unknown label '%s'", d.Label)
		}

		inst := &a.program[d.Addr]
		if inst.Type == evm.Call && binding.Kind != BindingLabel {
			return errf(d.Location, "trying to call not a label; '%s' is %s, call only accepts labels", d.Label, binding.Kind)
		}
		if inst.Type == evm.Native && binding.Kind != BindingNative {
			return errf(d.Location, "trying to invoke a native from a binding that is %s, natives must be defined via #native", binding.Kind)
		}

		inst.Operand = binding.Value
	}
	return nil
}

func (a *Assembler) resolveDeferredEntry() error {
	if !a.hasEntry || a.deferredEntryName == "" {
		return nil
	}
	binding, ok := a.resolve(a.deferredEntryName)
	if !ok {
		return errf(a.entryLocation, "unknown label '%s'", a.deferredEntryName)
	}
	if binding.Kind != BindingLabel {
		return errf(a.entryLocation, "trying to set a %s as an entry point, entry point must be a label", binding.Kind)
	}
	a.entry = binding.Value.U64()
	return nil
}

// chopToken splits line on the first run of spaces, returning the first
// token and the (untrimmed) remainder.
func chopToken(line string) (token, rest string) {
	line = strings.TrimLeft(line, " ")
	idx := strings.IndexByte(line, ' ')
	if idx < 0 {
		return line, ""
	}
	return line[:idx], line[idx+1:]
}

// Entry returns the resolved entry point instruction index.
func (a *Assembler) Entry() uint64 { return a.entry }

// ProgramSize returns the number of instructions assembled so far.
func (a *Assembler) ProgramSize() uint64 { return a.programSize }

// MemorySize returns how much of the memory image has been written by
// string literals.
func (a *Assembler) MemorySize() uint64 { return a.memorySize }

// Program returns the assembled instructions in program order.
func (a *Assembler) Program() []evm.Inst { return a.program[:a.programSize] }

// Memory returns the initialized prefix of the assembled memory image.
func (a *Assembler) Memory() []byte { return a.memory[:a.memorySize] }

// VM builds a fresh evm.VM seeded with the assembled program and memory
// image, ready to run starting at Entry().
func (a *Assembler) VM() *evm.VM {
	vm := evm.New()
	for i := uint64(0); i < a.programSize; i++ {
		vm.PushInst(a.program[i])
	}
	copy(vm.Memory[:a.memorySize], a.memory[:a.memorySize])
	vm.IP = a.entry
	return vm
}

// Save writes the assembled program and memory image as a loadable .evm
// file.
func (a *Assembler) Save(path string) error {
	return a.VM().Save(path, a.entry, a.memorySize)
}
