package nasm

import (
	"fmt"
	"strings"

	"evm/evm"
)

// lowerInst returns the NASM snippet for one instruction. jmpIfEscape is
// threaded through so jmp_if's generated escape labels stay unique across
// the whole program.
func lowerInst(idx uint64, inst evm.Inst, jmpIfEscape *int) (string, error) {
	var b strings.Builder
	u := inst.Operand.U64()

	switch inst.Type {
	case evm.Nop:
		// no-op at the machine level too

	case evm.Push:
		fmt.Fprintf(&b, "\t;; push %d\n", u)
		b.WriteString("\tmov rsi, [stack_top]\n")
		fmt.Fprintf(&b, "\tmov rax, 0x%x\n", u)
		b.WriteString("\tmov QWORD [rsi], rax\n")
		b.WriteString("\tadd QWORD [stack_top], EVM_WORD_SIZE\n")

	case evm.Drop:
		b.WriteString("\t;; drop\n")
		popDiscard(&b)

	case evm.Dup:
		fmt.Fprintf(&b, "\t;; dup %d\n", u)
		b.WriteString("\tmov rsi, [stack_top]\n")
		b.WriteString("\tmov rdi, rsi\n")
		fmt.Fprintf(&b, "\tsub rdi, EVM_WORD_SIZE * (%d + 1)\n", u)
		b.WriteString("\tmov rax, [rdi]\n")
		b.WriteString("\tmov [rsi], rax\n")
		b.WriteString("\tadd rsi, EVM_WORD_SIZE\n")
		b.WriteString("\tmov [stack_top], rsi\n")

	case evm.Swap:
		fmt.Fprintf(&b, "\t;; swap %d\n", u)
		b.WriteString("\tmov rsi, [stack_top]\n")
		b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
		b.WriteString("\tmov rdi, rsi\n")
		fmt.Fprintf(&b, "\tsub rdi, EVM_WORD_SIZE * %d\n", u)
		b.WriteString("\tmov rax, [rsi]\n")
		b.WriteString("\tmov rbx, [rdi]\n")
		b.WriteString("\tmov [rdi], rax\n")
		b.WriteString("\tmov [rsi], rbx\n")

	case evm.Plusi, evm.Minusi, evm.Multi, evm.Andb, evm.Orb, evm.Xor:
		writeIntBinop(&b, inst.Type)

	case evm.Divi, evm.Modi, evm.Divu, evm.Modu:
		writeDivBinop(&b, inst.Type)

	case evm.Shr, evm.Shl:
		writeShiftBinop(&b, inst.Type)

	case evm.Notb:
		b.WriteString("\t;; notb\n")
		b.WriteString("\tmov rsi, [stack_top]\n")
		b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
		b.WriteString("\tmov rax, [rsi]\n")
		b.WriteString("\tnot rax\n")
		b.WriteString("\tmov [rsi], rax\n")

	case evm.Plusf, evm.Minusf, evm.Multf, evm.Divf:
		writeFloatBinop(&b, inst.Type)

	case evm.Jmp:
		b.WriteString("\t;; jmp\n")
		jumpToOperand(&b, u)

	case evm.JmpIf:
		fmt.Fprintf(&b, "\t;; jmp_if %d\n", u)
		b.WriteString("\tmov rsi, [stack_top]\n")
		b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
		b.WriteString("\tmov rax, [rsi]\n")
		b.WriteString("\tmov [stack_top], rsi\n")
		b.WriteString("\tcmp rax, 0\n")
		fmt.Fprintf(&b, "\tje jmp_if_escape_%d\n", *jmpIfEscape)
		jumpToOperand(&b, u)
		fmt.Fprintf(&b, "jmp_if_escape_%d:\n", *jmpIfEscape)
		*jmpIfEscape++

	case evm.Ret:
		b.WriteString("\t;; ret\n")
		b.WriteString("\tmov rsi, [stack_top]\n")
		b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
		b.WriteString("\tmov rax, [rsi]\n")
		b.WriteString("\tmov rbx, EVM_WORD_SIZE\n")
		b.WriteString("\tmul rbx\n")
		b.WriteString("\tadd rax, inst_map\n")
		b.WriteString("\tmov [stack_top], rsi\n")
		b.WriteString("\tjmp [rax]\n")

	case evm.Call:
		b.WriteString("\t;; call\n")
		b.WriteString("\tmov rsi, [stack_top]\n")
		fmt.Fprintf(&b, "\tmov QWORD [rsi], %d\n", idx+1)
		b.WriteString("\tadd rsi, EVM_WORD_SIZE\n")
		b.WriteString("\tmov [stack_top], rsi\n")
		jumpToOperand(&b, u)

	case evm.Native:
		if err := writeNative(&b, u); err != nil {
			return "", err
		}

	case evm.Not:
		b.WriteString("\t;; not\n")
		b.WriteString("\tmov rsi, [stack_top]\n")
		b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
		b.WriteString("\tmov rax, [rsi]\n")
		b.WriteString("\tcmp rax, 0\n")
		b.WriteString("\tmov rax, 0\n")
		b.WriteString("\tsetz al\n")
		b.WriteString("\tmov [rsi], rax\n")

	case evm.Eqi, evm.Gei, evm.Gti, evm.Lei, evm.Lti, evm.Nei:
		writeIntCompare(&b, inst.Type, true)

	case evm.Equ, evm.Geu, evm.Gtu, evm.Leu, evm.Ltu, evm.Neu:
		writeIntCompare(&b, inst.Type, false)

	case evm.Eqf, evm.Gef, evm.Gtf, evm.Lef, evm.Ltf, evm.Nef:
		writeFloatCompare(&b, inst.Type)

	case evm.Read8, evm.Read16, evm.Read32, evm.Read64:
		writeRead(&b, inst.Type)

	case evm.Write8, evm.Write16, evm.Write32, evm.Write64:
		writeWrite(&b, inst.Type)

	case evm.I2f:
		b.WriteString("\t;; i2f\n")
		b.WriteString("\tmov rsi, [stack_top]\n")
		b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
		b.WriteString("\tcvtsi2sd xmm0, QWORD [rsi]\n")
		b.WriteString("\tmovq [rsi], xmm0\n")

	case evm.U2f:
		b.WriteString("\t;; u2f\n")
		b.WriteString("\tmov rsi, [stack_top]\n")
		b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
		b.WriteString("\tmov rax, [rsi]\n")
		// cvtsi2sd is signed only; a value with the top bit set is
		// halved (keeping its low bit for rounding), converted, and
		// doubled. Labels carry the instruction index to stay unique.
		b.WriteString("\tpxor xmm0, xmm0\n")
		b.WriteString("\ttest rax, rax\n")
		fmt.Fprintf(&b, "\tjs u2f_big_%d\n", idx)
		b.WriteString("\tcvtsi2sd xmm0, rax\n")
		fmt.Fprintf(&b, "\tjmp u2f_done_%d\n", idx)
		fmt.Fprintf(&b, "u2f_big_%d:\n", idx)
		b.WriteString("\tmov rbx, rax\n")
		b.WriteString("\tshr rbx, 1\n")
		b.WriteString("\tand rax, 1\n")
		b.WriteString("\tor rbx, rax\n")
		b.WriteString("\tcvtsi2sd xmm0, rbx\n")
		b.WriteString("\taddsd xmm0, xmm0\n")
		fmt.Fprintf(&b, "u2f_done_%d:\n", idx)
		b.WriteString("\tmovq [rsi], xmm0\n")

	case evm.F2i:
		b.WriteString("\t;; f2i\n")
		b.WriteString("\tmov rsi, [stack_top]\n")
		b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
		b.WriteString("\tmovq xmm0, [rsi]\n")
		b.WriteString("\tcvttsd2si rax, xmm0\n")
		b.WriteString("\tmov [rsi], rax\n")

	case evm.F2u:
		b.WriteString("\t;; f2u\n")
		b.WriteString("\tmov rsi, [stack_top]\n")
		b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
		b.WriteString("\tmovq xmm0, [rsi]\n")
		b.WriteString("\tcvttsd2si rax, xmm0\n")
		b.WriteString("\tmov [rsi], rax\n")

	case evm.Halt:
		b.WriteString("\t;; halt\n")
		b.WriteString("\tmov rax, SYS_EXIT\n")
		b.WriteString("\tmov rdi, 0\n")
		b.WriteString("\tsyscall\n")

	default:
		return "", &ErrUnimplemented{Index: idx, Type: inst.Type}
	}

	return b.String(), nil
}

func popDiscard(b *strings.Builder) {
	b.WriteString("\tmov rsi, [stack_top]\n")
	b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
	b.WriteString("\tmov [stack_top], rsi\n")
}

// jumpToOperand emits the inst_map computed-goto sequence used by jmp,
// jmp_if, and call.
func jumpToOperand(b *strings.Builder, target uint64) {
	b.WriteString("\tmov rdi, inst_map\n")
	fmt.Fprintf(b, "\tadd rdi, EVM_WORD_SIZE * %d\n", target)
	b.WriteString("\tjmp [rdi]\n")
}

// writeIntBinop loads second-from-top into rax, top into rbx, applies op,
// and leaves the result in the slot second-from-top previously occupied.
func writeIntBinop(b *strings.Builder, typ evm.InstType) {
	fmt.Fprintf(b, "\t;; %s\n", typ.Name())
	b.WriteString("\tmov rsi, [stack_top]\n")
	b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
	b.WriteString("\tmov rbx, [rsi]\n")
	b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
	b.WriteString("\tmov rax, [rsi]\n")
	switch typ {
	case evm.Plusi:
		b.WriteString("\tadd rax, rbx\n")
	case evm.Minusi:
		b.WriteString("\tsub rax, rbx\n")
	case evm.Multi:
		b.WriteString("\timul rax, rbx\n")
	case evm.Andb:
		b.WriteString("\tand rax, rbx\n")
	case evm.Orb:
		b.WriteString("\tor rax, rbx\n")
	case evm.Xor:
		b.WriteString("\txor rax, rbx\n")
	}
	b.WriteString("\tmov [rsi], rax\n")
	b.WriteString("\tadd rsi, EVM_WORD_SIZE\n")
	b.WriteString("\tmov [stack_top], rsi\n")
}

func writeDivBinop(b *strings.Builder, typ evm.InstType) {
	fmt.Fprintf(b, "\t;; %s\n", typ.Name())
	b.WriteString("\tmov rsi, [stack_top]\n")
	b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
	b.WriteString("\tmov rbx, [rsi]\n")
	b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
	b.WriteString("\tmov rax, [rsi]\n")
	switch typ {
	case evm.Divi, evm.Modi:
		b.WriteString("\tcqo\n")
		b.WriteString("\tidiv rbx\n")
	case evm.Divu, evm.Modu:
		b.WriteString("\txor rdx, rdx\n")
		b.WriteString("\tdiv rbx\n")
	}
	if typ == evm.Modi || typ == evm.Modu {
		b.WriteString("\tmov [rsi], rdx\n")
	} else {
		b.WriteString("\tmov [rsi], rax\n")
	}
	b.WriteString("\tadd rsi, EVM_WORD_SIZE\n")
	b.WriteString("\tmov [stack_top], rsi\n")
}

func writeShiftBinop(b *strings.Builder, typ evm.InstType) {
	fmt.Fprintf(b, "\t;; %s\n", typ.Name())
	b.WriteString("\tmov rsi, [stack_top]\n")
	b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
	b.WriteString("\tmov rcx, [rsi]\n")
	b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
	b.WriteString("\tmov rax, [rsi]\n")
	if typ == evm.Shr {
		b.WriteString("\tshr rax, cl\n")
	} else {
		b.WriteString("\tshl rax, cl\n")
	}
	// x86 masks the count to 6 bits; counts of 64 or more give 0, as in
	// the interpreter.
	b.WriteString("\txor rdx, rdx\n")
	b.WriteString("\tcmp rcx, 64\n")
	b.WriteString("\tcmovae rax, rdx\n")
	b.WriteString("\tmov [rsi], rax\n")
	b.WriteString("\tadd rsi, EVM_WORD_SIZE\n")
	b.WriteString("\tmov [stack_top], rsi\n")
}

// writeFloatBinop operates on the same stack cells reinterpreted as
// doubles via movq into xmm0/xmm1.
func writeFloatBinop(b *strings.Builder, typ evm.InstType) {
	fmt.Fprintf(b, "\t;; %s\n", typ.Name())
	b.WriteString("\tmov rsi, [stack_top]\n")
	b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
	b.WriteString("\tmovq xmm1, [rsi]\n")
	b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
	b.WriteString("\tmovq xmm0, [rsi]\n")
	switch typ {
	case evm.Plusf:
		b.WriteString("\taddsd xmm0, xmm1\n")
	case evm.Minusf:
		b.WriteString("\tsubsd xmm0, xmm1\n")
	case evm.Multf:
		b.WriteString("\tmulsd xmm0, xmm1\n")
	case evm.Divf:
		b.WriteString("\tdivsd xmm0, xmm1\n")
	}
	b.WriteString("\tmovq [rsi], xmm0\n")
	b.WriteString("\tadd rsi, EVM_WORD_SIZE\n")
	b.WriteString("\tmov [stack_top], rsi\n")
}

// writeIntCompare applies the comparison in second-from-top OP top order,
// the same order the interpreter enforces.
func writeIntCompare(b *strings.Builder, typ evm.InstType, signed bool) {
	fmt.Fprintf(b, "\t;; %s\n", typ.Name())
	b.WriteString("\tmov rsi, [stack_top]\n")
	b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
	b.WriteString("\tmov rbx, [rsi]\n")
	b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
	b.WriteString("\tmov rax, [rsi]\n")
	b.WriteString("\tcmp rax, rbx\n")
	b.WriteString("\tmov rax, 0\n")
	b.WriteString("\t" + setcc(typ, signed) + " al\n")
	b.WriteString("\tmov [rsi], rax\n")
	b.WriteString("\tadd rsi, EVM_WORD_SIZE\n")
	b.WriteString("\tmov [stack_top], rsi\n")
}

func setcc(typ evm.InstType, signed bool) string {
	switch typ {
	case evm.Eqi, evm.Equ:
		return "setz"
	case evm.Nei, evm.Neu:
		return "setnz"
	case evm.Gei:
		return "setge"
	case evm.Geu:
		return "setae"
	case evm.Gti:
		return "setg"
	case evm.Gtu:
		return "seta"
	case evm.Lei:
		return "setle"
	case evm.Leu:
		return "setbe"
	case evm.Lti:
		return "setl"
	case evm.Ltu:
		return "setb"
	}
	return "setz"
}

func writeFloatCompare(b *strings.Builder, typ evm.InstType) {
	fmt.Fprintf(b, "\t;; %s\n", typ.Name())
	b.WriteString("\tmov rsi, [stack_top]\n")
	b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
	b.WriteString("\tmovq xmm1, [rsi]\n")
	b.WriteString("\tsub rsi, EVM_WORD_SIZE\n")
	b.WriteString("\tmovq xmm0, [rsi]\n")
	b.WriteString("\tcomisd xmm0, xmm1\n")
	b.WriteString("\tmov rax, 0\n")
	switch typ {
	case evm.Eqf:
		b.WriteString("\tsetz al\n")
	case evm.Nef:
		b.WriteString("\tsetnz al\n")
	case evm.Gef:
		b.WriteString("\tsetae al\n")
	case evm.Gtf:
		b.WriteString("\tseta al\n")
	case evm.Lef:
		b.WriteString("\tsetbe al\n")
	case evm.Ltf:
		b.WriteString("\tsetb al\n")
	}
	b.WriteString("\tmov [rsi], rax\n")
	b.WriteString("\tadd rsi, EVM_WORD_SIZE\n")
	b.WriteString("\tmov [stack_top], rsi\n")
}

func widthOf(typ evm.InstType) (bits string, reg string) {
	switch typ {
	case evm.Read8, evm.Write8:
		return "BYTE", "al"
	case evm.Read16, evm.Write16:
		return "WORD", "ax"
	case evm.Read32, evm.Write32:
		return "DWORD", "eax"
	default:
		return "QWORD", "rax"
	}
}

func writeRead(b *strings.Builder, typ evm.InstType) {
	fmt.Fprintf(b, "\t;; %s\n", typ.Name())
	size, reg := widthOf(typ)
	b.WriteString("\tmov r11, [stack_top]\n")
	b.WriteString("\tsub r11, EVM_WORD_SIZE\n")
	b.WriteString("\tmov rsi, [r11]\n")
	b.WriteString("\tadd rsi, memory\n")
	b.WriteString("\txor rax, rax\n")
	fmt.Fprintf(b, "\tmov %s, %s [rsi]\n", reg, size)
	b.WriteString("\tmov [r11], rax\n")
}

func writeWrite(b *strings.Builder, typ evm.InstType) {
	fmt.Fprintf(b, "\t;; %s\n", typ.Name())
	size, reg := widthOf(typ)
	b.WriteString("\tmov r11, [stack_top]\n")
	b.WriteString("\tsub r11, EVM_WORD_SIZE\n")
	b.WriteString("\tmov rax, [r11]\n")
	b.WriteString("\tsub r11, EVM_WORD_SIZE\n")
	b.WriteString("\tmov rsi, [r11]\n")
	b.WriteString("\tadd rsi, memory\n")
	fmt.Fprintf(b, "\tmov %s [rsi], %s\n", size, reg)
	b.WriteString("\tmov [stack_top], r11\n")
}

// writeNative supports only native 0 (write): the sole native with a
// fixed, well-known binding in the standard library. Anything else has no
// native lowering since a NASM backend cannot call back into a Go
// callback table.
func writeNative(b *strings.Builder, idx uint64) error {
	if idx != 0 {
		return fmt.Errorf("nasm: native %d has no NASM lowering (only native 0, write, is supported)", idx)
	}
	b.WriteString("\t;; native write\n")
	b.WriteString("\tmov r11, [stack_top]\n")
	b.WriteString("\tsub r11, EVM_WORD_SIZE\n")
	b.WriteString("\tmov rdx, [r11]\n")
	b.WriteString("\tsub r11, EVM_WORD_SIZE\n")
	b.WriteString("\tmov rsi, [r11]\n")
	b.WriteString("\tadd rsi, memory\n")
	b.WriteString("\tmov rdi, STDOUT\n")
	b.WriteString("\tmov rax, SYS_WRITE\n")
	b.WriteString("\tmov [stack_top], r11\n")
	b.WriteString("\tsyscall\n")
	return nil
}
