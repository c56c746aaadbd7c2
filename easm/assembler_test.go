package easm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"evm/evm"
)

func writeSource(t *testing.T, dir, name, src string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestTranslateBasicProgram(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "main.easm", `
		#entry start
	start:
		push 10
		push 32
		plusi
		halt
	`)

	a := New()
	require.NoError(t, a.Translate(path))
	require.EqualValues(t, 4, a.ProgramSize())

	vm := a.VM()
	require.Equal(t, evm.Ok, vm.Run(-1))
	require.EqualValues(t, 1, vm.StackSize)
	require.EqualValues(t, 42, vm.Stack[0].U64())
}

func TestForwardLabelReference(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "main.easm", `
		jmp skip
		push 999
	skip:
		push 1
		halt
	`)

	a := New()
	require.NoError(t, a.Translate(path))
	vm := a.VM()
	require.Equal(t, evm.Ok, vm.Run(-1))
	require.EqualValues(t, 1, vm.StackSize)
	require.EqualValues(t, 1, vm.Stack[0].U64())
}

func TestConstAndDuplicateBinding(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "main.easm", `
		#const WIDTH 80
		push WIDTH
		halt
	`)
	a := New()
	require.NoError(t, a.Translate(path))
	vm := a.VM()
	require.Equal(t, evm.Ok, vm.Run(-1))
	require.EqualValues(t, 80, vm.Stack[0].U64())

	dup := writeSource(t, dir, "dup.easm", `
		#const X 1
		#const X 2
		halt
	`)
	a2 := New()
	err := a2.Translate(dup)
	require.Error(t, err)
	var diag *Diagnostic
	require.ErrorAs(t, err, &diag)
}

func TestNativeBindingMustBeNativeKind(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "main.easm", `
		#const my_label 0
		push 0
		push 0
		native my_label
	`)
	a := New()
	err := a.Translate(path)
	require.Error(t, err)
}

func TestIncludeDirective(t *testing.T) {
	dir := t.TempDir()
	lib := writeSource(t, dir, "lib.easm", `
	double:
		swap 1
		push 2
		multi
		swap 1
		ret
	`)
	// #include paths are taken relative to the working directory, so the
	// full path of lib.easm is spliced in.
	path := writeSource(t, dir, "main.easm", `
		#include "`+lib+`"
		#entry main
	main:
		push 21
		call double
		halt
	`)

	a := New()
	require.NoError(t, a.Translate(path))
	vm := a.VM()
	require.Equal(t, evm.Ok, vm.Run(-1))
	require.EqualValues(t, 42, vm.Stack[0].U64())
}

func TestStringLiteralPushedToMemory(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "main.easm", `
		push "hi"
		halt
	`)
	a := New()
	require.NoError(t, a.Translate(path))
	require.EqualValues(t, 2, a.MemorySize())
	vm := a.VM()
	require.Equal(t, byte('h'), vm.Memory[0])
	require.Equal(t, byte('i'), vm.Memory[1])
}

func TestUnknownInstructionFails(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "main.easm", "bogus\n")
	a := New()
	require.Error(t, a.Translate(path))
}

func TestSymbolRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "main.easm", `
	start:
		halt
	`)
	a := New()
	require.NoError(t, a.Translate(path))

	symPath := filepath.Join(dir, "main.sym")
	require.NoError(t, a.SaveSymbols(symPath))

	symbols, err := LoadSymbols(symPath)
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	require.Equal(t, "start", symbols[0].Name)
}
