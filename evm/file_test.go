package evm

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	vm := program(
		push(WordI64(10)),
		push(WordI64(3)),
		Inst{Type: Plusi},
		Inst{Type: Halt},
	)
	vm.Memory[0] = 0xDE
	vm.Memory[1] = 0xAD

	path := filepath.Join(t.TempDir(), "prog.evm")
	require.NoError(t, vm.Save(path, 0, 2))

	loaded, entry, err := Load(path)
	require.NoError(t, err)
	require.EqualValues(t, 0, entry)
	require.EqualValues(t, vm.ProgramSize, loaded.ProgramSize)
	require.Equal(t, vm.Program[:vm.ProgramSize], loaded.Program[:loaded.ProgramSize])
	require.Equal(t, byte(0xDE), loaded.Memory[0])
	require.Equal(t, byte(0xAD), loaded.Memory[1])

	require.Equal(t, Ok, loaded.Run(-1))
}

func TestLoadRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.evm")
	vm := New()
	require.NoError(t, vm.Save(path, 0, 0))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[0] ^= 0xFF
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, _, err = Load(path)
	require.Error(t, err)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.evm"))
	require.Error(t, err)
}

func TestLoadRejectsMemorySizeExceedingDeclaredCapacity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overcap.evm")
	vm := New()
	vm.Memory[0] = 1
	require.NoError(t, vm.Save(path, 0, 1))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	// fileMeta layout: Magic(2) Version(2) ProgramSize(8) Entry(8)
	// MemorySize(8) MemoryCapacity(8), little-endian, no padding.
	const memoryCapacityOffset = 2 + 2 + 8 + 8 + 8
	binary.LittleEndian.PutUint64(raw[memoryCapacityOffset:], 0)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, _, err = Load(path)
	require.Error(t, err)
}

func TestLoadRejectsMemoryCapacityExceedingStaticCapacity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badcap.evm")
	vm := New()
	require.NoError(t, vm.Save(path, 0, 0))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	const memoryCapacityOffset = 2 + 2 + 8 + 8 + 8
	binary.LittleEndian.PutUint64(raw[memoryCapacityOffset:], MemoryCap+1)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, _, err = Load(path)
	require.Error(t, err)
}
