package evm

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

// FileMagic and FileVersion identify the on-disk program format. A loader
// that sees a mismatched magic or version must refuse the file outright
// rather than guess at a layout.
const (
	FileMagic   uint16 = 0x6D65
	FileVersion uint16 = 4
)

// fileMeta is the fixed-size header written ahead of the program and
// memory image, byte-for-byte compatible with the reference toolchain's
// packed struct: two uint16s followed by four uint64s, little-endian, no
// padding.
type fileMeta struct {
	Magic          uint16
	Version        uint16
	ProgramSize    uint64
	Entry          uint64
	MemorySize     uint64
	MemoryCapacity uint64
}

// Save writes the program and the used prefix of memory to path as a
// loadable .evm file. entry is the instruction index execution should
// resume from; memorySize bytes of Memory (from offset 0) are persisted.
func (vm *VM) Save(path string, entry, memorySize uint64) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "evm: create %s", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	meta := fileMeta{
		Magic:          FileMagic,
		Version:        FileVersion,
		ProgramSize:    vm.ProgramSize,
		Entry:          entry,
		MemorySize:     memorySize,
		MemoryCapacity: MemoryCap,
	}
	if err := binary.Write(w, binary.LittleEndian, &meta); err != nil {
		return errors.Wrapf(err, "evm: write header to %s", path)
	}

	for i := uint64(0); i < vm.ProgramSize; i++ {
		inst := vm.Program[i]
		if err := binary.Write(w, binary.LittleEndian, inst.Type); err != nil {
			return errors.Wrapf(err, "evm: write instruction %d to %s", i, path)
		}
		if err := binary.Write(w, binary.LittleEndian, inst.Operand); err != nil {
			return errors.Wrapf(err, "evm: write operand %d to %s", i, path)
		}
	}

	if memorySize > 0 {
		if _, err := w.Write(vm.Memory[:memorySize]); err != nil {
			return errors.Wrapf(err, "evm: write memory image to %s", path)
		}
	}

	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "evm: flush %s", path)
	}
	return nil
}

// Load reads a .evm file produced by Save into a fresh VM, returning the
// entry instruction index recorded in the header. It rejects files with an
// unrecognized magic or version, and any program or memory image larger
// than the VM's static capacities.
func Load(path string) (vm *VM, entry uint64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "evm: open %s", path)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var meta fileMeta
	if err := binary.Read(r, binary.LittleEndian, &meta); err != nil {
		return nil, 0, errors.Wrapf(err, "evm: read header from %s", path)
	}
	if meta.Magic != FileMagic {
		return nil, 0, errors.Errorf("evm: %s is not a valid EVM file: magic %04x, expected %04x", path, meta.Magic, FileMagic)
	}
	if meta.Version != FileVersion {
		return nil, 0, errors.Errorf("evm: %s: unsupported file version %d, expected %d", path, meta.Version, FileVersion)
	}
	if meta.ProgramSize > ProgramCap {
		return nil, 0, errors.Errorf("evm: %s: program size %d exceeds capacity %d", path, meta.ProgramSize, ProgramCap)
	}
	if meta.MemorySize > MemoryCap {
		return nil, 0, errors.Errorf("evm: %s: memory image %d exceeds capacity %d", path, meta.MemorySize, MemoryCap)
	}
	if meta.MemoryCapacity > MemoryCap {
		return nil, 0, errors.Errorf("evm: %s: declared memory capacity %d exceeds capacity %d", path, meta.MemoryCapacity, MemoryCap)
	}
	if meta.MemorySize > meta.MemoryCapacity {
		return nil, 0, errors.Errorf("evm: %s: memory image %d exceeds declared capacity %d", path, meta.MemorySize, meta.MemoryCapacity)
	}

	vm = New()
	vm.ProgramSize = meta.ProgramSize

	for i := uint64(0); i < meta.ProgramSize; i++ {
		var typ InstType
		var operand Word
		if err := binary.Read(r, binary.LittleEndian, &typ); err != nil {
			return nil, 0, errors.Wrapf(err, "evm: read instruction %d from %s", i, path)
		}
		if err := binary.Read(r, binary.LittleEndian, &operand); err != nil {
			return nil, 0, errors.Wrapf(err, "evm: read operand %d from %s", i, path)
		}
		vm.Program[i] = Inst{Type: typ, Operand: operand}
	}

	if meta.MemorySize > 0 {
		if _, err := io.ReadFull(r, vm.Memory[:meta.MemorySize]); err != nil {
			return nil, 0, errors.Wrapf(err, "evm: read memory image from %s", path)
		}
	}

	vm.IP = meta.Entry
	return vm, meta.Entry, nil
}
