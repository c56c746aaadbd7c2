package easm

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// SaveSymbols writes a debug symbol table alongside the assembled
// program: one line per binding, "<decimal_value>\t<name>\n". edbug uses
// this to resolve breakpoint names back to addresses.
func (a *Assembler) SaveSymbols(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "easm: create %s", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, b := range a.bindings {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", b.Value.U64(), b.Name); err != nil {
			return errors.Wrapf(err, "easm: write symbol %s", b.Name)
		}
	}
	return errors.Wrapf(w.Flush(), "easm: flush %s", path)
}

// Symbol is one entry of a loaded symbol table.
type Symbol struct {
	Value uint64
	Name  string
}

// LoadSymbols parses a symbol file produced by SaveSymbols.
func LoadSymbols(path string) ([]Symbol, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "easm: read %s", path)
	}

	var symbols []Symbol
	for _, line := range strings.Split(string(raw), "\n") {
		if line == "" {
			continue
		}
		var value uint64
		var name string
		if _, err := fmt.Sscanf(line, "%d\t%s", &value, &name); err != nil {
			return nil, errors.Wrapf(err, "easm: malformed symbol line %q", line)
		}
		symbols = append(symbols, Symbol{Value: value, Name: name})
	}
	return symbols, nil
}
