// Command edbug is an interactive REPL debugger for .evm programs.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"evm/easm"
	"evm/evm"
)

var command = &cobra.Command{
	Use:   "edbug <input.evm>",
	Short: "Interactively step and inspect a .evm program",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := run(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func main() {
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

type breakpoint struct {
	enabled bool
	broken  bool
}

type session struct {
	vm          *evm.VM
	entry       uint64
	running     bool
	labels      map[uint64]string
	breakpoints map[uint64]*breakpoint
}

func run(path string) error {
	vm, entry, err := evm.Load(path)
	if err != nil {
		return err
	}
	evm.LoadStandardNatives(vm)
	vm.Halt = true

	s := &session{
		vm:          vm,
		entry:       entry,
		labels:      map[uint64]string{},
		breakpoints: map[uint64]*breakpoint{},
	}

	symPath := path + ".sym"
	if _, err := os.Stat(symPath); err == nil {
		symbols, err := easm.LoadSymbols(symPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "INFO: could not load %s: %v\n", filepath.Base(symPath), err)
		} else {
			for _, sym := range symbols {
				s.labels[sym.Value] = sym.Name
			}
		}
	}

	fmt.Println("EDB - the EVM debugger. Type 'h' and enter for a quick help")

	scanner := bufio.NewScanner(os.Stdin)
	var lastLine string
	for {
		fmt.Print("(edb) ")
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			line = lastLine
		}
		lastLine = line
		if line == "" {
			continue
		}

		word, rest := splitCommand(line)
		if quit := s.dispatch(word, strings.TrimSpace(rest)); quit {
			return nil
		}
	}
}

func splitCommand(line string) (word, rest string) {
	idx := strings.IndexByte(line, ' ')
	if idx < 0 {
		return line, ""
	}
	return line[:idx], line[idx+1:]
}

func (s *session) dispatch(word, rest string) (quit bool) {
	switch word {
	case "r":
		if !s.vm.Halt {
			fmt.Fprintln(os.Stderr, "ERR: program is already running")
		} else {
			s.vm.Halt = false
			s.vm.IP = s.entry
		}
		s.continueRun()

	case "n":
		s.stepOne()

	case "c":
		s.continueRun()

	case "s":
		s.dumpStack()

	case "i":
		fmt.Printf("ip = %d\n", s.vm.IP)

	case "x":
		s.dumpMemory(rest)

	case "b":
		s.setBreakpoint(rest)

	case "d":
		s.deleteBreakpoint(rest)

	case "h":
		printHelp()

	case "q":
		return true

	default:
		fmt.Println("?")
	}
	return false
}

func (s *session) stepOne() {
	if s.vm.Halt {
		fmt.Fprintln(os.Stderr, "ERR: program is not being run")
		return
	}
	if trap := s.vm.Step(); trap != evm.Ok {
		s.fault(trap)
		return
	}
	fmt.Print("-> ")
	s.printInst(s.vm.IP)
	fmt.Println()
}

func (s *session) continueRun() {
	if s.vm.Halt {
		fmt.Fprintln(os.Stderr, "ERR: program is not being run")
		return
	}
	for {
		if bp, ok := s.breakpoints[s.vm.IP]; ok && bp.enabled {
			if !bp.broken {
				bp.broken = true
				yellow := color.New(color.FgYellow, color.Bold).SprintFunc()
				fmt.Printf("%s at %d", yellow("Hit breakpoint"), s.vm.IP)
				if label, ok := s.labels[s.vm.IP]; ok {
					fmt.Printf(" label '%s'", label)
				}
				fmt.Println()
				return
			}
			bp.broken = false
		}

		trap := s.vm.Step()
		if trap != evm.Ok {
			s.fault(trap)
			return
		}
		if s.vm.Halt {
			break
		}
	}
	fmt.Println("Program halted.")
}

func (s *session) fault(trap evm.Trap) {
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	fmt.Fprintf(os.Stderr, "%s at %d (INSTR: ", red(trap.String()), s.vm.IP)
	s.printInstTo(os.Stderr, s.vm.IP)
	fmt.Fprintln(os.Stderr, ")")
	s.vm.Halt = true
}

func (s *session) printInst(addr uint64) { s.printInstTo(os.Stdout, addr) }

func (s *session) printInstTo(w *os.File, addr uint64) {
	if addr >= s.vm.ProgramSize {
		fmt.Fprint(w, "<out of range>")
		return
	}
	inst := s.vm.Program[addr]
	if inst.Type.HasOperand() {
		fmt.Fprintf(w, "%s %d", inst.Type.Name(), inst.Operand.I64())
	} else {
		fmt.Fprint(w, inst.Type.Name())
	}
}

func (s *session) dumpStack() {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"u64", "i64", "f64", "ptr"})
	for _, row := range s.vm.DumpStack() {
		table.Append(row.Strings())
	}
	if s.vm.StackSize == 0 {
		fmt.Println("Stack: [empty]")
		return
	}
	fmt.Println("Stack:")
	table.Render()
}

func (s *session) dumpMemory(rest string) {
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		fmt.Fprintln(os.Stderr, "ERR: usage: x ADDR COUNT")
		return
	}
	addr, err1 := strconv.ParseUint(fields[0], 10, 64)
	count, err2 := strconv.ParseUint(fields[1], 10, 64)
	if err1 != nil || err2 != nil {
		fmt.Fprintln(os.Stderr, "ERR: usage: x ADDR COUNT")
		return
	}

	window := s.vm.MemoryWindow(addr, count)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"addr", "byte"})
	for i, b := range window {
		table.Append([]string{fmt.Sprintf("%d", addr+uint64(i)), fmt.Sprintf("%02X", b)})
	}
	table.Render()
}

func (s *session) setBreakpoint(rest string) {
	addr, ok := s.resolveAddr(rest)
	if !ok {
		fmt.Fprintln(os.Stderr, "ERR: cannot parse address or label")
		return
	}
	if addr > s.vm.ProgramSize {
		fmt.Fprintln(os.Stderr, "ERR: symbol out of program")
		return
	}
	if bp, ok := s.breakpoints[addr]; ok && bp.enabled {
		fmt.Fprintln(os.Stderr, "ERR: breakpoint already set")
		return
	}
	s.breakpoints[addr] = &breakpoint{enabled: true}
	fmt.Printf("INFO: breakpoint set at %d\n", addr)
}

func (s *session) deleteBreakpoint(rest string) {
	addr, ok := s.resolveAddr(rest)
	if !ok {
		fmt.Fprintln(os.Stderr, "ERR: cannot parse address or label")
		return
	}
	bp, ok := s.breakpoints[addr]
	if !ok || !bp.enabled {
		fmt.Fprintln(os.Stderr, "ERR: no such breakpoint")
		return
	}
	bp.enabled = false
	fmt.Printf("INFO: deleted breakpoint at %d\n", addr)
}

func (s *session) resolveAddr(tok string) (uint64, bool) {
	if tok == "" {
		return 0, false
	}
	if addr, err := strconv.ParseUint(tok, 10, 64); err == nil {
		return addr, true
	}
	for addr, name := range s.labels {
		if name == tok {
			return addr, true
		}
	}
	return 0, false
}

func printHelp() {
	fmt.Print(`r - run program
n - next instruction
c - continue program execution
s - stack dump
i - instruction pointer
x ADDR COUNT - memory dump
b ADDR|LABEL - set breakpoint
d ADDR|LABEL - delete breakpoint
q - quit
`)
}
