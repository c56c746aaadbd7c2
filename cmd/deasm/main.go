// Command deasm disassembles a .evm program back into a readable listing.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"evm/evm"
)

var command = &cobra.Command{
	Use:   "deasm <input.evm>",
	Short: "Disassemble a .evm program",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		vm, entry, err := evm.Load(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		entryMark := color.New(color.FgGreen, color.Bold).SprintFunc()

		for i := uint64(0); i < vm.ProgramSize; i++ {
			inst := vm.Program[i]
			marker := "  "
			if i == entry {
				marker = entryMark("->")
			}

			if inst.Type.HasOperand() {
				fmt.Printf("%s %04d: %-10s %d\n", marker, i, inst.Type.Name(), inst.Operand.U64())
			} else {
				fmt.Printf("%s %04d: %s\n", marker, i, inst.Type.Name())
			}
		}
	},
}

func main() {
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}
