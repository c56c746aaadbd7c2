// Command easm2nasm lowers EASM source directly to x86-64 NASM assembly.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"evm/easm"
	"evm/nasm"
)

var command = &cobra.Command{
	Use:   "easm2nasm <input.easm> <output.asm>",
	Short: "Lower EASM source to x86-64 NASM assembly",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		input, output := args[0], args[1]

		a := easm.New()
		if err := a.Translate(input); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		src, err := nasm.Lower(nasm.Program{
			Insts:  a.Program(),
			Memory: a.Memory(),
			Entry:  a.Entry(),
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		if err := os.WriteFile(output, []byte(src), 0o644); err != nil {
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
