// Command easm assembles EASM source into a loadable .evm program.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"evm/easm"
)

var emitSymbols bool

var command = &cobra.Command{
	Use:   "easm [-g] <input> <output>",
	Short: "Assemble EASM source into a .evm program",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		input, output := args[0], args[1]

		a := easm.New()
		if err := a.Translate(input); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		if err := a.Save(output); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		if emitSymbols {
			symPath := output + ".sym"
			if err := a.SaveSymbols(symPath); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		}
	},
}

func init() {
	command.Flags().BoolVarP(&emitSymbols, "symbols", "g", false, "also emit a <output>.sym symbol file")
}

func main() {
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}
