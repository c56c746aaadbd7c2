// Command evmi loads and runs a .evm program to completion.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"evm/evm"
)

var limit int

var command = &cobra.Command{
	Use:   "evmi <input.evm>",
	Short: "Run a .evm program to halt or trap",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		vm, entry, err := evm.Load(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		evm.LoadStandardNatives(vm)
		vm.IP = entry

		trap := vm.Run(limit)
		evm.Flush()

		if trap != evm.Ok {
			fmt.Fprintf(os.Stderr, "%s at ip=%d\n", trap, vm.IP)
			os.Exit(1)
		}
	},
}

func init() {
	command.Flags().IntVar(&limit, "limit", -1, "maximum instructions to execute, -1 for unlimited")
}

func main() {
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}
