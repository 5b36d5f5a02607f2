package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arloliu/mcint/integrand"
)

var integrandsCmd = &cobra.Command{
	Use:   "integrands",
	Short: "List the registered integrand names",
	Long: `List the integrands every mcint process can resolve by name.

Only named integrands can be used with more than one process, because each process
resolves the name against its own registry.`,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, name := range integrand.Default().Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

func init() {
	rootCmd.AddCommand(integrandsCmd)
}
