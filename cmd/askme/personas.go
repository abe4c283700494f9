package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abyan-ai/askme/pkg/persona"
)

func newPersonasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "personas",
		Short: "List the assistant persona modes",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODE\tTITLE\tDEFAULT")
			for _, p := range persona.All() {
				def := ""
				if p.Mode == persona.Default {
					def = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.Mode, p.Title, def)
			}
			return w.Flush()
		},
	}
}
