package main

import (
	"fmt"
	"text/tabwriter"

	language "github.com/hanpama/routegraph/internal/language"
	"github.com/spf13/cobra"
)

func newRoutesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the booted route table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tNAME\tHANDLER\tTARGET\tMIDDLEWARES")
			dir := a.build.Snapshot().Directory
			for _, kind := range language.Operations {
				for _, e := range dir.Resolvers(kind) {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", kind, e.Name, e.Handler, e.Target, len(e.Middlewares))
				}
			}
			return w.Flush()
		},
	}
}
