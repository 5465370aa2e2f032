package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:   "routegraph",
		Short: "Route table and dispatch tools for routegraph handlers",
		Long: `routegraph links declared handler metadata, boots the configured route
table and dispatches operations through the interceptor chain.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: ./routegraph.yaml)")

	root.AddCommand(newRoutesCmd(&configPath))
	root.AddCommand(newInvokeCmd(&configPath))
	return root
}
