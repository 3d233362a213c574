// Command navgraph runs the UI navigation knowledge-graph service and its
// maintenance subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:   "navgraph",
		Short: "UI navigation knowledge graph for GUI-driving agents",
		Long: `navgraph maintains a page-transition graph plus vector index over an
app's UI and answers intent-to-action-path queries for automation agents.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config file")

	root.AddCommand(newServeCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newExportCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
