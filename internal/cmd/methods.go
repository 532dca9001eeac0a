package cmd

import (
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/btclens/btclens/internal/tools"
)

var methodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "List the available JSON-RPC methods",
	RunE: func(cmd *cobra.Command, args []string) error {
		// The registry is the source of truth; descriptions are
		// decoration. Nil clients are fine since nothing is invoked.
		registry, err := tools.NewRegistry(tools.Deps{
			Network:   "mainnet",
			Version:   versionInfo.Version,
			StartedAt: time.Now(),
		})
		if err != nil {
			return err
		}

		names := make([]string, 0, len(registry))
		for name := range registry {
			names = append(names, name)
		}
		sort.Strings(names)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Method", "Description"})
		for _, name := range names {
			t.AppendRow(table.Row{name, tools.MethodDescriptions[name]})
		}
		t.SetStyle(table.StyleLight)
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(methodsCmd)
}
