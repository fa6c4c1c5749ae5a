package commands

import (
	"os"

	"creditwatch-backend/services/healthcheck"
	"creditwatch-backend/services/registry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(providersCmd)
}

type providerInfo struct {
	Provider string                      `json:"provider"`
	Flow     registry.Flow               `json:"flow"`
	Health   *healthcheck.ProviderStatus `json:"health,omitempty"`
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Prints the supported monitoring providers and their health.",
	Run: func(cmd *cobra.Command, args []string) {
		var providers []providerInfo
		getJSON(cmd, "/providers", &providers)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Provider", "Flow", "Reachable", "Checked At"})

		for _, p := range providers {
			reachable := "unknown"
			checkedAt := ""
			if p.Health != nil {
				if p.Health.Reachable {
					reachable = "yes"
				} else {
					reachable = "no"
				}
				checkedAt = p.Health.CheckedAt.Format("2006-01-02 15:04:05")
			}
			t.AppendRow(table.Row{p.Provider, p.Flow, reachable, checkedAt})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
