package commands

import (
	"os"

	"creditwatch-backend/services/credentials"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(clientsCmd)
}

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Prints every linked client credential and its last import outcome.",
	Run: func(cmd *cobra.Command, args []string) {
		var links []credentials.LinkStatus
		getJSON(cmd, "/clients", &links)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Client", "Provider", "Status", "Last Import", "Artifact"})

		for _, l := range links {
			lastImport := ""
			if l.LastImportAt.Unix() > 0 {
				lastImport = l.LastImportAt.Format("2006-01-02 15:04:05")
			}
			t.AppendRow(table.Row{
				l.ClientID, l.Provider, l.LastImportStatus, lastImport, l.LastArtifactPath,
			})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
