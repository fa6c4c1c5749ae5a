package commands

import (
	"os"

	"creditwatch-backend/services/scorehistory"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history <client_id>",
	Short: "Prints a client's per-bureau score history.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var history []scorehistory.BureauHistory
		getJSON(cmd, "/history/"+args[0], &history)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Bureau", "Score", "Provider", "Captured At"})

		for _, bureau := range history {
			for _, snapshot := range bureau.Snapshots {
				t.AppendRow(table.Row{
					bureau.Bureau,
					snapshot.Score,
					snapshot.Provider,
					snapshot.CapturedAt.Format("2006-01-02 15:04:05"),
				})
			}
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
