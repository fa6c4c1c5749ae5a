package commands

import (
	"fmt"
	"os"
	"sort"

	"creditwatch-backend/services/importer"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <client_id> <provider>",
	Short: "Runs one import for a client against a provider and prints the outcome.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		var result importer.ImportResult
		res, err := client().R().
			SetContext(cmd.Context()).
			SetBody(map[string]string{
				"client_id": args[0],
				"provider":  args[1],
			}).
			SetResult(&result).
			SetError(&result).
			Post("/import")
		if err != nil {
			fatal("request failed", err)
		}
		if res.IsError() && result.RunID == "" {
			fatal("request failed", fmt.Errorf("%s: %s", res.Status(), res.String()))
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRow(table.Row{"Run", result.RunID})
		t.AppendRow(table.Row{"Outcome", result.Outcome})
		if result.Category != "" {
			t.AppendRow(table.Row{"Category", result.Category})
		}
		if result.Step != "" {
			t.AppendRow(table.Row{"Step", result.Step})
		}
		if result.ArtifactPath != "" {
			t.AppendRow(table.Row{"Artifact", result.ArtifactPath})
		}
		if result.Diagnostics.Screenshot != "" {
			t.AppendRow(table.Row{"Screenshot", result.Diagnostics.Screenshot})
		}
		if result.Diagnostics.DOM != "" {
			t.AppendRow(table.Row{"DOM Capture", result.Diagnostics.DOM})
		}

		bureaus := make([]string, 0, len(result.Scores))
		for bureau := range result.Scores {
			bureaus = append(bureaus, bureau)
		}
		sort.Strings(bureaus)
		for _, bureau := range bureaus {
			t.AppendRow(table.Row{bureau, result.Scores[bureau]})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()

		if !result.Success {
			os.Exit(1)
		}
	},
}
