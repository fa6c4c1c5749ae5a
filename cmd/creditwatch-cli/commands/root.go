package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

// BaseUrl points at the creditwatchd trigger api, overridable via the
// CREDITWATCH_BASE_URL environment variable.
var BaseUrl = "http://localhost:8410"

var rootCmd = &cobra.Command{
	Use:   "creditwatch-cli",
	Short: "creditwatch-cli operates the credit monitoring import engine.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func client() *resty.Client {
	return resty.New().SetBaseURL(BaseUrl)
}

func fatal(message string, err error) {
	fmt.Fprintln(os.Stderr, message+":", err.Error())
	os.Exit(1)
}

// getJSON fetches path and decodes the response into out, failing the
// command on transport errors or a non-2xx status.
func getJSON(cmd *cobra.Command, path string, out any) {
	res, err := client().R().
		SetContext(cmd.Context()).
		SetResult(out).
		Get(path)
	if err != nil {
		fatal("request failed", err)
	}
	if res.IsError() {
		fatal("request failed", fmt.Errorf("%s: %s", res.Status(), res.String()))
	}
}
