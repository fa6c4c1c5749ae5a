package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	linkUsername string
	linkPassword string
	linkSSNLast4 string
)

func init() {
	linkCmd.Flags().StringVarP(&linkUsername, "username", "u", "", "login username or email")
	linkCmd.Flags().StringVarP(&linkPassword, "password", "p", "", "login password")
	linkCmd.Flags().StringVar(&linkSSNLast4, "ssn4", "", "last four ssn digits, when the provider asks for them")
	linkCmd.MarkFlagRequired("username")
	linkCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(linkCmd)
}

var linkCmd = &cobra.Command{
	Use:   "link <client_id> <provider>",
	Short: "Stores a client's login for a provider, encrypted at rest.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		res, err := client().R().
			SetContext(cmd.Context()).
			SetBody(map[string]string{
				"client_id": args[0],
				"provider":  args[1],
				"username":  linkUsername,
				"password":  linkPassword,
				"ssn_last4": linkSSNLast4,
			}).
			Post("/link")
		if err != nil {
			fatal("request failed", err)
		}
		if res.IsError() {
			fatal("request failed", fmt.Errorf("%s: %s", res.Status(), res.String()))
		}

		fmt.Printf("linked %s to %s\n", args[0], args[1])
	},
}
