package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Token-based keyword search",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closer, err := openService()
		if err != nil {
			return err
		}
		defer closer()

		limit, _ := cmd.Flags().GetInt("limit")
		rows, err := svc.Search(strings.Join(args, " "), limit)
		if err != nil {
			return err
		}
		return printJSON(rows)
	},
}

func init() {
	searchCmd.Flags().Int("limit", 10, "max results")
}
