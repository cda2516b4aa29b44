package cmd

import (
	"github.com/spf13/cobra"
)

var relatedCmd = &cobra.Command{
	Use:   "related <id>",
	Short: "Find connected insights via graph traversal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closer, err := openService()
		if err != nil {
			return err
		}
		defer closer()

		edge, _ := cmd.Flags().GetString("edge")
		depth, _ := cmd.Flags().GetInt("depth")
		entries, err := svc.Related(args[0], edge, depth)
		if err != nil {
			return err
		}
		return printJSON(entries)
	},
}

func init() {
	relatedCmd.Flags().String("edge", "", "filter by edge type")
	relatedCmd.Flags().Int("depth", 2, "max traversal depth")
}
