package cmd

import (
	"github.com/spf13/cobra"
)

var forgetCmd = &cobra.Command{
	Use:   "forget <id>",
	Short: "Soft-delete an insight",
	Long: `Soft-delete an insight and drop every edge touching it.

The row is retained with a deletion marker; it disappears from all
retrieval, diff, and graph operations.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closer, err := openService()
		if err != nil {
			return err
		}
		defer closer()

		if err := svc.Forget(args[0]); err != nil {
			return err
		}
		return printJSON(map[string]string{
			"id":      args[0],
			"status":  "deleted",
			"message": "Insight soft-deleted successfully",
		})
	},
}
