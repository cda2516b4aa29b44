package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mnemon/mnemon/internal/memory"
)

var embedCmd = &cobra.Command{
	Use:   "embed [id]",
	Short: "Manage embeddings",
	Long: `Manage insight embeddings.

Examples:
  mnemon embed --status       coverage and provider availability
  mnemon embed --all          backfill every insight without a vector
  mnemon embed abc123         embed a single insight`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closer, err := openService()
		if err != nil {
			return err
		}
		defer closer()

		showStatus, _ := cmd.Flags().GetBool("status")
		backfill, _ := cmd.Flags().GetBool("all")

		switch {
		case showStatus:
			res, err := svc.EmbeddingCoverage()
			if err != nil {
				return err
			}
			return printJSON(res)
		case backfill:
			res, err := svc.EmbedBackfill()
			if err != nil {
				return err
			}
			return printJSON(res)
		case len(args) == 1:
			res, err := svc.EmbedOne(args[0])
			if err != nil {
				return err
			}
			return printJSON(res)
		default:
			return &memory.InputError{
				Msg: "specify --all to backfill, --status to check coverage, or provide an insight ID",
			}
		}
	},
}

func init() {
	embedCmd.Flags().Bool("status", false, "show coverage stats")
	embedCmd.Flags().Bool("all", false, "backfill all insights")
}
