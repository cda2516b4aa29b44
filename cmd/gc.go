package cmd

import (
	"github.com/spf13/cobra"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Garbage collection / retention lifecycle",
	Long: `Review or adjust retention.

Without flags, lists prunable insights whose effective importance has
decayed below the threshold (read-only). With --keep, boosts one
insight past the immunity line so auto-pruning never touches it.

Examples:
  mnemon gc --threshold 0.3
  mnemon gc --keep abc123`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closer, err := openService()
		if err != nil {
			return err
		}
		defer closer()

		keep, _ := cmd.Flags().GetString("keep")
		if keep != "" {
			res, err := svc.Keep(keep)
			if err != nil {
				return err
			}
			return printJSON(res)
		}

		threshold, _ := cmd.Flags().GetFloat64("threshold")
		limit, _ := cmd.Flags().GetInt("limit")
		res, err := svc.Review(threshold, limit)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

func init() {
	gcCmd.Flags().Float64("threshold", 0.5, "effective-importance threshold")
	gcCmd.Flags().Int("limit", 20, "max candidates")
	gcCmd.Flags().String("keep", "", "insight ID to keep")
	gcCmd.Flags().Bool("review", false, "list candidates (default)")
}
