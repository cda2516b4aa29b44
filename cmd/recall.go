package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mnemon/mnemon/internal/memory"
)

var recallCmd = &cobra.Command{
	Use:   "recall [query...]",
	Short: "Retrieve insights by intent-aware ranking",
	Long: `Retrieve insights for a query.

The smart path detects the query intent (WHY, WHEN, ENTITY, GENERAL),
fuses four anchor signals with reciprocal rank fusion, walks the graph
with an intent-tuned beam search, and re-ranks by keyword, entity,
similarity, and graph signals. WHY queries are ordered cause-first.

Examples:
  mnemon recall "why did we switch databases"
  mnemon recall "Qdrant" --intent ENTITY --limit 5
  mnemon recall "postgres" --basic --cat decision`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closer, err := openService()
		if err != nil {
			return err
		}
		defer closer()

		limit, _ := cmd.Flags().GetInt("limit")
		intent, _ := cmd.Flags().GetString("intent")
		cat, _ := cmd.Flags().GetString("cat")
		source, _ := cmd.Flags().GetString("source")
		basic, _ := cmd.Flags().GetBool("basic")

		req := memory.RecallRequest{
			Query:    strings.Join(args, " "),
			Limit:    limit,
			Intent:   intent,
			Category: cat,
			Source:   source,
		}

		if basic {
			results, err := svc.BasicRecall(req)
			if err != nil {
				return err
			}
			return printJSON(results)
		}

		resp, err := svc.Recall(req)
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

func init() {
	recallCmd.Flags().Int("limit", 10, "max results")
	recallCmd.Flags().String("intent", "", "override intent (WHY|WHEN|ENTITY|GENERAL)")
	recallCmd.Flags().String("cat", "", "filter by category (basic mode)")
	recallCmd.Flags().String("source", "", "filter by source (basic mode)")
	recallCmd.Flags().Bool("basic", false, "simple substring matching")
}
