package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/mnemon/mnemon/internal/memory"
)

var linkCmd = &cobra.Command{
	Use:   "link <source-id> <target-id>",
	Short: "Create a manual edge between two insights",
	Long: `Create a bidirectional edge between two insights.

Relinking the same pair with the same type overwrites the weight and
metadata (upsert).

Example:
  mnemon link abc123 def456 --type causal --weight 0.8 --meta '{"sub_type":"causes"}'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		edgeType, _ := cmd.Flags().GetString("type")
		weight, _ := cmd.Flags().GetFloat64("weight")
		meta, _ := cmd.Flags().GetString("meta")

		var metadata map[string]any
		if meta != "" {
			if err := json.Unmarshal([]byte(meta), &metadata); err != nil {
				return &memory.InputError{Msg: "invalid JSON metadata: " + err.Error()}
			}
		}

		svc, closer, err := openService()
		if err != nil {
			return err
		}
		defer closer()

		res, err := svc.Link(memory.LinkRequest{
			SourceID: args[0],
			TargetID: args[1],
			EdgeType: edgeType,
			Weight:   weight,
			Metadata: metadata,
		})
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

func init() {
	linkCmd.Flags().String("type", "semantic", "edge type (temporal|entity|causal|semantic)")
	linkCmd.Flags().Float64("weight", 0.5, "edge weight (0.0-1.0)")
	linkCmd.Flags().String("meta", "", "JSON metadata")
}
