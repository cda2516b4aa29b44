package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mnemon/mnemon/internal/memory"
)

var rememberCmd = &cobra.Command{
	Use:   "remember [content...]",
	Short: "Store an insight",
	Long: `Store an insight and wire it into the knowledge graph.

The write runs the full pipeline: duplicate detection, entity
extraction, edge synthesis across all four graph layers, retention
refresh, and bounded auto-pruning.

Examples:
  mnemon remember "Chose Qdrant over Milvus for vector DB" --cat decision --imp 5
  mnemon remember "User prefers short answers" --cat preference --tags style
  mnemon remember "Deploy failed because the token expired" --entities Deploy`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closer, err := openService()
		if err != nil {
			return err
		}
		defer closer()

		cat, _ := cmd.Flags().GetString("cat")
		imp, _ := cmd.Flags().GetInt("imp")
		tags, _ := cmd.Flags().GetString("tags")
		entities, _ := cmd.Flags().GetString("entities")
		source, _ := cmd.Flags().GetString("source")
		noDiff, _ := cmd.Flags().GetBool("no-diff")

		res, err := svc.Remember(memory.RememberRequest{
			Content:    strings.Join(args, " "),
			Category:   cat,
			Importance: imp,
			Tags:       splitCSV(tags),
			Entities:   splitCSV(entities),
			Source:     source,
			NoDiff:     noDiff,
		})
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

// splitCSV parses a comma-separated flag value, dropping empty parts.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	rememberCmd.Flags().String("cat", "general", "category (preference|decision|fact|insight|context|general)")
	rememberCmd.Flags().Int("imp", 3, "importance (1-5)")
	rememberCmd.Flags().String("tags", "", "comma-separated tags")
	rememberCmd.Flags().String("entities", "", "comma-separated entities")
	rememberCmd.Flags().String("source", "user", "source (user|agent|external)")
	rememberCmd.Flags().Bool("no-diff", false, "skip duplicate detection")
}
