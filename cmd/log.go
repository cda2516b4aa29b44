package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the operation log",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closer, err := openService()
		if err != nil {
			return err
		}
		defer closer()

		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := svc.Store().RecentOps(limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No operations recorded yet.")
			return nil
		}

		rows := [][]string{
			{"TIME", "OP", "INSIGHT", "DETAIL"},
			{"----", "--", "-------", "------"},
		}
		for _, e := range entries {
			detail := e.Detail
			if len(detail) > 60 {
				detail = detail[:57] + "..."
			}
			rows = append(rows, []string{
				e.CreatedAt, e.Op, truncID(e.InsightID), detail,
			})
		}

		widths := make([]int, 4)
		for _, row := range rows {
			for i, col := range row {
				if len(col) > widths[i] {
					widths[i] = len(col)
				}
			}
		}
		for _, row := range rows {
			cols := make([]string, 4)
			for i, col := range row {
				cols[i] = col + strings.Repeat(" ", widths[i]-len(col))
			}
			fmt.Println(strings.TrimRight(strings.Join(cols, "  "), " "))
		}
		return nil
	},
}

// truncID shortens an insight id for display.
func truncID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	logCmd.Flags().Int("limit", 20, "max entries")
}
