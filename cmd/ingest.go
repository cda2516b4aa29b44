package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mnemon/mnemon/internal/ingest"
	"github.com/mnemon/mnemon/internal/store"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Consume session drop files",
	Long: `Consume hook-bridge session files from <data-dir>/compact/.

Each file is a JSON object {session, source?, insights: [...]} whose
insights run through the full write pipeline (diff on). Processed
files are archived to compact/done/.

Without arguments, every pending file in the drop directory is
consumed. With --watch, the directory is followed until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closer, err := openService()
		if err != nil {
			return err
		}
		defer closer()

		runner := ingest.New(svc, store.CompactDir(dataDir()))

		watch, _ := cmd.Flags().GetBool("watch")
		if watch {
			debounce, _ := cmd.Flags().GetDuration("debounce")
			w, err := runner.Watch(debounce)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "watching", store.CompactDir(dataDir()))

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			<-sigChan
			w.Stop()
			return nil
		}

		var results []*ingest.FileResult
		if len(args) > 0 {
			for _, path := range args {
				res, err := runner.RunFile(path)
				if err != nil {
					return err
				}
				results = append(results, res)
			}
		} else {
			results, err = runner.RunAll()
			if err != nil {
				return err
			}
		}
		if results == nil {
			results = []*ingest.FileResult{}
		}
		return printJSON(results)
	},
}

func init() {
	ingestCmd.Flags().Bool("watch", false, "follow the drop directory")
	ingestCmd.Flags().Duration("debounce", 2*time.Second, "settle time before consuming a changed file")
}
