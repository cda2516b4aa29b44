package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mnemon/mnemon/internal/config"
	"github.com/mnemon/mnemon/internal/embedding"
	"github.com/mnemon/mnemon/internal/logging"
	"github.com/mnemon/mnemon/internal/memory"
	"github.com/mnemon/mnemon/internal/store"
)

var (
	version = "0.1.0"

	flagDataDir  string
	flagStore    string
	flagReadonly bool
)

var rootCmd = &cobra.Command{
	Use:   "mnemon",
	Short: "Persistent graph memory for LLM agents",
	Long: `Mnemon is a persistent memory store driven by symbolic commands.

Insights are indexed as nodes in a four-layer typed graph (temporal,
entity, causal, semantic), retrieved by intent-adaptive ranking, and
aged out through effective-importance decay.

Command results go to stdout as JSON; diagnostics go to stderr.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A local .env may supply the MNEMON_* variables.
		godotenv.Load()
		logging.Init(loadConfig().LogLevel())
	},
}

// Execute runs the CLI. Errors are rendered as a single JSON object on
// stderr so the host agent can parse failures the same way as results.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		payload, _ := json.Marshal(map[string]string{
			"error": err.Error(),
			"kind":  errorKind(err),
		})
		fmt.Fprintln(os.Stderr, string(payload))
	}
	return err
}

func errorKind(err error) string {
	switch {
	case memory.IsInputError(err):
		return "invalid_input"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, memory.ErrEmbedderUnavailable):
		return "internal"
	default:
		return "storage"
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "base data directory (env: MNEMON_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&flagStore, "store", "", "named memory store")
	rootCmd.PersistentFlags().BoolVar(&flagReadonly, "readonly", false, "open database in read-only mode")

	rootCmd.AddCommand(rememberCmd)
	rootCmd.AddCommand(recallCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(relatedCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(gcCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(embedCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(vizCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(setupCmd)
}

// dataDir resolves the base data directory: flag, then environment,
// then ~/.mnemon.
func dataDir() string {
	if flagDataDir != "" {
		return flagDataDir
	}
	if env := os.Getenv("MNEMON_DATA_DIR"); env != "" {
		return env
	}
	return store.DefaultDataDir()
}

// storeName resolves the store to operate on: flag, then environment,
// then the active-store file, then "default".
func storeName() string {
	if flagStore != "" {
		return flagStore
	}
	if env := os.Getenv("MNEMON_STORE"); env != "" {
		return env
	}
	return store.ActiveStore(dataDir())
}

func loadConfig() *config.Config {
	cfg, err := config.Load(dataDir())
	if err != nil {
		slog.Warn("config load failed", "error", err)
		return &config.Config{}
	}
	return cfg
}

func newEmbedder() *embedding.Client {
	cfg := loadConfig()
	return embedding.NewClient(cfg.EmbedEndpoint(), cfg.EmbedModel())
}

// openService opens the selected store and wires the memory service
// around it. The returned closer must be deferred by the caller.
func openService() (*memory.Service, func(), error) {
	var (
		s   *store.Store
		err error
	)
	if flagReadonly {
		s, err = store.OpenRO(dataDir(), storeName())
	} else {
		s, err = store.Open(dataDir(), storeName())
	}
	if err != nil {
		return nil, nil, err
	}
	return memory.NewService(s, newEmbedder()), func() { s.Close() }, nil
}

// printJSON renders a command result on stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
