package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mnemon/mnemon/internal/memory"
	"github.com/mnemon/mnemon/internal/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage named memory stores",
	RunE: func(cmd *cobra.Command, args []string) error {
		return storeListCmd.RunE(cmd, args)
	},
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stores",
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := store.ListStores(dataDir())
		if err != nil {
			return err
		}
		return printJSON(map[string]any{
			"active": store.ActiveStore(dataDir()),
			"stores": names,
		})
	},
}

var storeCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !store.ValidStoreName(name) {
			return &memory.InputError{Msg: fmt.Sprintf("invalid store name %q", name)}
		}
		if storeExists(name) {
			return &memory.InputError{Msg: fmt.Sprintf("store %q already exists", name)}
		}
		s, err := store.Open(dataDir(), name)
		if err != nil {
			return err
		}
		s.Close()
		return printJSON(map[string]string{"status": "created", "store": name})
	},
}

var storeSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Set the active store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !storeExists(name) {
			return &memory.InputError{
				Msg: fmt.Sprintf("store %q does not exist (use 'mnemon store create %s' first)", name, name),
			}
		}
		if err := store.SetActiveStore(dataDir(), name); err != nil {
			return err
		}
		return printJSON(map[string]string{"status": "active", "store": name})
	},
}

var storeRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !storeExists(name) {
			return &memory.InputError{
				Msg: fmt.Sprintf("store %q does not exist (use 'mnemon store create %s' first)", name, name),
			}
		}
		if name == store.ActiveStore(dataDir()) {
			return &memory.InputError{
				Msg: fmt.Sprintf("cannot remove the active store %q (switch first with 'mnemon store set <other>')", name),
			}
		}
		if err := os.RemoveAll(store.StoreDir(dataDir(), name)); err != nil {
			return err
		}
		return printJSON(map[string]string{"status": "removed", "store": name})
	},
}

func storeExists(name string) bool {
	_, err := os.Stat(store.DBPath(dataDir(), name))
	return err == nil
}

func init() {
	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeCreateCmd)
	storeCmd.AddCommand(storeSetCmd)
	storeCmd.AddCommand(storeRemoveCmd)
}
