package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mnemon/mnemon/internal/store"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Set up the data layout and host-agent assets",
	Long: `Create the data directory layout, the collaborator prompt assets
(prompt/guide.md, prompt/skill.md), and a config.yaml template.

With --eject, the prompt assets are removed; stored insights are
untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		base := dataDir()
		promptDir := store.PromptDir(base)

		eject, _ := cmd.Flags().GetBool("eject")
		if eject {
			removed := []string{}
			for _, name := range []string{"guide.md", "skill.md"} {
				path := filepath.Join(promptDir, name)
				if err := os.Remove(path); err == nil {
					removed = append(removed, path)
				}
			}
			return printJSON(map[string]any{"status": "ejected", "removed": removed})
		}

		dirs := []string{
			store.StoreDir(base, store.DefaultStoreName),
			store.CompactDir(base),
			promptDir,
		}
		for _, dir := range dirs {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}

		// Initialize the default store so first use is never racing setup.
		s, err := store.Open(base, store.DefaultStoreName)
		if err != nil {
			return err
		}
		s.Close()

		created := []string{}
		assets := map[string]string{
			filepath.Join(promptDir, "guide.md"): guideAsset,
			filepath.Join(promptDir, "skill.md"): skillAsset,
			filepath.Join(base, "config.yaml"):   configTemplate,
		}
		for path, content := range assets {
			if _, err := os.Stat(path); err == nil {
				continue
			}
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return err
			}
			created = append(created, path)
		}

		return printJSON(map[string]any{
			"status":   "ready",
			"data_dir": base,
			"created":  created,
			"mcp": map[string]any{
				"mcpServers": map[string]any{
					"mnemon": map[string]any{
						"command": "mnemon",
						"args":    []string{"mcp"},
					},
				},
			},
		})
	},
}

func init() {
	setupCmd.Flags().Bool("eject", false, "remove the prompt assets")
}

const guideAsset = `# Mnemon Memory Guide

You have a persistent memory store available through the ` + "`mnemon`" + ` CLI.

## When to remember

Store one insight per fact, roughly one sentence, as soon as it is
established:

- decisions and their reasons (--cat decision)
- user preferences (--cat preference)
- durable facts about the project or environment (--cat fact)
- hard-won conclusions (--cat insight)

Rate importance 1-5; reserve 5 for things that must never be lost.

## When to recall

Before answering questions about past work, run ` + "`mnemon recall`" + ` with
the user's phrasing. "Why" questions return cause-ordered chains.

## Follow-ups

` + "`remember`" + ` output lists semantic and causal candidates: insights the
new one probably relates to. Confirm real relations with
` + "`mnemon link <src> <dst> --type causal`" + `.
`

const skillAsset = `---
name: mnemon
description: Persistent graph memory. Use to remember durable facts, decisions, and preferences, and to recall them in later sessions.
---

# Mnemon

Store: ` + "`mnemon remember \"<one sentence>\" --cat <category> --imp <1-5>`" + `
Retrieve: ` + "`mnemon recall \"<query>\"`" + ` (add --intent WHY|WHEN|ENTITY to force)
Connect: ` + "`mnemon link <src-id> <dst-id> --type <edge-type>`" + `
Inspect: ` + "`mnemon status`" + `, ` + "`mnemon related <id>`" + `, ` + "`mnemon log`" + `
Forget: ` + "`mnemon forget <id>`" + `

All commands emit JSON on stdout. Categories: preference, decision,
fact, insight, context, general. Edge types: temporal, entity, causal,
semantic.
`

const configTemplate = `# Mnemon configuration. Environment variables win over this file.

embed:
  # endpoint: http://localhost:11434   # MNEMON_EMBED_ENDPOINT
  # model: nomic-embed-text            # MNEMON_EMBED_MODEL

log:
  # level: warn                        # MNEMON_LOG (debug|info|warn|error)
`
