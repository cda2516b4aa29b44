// Package ingest consumes session drop files from the compact
// directory. A host-agent hook writes one JSON file per session; each
// insight inside runs through the full write pipeline and the file is
// archived once consumed.
package ingest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/mnemon/mnemon/internal/memory"
	"github.com/mnemon/mnemon/internal/search"
)

// ArchiveDirName is the subdirectory consumed files are moved into.
const ArchiveDirName = "done"

// defaultImportance is applied when a session insight carries none.
const defaultImportance = 3

// SessionFile is the drop-file shape written by the hook bridge.
type SessionFile struct {
	Session  string           `json:"session"`
	Source   string           `json:"source,omitempty"`
	Insights []SessionInsight `json:"insights"`
}

// SessionInsight is one insight inside a session file. Only Content is
// required.
type SessionInsight struct {
	Content    string   `json:"content"`
	Category   string   `json:"category,omitempty"`
	Importance int      `json:"importance,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Entities   []string `json:"entities,omitempty"`
}

// FileResult reports what one consumed file produced.
type FileResult struct {
	File       string `json:"file"`
	Batch      string `json:"batch"`
	Session    string `json:"session"`
	Source     string `json:"source"`
	Remembered int    `json:"remembered"`
	Replaced   int    `json:"replaced"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
}

// Runner consumes session files against one memory service.
type Runner struct {
	svc *memory.Service
	dir string
}

// New builds a runner over the given drop directory.
func New(svc *memory.Service, compactDir string) *Runner {
	return &Runner{svc: svc, dir: compactDir}
}

// RunAll consumes every pending .json file in the drop directory, in
// name order. A missing directory is an empty run, not an error.
func (r *Runner) RunAll() ([]*FileResult, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*FileResult{}, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	results := make([]*FileResult, 0, len(names))
	for _, name := range names {
		res, err := r.RunFile(filepath.Join(r.dir, name))
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// RunFile consumes one session file and archives it. Per-insight
// failures are counted rather than aborting the batch.
func (r *Runner) RunFile(path string) (*FileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sf SessionFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse session file %s: %w", path, err)
	}

	source := sf.Source
	if source == "" {
		source = "agent"
	}

	res := &FileResult{
		File:    path,
		Batch:   ulid.Make().String(),
		Session: sf.Session,
		Source:  source,
	}

	for _, ins := range sf.Insights {
		importance := ins.Importance
		if importance == 0 {
			importance = defaultImportance
		}
		out, err := r.svc.Remember(memory.RememberRequest{
			Content:    ins.Content,
			Category:   ins.Category,
			Importance: importance,
			Tags:       ins.Tags,
			Entities:   ins.Entities,
			Source:     source,
		})
		if err != nil {
			slog.Warn("ingest insight failed", "file", path, "error", err)
			res.Failed++
			continue
		}
		switch out.Action {
		case search.DiffSkip:
			res.Skipped++
		case search.DiffReplace:
			res.Replaced++
		default:
			res.Remembered++
		}
	}

	if err := r.archive(path); err != nil {
		return nil, err
	}
	r.svc.Store().AppendOp("ingest", "", fmt.Sprintf(
		"batch=%s session=%s remembered=%d replaced=%d skipped=%d failed=%d",
		res.Batch, res.Session, res.Remembered, res.Replaced, res.Skipped, res.Failed))
	return res, nil
}

// archive moves a consumed file into the done/ subdirectory.
func (r *Runner) archive(path string) error {
	doneDir := filepath.Join(r.dir, ArchiveDirName)
	if err := os.MkdirAll(doneDir, 0o755); err != nil {
		return err
	}
	return os.Rename(path, filepath.Join(doneDir, filepath.Base(path)))
}
