// Package memory is the orchestration layer behind the CLI verbs. It
// ties the store, the edge graph, and the search pipeline together and
// owns the write pipeline ordering: diff, soft-delete, insert, embed,
// edge synthesis, retention refresh, auto-prune.
package memory

import (
	"errors"
	"fmt"

	"github.com/mnemon/mnemon/internal/embedding"
	"github.com/mnemon/mnemon/internal/store"
)

// ErrEmbedderUnavailable is returned by operations that cannot run
// without a reachable embedding provider.
var ErrEmbedderUnavailable = errors.New("embedding provider unavailable")

// InputError marks a request rejected by validation before any write.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

func inputErrorf(format string, args ...any) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// IsInputError reports whether err is a validation failure.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// Service runs memory operations against one open store. The embedding
// provider is probed at most once per operation; a nil embedder
// degrades every pipeline to its token-only path.
type Service struct {
	store    *store.Store
	embedder embedding.Embedder
}

// NewService wires a service around an open store.
func NewService(s *store.Store, e embedding.Embedder) *Service {
	if e == nil {
		e = &embedding.NullEmbedder{}
	}
	return &Service{store: s, embedder: e}
}

// Store exposes the underlying store for read-only consumers such as
// the visualization and log commands.
func (s *Service) Store() *store.Store { return s.store }

// Embedder exposes the configured embedding provider.
func (s *Service) Embedder() embedding.Embedder { return s.embedder }
