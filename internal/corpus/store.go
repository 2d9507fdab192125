// Package corpus holds the in-memory regret pattern store and its sources.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/kiranshivaraju/hindsight/pkg/models"
)

// ErrNoSource is returned by Reload on a store built without a Source.
var ErrNoSource = errors.New("corpus store has no source")

// Source loads and persists the corpus document.
type Source interface {
	LoadCorpus(ctx context.Context) (*models.Corpus, error)
	SaveCorpus(ctx context.Context, doc *models.Corpus) error
}

// Snapshot is an immutable view of one loaded corpus. Callers must not modify Patterns.
type Snapshot struct {
	Version     uuid.UUID
	ExtractedAt string
	Patterns    []models.PatternRecord
	LoadedAt    time.Time

	summaryOnce sync.Once
	summary     Summary
}

// Len returns the number of patterns in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Patterns)
}

// Summary returns the aggregate view of the snapshot, computed once.
func (s *Snapshot) Summary() Summary {
	s.summaryOnce.Do(func() {
		s.summary = Summarize(s.Patterns)
		s.summary.ExtractedAt = s.ExtractedAt
	})
	return s.summary
}

// Store is the process-wide pattern store. Readers take a Snapshot and keep
// using it for the rest of the request; reloads swap the pointer wholesale.
type Store struct {
	src     Source
	current atomic.Pointer[Snapshot]
	group   singleflight.Group
	onLoad  func(n int, err error)
}

// NewStore creates an empty store. src may be nil for stores filled via Replace.
func NewStore(src Source) *Store {
	return &Store{src: src}
}

// OnLoad registers a callback invoked after every Reload attempt.
func (s *Store) OnLoad(fn func(n int, err error)) {
	s.onLoad = fn
}

// Snapshot returns the current snapshot, or nil when nothing has been loaded.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Ready reports whether a corpus has been loaded.
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}

// Replace installs doc as the current snapshot.
func (s *Store) Replace(doc *models.Corpus) *Snapshot {
	patterns := make([]models.PatternRecord, len(doc.Patterns))
	copy(patterns, doc.Patterns)

	snap := &Snapshot{
		Version:     uuid.New(),
		ExtractedAt: doc.ExtractedAt,
		Patterns:    patterns,
		LoadedAt:    time.Now().UTC(),
	}
	s.current.Store(snap)
	return snap
}

// Reload fetches the corpus from the source and swaps it in. Concurrent calls
// share a single fetch. On failure the previous snapshot stays in place.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	if s.src == nil {
		return nil, ErrNoSource
	}

	v, err, _ := s.group.Do("reload", func() (any, error) {
		doc, err := s.src.LoadCorpus(ctx)
		if err != nil {
			return nil, fmt.Errorf("load corpus: %w", err)
		}
		snap := s.Replace(doc)
		slog.Info("corpus loaded", "patterns", snap.Len(), "version", snap.Version, "extracted_at", snap.ExtractedAt)
		return snap, nil
	})

	if s.onLoad != nil {
		n := 0
		if snap, ok := v.(*Snapshot); ok && snap != nil {
			n = snap.Len()
		}
		s.onLoad(n, err)
	}
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Save persists doc through the source and installs it.
func (s *Store) Save(ctx context.Context, doc *models.Corpus) (*Snapshot, error) {
	if s.src == nil {
		return nil, ErrNoSource
	}
	if err := s.src.SaveCorpus(ctx, doc); err != nil {
		return nil, fmt.Errorf("save corpus: %w", err)
	}
	return s.Replace(doc), nil
}
