package consistency

import (
	"context"
	"sync"
	"time"

	"github.com/fairwaylabs/swingsense-backend/internal/scoring"
)

type memoryStore struct {
	mu      sync.Mutex
	entries map[string][]Snapshot
}

// NewMemoryStore returns a process-local Store. Used when redis is not
// configured and in tests; last writer wins on concurrent commits for the same
// fingerprint, which is acceptable because history is advisory.
func NewMemoryStore() Store {
	return &memoryStore{entries: map[string][]Snapshot{}}
}

func (s *memoryStore) Commit(_ context.Context, fingerprint string, v scoring.ScoreVector) (scoring.ScoreVector, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.entries[fingerprint]
	out := v
	blended := false
	if len(history) > 0 {
		out, blended = blendAgainst(v, history[len(history)-1])
	}
	s.entries[fingerprint] = appendBounded(history, snapshotOf(out, time.Now().UTC()))
	return out, blended
}
