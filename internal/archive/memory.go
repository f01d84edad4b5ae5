package archive

import (
	"context"
	"sync"
	"time"

	"github.com/lueurxax/daily-news-digest/internal/core/domain"
	coreerrors "github.com/lueurxax/daily-news-digest/internal/core/errors"
)

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]domain.ArchiveEntry
	digests map[string]domain.Digest
	index   []domain.ArchiveEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]domain.ArchiveEntry),
		digests: make(map[string]domain.Digest),
	}
}

func (s *MemoryStore) Put(_ context.Context, entry domain.ArchiveEntry, digest *domain.Digest) (domain.ArchiveEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entry.Date.Format(DateKey)
	entry.Path = key + ".json"

	s.entries[key] = entry
	s.digests[key] = *digest

	return entry, nil
}

func (s *MemoryStore) Delete(_ context.Context, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := date.Format(DateKey)
	if _, ok := s.entries[key]; !ok {
		return coreerrors.ErrEntryNotFound
	}

	delete(s.entries, key)
	delete(s.digests, key)

	return nil
}

func (s *MemoryStore) Entries(context.Context) ([]domain.ArchiveEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]domain.ArchiveEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}

	return entries, nil
}

func (s *MemoryStore) WriteIndex(_ context.Context, entries []domain.ArchiveEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index = make([]domain.ArchiveEntry, len(entries))
	copy(s.index, entries)

	return nil
}

// Index returns the last written index.
func (s *MemoryStore) Index() []domain.ArchiveEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := make([]domain.ArchiveEntry, len(s.index))
	copy(index, s.index)

	return index
}
