package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lueurxax/daily-news-digest/internal/core/domain"
	coreerrors "github.com/lueurxax/daily-news-digest/internal/core/errors"
)

const (
	indexFilename = "index.json"
	entryFileMode = 0o644
	dirMode       = 0o755
)

// archiveFile is the on-disk shape of one persisted digest.
type archiveFile struct {
	Entry  domain.ArchiveEntry `json:"entry"`
	Digest domain.Digest       `json:"digest"`
}

// FSStore persists digests as one JSON document per date in a directory,
// plus index.json. Writes go through a temp file and rename, so readers
// never observe a partially written entry.
type FSStore struct {
	dir string
}

func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	return &FSStore{dir: dir}, nil
}

func (s *FSStore) Put(_ context.Context, entry domain.ArchiveEntry, digest *domain.Digest) (domain.ArchiveEntry, error) {
	filename := entry.Date.Format(DateKey) + ".json"
	entry.Path = filename

	data, err := json.MarshalIndent(archiveFile{Entry: entry, Digest: *digest}, "", "  ")
	if err != nil {
		return domain.ArchiveEntry{}, fmt.Errorf("marshal archive entry: %w", err)
	}

	if err := s.writeAtomic(filename, data); err != nil {
		return domain.ArchiveEntry{}, err
	}

	return entry, nil
}

func (s *FSStore) Delete(_ context.Context, date time.Time) error {
	path := filepath.Join(s.dir, date.Format(DateKey)+".json")

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return coreerrors.ErrEntryNotFound
		}

		return fmt.Errorf("remove archive entry: %w", err)
	}

	return nil
}

func (s *FSStore) Entries(_ context.Context) ([]domain.ArchiveEntry, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read archive dir: %w", err)
	}

	var entries []domain.ArchiveEntry

	for _, f := range files {
		name := f.Name()
		if f.IsDir() || name == indexFilename || !strings.HasSuffix(name, ".json") {
			continue
		}

		// Only date-named files belong to the archive.
		if _, err := time.Parse(DateKey, strings.TrimSuffix(name, ".json")); err != nil {
			continue
		}

		entry, err := s.readEntry(name)
		if err != nil {
			// A torn or foreign file must not poison the whole listing.
			continue
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// Get loads one persisted digest by date.
func (s *FSStore) Get(_ context.Context, date time.Time) (*domain.Digest, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, date.Format(DateKey)+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, coreerrors.ErrEntryNotFound
		}

		return nil, fmt.Errorf("read archive entry: %w", err)
	}

	var file archiveFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal archive entry: %w", err)
	}

	return &file.Digest, nil
}

func (s *FSStore) WriteIndex(_ context.Context, entries []domain.ArchiveEntry) error {
	if entries == nil {
		entries = []domain.ArchiveEntry{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal archive index: %w", err)
	}

	return s.writeAtomic(indexFilename, data)
}

func (s *FSStore) readEntry(filename string) (domain.ArchiveEntry, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		return domain.ArchiveEntry{}, err
	}

	var file archiveFile
	if err := json.Unmarshal(data, &file); err != nil {
		return domain.ArchiveEntry{}, err
	}

	return file.Entry, nil
}

func (s *FSStore) writeAtomic(filename string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, filename+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Chmod(tmpName, entryFileMode); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(s.dir, filename)); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
