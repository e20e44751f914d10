// Package filestore keeps one JSON file per document plus an _index.json
// listing every document id.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/docgate/docgate/internals/docstore"
	"github.com/docgate/docgate/internals/schemas"
)

const indexFile = "_index.json"

type indexEntry struct {
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type Store struct {
	dir    string
	logger *slog.Logger
	locks  *docstore.Locks
	now    func() time.Time

	indexMu sync.Mutex
	index   map[string]indexEntry
}

type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(dir string, logger *slog.Logger, opts ...Option) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}
	s := &Store{
		dir:    dir,
		logger: logger.With(slog.String("component", "filestore")),
		locks:  docstore.NewLocks(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.loadIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Create(ctx context.Context, id, content, actor string) (schemas.Document, error) {
	if err := ctx.Err(); err != nil {
		return schemas.Document{}, err
	}
	if err := docstore.ValidateID(id); err != nil {
		return schemas.Document{}, err
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, ok := s.lookup(id); ok {
		return schemas.Document{}, docstore.AlreadyExists(id)
	}

	now := s.timestamp()
	doc := schemas.Document{ID: id, Content: content, CreatedBy: actor, CreatedAt: now, UpdatedAt: now}
	if err := s.writeDocument(doc); err != nil {
		return schemas.Document{}, err
	}

	s.indexMu.Lock()
	s.index[id] = indexEntry{CreatedBy: actor, CreatedAt: now}
	err := s.saveIndexLocked()
	if err != nil {
		delete(s.index, id)
	}
	s.indexMu.Unlock()
	if err != nil {
		_ = os.Remove(s.docPath(id))
		return schemas.Document{}, err
	}

	s.logger.Info("Document created", slog.String("id", id), slog.String("by", actor))
	return doc, nil
}

func (s *Store) Read(ctx context.Context, id string) (schemas.Document, error) {
	if err := ctx.Err(); err != nil {
		return schemas.Document{}, err
	}
	if err := docstore.ValidateID(id); err != nil {
		return schemas.Document{}, docstore.NotFound(id)
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	return s.readLocked(id)
}

func (s *Store) Update(ctx context.Context, id, content, actor string) (schemas.Document, error) {
	if err := ctx.Err(); err != nil {
		return schemas.Document{}, err
	}
	if err := docstore.ValidateID(id); err != nil {
		return schemas.Document{}, docstore.NotFound(id)
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	doc, err := s.readLocked(id)
	if err != nil {
		return schemas.Document{}, err
	}
	doc.Content = content
	doc.UpdatedAt = s.timestamp()
	if !doc.UpdatedAt.After(doc.CreatedAt) {
		doc.UpdatedAt = doc.CreatedAt.Add(time.Microsecond)
	}
	if err := s.writeDocument(doc); err != nil {
		return schemas.Document{}, err
	}

	s.logger.Info("Document updated", slog.String("id", id), slog.String("by", actor))
	return doc, nil
}

func (s *Store) Delete(ctx context.Context, id, actor string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := docstore.ValidateID(id); err != nil {
		return docstore.NotFound(id)
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	s.indexMu.Lock()
	entry, ok := s.index[id]
	if !ok {
		s.indexMu.Unlock()
		return docstore.NotFound(id)
	}
	delete(s.index, id)
	if err := s.saveIndexLocked(); err != nil {
		s.index[id] = entry
		s.indexMu.Unlock()
		return err
	}
	s.indexMu.Unlock()

	if err := os.Remove(s.docPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("Failed to remove document file", slog.String("id", id), slog.String("error", err.Error()))
	}

	s.logger.Info("Document deleted", slog.String("id", id), slog.String("by", actor))
	return nil
}

// List returns a summary of every indexed document ordered by id. Documents
// whose file cannot be read are skipped.
func (s *Store) List(ctx context.Context) ([]schemas.DocumentSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.indexMu.Lock()
	ids := make([]string, 0, len(s.index))
	for id := range s.index {
		ids = append(ids, id)
	}
	s.indexMu.Unlock()
	sort.Strings(ids)

	summaries := make([]schemas.DocumentSummary, 0, len(ids))
	for _, id := range ids {
		doc, err := s.Read(ctx, id)
		if err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				continue
			}
			s.logger.Error("Error reading document", slog.String("id", id), slog.String("error", err.Error()))
			continue
		}
		summaries = append(summaries, docstore.Summarize(doc))
	}
	return summaries, nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) lookup(id string) (indexEntry, bool) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	entry, ok := s.index[id]
	return entry, ok
}

func (s *Store) readLocked(id string) (schemas.Document, error) {
	if _, ok := s.lookup(id); !ok {
		return schemas.Document{}, docstore.NotFound(id)
	}
	data, err := os.ReadFile(s.docPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return schemas.Document{}, docstore.NotFound(id)
		}
		return schemas.Document{}, fmt.Errorf("read document %s: %w", id, err)
	}
	var doc schemas.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return schemas.Document{}, fmt.Errorf("decode document %s: %w", id, err)
	}
	return doc, nil
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Store) docPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) writeDocument(doc schemas.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document %s: %w", doc.ID, err)
	}
	return writeFileAtomic(s.docPath(doc.ID), data)
}

func (s *Store) loadIndex() error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	s.index = map[string]indexEntry{}
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s.saveIndexLocked()
		}
		return fmt.Errorf("read index: %w", err)
	}
	if err := json.Unmarshal(data, &s.index); err != nil {
		return fmt.Errorf("decode index: %w", err)
	}
	return nil
}

func (s *Store) saveIndexLocked() error {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return writeFileAtomic(filepath.Join(s.dir, indexFile), data)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
