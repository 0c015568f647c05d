package index

import (
	"crypto/rand"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Snapshot file names, co-located under the configured storage root.
const (
	indexFile     = "index.bin"
	documentsFile = "documents.json"
)

// indexSnapshot is the gob-encoded raw index structure.
type indexSnapshot struct {
	Dimension int
	Vectors   [][]float32
}

// documentRecord is a persisted document. Embeddings are excluded to
// save space; they are re-attached from the index snapshot on load by
// ordinal position.
type documentRecord struct {
	ID       string                 `json:"doc_id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
}

// persistLocked writes both snapshot files. Caller holds at least the
// read lock. Each file is written atomically (temp file + rename) so a
// crash mid-write leaves the previous snapshot intact.
func (s *Store) persistLocked() error {
	if err := os.MkdirAll(s.config.Path, 0o700); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	snap := indexSnapshot{
		Dimension: s.config.Dimension,
		Vectors:   s.index.Vectors(),
	}
	if err := writeAtomic(filepath.Join(s.config.Path, indexFile), func(f *os.File) error {
		return gob.NewEncoder(f).Encode(snap)
	}); err != nil {
		return fmt.Errorf("writing index snapshot: %w", err)
	}

	records := make([]documentRecord, len(s.docs))
	for i, doc := range s.docs {
		records[i] = documentRecord{
			ID:       doc.ID,
			Text:     doc.Text,
			Metadata: doc.Metadata,
		}
	}
	if err := writeAtomic(filepath.Join(s.config.Path, documentsFile), func(f *os.File) error {
		return json.NewEncoder(f).Encode(records)
	}); err != nil {
		return fmt.Errorf("writing document snapshot: %w", err)
	}

	return nil
}

// load restores the snapshot from disk. Called from NewStore before the
// store is shared, so no locking is needed. Any error means the caller
// should fall back to an empty index.
func (s *Store) load() error {
	f, err := os.Open(filepath.Join(s.config.Path, indexFile))
	if err != nil {
		return fmt.Errorf("opening index snapshot: %w", err)
	}
	defer f.Close()

	var snap indexSnapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("decoding index snapshot: %w", err)
	}
	if snap.Dimension != s.config.Dimension {
		return fmt.Errorf("%w: snapshot has dimension %d, store configured for %d",
			ErrDimensionMismatch, snap.Dimension, s.config.Dimension)
	}

	data, err := os.ReadFile(filepath.Join(s.config.Path, documentsFile))
	if err != nil {
		return fmt.Errorf("reading document snapshot: %w", err)
	}
	var records []documentRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decoding document snapshot: %w", err)
	}

	if len(records) != len(snap.Vectors) {
		return fmt.Errorf("snapshot mismatch: %d documents but %d vectors",
			len(records), len(snap.Vectors))
	}

	idx, err := NewFlatIndex(s.config.Dimension)
	if err != nil {
		return err
	}
	docs := make([]Document, len(records))
	ordinals := make(map[string]int, len(records))
	for i, rec := range records {
		if err := idx.Add(snap.Vectors[i]); err != nil {
			return fmt.Errorf("restoring vector %d: %w", i, err)
		}
		docs[i] = Document{
			ID:        rec.ID,
			Text:      rec.Text,
			Metadata:  rec.Metadata,
			Embedding: snap.Vectors[i],
		}
		ordinals[rec.ID] = i
	}

	s.index = idx
	s.docs = docs
	s.ordinals = ordinals
	return nil
}

// writeAtomic writes a file via a temp sibling and rename, syncing
// before the rename so a crash never exposes a partial file.
func writeAtomic(path string, write func(*os.File) error) error {
	tmpPath := path + ".tmp." + randomSuffix()
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	f.Close()

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("finalizing file: %w", err)
	}
	return nil
}

// randomSuffix generates a random suffix for temp files, falling back
// to a timestamp if the system entropy source fails.
func randomSuffix() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%x", b)
}
