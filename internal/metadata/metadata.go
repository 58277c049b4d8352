package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tidwall/buntdb"
)

// ErrStreamNotFound is returned when a stream has no index entry.
var ErrStreamNotFound = errors.New("stream not indexed")

// StreamMetadata represents the index record of one stored quantum stream.
// The counters come from a statistics decode pass at scan time, so listing
// streams never has to decompress or re-decode them.
type StreamMetadata struct {
	ID        string    `json:"id"`
	RootPath  string    `json:"rootPath"`
	CreatedAt time.Time `json:"createdAt"`
	Files     int       `json:"files"`
	Dirs      int       `json:"dirs"`
	Links     int       `json:"links,omitempty"`
	TotalSize uint64    `json:"totalSize"`
	RawBytes  int       `json:"rawBytes"`
	Digest    string    `json:"digest"`
}

// Store is a BuntDB-backed index of stored streams.
type Store struct {
	db    *buntdb.DB
	path  string
	mutex sync.RWMutex
}

// New creates a new metadata store at path. Use ":memory:" for an
// in-process store that does not touch disk.
func New(path string) (*Store, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	// Index streams by creation time for ordered listings.
	if err := db.CreateIndex("stream_time", "stream:*", buntdb.IndexJSON("createdAt")); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the metadata store
func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.db.Close()
}

// Save writes or replaces the index record for a stream.
func (s *Store) Save(meta StreamMetadata) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal stream metadata: %w", err)
	}

	err = s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set("stream:"+meta.ID, string(data), nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save stream metadata: %w", err)
	}

	return nil
}

// Get retrieves the index record for a stream.
func (s *Store) Get(id string) (StreamMetadata, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var meta StreamMetadata
	err := s.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get("stream:" + id)
		if err != nil {
			if err == buntdb.ErrNotFound {
				return fmt.Errorf("%w: %s", ErrStreamNotFound, id)
			}
			return err
		}
		return json.Unmarshal([]byte(value), &meta)
	})
	if err != nil {
		return StreamMetadata{}, err
	}

	return meta, nil
}

// List returns all indexed streams, oldest first.
func (s *Store) List() ([]StreamMetadata, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var result []StreamMetadata
	var unmarshalErr error
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("stream_time", func(_, value string) bool {
			var meta StreamMetadata
			if err := json.Unmarshal([]byte(value), &meta); err != nil {
				unmarshalErr = err
				return false
			}
			result = append(result, meta)
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal stream metadata: %w", unmarshalErr)
	}

	return result, nil
}

// Delete removes the index record for a stream. Deleting an unindexed
// stream is not an error.
func (s *Store) Delete(id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete("stream:" + id)
		if err == buntdb.ErrNotFound {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete stream metadata: %w", err)
	}

	return nil
}
