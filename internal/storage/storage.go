package storage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/TFMV/quantree/internal/decode"
	"github.com/TFMV/quantree/internal/quantum"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

const (
	// DefaultCompression is the default compression level
	DefaultCompression = 3
	// DefaultCacheSize is the default number of streams to cache
	DefaultCacheSize = 10
	// StreamFileExt is the file extension for stored quantum streams
	StreamFileExt = ".qt"
)

var (
	// ErrStreamNotFound is returned when a stream is not found
	ErrStreamNotFound = errors.New("stream not found")
	// ErrDigestMismatch is returned when stored data fails digest verification
	ErrDigestMismatch = errors.New("stream digest mismatch")
)

// StreamStore manages encoded quantum streams on disk. Streams are stored
// zstd-compressed; decompressed reads pass through a small in-memory cache.
type StreamStore struct {
	baseDir     string
	encoder     *zstd.Encoder
	decoder     *zstd.Decoder
	cacheMutex  sync.RWMutex
	streamCache map[string][]byte
	cacheSize   int
	cacheKeys   []string
}

// NewStreamStore creates a new stream store rooted at baseDir.
func NewStreamStore(baseDir string) (*StreamStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create stream directory: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevel(DefaultCompression)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &StreamStore{
		baseDir:     baseDir,
		encoder:     encoder,
		decoder:     decoder,
		streamCache: make(map[string][]byte),
		cacheSize:   DefaultCacheSize,
		cacheKeys:   make([]string, 0, DefaultCacheSize),
	}, nil
}

// Close closes the stream store
func (s *StreamStore) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	return nil
}

// Digest computes the BLAKE3 digest of raw stream bytes in hex form.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// WriteStream writes a raw quantum stream to disk with compression and
// returns its BLAKE3 digest.
func (s *StreamStore) WriteStream(name string, data []byte) (string, error) {
	filename := filepath.Join(s.baseDir, name+StreamFileExt)

	compressed := s.encoder.EncodeAll(data, nil)

	// Use O_SYNC for durability
	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC|os.O_SYNC, 0644)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err = f.Write(compressed); err != nil {
		return "", err
	}

	s.cacheStream(name, data)

	return Digest(data), nil
}

// ReadStream reads a stream from disk or cache, decompressed.
func (s *StreamStore) ReadStream(name string) ([]byte, error) {
	s.cacheMutex.RLock()
	if data, ok := s.streamCache[name]; ok {
		s.cacheMutex.RUnlock()
		return data, nil
	}
	s.cacheMutex.RUnlock()

	filename := filepath.Join(s.baseDir, name+StreamFileExt)
	compressed, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrStreamNotFound, name)
		}
		return nil, err
	}

	data, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, err
	}

	s.cacheStream(name, data)

	return data, nil
}

// ReadVerified reads a stream and checks it against the expected digest.
func (s *StreamStore) ReadVerified(name, digest string) ([]byte, error) {
	data, err := s.ReadStream(name)
	if err != nil {
		return nil, err
	}
	if actual := Digest(data); actual != digest {
		return nil, fmt.Errorf("%w: %s: have %s, want %s", ErrDigestMismatch, name, actual, digest)
	}
	return data, nil
}

// ListStreams returns the names of stored streams.
func (s *StreamStore) ListStreams() ([]string, error) {
	files, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}

	streams := make([]string, 0, len(files))
	for _, file := range files {
		if filepath.Ext(file.Name()) == StreamFileExt {
			streams = append(streams, file.Name()[:len(file.Name())-len(StreamFileExt)])
		}
	}

	return streams, nil
}

// DeleteStream deletes a stored stream.
func (s *StreamStore) DeleteStream(name string) error {
	filename := filepath.Join(s.baseDir, name+StreamFileExt)

	s.cacheMutex.Lock()
	delete(s.streamCache, name)
	for i, key := range s.cacheKeys {
		if key == name {
			s.cacheKeys = append(s.cacheKeys[:i], s.cacheKeys[i+1:]...)
			break
		}
	}
	s.cacheMutex.Unlock()

	return os.Remove(filename)
}

// cacheStream adds a stream to the cache, evicting the oldest entry when full.
func (s *StreamStore) cacheStream(name string, data []byte) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	if _, ok := s.streamCache[name]; !ok {
		if len(s.cacheKeys) >= s.cacheSize {
			oldest := s.cacheKeys[0]
			s.cacheKeys = s.cacheKeys[1:]
			delete(s.streamCache, oldest)
		}
		s.cacheKeys = append(s.cacheKeys, name)
	}
	s.streamCache[name] = data
}

// nameCollector is a decode renderer that records every entry name. It
// implements decode.Decoder so the bloom filter is built with the same
// driver every other renderer uses.
type nameCollector struct {
	names [][]byte
}

func (c *nameCollector) Init(_ io.Writer) error { return nil }

func (c *nameCollector) DecodeEntry(entry *quantum.Entry, _ io.Writer) error {
	if entry.Name != "" {
		c.names = append(c.names, []byte(entry.Name))
	}
	return nil
}

func (c *nameCollector) Finish(_ io.Writer) error { return nil }

// BuildNameFilter decodes a stored stream and returns a bloom filter over
// all entry names it contains.
func (s *StreamStore) BuildNameFilter(name string) (*BloomFilter, error) {
	data, err := s.ReadStream(name)
	if err != nil {
		return nil, err
	}

	collector := &nameCollector{}
	if err := decode.DecodeStream(data, collector, io.Discard); err != nil {
		return nil, fmt.Errorf("failed to decode stream %s: %w", name, err)
	}

	// Sized for roughly 1% false positives.
	size := uint(len(collector.names) * 10)
	if size < 64 {
		size = 64
	}
	filter := NewBloomFilter(size, 7)
	for _, n := range collector.names {
		filter.Add(n)
	}

	return filter, nil
}
