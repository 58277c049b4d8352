package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/TFMV/quantree/internal/quantum"
	"github.com/TFMV/quantree/internal/walker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeFixtureStream builds a small valid quantum stream.
func encodeFixtureStream(t *testing.T) []byte {
	t.Helper()

	data, err := quantum.EncodeTree([]walker.ScanEntry{
		{Name: "root", Depth: 0, IsDir: true, Permissions: 0o755},
		{Name: "docs", Depth: 1, IsDir: true, Permissions: 0o755},
		{Name: "guide.md", Depth: 2, Size: 900, Permissions: 0o644},
		{Name: "a.txt", Depth: 1, Size: 100, Permissions: 0o644},
		{Name: "b.txt", Depth: 1, Size: 200, Permissions: 0o644},
	})
	require.NoError(t, err)
	return data
}

func TestStreamStore(t *testing.T) {
	t.Parallel()

	t.Run("WriteAndReadStream", func(t *testing.T) {
		t.Parallel()

		store, err := NewStreamStore(t.TempDir())
		require.NoError(t, err)
		defer store.Close()

		data := encodeFixtureStream(t)
		digest, err := store.WriteStream("test", data)
		require.NoError(t, err)
		assert.Len(t, digest, 64)

		got, err := store.ReadStream("test")
		require.NoError(t, err)
		assert.True(t, bytes.Equal(data, got))
	})

	t.Run("CompressedOnDisk", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		store, err := NewStreamStore(dir)
		require.NoError(t, err)
		defer store.Close()

		// Highly repetitive payload compresses well.
		data := bytes.Repeat(encodeFixtureStream(t), 100)
		_, err = store.WriteStream("compressed", data)
		require.NoError(t, err)

		info, err := os.Stat(filepath.Join(dir, "compressed"+StreamFileExt))
		require.NoError(t, err)
		assert.Less(t, info.Size(), int64(len(data)))
	})

	t.Run("ReadVerified", func(t *testing.T) {
		t.Parallel()

		store, err := NewStreamStore(t.TempDir())
		require.NoError(t, err)
		defer store.Close()

		data := encodeFixtureStream(t)
		digest, err := store.WriteStream("verified", data)
		require.NoError(t, err)

		got, err := store.ReadVerified("verified", digest)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(data, got))

		_, err = store.ReadVerified("verified", "deadbeef")
		assert.ErrorIs(t, err, ErrDigestMismatch)
	})

	t.Run("ReadMissing", func(t *testing.T) {
		t.Parallel()

		store, err := NewStreamStore(t.TempDir())
		require.NoError(t, err)
		defer store.Close()

		_, err = store.ReadStream("nope")
		assert.ErrorIs(t, err, ErrStreamNotFound)
	})

	t.Run("ListAndDelete", func(t *testing.T) {
		t.Parallel()

		store, err := NewStreamStore(t.TempDir())
		require.NoError(t, err)
		defer store.Close()

		data := encodeFixtureStream(t)
		_, err = store.WriteStream("one", data)
		require.NoError(t, err)
		_, err = store.WriteStream("two", data)
		require.NoError(t, err)

		streams, err := store.ListStreams()
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"one", "two"}, streams)

		require.NoError(t, store.DeleteStream("one"))

		streams, err = store.ListStreams()
		require.NoError(t, err)
		assert.Equal(t, []string{"two"}, streams)

		_, err = store.ReadStream("one")
		assert.ErrorIs(t, err, ErrStreamNotFound)
	})

	t.Run("CacheEviction", func(t *testing.T) {
		t.Parallel()

		store, err := NewStreamStore(t.TempDir())
		require.NoError(t, err)
		defer store.Close()

		data := encodeFixtureStream(t)
		for i := 0; i < DefaultCacheSize+5; i++ {
			_, err = store.WriteStream(fmt.Sprintf("s%d", i), data)
			require.NoError(t, err)
		}

		store.cacheMutex.RLock()
		cached := len(store.streamCache)
		store.cacheMutex.RUnlock()
		assert.LessOrEqual(t, cached, DefaultCacheSize)

		// Evicted streams are still readable from disk.
		got, err := store.ReadStream("s0")
		require.NoError(t, err)
		assert.True(t, bytes.Equal(data, got))
	})
}

func TestBuildNameFilter(t *testing.T) {
	t.Parallel()

	store, err := NewStreamStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.WriteStream("tree", encodeFixtureStream(t))
	require.NoError(t, err)

	filter, err := store.BuildNameFilter("tree")
	require.NoError(t, err)

	for _, name := range []string{"root", "docs", "guide.md", "a.txt", "b.txt"} {
		assert.True(t, filter.Contains([]byte(name)), "filter should contain %q", name)
	}
	assert.False(t, filter.Contains([]byte("definitely-not-here.bin")))
}

func TestBloomFilter(t *testing.T) {
	t.Parallel()

	filter := NewBloomFilter(1024, 7)
	items := [][]byte{
		[]byte("main.go"),
		[]byte("README.md"),
		[]byte("node_modules"),
	}
	for _, item := range items {
		filter.Add(item)
	}
	for _, item := range items {
		assert.True(t, filter.Contains(item))
	}
	assert.False(t, filter.Contains([]byte("absent-name-1")))
	assert.False(t, filter.Contains([]byte("absent-name-2")))
}
