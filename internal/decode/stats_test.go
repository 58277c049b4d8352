package decode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/TFMV/quantree/internal/quantum"
)

func TestStatsDecoder(t *testing.T) {
	t.Parallel()

	stream := buildStream(t,
		&quantum.Entry{Name: "root", IsDir: true, Traversal: quantum.Deeper},
		&quantum.Entry{Name: "a.txt", Size: u64(100), Traversal: quantum.Same},
		&quantum.Entry{Name: "big.bin", Size: u64(5000), Traversal: quantum.Same},
		&quantum.Entry{Name: "ln", Size: u64(0), IsLink: true, Traversal: quantum.Same},
		&quantum.Entry{Name: "sub", IsDir: true, Traversal: quantum.Deeper},
		&quantum.Entry{Name: "nested.txt", Size: u64(50), Traversal: quantum.Same},
		&quantum.Entry{Traversal: quantum.Back},
		&quantum.Entry{Name: "rollup", Size: u64(512), Traversal: quantum.Summary},
		&quantum.Entry{Traversal: quantum.Back},
	)

	renderer := NewStatsDecoder()
	var out bytes.Buffer
	if err := DecodeStream(stream, renderer, &out); err != nil {
		t.Fatalf("DecodeStream failed: %v", err)
	}

	stats := renderer.Stats()
	if stats.Files != 4 {
		t.Errorf("Files = %d, want 4", stats.Files)
	}
	if stats.Dirs != 2 {
		t.Errorf("Dirs = %d, want 2", stats.Dirs)
	}
	if stats.Links != 1 {
		t.Errorf("Links = %d, want 1", stats.Links)
	}
	if stats.Summaries != 1 {
		t.Errorf("Summaries = %d, want 1", stats.Summaries)
	}
	// Summary sizes are lossy roll-ups and stay out of the byte totals.
	if stats.TotalSize != 5150 {
		t.Errorf("TotalSize = %d, want 5150", stats.TotalSize)
	}
	if stats.MaxSize != 5000 {
		t.Errorf("MaxSize = %d, want 5000", stats.MaxSize)
	}
	if stats.MaxDepth != 2 {
		t.Errorf("MaxDepth = %d, want 2", stats.MaxDepth)
	}

	text := out.String()
	if !strings.Contains(text, "files: 4") || !strings.Contains(text, "total size: 5150") {
		t.Errorf("report:\n%s", text)
	}
}

func TestStatsDecoderEmptyStream(t *testing.T) {
	t.Parallel()

	renderer := NewStatsDecoder()
	var out bytes.Buffer
	if err := DecodeStream(nil, renderer, &out); err != nil {
		t.Fatalf("DecodeStream failed: %v", err)
	}
	stats := renderer.Stats()
	if stats.Files != 0 || stats.Dirs != 0 || stats.TotalSize != 0 {
		t.Errorf("stats = %+v, want zeros", stats)
	}
}
