package quantum

import (
	"bytes"
	"testing"

	"github.com/TFMV/quantree/internal/walker"
)

// parseAll decodes every entry of a stream for inspection.
func parseAll(t *testing.T, data []byte) []*Entry {
	t.Helper()

	var entries []*Entry
	offset := 0
	for offset < len(data) {
		entry, next, err := ParseEntry(data, offset)
		if err != nil {
			t.Fatalf("ParseEntry at offset %d failed: %v", offset, err)
		}
		if entry == nil {
			break
		}
		entries = append(entries, entry)
		offset = next
	}
	return entries
}

func TestEncodeTreeBalanced(t *testing.T) {
	t.Parallel()

	entries := []walker.ScanEntry{
		{Name: "root", Depth: 0, IsDir: true, Permissions: 0o755},
		{Name: "src", Depth: 1, IsDir: true, Permissions: 0o755},
		{Name: "main.go", Depth: 2, Size: 120, Permissions: 0o644},
		{Name: "util.go", Depth: 2, Size: 64, Permissions: 0o644},
		{Name: "README.md", Depth: 1, Size: 256, Permissions: 0o644},
	}

	data, err := EncodeTree(entries)
	if err != nil {
		t.Fatalf("EncodeTree failed: %v", err)
	}

	decoded := parseAll(t, data)

	deeper, back := 0, 0
	for _, e := range decoded {
		switch e.Traversal {
		case Deeper:
			deeper++
		case Back:
			back++
		}
	}
	if deeper != back {
		t.Errorf("deeper = %d, back = %d, want balanced", deeper, back)
	}
	if deeper != 2 {
		t.Errorf("deeper = %d, want 2 (root and src)", deeper)
	}

	// The stream preserves the scan order of named entries.
	var names []string
	for _, e := range decoded {
		if e.Name != "" {
			names = append(names, e.Name)
		}
	}
	want := []string{"root", "src", "main.go", "util.go", "README.md"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestStreamEncoderPermsDelta(t *testing.T) {
	t.Parallel()

	entries := []walker.ScanEntry{
		{Name: "root", Depth: 0, IsDir: true, Permissions: 0o755},
		{Name: "run.sh", Depth: 1, Size: 10, Permissions: 0o744},
		{Name: "plain.txt", Depth: 1, Size: 10, Permissions: 0o755},
	}

	data, err := EncodeTree(entries)
	if err != nil {
		t.Fatalf("EncodeTree failed: %v", err)
	}

	decoded := parseAll(t, data)

	// root matches the base context, so no delta.
	if decoded[0].PermsDelta != nil {
		t.Errorf("root PermsDelta = %04o, want absent", *decoded[0].PermsDelta)
	}
	// run.sh differs from its parent by the XOR of the mode bits.
	if decoded[1].PermsDelta == nil {
		t.Fatal("run.sh PermsDelta absent")
	}
	if want := uint16(0o755 ^ 0o744); *decoded[1].PermsDelta != want {
		t.Errorf("run.sh PermsDelta = %04o, want %04o", *decoded[1].PermsDelta, want)
	}
	// plain.txt matches the parent exactly.
	if decoded[2].PermsDelta != nil {
		t.Errorf("plain.txt PermsDelta = %04o, want absent", *decoded[2].PermsDelta)
	}
}

func TestStreamEncoderSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	enc := NewStreamEncoder(&buf)
	if err := enc.WriteSummary("node_modules", 7*1024*1024); err != nil {
		t.Fatalf("WriteSummary failed: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	decoded := parseAll(t, buf.Bytes())
	if len(decoded) != 1 {
		t.Fatalf("decoded %d entries, want 1", len(decoded))
	}
	entry := decoded[0]
	if entry.Traversal != Summary {
		t.Errorf("Traversal = %v, want Summary", entry.Traversal)
	}
	if entry.Name != "node_modules" {
		t.Errorf("Name = %q", entry.Name)
	}
	// Bucketed size round-trips only to its bucket value.
	if entry.Size == nil || *entry.Size != 5*1024*1024 {
		t.Errorf("Size = %v, want medium bucket value", entry.Size)
	}
}

func TestEncodeTreeSummaryEntries(t *testing.T) {
	t.Parallel()

	entries := []walker.ScanEntry{
		{Name: "root", Depth: 0, IsDir: true, Permissions: 0o755},
		{Name: "vendor", Depth: 1, Size: 600, IsDir: true, Summary: true},
		{Name: "main.go", Depth: 1, Size: 120, Permissions: 0o644},
	}

	data, err := EncodeTree(entries)
	if err != nil {
		t.Fatalf("EncodeTree failed: %v", err)
	}

	decoded := parseAll(t, data)
	if len(decoded) != 4 {
		t.Fatalf("decoded %d entries, want 4", len(decoded))
	}
	vendor := decoded[1]
	if vendor.Traversal != Summary {
		t.Errorf("Traversal = %v, want Summary", vendor.Traversal)
	}
	if vendor.Name != "vendor" {
		t.Errorf("Name = %q", vendor.Name)
	}
	// 600 bytes lands in the small bucket.
	if vendor.Size == nil || *vendor.Size != 512 {
		t.Errorf("Size = %v, want 512", vendor.Size)
	}
	// The roll-up opens no directory, so one closer balances the root.
	if last := decoded[3]; last.Traversal != Back {
		t.Errorf("final traversal = %v, want Back", last.Traversal)
	}
}

func TestStreamEncoderClosesOpenDirs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	enc := NewStreamEncoder(&buf)
	dirs := []walker.ScanEntry{
		{Name: "a", Depth: 0, IsDir: true, Permissions: 0o755},
		{Name: "b", Depth: 1, IsDir: true, Permissions: 0o755},
		{Name: "c", Depth: 2, IsDir: true, Permissions: 0o755},
	}
	for _, d := range dirs {
		if err := enc.WriteEntry(d); err != nil {
			t.Fatalf("WriteEntry failed: %v", err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	back := 0
	for _, e := range parseAll(t, buf.Bytes()) {
		if e.Traversal == Back {
			back++
		}
	}
	if back != 3 {
		t.Errorf("closers = %d, want 3", back)
	}
}

func TestStreamEncoderRejectsReservedNameBytes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	enc := NewStreamEncoder(&buf)
	err := enc.WriteEntry(walker.ScanEntry{Name: "bad\x0ename", Permissions: 0o644})
	if err == nil {
		t.Fatal("expected error for reserved byte in name")
	}
	if err := enc.WriteSummary("bad\x0fsum", 1); err == nil {
		t.Fatal("expected error for reserved byte in summary name")
	}
}
