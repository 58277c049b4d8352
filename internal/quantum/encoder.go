package quantum

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/TFMV/quantree/internal/walker"
)

// DefaultBufferSize is the size of the buffer used for writing streams.
const DefaultBufferSize = 64 * 1024

// basePerms is the permissions context assumed before the first entry.
const basePerms = 0o755

// StreamEncoder flattens a depth-annotated pre-order entry sequence into a
// quantum byte stream. Directories open with a Deeper marker; a depth drop
// in the input, or Close, emits closer records (empty name, Back marker)
// until the nesting matches.
//
// Input must be strict pre-order: a node before its children, all
// descendants contiguous before the next sibling, and directories before the
// files among their siblings. A file emitted before a sibling directory ends
// up pending when that directory closes, so the automaton hands it to the
// wrong parent. The encoder does not detect violations; the resulting stream
// would decode into the wrong tree.
type StreamEncoder struct {
	w     *bufio.Writer
	depth int

	// Parent permissions context, one slot per open directory.
	perms []uint16
}

// NewStreamEncoder creates a stream encoder writing to w.
func NewStreamEncoder(w io.Writer) *StreamEncoder {
	return &StreamEncoder{
		w:     bufio.NewWriterSize(w, DefaultBufferSize),
		perms: []uint16{basePerms},
	}
}

// WriteEntry encodes one scanned node. Entries must arrive in pre-order.
func (e *StreamEncoder) WriteEntry(entry walker.ScanEntry) error {
	if err := e.closeTo(entry.Depth); err != nil {
		return err
	}

	if entry.Summary {
		return e.WriteSummary(entry.Name, uint64(entry.Size))
	}

	size := uint64(entry.Size)
	rec := &Entry{
		Size:   &size,
		Name:   entry.Name,
		IsDir:  entry.IsDir,
		IsLink: entry.IsLink,
	}

	perms := uint16(entry.Permissions & 0o777)
	if delta := perms ^ e.perms[len(e.perms)-1]; delta != 0 {
		rec.PermsDelta = &delta
	}

	if entry.IsDir {
		rec.Traversal = Deeper
	} else {
		rec.Traversal = Same
	}

	data, err := EncodeEntry(rec)
	if err != nil {
		return err
	}
	if _, err := e.w.Write(data); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}

	if entry.IsDir {
		e.perms = append(e.perms, perms)
		e.depth = entry.Depth + 1
	}
	return nil
}

// WriteSummary emits a roll-up record at the current level. The size is
// stored as a lossy bucket token, so it round-trips only to its bucket
// value.
func (e *StreamEncoder) WriteSummary(name string, size uint64) error {
	for i := 0; i < len(name); i++ {
		if isMarker(name[i]) {
			return fmt.Errorf("%w: %q at index %d", ErrNameReservedByte, name, i)
		}
	}

	buf := make([]byte, 0, 2+len(name)+1)
	buf = append(buf, HeaderSize)
	buf = append(buf, SizeToken(size))
	buf = append(buf, name...)
	buf = append(buf, Summary.byte())
	if _, err := e.w.Write(buf); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// Close balances any directories still open and flushes the writer. The
// encoder must not be used afterwards.
func (e *StreamEncoder) Close() error {
	if err := e.closeTo(0); err != nil {
		return err
	}
	return e.w.Flush()
}

// closeTo emits closer records until the nesting depth is at most depth.
func (e *StreamEncoder) closeTo(depth int) error {
	for e.depth > depth {
		if _, err := e.w.Write([]byte{0x00, Back.byte()}); err != nil {
			return fmt.Errorf("failed to write closer: %w", err)
		}
		e.depth--
		if len(e.perms) > 1 {
			e.perms = e.perms[:len(e.perms)-1]
		}
	}
	return nil
}

// EncodeTree is a convenience wrapper that encodes a full entry slice into
// a byte buffer.
func EncodeTree(entries []walker.ScanEntry) ([]byte, error) {
	var buf bytes.Buffer
	enc := NewStreamEncoder(&buf)
	for _, entry := range entries {
		if err := enc.WriteEntry(entry); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
