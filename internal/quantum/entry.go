package quantum

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Header bit flags. Bits 2, 3, 6 and 7 are reserved: ignored on read,
// never set on write.
const (
	HeaderSize    = 0x01 // exact or bucketed size field present
	HeaderPerms   = 0x02 // permissions delta present
	HeaderTime    = 0x04 // reserved: time delta
	HeaderOwner   = 0x08 // reserved: owner/group delta
	HeaderDir     = 0x10 // entry is a directory
	HeaderLink    = 0x20 // entry is a symlink
	HeaderXattr   = 0x40 // reserved: extended attributes
	HeaderSummary = 0x80 // reserved: summary payload
)

// Traversal markers. The marker byte terminates the name and tells the
// decoder how to adjust its nesting state.
const (
	markerSame    = 0x0B
	markerSummary = 0x0C
	markerDeeper  = 0x0E
	markerBack    = 0x0F
)

// Traversal is the decoded traversal marker of an entry.
type Traversal int

const (
	// Same continues at the current nesting level.
	Same Traversal = iota
	// Deeper opens the entry as a directory; subsequent entries are its children.
	Deeper
	// Back closes the most recently opened directory.
	Back
	// Summary is a leaf-like roll-up record at the current level.
	Summary
)

// String implements fmt.Stringer.
func (t Traversal) String() string {
	switch t {
	case Same:
		return "same"
	case Deeper:
		return "deeper"
	case Back:
		return "back"
	case Summary:
		return "summary"
	default:
		return "unknown"
	}
}

var (
	// ErrMissingTraversalMarker is returned when the name scan runs off the buffer.
	ErrMissingTraversalMarker = errors.New("missing traversal marker")
	// ErrNameReservedByte is returned by EncodeEntry for names containing a marker byte.
	ErrNameReservedByte = errors.New("name contains reserved traversal byte")
	// ErrUnknownTraversal is returned for bytes outside the four marker values.
	ErrUnknownTraversal = errors.New("unknown traversal marker")
)

// Entry is one flattened record of the stream. It exists only for the
// duration of a single ParseEntry/DecodeEntry round.
type Entry struct {
	Header     byte
	Size       *uint64
	PermsDelta *uint16
	Name       string
	IsDir      bool
	IsLink     bool
	Traversal  Traversal
}

// TraversalFromByte maps a marker byte to its Traversal value. Unknown
// bytes are rejected rather than defaulted, so stream corruption surfaces
// instead of silently flattening the tree.
func TraversalFromByte(b byte) (Traversal, error) {
	switch b {
	case markerSame:
		return Same, nil
	case markerDeeper:
		return Deeper, nil
	case markerBack:
		return Back, nil
	case markerSummary:
		return Summary, nil
	default:
		return Same, fmt.Errorf("%w: 0x%02x", ErrUnknownTraversal, b)
	}
}

func (t Traversal) byte() byte {
	switch t {
	case Deeper:
		return markerDeeper
	case Back:
		return markerBack
	case Summary:
		return markerSummary
	default:
		return markerSame
	}
}

// isMarker reports whether b is one of the four traversal marker bytes.
func isMarker(b byte) bool {
	return b == markerSame || b == markerSummary || b == markerDeeper || b == markerBack
}

// ParseEntry parses one entry starting at offset. A nil entry with no error
// means the buffer is exhausted. The returned offset is the start of the
// next entry.
func ParseEntry(data []byte, offset int) (*Entry, int, error) {
	if offset >= len(data) {
		return nil, offset, nil
	}

	header := data[offset]
	offset++

	entry := &Entry{
		Header: header,
		IsDir:  header&HeaderDir != 0,
		IsLink: header&HeaderLink != 0,
	}

	if header&HeaderSize != 0 {
		size, next, err := DecodeSize(data, offset)
		if err != nil {
			return nil, offset, err
		}
		entry.Size = &size
		offset = next
	}

	if header&HeaderPerms != 0 && offset+2 <= len(data) {
		delta := binary.BigEndian.Uint16(data[offset:])
		entry.PermsDelta = &delta
		offset += 2
	}

	// Reserved time/owner fields are never emitted by current producers;
	// their header bits are ignored here.

	nameStart := offset
	for offset < len(data) && !isMarker(data[offset]) {
		offset++
	}
	if offset >= len(data) {
		return nil, offset, fmt.Errorf("%w: name starts at offset %d", ErrMissingTraversalMarker, nameStart)
	}
	entry.Name = decodeName(data[nameStart:offset])

	traversal, err := TraversalFromByte(data[offset])
	if err != nil {
		return nil, offset, err
	}
	entry.Traversal = traversal
	offset++

	return entry, offset, nil
}

// EncodeEntry serializes an entry. It is the exact inverse of ParseEntry
// and rejects names that contain any of the four marker bytes, since those
// would terminate the name early on decode.
func EncodeEntry(entry *Entry) ([]byte, error) {
	for i := 0; i < len(entry.Name); i++ {
		if isMarker(entry.Name[i]) {
			return nil, fmt.Errorf("%w: %q at index %d", ErrNameReservedByte, entry.Name, i)
		}
	}

	// Header is derived from the populated fields; reserved bits stay zero.
	var header byte
	if entry.Size != nil {
		header |= HeaderSize
	}
	if entry.PermsDelta != nil {
		header |= HeaderPerms
	}
	if entry.IsDir {
		header |= HeaderDir
	}
	if entry.IsLink {
		header |= HeaderLink
	}

	buf := make([]byte, 0, 1+9+2+len(entry.Name)+1)
	buf = append(buf, header)
	if entry.Size != nil {
		buf = append(buf, EncodeSize(*entry.Size)...)
	}
	if entry.PermsDelta != nil {
		var delta [2]byte
		binary.BigEndian.PutUint16(delta[:], *entry.PermsDelta)
		buf = append(buf, delta[:]...)
	}
	buf = append(buf, entry.Name...)
	buf = append(buf, entry.Traversal.byte())
	return buf, nil
}

// decodeName interprets raw name bytes as UTF-8, replacing invalid
// sequences rather than failing: names come straight from the filesystem
// and are not guaranteed to be valid UTF-8.
func decodeName(raw []byte) string {
	return strings.ToValidUTF8(string(raw), "�")
}
