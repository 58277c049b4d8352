package decode

import (
	"fmt"
	"io"

	"github.com/TFMV/quantree/internal/quantum"
)

// HexDecoder renders each entry as one line of field-annotated hex. It is
// stateless apart from a depth counter: no automaton, no buffering, output
// is written as entries arrive.
type HexDecoder struct {
	depth int
	count int
}

// NewHexDecoder creates a hex renderer.
func NewHexDecoder() *HexDecoder {
	return &HexDecoder{}
}

// Init writes the column header.
func (d *HexDecoder) Init(w io.Writer) error {
	_, err := fmt.Fprintln(w, "IDX  HDR  DEPTH  SIZE        PERMS   TRAV     NAME")
	return err
}

// DecodeEntry writes one line per entry.
func (d *HexDecoder) DecodeEntry(entry *quantum.Entry, w io.Writer) error {
	if entry.Traversal == quantum.Back && d.depth > 0 {
		d.depth--
	}

	size := "-"
	if entry.Size != nil {
		size = fmt.Sprintf("0x%x", *entry.Size)
	}
	perms := "-"
	if entry.PermsDelta != nil {
		perms = fmt.Sprintf("0x%04x", *entry.PermsDelta)
	}
	name := entry.Name
	if name == "" {
		name = "-"
	}

	_, err := fmt.Fprintf(w, "%-4d 0x%02x %-6d %-11s %-7s %-8s %s\n",
		d.count, entry.Header, d.depth, size, perms, entry.Traversal, name)
	if err != nil {
		return err
	}

	if entry.Traversal == quantum.Deeper {
		d.depth++
	}
	d.count++
	return nil
}

// Finish writes the entry count.
func (d *HexDecoder) Finish(w io.Writer) error {
	_, err := fmt.Fprintf(w, "-- %d entries --\n", d.count)
	return err
}
