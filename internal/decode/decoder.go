package decode

import (
	"fmt"
	"io"

	"github.com/TFMV/quantree/internal/quantum"
)

// Decoder is the contract output renderers implement. Init writes any
// format preamble, DecodeEntry folds one entry into the output, and Finish
// flushes remaining state and writes closing syntax. Renderers are resumable
// only at entry granularity; there is no partial-entry suspension.
//
// Renderers that need structural nesting (JSON, classic tree) delegate to a
// TreeBuilder; stateless renderers (hex, stats) format each entry as it
// arrives.
type Decoder interface {
	Init(w io.Writer) error
	DecodeEntry(entry *quantum.Entry, w io.Writer) error
	Finish(w io.Writer) error
}

// DecodeStream drives a renderer over a quantum byte stream: Init, one
// DecodeEntry per parsed entry, then Finish. Any parse or render error
// aborts immediately; output already written to w is incomplete and the
// caller is responsible for discarding it. A malformed stream is not
// self-healing because reconstruction depends on exact structural balance.
func DecodeStream(data []byte, d Decoder, w io.Writer) error {
	if err := d.Init(w); err != nil {
		return fmt.Errorf("decoder init failed: %w", err)
	}

	offset := 0
	for offset < len(data) {
		entry, next, err := quantum.ParseEntry(data, offset)
		if err != nil {
			return err
		}
		if entry == nil {
			break
		}
		if err := d.DecodeEntry(entry, w); err != nil {
			return err
		}
		offset = next
	}

	return d.Finish(w)
}
