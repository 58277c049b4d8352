/*
Package quantum implements the quantum tree wire format: a binary encoding
that flattens an entire directory tree into a single byte stream.

# Stream Layout

A stream is a plain sequence of variable-length entries with no overall
length prefix or magic number; end of stream is end of buffer. Each entry is

	[header:1][size:0|1|2|4|8(+prefix)][permsDelta:0|2][name:N][marker:1]

The header byte selects the optional fields with bit flags (bit0 size, bit1
permissions delta, bit4 directory, bit5 symlink; remaining bits reserved).
The name is raw filename bytes, terminated by a single traversal marker
byte that doubles as the structural instruction for decoders:

	0x0B  Same     stay at the current nesting level
	0x0E  Deeper   open this entry as a directory
	0x0F  Back     close the most recently opened directory
	0x0C  Summary  leaf-like roll-up record

Because the marker terminates the name, names must not contain any of the
four marker bytes; EncodeEntry enforces this.

# Size Encoding

Sizes use the narrowest of four explicit widths, or a one-byte lossy bucket
token for records where an approximation suffices:

	0x00 +1 byte    8-bit value
	0x01 +2 bytes   16-bit value, little-endian
	0x02 +4 bytes   32-bit value, little-endian
	0x03 +8 bytes   64-bit value, little-endian
	0xA0..0xA4      bucket tokens: 0, 512 B, 50 KiB, 5 MiB, 50 MiB

Tokens 0xA5-0xAF are reserved and currently decode to 0.

# Producer Contract

Entries must be emitted in strict depth-first pre-order: a node before its
children, all descendants contiguous before the next sibling, and
directories before the files among their siblings, since a decoder holds
pending children in a single buffer that a closing directory claims
wholesale. Decoders do not and cannot verify this; an out-of-order stream
decodes into the wrong tree. StreamEncoder maintains the nesting
automatically from the depth-annotated entries a walker produces, and the
walker emits siblings directories-first.

# Basic Usage

Encoding a scanned tree:

	entries, err := walker.Walk(root)
	data, err := quantum.EncodeTree(entries)

Or streaming to a writer:

	enc := quantum.NewStreamEncoder(w)
	for _, entry := range entries {
	    if err := enc.WriteEntry(entry); err != nil { ... }
	}
	err := enc.Close()

Decoding is driven by the decode package, which parses entries one at a
time via ParseEntry and feeds them to an output renderer.
*/
package quantum
