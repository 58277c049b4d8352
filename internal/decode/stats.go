package decode

import (
	"fmt"
	"io"

	"github.com/TFMV/quantree/internal/quantum"
)

// StreamStats aggregates per-entry counters over one stream.
type StreamStats struct {
	Files     int
	Dirs      int
	Links     int
	Summaries int
	TotalSize uint64
	MaxSize   uint64
	MaxDepth  int
}

// StatsDecoder aggregates stream statistics without reconstructing the
// tree. Like the hex renderer it pays nothing for nesting; it only tracks
// the current depth from the traversal markers.
type StatsDecoder struct {
	stats StreamStats
	depth int
}

// NewStatsDecoder creates a statistics renderer.
func NewStatsDecoder() *StatsDecoder {
	return &StatsDecoder{}
}

// Stats returns the aggregated counters. Valid after Finish.
func (d *StatsDecoder) Stats() StreamStats {
	return d.stats
}

// Init writes nothing; totals are only known at the end.
func (d *StatsDecoder) Init(_ io.Writer) error {
	return nil
}

// DecodeEntry folds one entry into the counters.
func (d *StatsDecoder) DecodeEntry(entry *quantum.Entry, _ io.Writer) error {
	switch entry.Traversal {
	case quantum.Back:
		if d.depth > 0 {
			d.depth--
		}
		// Closer records carry no node of their own.
		return nil
	case quantum.Summary:
		d.stats.Summaries++
	case quantum.Deeper:
		d.stats.Dirs++
		d.depth++
		if d.depth > d.stats.MaxDepth {
			d.stats.MaxDepth = d.depth
		}
	default:
		if entry.IsDir {
			d.stats.Dirs++
		} else {
			d.stats.Files++
		}
	}

	if entry.IsLink {
		d.stats.Links++
	}
	if entry.Size != nil && entry.Traversal != quantum.Summary {
		d.stats.TotalSize += *entry.Size
		if *entry.Size > d.stats.MaxSize {
			d.stats.MaxSize = *entry.Size
		}
	}
	return nil
}

// Finish writes the aggregated report.
func (d *StatsDecoder) Finish(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"files: %d\ndirs: %d\nlinks: %d\nsummaries: %d\ntotal size: %d\nlargest: %d\nmax depth: %d\n",
		d.stats.Files, d.stats.Dirs, d.stats.Links, d.stats.Summaries,
		d.stats.TotalSize, d.stats.MaxSize, d.stats.MaxDepth)
	return err
}
