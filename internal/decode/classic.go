package decode

import (
	"fmt"
	"io"

	"github.com/TFMV/quantree/internal/quantum"
)

// ClassicDecoder renders a quantum stream as a human-readable tree, in the
// style of tree(1). Like the JSON renderer it needs full nesting, so it
// buffers through the automaton and draws on Finish.
type ClassicDecoder struct {
	tree TreeBuilder
}

// NewClassicDecoder creates a classic tree renderer.
func NewClassicDecoder() *ClassicDecoder {
	return &ClassicDecoder{}
}

// Init writes nothing; the tree is only drawable once assembled.
func (d *ClassicDecoder) Init(_ io.Writer) error {
	return nil
}

// DecodeEntry folds one entry into the tree under construction.
func (d *ClassicDecoder) DecodeEntry(entry *quantum.Entry, _ io.Writer) error {
	d.tree.Add(entry)
	return nil
}

// Finish draws the assembled tree.
func (d *ClassicDecoder) Finish(w io.Writer) error {
	for _, root := range d.tree.Finish() {
		if err := drawNode(w, root, "", true, true); err != nil {
			return err
		}
	}
	return nil
}

func drawNode(w io.Writer, n *Node, prefix string, isLast, isRoot bool) error {
	label := n.Name
	switch {
	case n.Kind == KindDirectory:
		label += "/"
	case n.Kind == KindSummary:
		label = "[" + label + "]"
	case n.IsLink:
		label += "@"
	}
	if n.Size != nil && n.Kind != KindDirectory {
		label += fmt.Sprintf(" (%d)", *n.Size)
	}

	if isRoot {
		if _, err := fmt.Fprintln(w, label); err != nil {
			return err
		}
	} else {
		connector := "├── "
		if isLast {
			connector = "└── "
		}
		if _, err := fmt.Fprintln(w, prefix+connector+label); err != nil {
			return err
		}
	}

	childPrefix := prefix
	if !isRoot {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	}
	for i, child := range n.Children {
		if err := drawNode(w, child, childPrefix, i == len(n.Children)-1, false); err != nil {
			return err
		}
	}
	return nil
}
