package decode

import "github.com/TFMV/quantree/internal/quantum"

// NodeKind classifies a decoded node.
type NodeKind string

const (
	KindFile      NodeKind = "file"
	KindDirectory NodeKind = "directory"
	KindSummary   NodeKind = "summary"
)

// Node is one reconstructed tree node. Children keep stream order, which
// reflects the producer's scan order and is semantically significant.
type Node struct {
	Name       string
	Kind       NodeKind
	Size       *uint64
	PermsDelta *uint16
	IsLink     bool
	Children   []*Node
}

// TreeBuilder reconstructs nested structure from a flat pre-order entry
// sequence using one ancestor stack and one pending-children buffer. The
// buffer always holds the children collected so far for the most recently
// opened, not-yet-closed directory (or the implicit root when the stack is
// empty). That is only unambiguous because the producer guarantees strict
// pre-order; out-of-order input corrupts the buffer silently, which is why
// pre-order is a hard producer contract rather than a decoder check.
//
// Each decode session owns its own TreeBuilder; there is no shared state
// between sessions.
type TreeBuilder struct {
	stack   []*Node
	pending []*Node
	done    bool
}

// Add folds one entry into the tree under construction.
func (b *TreeBuilder) Add(entry *quantum.Entry) {
	node := &Node{
		Name:       entry.Name,
		Size:       entry.Size,
		PermsDelta: entry.PermsDelta,
		IsLink:     entry.IsLink,
	}
	switch {
	case entry.Traversal == quantum.Summary:
		node.Kind = KindSummary
	case entry.IsDir:
		node.Kind = KindDirectory
	default:
		node.Kind = KindFile
	}

	switch entry.Traversal {
	case quantum.Deeper:
		// The node becomes the current directory; its children accumulate
		// in pending until the matching Back.
		node.Children = []*Node{}
		b.stack = append(b.stack, node)
	case quantum.Back:
		// The Back record itself carries no node; it closes the current
		// directory.
		b.closeCurrent()
	default: // Same, Summary
		b.pending = append(b.pending, node)
	}
}

// closeCurrent pops the open directory, hands it the pending children, and
// re-files it as a pending child one level up.
func (b *TreeBuilder) closeCurrent() {
	if len(b.stack) == 0 {
		return
	}
	parent := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	parent.Children = b.pending
	if parent.Children == nil {
		parent.Children = []*Node{}
	}
	b.pending = []*Node{parent}
}

// Finish closes any directories left open at end of stream (producers may
// omit trailing Back markers for the implicit root) and returns the
// top-level nodes in stream order. Calling Finish again returns the same
// result without duplicating entries.
func (b *TreeBuilder) Finish() []*Node {
	if b.done {
		return b.pending
	}
	for len(b.stack) > 0 {
		b.closeCurrent()
	}
	b.done = true
	return b.pending
}
