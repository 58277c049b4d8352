package decode

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/TFMV/quantree/internal/quantum"
)

// JSONDecoder renders a quantum stream as a nested JSON document. It is the
// reference renderer for the automaton: all structural reconstruction goes
// through its TreeBuilder.
type JSONDecoder struct {
	tree TreeBuilder
}

// NewJSONDecoder creates a JSON renderer.
func NewJSONDecoder() *JSONDecoder {
	return &JSONDecoder{}
}

type jsonNode struct {
	Name       string      `json:"name"`
	Type       NodeKind    `json:"type"`
	Size       *uint64     `json:"size,omitempty"`
	PermsDelta string      `json:"permissions_delta,omitempty"`
	Symlink    bool        `json:"symlink,omitempty"`
	Children   []*jsonNode `json:"children,omitempty"`
}

func toJSONNode(n *Node) *jsonNode {
	out := &jsonNode{
		Name:    n.Name,
		Type:    n.Kind,
		Size:    n.Size,
		Symlink: n.IsLink,
	}
	if n.PermsDelta != nil {
		out.PermsDelta = fmt.Sprintf("0x%04x", *n.PermsDelta)
	}
	if n.Kind == KindDirectory {
		// Directories always carry a children array, even when empty.
		out.Children = make([]*jsonNode, 0, len(n.Children))
		for _, child := range n.Children {
			out.Children = append(out.Children, toJSONNode(child))
		}
	}
	return out
}

// Init writes the document preamble.
func (d *JSONDecoder) Init(w io.Writer) error {
	_, err := fmt.Fprint(w, "{\n  \"format\": \"quantum-decoded\",\n  \"version\": \"1.0\",\n  \"tree\": ")
	return err
}

// DecodeEntry folds one entry into the tree under construction. Nothing is
// written until Finish, because nesting is only known once directories close.
func (d *JSONDecoder) DecodeEntry(entry *quantum.Entry, _ io.Writer) error {
	d.tree.Add(entry)
	return nil
}

// Finish drains the automaton and writes the assembled tree.
func (d *JSONDecoder) Finish(w io.Writer) error {
	roots := d.tree.Finish()
	out := make([]*jsonNode, 0, len(roots))
	for _, n := range roots {
		out = append(out, toJSONNode(n))
	}

	data, err := json.MarshalIndent(out, "  ", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tree: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = fmt.Fprint(w, "\n}\n")
	return err
}
