package syfix

import (
	"encoding/json"
	"fmt"
	"path/filepath"
)

// DocumentExt is the file extension for SiYuan document files.
const DocumentExt = ".sy"

// NodeType distinguishes the block types that are rewritten
// from all other blocks.
type NodeType int

const (
	// OtherNode is any block type that is not rewritten.
	// Other nodes are traversed if they have children.
	OtherNode NodeType = iota
	Paragraph
	MathBlock
	Blockquote
)

// ParseNodeType maps a SiYuan type tag (e.g. "NodeParagraph")
// to a NodeType. Unknown tags map to OtherNode.
func ParseNodeType(tag string) NodeType {
	switch tag {
	case "NodeParagraph":
		return Paragraph
	case "NodeMathBlock":
		return MathBlock
	case "NodeBlockquote":
		return Blockquote
	default:
		return OtherNode
	}
}

func (t NodeType) String() string {
	switch t {
	case Paragraph:
		return "NodeParagraph"
	case MathBlock:
		return "NodeMathBlock"
	case Blockquote:
		return "NodeBlockquote"
	default:
		return "other"
	}
}

// Node is a single block in a document tree as stored in a `.sy` file.
//
// A node without children is a leaf.
type Node struct {
	ID   string
	Type NodeType
	// Tag is the type tag as found in the document file.
	Tag      string
	Children []*Node
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID       string  `json:"ID"`
		Type     string  `json:"Type"`
		Children []*Node `json:"Children"`
	}
	err := json.Unmarshal(b, &raw)
	if err != nil {
		return err
	}

	n.ID = raw.ID
	n.Tag = raw.Type
	n.Type = ParseNodeType(raw.Type)
	n.Children = raw.Children

	return nil
}

// Leaf tells if this node has no children.
func (n *Node) Leaf() bool {
	return len(n.Children) == 0
}

// Count returns the number of nodes in the subtree starting at this node,
// including the node itself.
func (n *Node) Count() int {
	c := 1
	for _, child := range n.Children {
		c += child.Count()
	}
	return c
}

// Notebook is a named collection of documents.
type Notebook struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Icon   string `json:"icon,omitempty"`
	Sort   int    `json:"sort,omitempty"`
	Closed bool   `json:"closed,omitempty"`
}

// Home is the resolved location of a notebook on disk.
//
// A Home is computed once per run with ResolveHome and passed around by value.
type Home struct {
	Notebook Notebook
	Dir      string
}

// Path returns the absolute path for a path relative to the notebook
// directory, as it is reported by the note service.
func (h Home) Path(rel string) string {
	return filepath.Join(h.Dir, filepath.FromSlash(rel))
}

func (h Home) String() string {
	return fmt.Sprintf("%v (%v)", h.Notebook.Name, h.Dir)
}

// ChildBlock describes a direct child of a block.
type ChildBlock struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	SubType string `json:"subType,omitempty"`
}
