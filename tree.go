package syfix

import (
	"context"

	"github.com/akeil/syfix/internal/logging"
)

// BlockStore reads and replaces the content of single blocks.
// It is implemented by the API client.
type BlockStore interface {
	// Kramdown returns the current content of a block in kramdown form,
	// including the trailing attribute list.
	Kramdown(ctx context.Context, id string) (string, error)
	// UpdateBlock replaces the content of a block with the given markdown.
	UpdateBlock(ctx context.Context, markdown, id string) error
}

// Walker visits the nodes of a document tree and rewrites the blocks
// that need to be changed.
type Walker struct {
	Store BlockStore
}

// NewWalker creates a Walker that reads and writes blocks through s.
func NewWalker(s BlockStore) *Walker {
	return &Walker{Store: s}
}

// Walk traverses the tree starting at n in depth-first order.
//
// Paragraphs, math blocks and blockquotes are rewritten and not descended
// into. The children of all other nodes are visited in order.
// Walk stops at the first error.
//
// Returns the number of blocks that were rewritten.
func (w *Walker) Walk(ctx context.Context, n *Node) (int, error) {
	err := ctx.Err()
	if err != nil {
		return 0, err
	}

	if n.Type != OtherNode {
		err = w.rewrite(ctx, n)
		if err != nil {
			return 0, err
		}
		return 1, nil
	}

	count := 0
	for _, c := range n.Children {
		x, err := w.Walk(ctx, c)
		count += x
		if err != nil {
			return count, err
		}
	}

	return count, nil
}

func (w *Walker) rewrite(ctx context.Context, n *Node) error {
	content, err := w.Store.Kramdown(ctx, n.ID)
	if err != nil {
		return Wrap(err, "read %v %v", n.Type, n.ID)
	}

	updated, changed := Transform(n.Type, content)
	if changed {
		logging.Debug("Rewrite %v %v: %q -> %q", n.Type, n.ID, content, updated)
	} else {
		logging.Debug("Rewrite %v %v: unchanged", n.Type, n.ID)
	}

	err = w.Store.UpdateBlock(ctx, updated, n.ID)
	if err != nil {
		return Wrap(err, "update %v %v", n.Type, n.ID)
	}

	return nil
}
