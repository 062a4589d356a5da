package fs

import (
	"encoding/json"
	"os"

	"github.com/akeil/syfix"
	"github.com/akeil/syfix/internal/fs"
	"github.com/akeil/syfix/internal/logging"
)

type repo struct {
	ext string
}

// NewRepository creates a DocumentSource for SiYuan `.sy` files.
func NewRepository() syfix.DocumentSource {
	return &repo{
		ext: syfix.DocumentExt,
	}
}

// List returns the paths of all document files below the notebook
// directory dir.
func (r *repo) List(dir string) ([]string, error) {
	logging.Debug("List documents from %q", dir)
	return fs.Find(dir, r.ext)
}

// Read parses a document file into a tree of nodes.
func (r *repo) Read(path string) (*syfix.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var root syfix.Node
	err = json.NewDecoder(f).Decode(&root)
	if err != nil {
		return nil, syfix.Wrap(err, "decode %v", path)
	}

	if root.ID == "" {
		return nil, syfix.NewValidationError("document %v has no ID", path)
	}

	return &root, nil
}
