package syfix

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/akeil/syfix/internal/logging"
)

// NotebookLister lists the notebooks known to the note service.
type NotebookLister interface {
	ListNotebooks(ctx context.Context) ([]Notebook, error)
}

// PathResolver finds the document file for a block.
type PathResolver interface {
	// PathByID returns the path of the document that contains the block,
	// relative to the notebook directory.
	PathByID(ctx context.Context, id string) (string, error)
}

// Remote is the part of the note service that is needed to synchronize
// documents.
type Remote interface {
	NotebookLister
	PathResolver
	BlockStore
}

// DocumentSource finds document files on disk and reads them.
type DocumentSource interface {
	// List returns the paths of all document files below dir.
	List(dir string) ([]string, error)
	// Read parses the document file at path.
	Read(path string) (*Node, error)
}

// ResolveHome looks up the notebook with the given name and returns its
// directory below dataDir.
//
// Returns a NotFound error if there is no notebook with that name.
func ResolveHome(ctx context.Context, l NotebookLister, dataDir, name string) (Home, error) {
	var h Home
	notebooks, err := l.ListNotebooks(ctx)
	if err != nil {
		return h, err
	}

	for _, nb := range notebooks {
		if nb.Name == name {
			h.Notebook = nb
			h.Dir = filepath.Join(dataDir, nb.ID)
			return h, nil
		}
	}

	return h, NewNotFound("no notebook named %q", name)
}

// LocateDocument returns the path of the document file that contains the
// block with the given ID.
func LocateDocument(ctx context.Context, r PathResolver, h Home, id string) (string, error) {
	rel, err := r.PathByID(ctx, id)
	if err != nil {
		return "", err
	}
	return h.Path(rel), nil
}

// DocumentError records the failure to synchronize a single document.
type DocumentError struct {
	Path string
	Err  error
}

func (d *DocumentError) Error() string {
	return fmt.Sprintf("%v: %v", d.Path, d.Err)
}

func (d *DocumentError) Unwrap() error {
	return d.Err
}

// Report summarizes a synchronization run.
type Report struct {
	RunID     string
	Home      Home
	Documents int
	Blocks    int
	Failed    []*DocumentError
	Started   time.Time
	Finished  time.Time
}

// OK tells if all documents were synchronized.
func (r *Report) OK() bool {
	return len(r.Failed) == 0
}

// Err combines the errors of all failed documents into a single error.
// Returns nil if no document failed.
func (r *Report) Err() error {
	var result *multierror.Error
	for _, f := range r.Failed {
		result = multierror.Append(result, f)
	}
	return result.ErrorOrNil()
}

// Duration is the time the run took.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

func (r *Report) add(path string, blocks int, err error) {
	r.Documents++
	r.Blocks += blocks
	if err != nil {
		r.Failed = append(r.Failed, &DocumentError{Path: path, Err: err})
	}
}

// Synchronizer rewrites all documents of a notebook.
type Synchronizer struct {
	Remote    Remote
	Documents DocumentSource
	// DataDir is the SiYuan data directory that contains the notebooks.
	DataDir string
	// Progress is called once for each document that is finished.
	// done counts the finished documents, including this one;
	// err is nil if the document was synchronized successfully.
	Progress func(done, total int, path string, err error)
}

// Sync resolves the notebook with the given name and synchronizes all of
// its documents.
//
// The returned error is only set if the run could not be carried out;
// failures for single documents are recorded in the report.
func (s *Synchronizer) Sync(ctx context.Context, notebook string) (*Report, error) {
	home, err := ResolveHome(ctx, s.Remote, s.DataDir, notebook)
	if err != nil {
		return nil, err
	}

	return s.SyncHome(ctx, home)
}

// SyncHome synchronizes all documents below the given notebook home.
//
// Documents are processed concurrently; the number of requests in flight
// is limited by the Remote.
func (s *Synchronizer) SyncHome(ctx context.Context, home Home) (*Report, error) {
	report := &Report{
		RunID:   uuid.New().String(),
		Home:    home,
		Started: time.Now(),
		Failed:  make([]*DocumentError, 0),
	}
	log := logging.WithField("run", report.RunID)

	paths, err := s.Documents.List(home.Dir)
	if err != nil {
		return nil, Wrap(err, "list documents in %v", home.Dir)
	}
	log.Infof("Synchronize %d documents in notebook %v", len(paths), home)

	var mx sync.Mutex
	var group errgroup.Group
	for _, path := range paths {
		path := path
		group.Go(func() error {
			n, err := s.SyncDocument(ctx, path)

			mx.Lock()
			defer mx.Unlock()
			report.add(path, n, err)
			if err != nil {
				log.Warnf("Failed to synchronize %v: %v", path, err)
			}
			if s.Progress != nil {
				s.Progress(report.Documents, len(paths), path, err)
			}

			return nil
		})
	}
	group.Wait()

	sort.Slice(report.Failed, func(i, j int) bool {
		return report.Failed[i].Path < report.Failed[j].Path
	})
	report.Finished = time.Now()

	log.Infof("Rewrote %d blocks in %d documents, %d failed, took %v",
		report.Blocks, report.Documents, len(report.Failed), report.Duration())

	return report, ctx.Err()
}

// SyncDocument reads the document file at path and rewrites its blocks.
//
// Returns the number of rewritten blocks.
func (s *Synchronizer) SyncDocument(ctx context.Context, path string) (int, error) {
	root, err := s.Documents.Read(path)
	if err != nil {
		return 0, Wrap(err, "read document")
	}

	logging.Debug("Walk %v with %d nodes", path, root.Count())
	return NewWalker(s.Remote).Walk(ctx, root)
}

// SyncBlock synchronizes the document that contains the block with the
// given ID.
func (s *Synchronizer) SyncBlock(ctx context.Context, home Home, id string) (int, error) {
	path, err := LocateDocument(ctx, s.Remote, home, id)
	if err != nil {
		return 0, err
	}

	return s.SyncDocument(ctx, path)
}
