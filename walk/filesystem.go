package walk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/numtide/notes/stats"
	"golang.org/x/sync/errgroup"
)

// FilesystemReader traverses and reads files from a specified root directory and its subdirectories.
type FilesystemReader struct {
	log       *log.Logger
	root      string
	path      string
	prune     PruneFunc
	batchSize int

	stats *stats.Stats

	eg      *errgroup.Group
	done    chan struct{}
	filesCh chan *File
}

// process walks the file system, sending regular files to filesCh until the walk completes or the reader is closed.
func (f *FilesystemReader) process() error {
	defer close(f.filesCh)

	path := filepath.Join(f.root, f.path)

	err := filepath.WalkDir(path, func(path string, d fs.DirEntry, err error) error {
		// an unreadable entry is skipped, along with everything beneath it
		if errors.Is(err, fs.ErrPermission) {
			f.log.Warnf("unable to read %s: %v", path, err)

			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		} else if err != nil {
			return fmt.Errorf("failed to walk %s: %w", path, err)
		}

		relPath, err := relativePath(f.root, path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if relPath != "" && f.prune != nil && f.prune(relPath) {
				f.log.Debugf("pruning directory %s", relPath)

				return filepath.SkipDir
			}

			return nil
		}

		// symlinks, sockets and the like hold no notes
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}

		file := &File{
			Path:    path,
			RelPath: relPath,
			Info:    info,
		}

		select {
		case <-f.done:
			return errClosed
		case f.filesCh <- file:
			f.stats.Add(stats.Traversed, 1)
		}

		return nil
	})

	if errors.Is(err, errClosed) {
		return nil
	}

	return err
}

// Read populates the provided files array with as many files as are available until the provided context is
// cancelled or the walk is complete, in which case io.EOF is returned.
func (f *FilesystemReader) Read(ctx context.Context, files []*File) (n int, err error) {
	idx := 0

LOOP:
	for idx < len(files) {
		select {
		case <-ctx.Done():
			return idx, ctx.Err()
		case file, ok := <-f.filesCh:
			if !ok {
				err = io.EOF

				break LOOP
			}

			files[idx] = file
			idx++
		}
	}

	return idx, err
}

// Close stops the walk if it is still running and waits for it to finish, returning any error it encountered.
func (f *FilesystemReader) Close() error {
	close(f.done)

	return f.eg.Wait()
}

// NewFilesystemReader creates a new instance of FilesystemReader to traverse and read files from the specified
// path relative to root.
func NewFilesystemReader(
	root string,
	path string,
	prune PruneFunc,
	statz *stats.Stats,
	batchSize int,
) *FilesystemReader {
	r := FilesystemReader{
		log:       log.WithPrefix("walk[filesystem]"),
		root:      root,
		path:      path,
		prune:     prune,
		batchSize: batchSize,
		stats:     statz,
		eg:        &errgroup.Group{},
		done:      make(chan struct{}),
		filesCh:   make(chan *File, batchSize*runtime.NumCPU()),
	}

	r.eg.Go(r.process)

	return &r
}
