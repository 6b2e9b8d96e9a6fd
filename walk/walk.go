package walk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/numtide/notes/note"
	"github.com/numtide/notes/stats"
	"github.com/numtide/notes/walk/cache"
	bolt "go.etcd.io/bbolt"
)

type Type int

const (
	Auto Type = iota
	Filesystem
	Git

	BatchSize = 1024

	// sniffSize is how many leading bytes are inspected when deciding if a file is binary.
	sniffSize = 24
)

var errClosed = errors.New("reader closed")

func (t Type) String() string {
	switch t {
	case Auto:
		return "auto"
	case Filesystem:
		return "filesystem"
	case Git:
		return "git"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// TypeString returns the Type for its name.
func TypeString(s string) (Type, error) {
	for _, t := range []Type{Auto, Filesystem, Git} {
		if t.String() == s {
			return t, nil
		}
	}

	return 0, fmt.Errorf("%s does not belong to Type values", s)
}

type ReleaseFunc func(ctx context.Context) error

// PruneFunc decides if a directory, identified by its slash separated path relative to the root, should be skipped
// along with everything below it.
type PruneFunc func(relPath string) bool

// File represents a regular file found during the walk.
type File struct {
	Path string
	// RelPath is relative to the walk root and always uses `/` as separator.
	RelPath string
	Info    fs.FileInfo

	// Cached is the entry recorded the last time this path was scanned, if any.
	Cached *cache.Entry
	// Notes are the notes found in the file once it has been scanned.
	Notes []note.Note

	releaseFuncs []ReleaseFunc
}

// Release calls all registered release functions for the File and returns an error if any function fails.
func (f *File) Release(ctx context.Context) error {
	for _, fn := range f.releaseFuncs {
		if err := fn(ctx); err != nil {
			return err
		}
	}

	return nil
}

// AddReleaseFunc adds a release function to the File's list of release functions.
func (f *File) AddReleaseFunc(fn ReleaseFunc) {
	f.releaseFuncs = append(f.releaseFuncs, fn)
}

func (f *File) IsExecutable() bool {
	info := f.Info
	if info == nil {
		var err error
		if info, err = os.Stat(f.Path); err != nil {
			return false
		}
	}

	return (info.Mode() & 0o111) != 0
}

// IsBinary inspects the first few bytes of the file, reporting it as binary if they contain a NUL or any ASCII
// control character other than tab, line feed and carriage return.
func (f *File) IsBinary() (bool, error) {
	r, err := os.Open(f.Path)
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", f.Path, err)
	}
	defer r.Close()

	buf := make([]byte, sniffSize)

	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, fmt.Errorf("failed to read %s: %w", f.Path, err)
	}

	for _, b := range buf[:n] {
		if b == '\t' || b == '\n' || b == '\r' {
			continue
		}

		if b < 0x20 || b == 0x7f {
			return true, nil
		}
	}

	return false, nil
}

// String returns the file's path as a string.
func (f *File) String() string {
	return f.Path
}

// Reader is an interface for reading files.
type Reader interface {
	Read(ctx context.Context, files []*File) (n int, err error)
	Close() error
}

// CompositeReader combines multiple Readers into one.
// It iterates over the given readers, reading each until completion.
type CompositeReader struct {
	idx     int
	current Reader
	readers []Reader
}

func (c *CompositeReader) Read(ctx context.Context, files []*File) (n int, err error) {
	if c.current == nil {
		// check if we have exhausted all the readers
		if c.idx >= len(c.readers) {
			return 0, io.EOF
		}

		c.current = c.readers[c.idx]
		c.idx++
	}

	n, err = c.current.Read(ctx, files)

	if errors.Is(err, io.EOF) {
		// move on to the next reader with the next call
		err = nil
		c.current = nil
	} else if err != nil {
		err = fmt.Errorf("failed to read from current reader: %w", err)
	}

	return n, err
}

func (c *CompositeReader) Close() error {
	var errs []error

	for _, reader := range c.readers {
		if err := reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close reader: %w", err))
		}
	}

	return errors.Join(errs...)
}

//nolint:ireturn
func NewReader(
	walkType Type,
	root string,
	path string,
	db *bolt.DB,
	prune PruneFunc,
	statz *stats.Stats,
) (Reader, error) {
	var (
		err    error
		reader Reader
	)

	switch walkType {
	case Auto:
		// try git first, falling back to the filesystem
		reader, err = NewReader(Git, root, path, db, prune, statz)
		if err != nil {
			log.Debugf("falling back to a filesystem walk: %v", err)

			reader, err = NewReader(Filesystem, root, path, db, prune, statz)
		}

		return reader, err
	case Filesystem:
		reader = NewFilesystemReader(root, path, prune, statz, BatchSize)
	case Git:
		reader, err = NewGitReader(root, path, prune, statz, BatchSize)
	default:
		return nil, fmt.Errorf("unknown walk type: %v", walkType)
	}

	if err != nil {
		return nil, err
	}

	if db != nil {
		// db will be nil if --no-cache is enabled
		reader, err = NewCachedReader(db, BatchSize, reader)
	}

	return reader, err
}

// NewCompositeReader returns a composite reader for the `root` and all `paths`. It
// never follows symlinks.
//
//nolint:ireturn
func NewCompositeReader(
	walkType Type,
	root string,
	paths []string,
	db *bolt.DB,
	prune PruneFunc,
	statz *stats.Stats,
) (Reader, error) {
	root, err := resolvePath(root)
	if err != nil {
		return nil, fmt.Errorf("error resolving path %s: %w", root, err)
	}

	// if no paths are provided we default to processing the root
	if len(paths) == 0 {
		return NewReader(walkType, root, "", db, prune, statz)
	}

	readers := make([]Reader, 0, len(paths))

	closeAll := func() {
		for _, r := range readers {
			_ = r.Close()
		}
	}

	for _, path := range paths {
		relPath, info, err := resolveRelative(root, path)
		if err != nil {
			closeAll()

			return nil, err
		}

		var reader Reader

		if info.IsDir() {
			// for directories, we honour the walk type as we traverse them
			reader, err = NewReader(walkType, root, relPath, db, prune, statz)
		} else {
			// for files, we enforce a simple filesystem read
			reader, err = NewReader(Filesystem, root, relPath, db, prune, statz)
		}

		if err != nil {
			closeAll()

			return nil, fmt.Errorf("failed to create reader for %s: %w", relPath, err)
		}

		readers = append(readers, reader)
	}

	return &CompositeReader{
		readers: readers,
	}, nil
}

// resolveRelative resolves path and returns it relative to root, failing if it lies outside of root.
func resolveRelative(root string, path string) (string, fs.FileInfo, error) {
	resolvedPath, err := resolvePath(path)
	if err != nil {
		return "", nil, fmt.Errorf("error resolving path %s: %w", path, err)
	}

	relPath, err := filepath.Rel(root, resolvedPath)
	if err != nil {
		return "", nil, fmt.Errorf("error computing relative path from %s to %s: %w", root, resolvedPath, err)
	}

	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", nil, fmt.Errorf("path %s not inside the root %s (relative path: %s)", path, root, relPath)
	}

	info, err := os.Lstat(resolvedPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to stat %s: %w", resolvedPath, err)
	}

	if relPath == "." {
		relPath = ""
	}

	return relPath, info, nil
}

// Resolve a path to an absolute path, resolving any symlinks along the way.
func resolvePath(path string) (string, error) {
	log.Debugf("Resolving path '%s'", path)

	absolutePath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("error computing absolute path of %s: %w", path, err)
	}

	resolvedPath, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		return "", fmt.Errorf("path %s not found: %w", absolutePath, err)
	}

	return resolvedPath, nil
}

// relativePath returns path relative to root, using `/` as separator. The root itself is the empty string.
func relativePath(root string, path string) (string, error) {
	relPath, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("failed to determine a relative path for %s: %w", path, err)
	}

	if relPath == "." {
		return "", nil
	}

	return filepath.ToSlash(relPath), nil
}
