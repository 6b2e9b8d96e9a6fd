package walk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/numtide/notes/stats"
	"golang.org/x/sync/errgroup"
)

// GitReader emits the files tracked in the git index which lie beneath root/path.
type GitReader struct {
	root      string
	path      string
	prune     PruneFunc
	stats     *stats.Stats
	batchSize int

	log      *log.Logger
	repo     *git.Repository
	repoRoot string

	eg      *errgroup.Group
	done    chan struct{}
	filesCh chan *File
}

func (g *GitReader) process() error {
	defer close(g.filesCh)

	gitIndex, err := g.repo.Storer.Index()
	if err != nil {
		return fmt.Errorf("failed to open git index: %w", err)
	}

	prefix := filepath.ToSlash(g.path)
	pruned := newPruneCache(g.prune)

	for _, entry := range gitIndex.Entries {
		// we only want regular files, not directories, symlinks or submodules
		if entry.Mode == filemode.Dir || entry.Mode == filemode.Symlink || entry.Mode == filemode.Submodule {
			continue
		}

		// index entries are relative to the repository root, which may sit above our root
		absPath := filepath.Join(g.repoRoot, filepath.FromSlash(entry.Name))

		relPath, err := relativePath(g.root, absPath)
		if err != nil {
			return err
		}

		if strings.HasPrefix(relPath, "../") {
			continue
		}

		if prefix != "" && relPath != prefix && !strings.HasPrefix(relPath, prefix+"/") {
			continue
		}

		if pruned.has(path.Dir(relPath)) {
			continue
		}

		info, err := os.Lstat(absPath)
		if os.IsNotExist(err) {
			// the underlying file might have been removed without the change being staged yet
			g.log.Warnf("Path %s is in the index but appears to have been removed from the filesystem", absPath)

			continue
		} else if errors.Is(err, fs.ErrPermission) {
			g.log.Warnf("unable to read %s: %v", absPath, err)

			continue
		} else if err != nil {
			return fmt.Errorf("failed to stat %s: %w", absPath, err)
		}

		file := &File{
			Path:    absPath,
			RelPath: relPath,
			Info:    info,
		}

		select {
		case <-g.done:
			return nil
		case g.filesCh <- file:
			g.stats.Add(stats.Traversed, 1)
		}
	}

	return nil
}

func (g *GitReader) Read(ctx context.Context, files []*File) (n int, err error) {
	idx := 0

LOOP:
	for idx < len(files) {
		select {
		case <-ctx.Done():
			return idx, ctx.Err()
		case file, ok := <-g.filesCh:
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

func (g *GitReader) Close() error {
	close(g.done)

	return g.eg.Wait()
}

func NewGitReader(
	root string,
	path string,
	prune PruneFunc,
	statz *stats.Stats,
	batchSize int,
) (*GitReader, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return nil, fmt.Errorf("cannot walk a bare repository: %w", err)
	} else if err != nil {
		return nil, fmt.Errorf("failed to open git worktree: %w", err)
	}

	r := &GitReader{
		root:      root,
		path:      path,
		prune:     prune,
		stats:     statz,
		batchSize: batchSize,
		log:       log.WithPrefix("walk[git]"),
		repo:      repo,
		repoRoot:  worktree.Filesystem.Root(),
		eg:        &errgroup.Group{},
		done:      make(chan struct{}),
		filesCh:   make(chan *File, batchSize*runtime.NumCPU()),
	}

	r.eg.Go(r.process)

	return r, nil
}

// pruneCache remembers which directories have been pruned, so each is only checked once.
type pruneCache struct {
	fn   PruneFunc
	seen map[string]bool
}

func newPruneCache(fn PruneFunc) *pruneCache {
	return &pruneCache{fn: fn, seen: make(map[string]bool)}
}

// has reports whether dir, or any of its ancestors, is pruned.
func (p *pruneCache) has(dir string) bool {
	if p.fn == nil || dir == "." || dir == "" {
		return false
	}

	if pruned, ok := p.seen[dir]; ok {
		return pruned
	}

	pruned := p.has(path.Dir(dir)) || p.fn(dir)
	p.seen[dir] = pruned

	return pruned
}
