package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/numtide/notes/config"
	"github.com/numtide/notes/matcher"
	"github.com/numtide/notes/note"
	"github.com/numtide/notes/report"
	"github.com/numtide/notes/stats"
	"github.com/numtide/notes/walk"
	"github.com/numtide/notes/walk/cache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/sync/errgroup"
)

func Run(v *viper.Viper, statz *stats.Stats, cmd *cobra.Command, paths []string) error {
	cmd.SilenceUsage = true

	cfg, err := config.FromViper(v)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l := log.WithPrefix("scan")

	// select and compile the ignore patterns, an invalid pattern aborts the run
	patterns, source := matcher.LoadPatterns(cfg.Ignore, cfg.IgnoreFile)
	l.Infof("using %d ignore patterns from %s: %v", len(patterns), source, patterns)

	ignores, err := matcher.NewSet(patterns...)
	if err != nil {
		return fmt.Errorf("failed to compile ignore patterns: %w", err)
	}

	walkType, err := walk.TypeString(cfg.Walk)
	if err != nil {
		return fmt.Errorf("invalid walk type: %w", err)
	}

	// split the path args into paths to walk and globs to select files with
	walkPaths, globs, err := splitPaths(paths)
	if err != nil {
		return err
	}

	includes, err := matcher.IncludeGlobs(globs)
	if err != nil {
		return fmt.Errorf("failed to compile path globs: %w", err)
	}

	root := cfg.WorkingDirectory

	// open the cache if configured
	var db *bolt.DB

	if cfg.ClearCache {
		if err = cache.Remove(root); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
	}

	if !cfg.NoCache {
		if db, err = cache.Open(root); err != nil {
			// if we can't open the cache, we log a warning and fallback to no cache
			l.Warnf("failed to open cache: %v", err)

			db = nil
		} else {
			defer func() {
				if err := db.Close(); err != nil {
					l.Errorf("failed to close cache: %v", err)
				}
			}()
		}
	}

	// create an app context and listen for shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		exit := make(chan os.Signal, 1)
		signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(exit)

		select {
		case <-exit:
			cancel()
		case <-ctx.Done():
		}
	}()

	// directories matched by an ignore pattern as a directory are not descended into.
	// with no paths to walk, which is also the case when only globs were given, the whole root is walked
	reader, err := walk.NewCompositeReader(walkType, root, walkPaths, db, ignores.MatchesDir, statz)
	if err != nil {
		return fmt.Errorf("failed to create walker: %w", err)
	}

	s := &scanner{
		log:     l,
		stats:   statz,
		notes:   note.NewScanner(),
		only:    cfg.Only,
		printer: report.NewPrinter(cmd.OutOrStdout(), cfg.NoColor),
		matchFn: matcher.Combine(
			[]matcher.MatchFn{includes},
			[]matcher.MatchFn{
				matcher.ExcludeSet(ignores),
				matcher.ExcludeExecutables(),
				matcher.ExcludeBinaries(),
			},
		),
		selective: len(globs) > 0,
		seen:      make(map[string]struct{}),
	}

	eg, ctx := errgroup.WithContext(ctx)

	// we use a multiple of batch size here as a rudimentary concurrency optimization based on the host machine
	filesCh := make(chan *walk.File, walk.BatchSize*runtime.NumCPU())

	// a single consumer keeps the output in walk order
	eg.Go(func() error {
		return s.process(ctx, filesCh)
	})

	eg.Go(func() error {
		defer close(filesCh)

		return readFiles(ctx, reader, filesCh)
	})

	err = eg.Wait()

	// files have all been released by now, closing flushes any pending cache updates
	if closeErr := reader.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("failed to close walker: %w", closeErr))
	}

	if err != nil {
		return err
	}

	// a walk of the whole root has seen every file that still exists, anything else in the cache is stale
	if db != nil && len(walkPaths) == 0 {
		removed, remaining, err := cache.Prune(db, s.wasSeen)
		if err != nil {
			l.Warnf("failed to prune cache: %v", err)
		} else {
			l.Debugf("removed %d stale cache entries, %d remain", removed, remaining)
		}
	}

	l.Infof(
		"traversed %d files, ignored %d, scanned %d, %d from cache in %v",
		statz.Value(stats.Traversed), statz.Value(stats.Ignored), statz.Value(stats.Scanned),
		statz.Value(stats.Cached), statz.Elapsed(),
	)

	return s.printer.Summary(statz.Value(stats.Found), statz.Value(stats.Filtered)) //nolint:wrapcheck
}

// splitPaths separates path args which exist from globs. Anything else is an error.
func splitPaths(paths []string) (walkPaths []string, globs []string, err error) {
	for _, path := range paths {
		_, statErr := os.Lstat(path)

		switch {
		case statErr == nil:
			walkPaths = append(walkPaths, path)
		case errors.Is(statErr, os.ErrNotExist) && matcher.IsGlob(path):
			globs = append(globs, strings.TrimPrefix(filepath.ToSlash(path), "./"))
		default:
			return nil, nil, fmt.Errorf("path %s not found: %w", path, statErr)
		}
	}

	return walkPaths, globs, nil
}

func readFiles(ctx context.Context, reader walk.Reader, filesCh chan<- *walk.File) error {
	for {
		files := make([]*walk.File, walk.BatchSize)

		n, err := reader.Read(ctx, files)

		for idx := range n {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case filesCh <- files[idx]:
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return fmt.Errorf("failed to read files: %w", err)
		}
	}
}

type scanner struct {
	log     *log.Logger
	stats   *stats.Stats
	notes   *note.Scanner
	only    []string
	printer *report.Printer
	matchFn matcher.MatchFn

	// selective is set when path globs were given, only files they select are scanned
	selective bool

	// seen holds the relative path of every file read from the walk
	seen map[string]struct{}
}

func (s *scanner) process(ctx context.Context, filesCh <-chan *walk.File) error {
	// files we skip must not leave an entry behind in the cache
	noCacheCtx := walk.SetNoCache(ctx, true)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case file, ok := <-filesCh:
			if !ok {
				return nil
			}

			s.seen[file.RelPath] = struct{}{}

			// files which cannot be read are reported and passed over, they do not end the run
			result, err := s.matchFn(file)
			if err != nil {
				s.log.Warnf("unable to read %s: %v", file.RelPath, err)

				if err = file.Release(noCacheCtx); err != nil {
					return fmt.Errorf("failed to release %s: %w", file.RelPath, err)
				}

				continue
			}

			if result == matcher.Unwanted || (s.selective && result != matcher.Wanted) {
				if result == matcher.Unwanted {
					s.log.Debugf("ignoring %s", file.RelPath)
					s.stats.Add(stats.Ignored, 1)
				}

				if err = file.Release(noCacheCtx); err != nil {
					return fmt.Errorf("failed to release %s: %w", file.RelPath, err)
				}

				continue
			}

			if err = s.scan(file); err != nil {
				s.log.Warnf("unable to read %s: %v", file.RelPath, err)

				if err = file.Release(noCacheCtx); err != nil {
					return fmt.Errorf("failed to release %s: %w", file.RelPath, err)
				}

				continue
			}

			if err = s.report(file); err != nil {
				return err
			}

			if err = file.Release(ctx); err != nil {
				return fmt.Errorf("failed to release %s: %w", file.RelPath, err)
			}
		}
	}
}

func (s *scanner) wasSeen(relPath string) bool {
	_, ok := s.seen[relPath]

	return ok
}

// scan populates the notes for file, reusing the cached notes when the file is unchanged.
func (s *scanner) scan(file *walk.File) error {
	if file.Cached.Fresh(file.Info) {
		s.log.Debugf("using cached notes for %s", file.RelPath)
		s.stats.Add(stats.Cached, 1)

		file.Notes = file.Cached.Notes

		return nil
	}

	f, err := os.Open(file.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file.Path, err)
	}
	defer f.Close()

	if file.Notes, err = s.notes.Scan(f); err != nil {
		return fmt.Errorf("failed to scan %s: %w", file.RelPath, err)
	}

	s.stats.Add(stats.Scanned, 1)

	return nil
}

func (s *scanner) report(file *walk.File) error {
	for _, n := range file.Notes {
		s.stats.Add(stats.Found, 1)

		if !slices.Contains(s.only, n.Marker) {
			s.stats.Add(stats.Filtered, 1)

			continue
		}

		if err := s.printer.Print(file.RelPath, n); err != nil {
			return err //nolint:wrapcheck
		}
	}

	return nil
}
