package walk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/numtide/notes/walk/cache"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/sync/errgroup"
)

type ctxKeyNoCache struct{}

// SetNoCache marks ctx so that releasing a file with it leaves the cache untouched.
func SetNoCache(ctx context.Context, noCache bool) context.Context {
	return context.WithValue(ctx, ctxKeyNoCache{}, noCache)
}

func GetNoCache(ctx context.Context) bool {
	noCache, ok := ctx.Value(ctxKeyNoCache{}).(bool)

	return ok && noCache
}

// CachedReader reads files from a delegate Reader, attaching the cache Entry recorded for each (if one exists) and
// updating the cache with the notes found once the file has been released.
type CachedReader struct {
	db        *bolt.DB
	log       *log.Logger
	batchSize int

	// delegate is a Reader instance that performs the actual reading operations for the CachedReader.
	delegate Reader

	eg *errgroup.Group

	// updateCh contains files which have been released after processing and should be updated in the cache.
	updateCh chan *File
}

// process batches released files, writing a fresh entry for each to the database.
func (c *CachedReader) process() error {
	batch := make([]*File, 0, c.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}

		c.log.Debugf("updating %d cache entries", len(batch))

		err := c.db.Update(func(tx *bolt.Tx) error {
			bucket, err := cache.BucketPaths(tx)
			if err != nil {
				return err
			}

			for _, file := range batch {
				if err := bucket.Put(file.RelPath, cache.NewEntry(file.Info, file.Notes)); err != nil {
					return fmt.Errorf("failed to put cache entry for path %s: %w", file.RelPath, err)
				}
			}

			return nil
		})

		batch = batch[:0]

		return err //nolint:wrapcheck
	}

	for file := range c.updateCh {
		batch = append(batch, file)
		if len(batch) == c.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	// flush final partial batch
	return flush()
}

func (c *CachedReader) Read(ctx context.Context, files []*File) (n int, err error) {
	n, err = c.delegate.Read(ctx, files)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("failed to read files from delegate: %w", err)
	}

	c.log.Debugf("read %d files from delegate", n)

	viewErr := c.db.View(func(tx *bolt.Tx) error {
		bucket, err := cache.BucketPaths(tx)
		if err != nil {
			return err
		}

		for i := range n {
			file := files[i]

			// a corrupt entry is treated as a miss, it will be overwritten once the file is scanned
			entry, err := bucket.Get(file.RelPath)
			if err != nil && !errors.Is(err, cache.ErrKeyNotFound) {
				c.log.Warnf("ignoring cache entry for %s: %v", file.RelPath, err)
			}

			file.Cached = entry

			// queue the file for a cache update once released, unless the entry is still accurate
			file.AddReleaseFunc(func(ctx context.Context) error {
				if !GetNoCache(ctx) && !file.Cached.Fresh(file.Info) {
					c.updateCh <- file
				}

				return nil
			})
		}

		return nil
	})
	if viewErr != nil {
		return n, fmt.Errorf("failed to read cache entries: %w", viewErr)
	}

	return n, err
}

// Close closes the delegate and waits for any pending cache updates to be written.
func (c *CachedReader) Close() error {
	delegateErr := c.delegate.Close()

	close(c.updateCh)

	if err := c.eg.Wait(); err != nil {
		return fmt.Errorf("failed to wait for cache updates to complete: %w", err)
	}

	return delegateErr //nolint:wrapcheck
}

// NewCachedReader creates a cache Reader instance, backed by a bolt DB and delegating reads to delegate.
func NewCachedReader(db *bolt.DB, batchSize int, delegate Reader) (*CachedReader, error) {
	r := &CachedReader{
		db:        db,
		batchSize: batchSize,
		delegate:  delegate,
		log:       log.WithPrefix("walk[cache]"),
		eg:        &errgroup.Group{},
		updateCh:  make(chan *File, batchSize*runtime.NumCPU()),
	}

	// start the processing loop
	r.eg.Go(r.process)

	return r, nil
}
