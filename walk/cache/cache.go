package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/adrg/xdg"
	"github.com/numtide/notes/note"
	bolt "go.etcd.io/bbolt"
)

// Entry records the state of a file when it was last scanned, and the notes found in it.
type Entry struct {
	Size     int64       `msgpack:"size"`
	Modified int64       `msgpack:"modified"`
	Notes    []note.Note `msgpack:"notes"`
}

// NewEntry creates an Entry from the file info taken when the file was traversed.
func NewEntry(info fs.FileInfo, notes []note.Note) *Entry {
	return &Entry{
		Size:     info.Size(),
		Modified: info.ModTime().Unix(),
		Notes:    notes,
	}
}

// Fresh returns true if info has the same size and mod time as the entry.
// Mod times are compared at second precision.
func (e *Entry) Fresh(info fs.FileInfo) bool {
	return e != nil && info != nil && e.Size == info.Size() && e.Modified == info.ModTime().Unix()
}

// Path returns a unique local cache file path for the given root string, using its SHA-256 hash.
func Path(root string) (string, error) {
	digest := sha256.Sum256([]byte(root))

	name := hex.EncodeToString(digest[:])

	path, err := xdg.CacheFile(fmt.Sprintf("notes/scan-cache/%v.db", name))
	if err != nil {
		return "", fmt.Errorf("could not resolve local path for the cache: %w", err)
	}

	return path, nil
}

// Open initialises and opens a Bolt database for the specified root path.
func Open(root string) (*bolt.DB, error) {
	path, err := Path(root)
	if err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db at %s: %w", path, err)
	}

	// ensure the buckets exist, read only transactions will not create them
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := BucketPaths(tx)

		return err
	})
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to initialise cache db at %s: %w", path, err)
	}

	return db, nil
}

// Prune deletes the entries for paths which keep rejects, returning how many were removed and how many remain.
func Prune(db *bolt.DB, keep func(path string) bool) (removed int, remaining int, err error) {
	err = db.Update(func(tx *bolt.Tx) error {
		bucket, err := BucketPaths(tx)
		if err != nil {
			return err
		}

		size := bucket.Size()

		var stale []string

		if err = bucket.ForEach(func(path string, _ *Entry) error {
			if !keep(path) {
				stale = append(stale, path)
			}

			return nil
		}); err != nil {
			return err
		}

		// bolt buckets cannot be modified while iterating over them
		for _, path := range stale {
			if err = bucket.Delete(path); err != nil {
				return err
			}
		}

		removed = len(stale)
		remaining = size - removed

		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prune cache entries: %w", err)
	}

	return removed, remaining, nil
}

// Remove deletes the cache db for root, if there is one.
func Remove(root string) error {
	path, err := Path(root)
	if err != nil {
		return err
	}

	if err = os.Remove(path); !(err == nil || os.IsNotExist(err)) {
		return fmt.Errorf("failed to remove cache db at %s: %w", path, err)
	}

	return nil
}
