package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/numtide/notes/matcher"
	"github.com/numtide/notes/walk"
	"github.com/stretchr/testify/require"
)

// MatcherTestSetup returns a constructor for files rooted in the given directory.
func MatcherTestSetup(t *testing.T, as *require.Assertions, root string) func(string) *walk.File {
	t.Helper()

	return func(relPath string) *walk.File {
		path := filepath.Join(root, filepath.FromSlash(relPath))

		info, err := os.Lstat(path)
		as.NoError(err)
		as.True(info.Mode().IsRegular(), "path %s is not a regular file", path)

		return &walk.File{
			Path:    path,
			RelPath: relPath,
			Info:    info,
		}
	}
}

func MatcherTestResults(
	t *testing.T,
	as *require.Assertions,
	matchFn matcher.MatchFn,
	results map[matcher.Result][]*walk.File,
) {
	t.Helper()

	for expected, files := range results {
		for _, file := range files {
			actual, err := matchFn(file)
			as.NoError(err)
			as.Equal(expected, actual, "expected %v for path %s; got %v", expected, file.RelPath, actual)
		}
	}
}
