package matcher_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/numtide/notes/matcher"
	"github.com/stretchr/testify/require"
)

func TestParseLines(t *testing.T) {
	as := require.New(t)

	patterns, err := matcher.ParseLines(strings.NewReader(`
# build output
dist/

  *.min.js
#not-a-pattern
/vendor/
`))
	as.NoError(err)
	as.Equal([]string{"dist/", "*.min.js", "/vendor/"}, patterns)

	patterns, err = matcher.ParseLines(strings.NewReader(""))
	as.NoError(err)
	as.Empty(patterns)
}

func TestDefaults(t *testing.T) {
	as := require.New(t)

	as.Equal([]string{".git/", "tmp/", "log/", "*.log"}, matcher.Defaults())

	// callers get their own copy
	defaults := matcher.Defaults()
	defaults[0] = "changed"
	as.Equal(".git/", matcher.Defaults()[0])

	contents := matcher.DefaultFileContents()
	patterns, err := matcher.ParseLines(strings.NewReader(string(contents)))
	as.NoError(err)
	as.Equal(matcher.Defaults(), patterns)
}

func TestLoadPatterns(t *testing.T) {
	as := require.New(t)

	dir := t.TempDir()
	ignoreFile := filepath.Join(dir, ".noteignore")

	// no explicit patterns and no ignore file
	patterns, source := matcher.LoadPatterns(nil, ignoreFile)
	as.Equal(matcher.SourceDefaults, source)
	as.Equal(matcher.Defaults(), patterns)

	patterns, source = matcher.LoadPatterns(nil, "")
	as.Equal(matcher.SourceDefaults, source)
	as.Equal(matcher.Defaults(), patterns)

	// the ignore file replaces the defaults
	as.NoError(os.WriteFile(ignoreFile, []byte("# comment\nbuild/\n\n*.tmp\n"), 0o644))

	patterns, source = matcher.LoadPatterns(nil, ignoreFile)
	as.Equal(matcher.SourceFile, source)
	as.Equal([]string{"build/", "*.tmp"}, patterns)

	// an empty ignore file means nothing is ignored
	as.NoError(os.WriteFile(ignoreFile, nil, 0o644))

	patterns, source = matcher.LoadPatterns(nil, ignoreFile)
	as.Equal(matcher.SourceFile, source)
	as.Empty(patterns)

	// explicit patterns replace both
	patterns, source = matcher.LoadPatterns([]string{"vendor/"}, ignoreFile)
	as.Equal(matcher.SourceExplicit, source)
	as.Equal([]string{"vendor/"}, patterns)
}

func TestLoadPatternsUnreadable(t *testing.T) {
	as := require.New(t)

	// a directory exists but cannot be read as a file
	dir := t.TempDir()
	ignoreFile := filepath.Join(dir, ".noteignore")
	as.NoError(os.Mkdir(ignoreFile, 0o755))

	patterns, source := matcher.LoadPatterns(nil, ignoreFile)
	as.Equal(matcher.SourceFile, source)
	as.Empty(patterns)
}

func TestSourceString(t *testing.T) {
	as := require.New(t)

	as.Equal("explicit", matcher.SourceExplicit.String())
	as.Equal("ignore-file", matcher.SourceFile.String())
	as.Equal("defaults", matcher.SourceDefaults.String())
}
