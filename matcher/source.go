package matcher

import (
	"bufio"
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Source identifies where the active ignore patterns came from. Exactly one source is used per run.
type Source int

const (
	// SourceExplicit means patterns were given via flags, env or the config file.
	SourceExplicit Source = iota
	// SourceFile means patterns were read from the ignore file.
	SourceFile
	// SourceDefaults means the built-in default patterns are in use.
	SourceDefaults
)

func (s Source) String() string {
	switch s {
	case SourceExplicit:
		return "explicit"
	case SourceFile:
		return "ignore-file"
	case SourceDefaults:
		return "defaults"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

//go:embed default.noteignore
var defaultBytes []byte

var defaults = mustParseDefaults()

func mustParseDefaults() []string {
	patterns, err := ParseLines(bytes.NewReader(defaultBytes))
	if err != nil {
		panic(fmt.Errorf("failed to parse default ignore patterns: %w", err))
	}

	return patterns
}

// Defaults returns a copy of the built-in ignore patterns.
func Defaults() []string {
	result := make([]string, len(defaults))
	copy(result, defaults)

	return result
}

// DefaultFileContents returns the embedded default ignore file, comments included.
func DefaultFileContents() []byte {
	return bytes.Clone(defaultBytes)
}

// ParseLines reads one pattern per line. Lines are trimmed, blank lines and lines starting with `#` are skipped.
func ParseLines(r io.Reader) ([]string, error) {
	var patterns []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		patterns = append(patterns, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read patterns: %w", err)
	}

	return patterns, nil
}

// LoadPatterns selects the active ignore patterns.
// Explicit patterns win, followed by the contents of ignoreFile if it exists, followed by the defaults.
// The sources are never merged. An ignore file which exists but cannot be read results in no patterns at all.
func LoadPatterns(explicit []string, ignoreFile string) ([]string, Source) {
	l := log.WithPrefix("ignore")

	if len(explicit) > 0 {
		return explicit, SourceExplicit
	}

	if ignoreFile != "" {
		f, err := os.Open(ignoreFile)

		switch {
		case errors.Is(err, fs.ErrNotExist):
			l.Debugf("ignore file %s not found, using defaults", ignoreFile)
		case err != nil:
			l.Infof("failed to open ignore file %s, ignoring nothing: %v", ignoreFile, err)

			return nil, SourceFile
		default:
			defer f.Close()

			patterns, err := ParseLines(f)
			if err != nil {
				l.Infof("failed to read ignore file %s, ignoring nothing: %v", ignoreFile, err)

				return nil, SourceFile
			}

			return patterns, SourceFile
		}
	}

	return Defaults(), SourceDefaults
}
