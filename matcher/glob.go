package matcher

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"github.com/numtide/notes/walk"
)

// IsGlob reports whether s contains any glob metacharacters.
func IsGlob(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// IncludeGlobs selects files whose relative path matches any of the provided globs.
// `/` is treated as a separator, so `*` stays within a directory while `**` crosses them.
func IncludeGlobs(patterns []string) (MatchFn, error) {
	if len(patterns) == 0 {
		return noOp, nil
	}

	globs := make([]glob.Glob, len(patterns))

	for i, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("failed to compile path glob '%v': %w", pattern, err)
		}

		globs[i] = g
	}

	return func(file *walk.File) (Result, error) {
		for _, g := range globs {
			if g.Match(file.RelPath) {
				return Wanted, nil
			}
		}

		return Indifferent, nil
	}, nil
}
