package matcher

import "github.com/charmbracelet/log"

// Set is an ordered collection of patterns evaluated with OR semantics.
//
// A Set is built once and only read afterwards. Matches may be called from multiple goroutines, Add may not be
// called concurrently with anything else.
type Set struct {
	patterns []*Pattern
}

// NewSet compiles each of the provided patterns into a new Set, returning the first InvalidPatternError encountered.
func NewSet(patterns ...string) (*Set, error) {
	s := &Set{patterns: make([]*Pattern, 0, len(patterns))}

	for _, pattern := range patterns {
		if err := s.Add(pattern); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Add compiles pattern and appends it to the set. Duplicates are not removed.
func (s *Set) Add(pattern string) error {
	p, err := Compile(pattern)
	if err != nil {
		return err
	}

	log.WithPrefix("ignore").Debugf("compiled %s to %s", p, p.Expr())

	s.patterns = append(s.patterns, p)

	return nil
}

// Matches returns true if any pattern in the set matches candidate. An empty set matches nothing.
func (s *Set) Matches(candidate string) bool {
	for _, p := range s.patterns {
		if p.Matches(candidate) {
			return true
		}
	}

	return false
}

// MatchesDir returns true if any pattern in the set matches dir as a directory. See Pattern.MatchesDir.
func (s *Set) MatchesDir(dir string) bool {
	for _, p := range s.patterns {
		if p.MatchesDir(dir) {
			return true
		}
	}

	return false
}

func (s *Set) Len() int {
	return len(s.patterns)
}

// Patterns returns the raw patterns in insertion order.
func (s *Set) Patterns() []string {
	result := make([]string, len(s.patterns))
	for i, p := range s.patterns {
		result[i] = p.raw
	}

	return result
}
