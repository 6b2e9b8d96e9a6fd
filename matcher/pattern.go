package matcher

import (
	"fmt"
	"path"
	"regexp"
)

// InvalidPatternError is returned when a pattern translates to an expression which does not compile.
type InvalidPatternError struct {
	// Pattern is the pattern as provided by the user.
	Pattern string
	// Expr is the regular expression it was translated to.
	Expr string
	Err  error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid ignore pattern '%s' (translated to '%s'): %v", e.Pattern, e.Expr, e.Err)
}

func (e *InvalidPatternError) Unwrap() error {
	return e.Err
}

// Pattern is a compiled ignore rule. It is immutable once compiled.
type Pattern struct {
	raw string
	re  *regexp.Regexp
}

// Compile translates a glob pattern into a Pattern.
func Compile(pattern string) (*Pattern, error) {
	expr := Translate(pattern)

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &InvalidPatternError{Pattern: pattern, Expr: expr, Err: err}
	}

	return &Pattern{raw: pattern, re: re}, nil
}

// MustCompile is like Compile but panics if the pattern is invalid.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}

	return p
}

// Matches reports whether candidate, a slash separated path, is matched by the pattern.
// A pattern equal to the candidate's final segment always matches, which lets plain file names match at any depth.
func (p *Pattern) Matches(candidate string) bool {
	return p.raw == path.Base(candidate) || p.re.MatchString(candidate)
}

// MatchesDir reports whether the pattern matches dir as a directory, that is whether it matches dir followed by a
// slash. Only the expression is consulted: a plain name equal to dir's final segment says nothing about the files
// beneath it.
func (p *Pattern) MatchesDir(dir string) bool {
	return p.re.MatchString(dir + "/")
}

func (p *Pattern) String() string {
	return p.raw
}

// Expr returns the regular expression the pattern was compiled to.
func (p *Pattern) Expr() string {
	return p.re.String()
}
