package matcher

import (
	"regexp"
	"strings"
)

// doubleStar stands in for `**` while the single star rule runs.
// It lives in the Unicode private use area so it cannot collide with pattern text.
const doubleStar = "\uE000"

// wordChar is any Unicode word character: letters, marks, decimal digits and connector punctuation.
const wordChar = `[\p{L}\p{M}\p{Nd}\p{Pc}]`

var (
	braceGroup    = regexp.MustCompile(`\{(.*?)\}`)
	leadingSlash  = regexp.MustCompile(`^/`)
	trailingSlash = regexp.MustCompile(`/$`)
)

// step is one named rewrite in the glob to regexp translation.
type step struct {
	name  string
	apply func(string) string
}

// steps are applied in order. Later steps consume text produced by earlier ones, so the order is significant.
var steps = []step{
	{"escape-literals", escapeLiterals},
	{"expand-braces", expandBraces},
	{"escape-dots", escapeDots},
	{"protect-double-star", protectDoubleStar},
	{"extension-wildcard", extensionWildcard},
	{"single-star", singleStar},
	{"double-star", expandDoubleStar},
	{"leading-slash", anyLeadingSegments},
	{"trailing-slash", anyTrailingSegments},
	{"anchor", anchor},
}

// Translate rewrites a glob pattern into the regular expression used to match candidate paths.
// It does not check that the result compiles, see Compile for that.
func Translate(pattern string) string {
	for _, s := range steps {
		pattern = s.apply(pattern)
	}

	return pattern
}

// escapeLiterals escapes regexp metacharacters which carry no meaning in a glob.
// `[`, `]` and `?` are left alone, allowing character classes and optional characters to pass through.
var escapeLiterals = strings.NewReplacer(
	`+`, `\+`,
	`(`, `\(`,
	`|`, `\|`,
	`)`, `\)`,
).Replace

// expandBraces turns `{a,b}` into the alternation `(a|b)` and escapes any braces left over.
func expandBraces(s string) string {
	s = braceGroup.ReplaceAllStringFunc(s, func(group string) string {
		inner := group[1 : len(group)-1]

		return "(" + strings.ReplaceAll(inner, ",", "|") + ")"
	})

	return strings.NewReplacer(`{`, `\{`, `}`, `\}`).Replace(s)
}

func escapeDots(s string) string {
	return strings.ReplaceAll(s, ".", `\.`)
}

func protectDoubleStar(s string) string {
	return strings.ReplaceAll(s, "**", doubleStar)
}

// extensionWildcard makes `file.*` match a non-empty extension of word characters only.
// After escapeDots every dot is preceded by a backslash, so `.*` only occurs as `\.*`.
func extensionWildcard(s string) string {
	return strings.ReplaceAll(s, ".*", "."+wordChar+"+")
}

func singleStar(s string) string {
	return strings.ReplaceAll(s, "*", ".*?")
}

// expandDoubleStar turns `**/` into zero or more leading directories.
// A `**` which is not followed by a slash matches anything, separators included.
func expandDoubleStar(s string) string {
	s = strings.ReplaceAll(s, doubleStar+"/", "(.*?/)?")

	return strings.ReplaceAll(s, doubleStar, ".*")
}

// anyLeadingSegments lets `/dir/` match dir at any depth.
func anyLeadingSegments(s string) string {
	return leadingSlash.ReplaceAllLiteralString(s, "(.*?/)?")
}

// anyTrailingSegments lets `dir/` match dir itself and everything below it.
func anyTrailingSegments(s string) string {
	return trailingSlash.ReplaceAllLiteralString(s, "(/.*?)?")
}

func anchor(s string) string {
	return "^" + s + "$"
}
