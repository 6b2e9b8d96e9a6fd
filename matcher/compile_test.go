package matcher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSteps(t *testing.T) {
	as := require.New(t)

	var names []string
	for _, s := range steps {
		names = append(names, s.name)
	}

	as.Equal([]string{
		"escape-literals",
		"expand-braces",
		"escape-dots",
		"protect-double-star",
		"extension-wildcard",
		"single-star",
		"double-star",
		"leading-slash",
		"trailing-slash",
		"anchor",
	}, names)
}

func TestStep(t *testing.T) {
	as := require.New(t)

	cases := []struct {
		fn       func(string) string
		input    string
		expected string
	}{
		{escapeLiterals, "file.(c)+|x", `file.\(c\)\+\|x`},
		{escapeLiterals, "file.[jt]s?", "file.[jt]s?"},

		{expandBraces, "file.{js,ts}", "file.(js|ts)"},
		{expandBraces, "{a,b}/{c,d,e}", "(a|b)/(c|d|e)"},
		{expandBraces, "a,b", "a,b"},
		{expandBraces, "a{b", `a\{b`},
		{expandBraces, "a}b", `a\}b`},

		{escapeDots, "a.b.c", `a\.b\.c`},

		{protectDoubleStar, "**/*.go", doubleStar + "/*.go"},
		{protectDoubleStar, "a/**", "a/" + doubleStar},

		{extensionWildcard, `file\.*`, `file\.[\p{L}\p{M}\p{Nd}\p{Pc}]+`},
		{extensionWildcard, `*\.go`, `*\.go`},

		{singleStar, `*\.go`, `.*?\.go`},
		{singleStar, "a*b*", "a.*?b.*?"},

		{expandDoubleStar, doubleStar + "/file", "(.*?/)?file"},
		{expandDoubleStar, "a/" + doubleStar, "a/.*"},

		{anyLeadingSegments, "/dir/", "(.*?/)?dir/"},
		{anyLeadingSegments, "dir/", "dir/"},

		{anyTrailingSegments, "dir/", "dir(/.*?)?"},
		{anyTrailingSegments, "/dir", "/dir"},

		{anchor, "abc", "^abc$"},
	}

	for _, c := range cases {
		as.Equal(c.expected, c.fn(c.input), "input %q", c.input)
	}
}

func TestTranslate(t *testing.T) {
	as := require.New(t)

	cases := map[string]string{
		"target":        "^target$",
		"dir/":          "^dir(/.*?)?$",
		"/dir/":         "^(.*?/)?dir(/.*?)?$",
		"*.log":         `^.*?\.log$`,
		"**/file.*":     `^(.*?/)?file\.[\p{L}\p{M}\p{Nd}\p{Pc}]+$`,
		"**/file*":      `^(.*?/)?file.*?$`,
		"**/*.{js,ts}":  `^(.*?/)?.*?\.(js|ts)$`,
		"file.[jt]s":    `^file\.[jt]s$`,
		"file.(c)":      `^file\.\(c\)$`,
		"file.jpe?g":    `^file\.jpe?g$`,
		"dir/**/*.ext":  `^dir/(.*?/)?.*?\.ext$`,
		"/**/dir/*.ext": `^(.*?/)?(.*?/)?dir/.*?\.ext$`,
		"**.ext":        `^.*\.ext$`,
	}

	for pattern, expected := range cases {
		as.Equal(expected, Translate(pattern), "pattern %q", pattern)
	}
}
