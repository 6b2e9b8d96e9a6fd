package note

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MinTextLength is the number of bytes a note's text must exceed to be reported.
	MinTextLength = 2
	// MaxTextLength is the maximum number of runes kept from a note's text.
	MaxTextLength = 60
)

// Markers are the annotations recognised by the Scanner.
var Markers = []string{
	"TODO",
	"FIXME",
	"XXX",
	"HACK",
	"BUG",
	"NOTE",
	"REVIEW",
	"OPTIMIZE",
	"DEBUG",
	"IDEA",
	"DEPRECATED",
}

var ErrUnknownMarker = errors.New("unknown marker")

// Note is a single annotation found in a file.
type Note struct {
	Marker string `msgpack:"marker"`
	Text   string `msgpack:"text"`
	Line   int    `msgpack:"line"`
}

func (n Note) String() string {
	return fmt.Sprintf("%s:%d %s", n.Marker, n.Line, n.Text)
}

// Scanner extracts notes from text.
type Scanner struct {
	re *regexp.Regexp
}

func NewScanner() *Scanner {
	expr := fmt.Sprintf(`\b(?P<marker>%s)\b:?(?P<text>.*?)$`, strings.Join(Markers, "|"))

	return &Scanner{re: regexp.MustCompile(expr)}
}

// Scan reads r line by line and returns the notes found, in order.
func (s *Scanner) Scan(r io.Reader) ([]Note, error) {
	var notes []Note

	reader := bufio.NewReader(r)
	markerIdx := s.re.SubexpIndex("marker")
	textIdx := s.re.SubexpIndex("text")

	for lineNo := 1; ; lineNo++ {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			if match := s.re.FindStringSubmatch(strings.TrimSpace(line)); match != nil {
				text := strings.TrimSpace(match[textIdx])
				if len(text) > MinTextLength {
					notes = append(notes, Note{
						Marker: match[markerIdx],
						Text:   truncate(text, MaxTextLength),
						Line:   lineNo,
					})
				}
			}
		}

		if errors.Is(err, io.EOF) {
			return notes, nil
		} else if err != nil {
			return notes, fmt.Errorf("failed to read line %d: %w", lineNo, err)
		}
	}
}

// truncate keeps the first limit runes of s.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	return string([]rune(s)[:limit])
}

// ParseMarkers normalises a list of marker names, which may themselves be comma separated.
// Unknown names result in ErrUnknownMarker.
func ParseMarkers(names []string) ([]string, error) {
	var result []string

	for _, name := range names {
		for _, marker := range strings.Split(name, ",") {
			marker = strings.ToUpper(strings.TrimSpace(marker))
			if marker == "" {
				continue
			}

			if !IsMarker(marker) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownMarker, marker)
			}

			result = append(result, marker)
		}
	}

	return result, nil
}

func IsMarker(name string) bool {
	for _, m := range Markers {
		if m == name {
			return true
		}
	}

	return false
}
