package report_test

import (
	"bytes"
	"testing"

	"github.com/numtide/notes/note"
	"github.com/numtide/notes/report"
	"github.com/stretchr/testify/require"
)

func TestPrint(t *testing.T) {
	as := require.New(t)

	n := note.Note{Marker: "TODO", Text: "handle the empty case", Line: 12}

	// a buffer is not a terminal, so no escape codes are written
	buf := bytes.NewBuffer(nil)
	as.NoError(report.NewPrinter(buf, false).Print("src/app.py", n))
	as.Equal("[TODO] handle the empty case\nsrc/app.py:12\n\n", buf.String())

	buf.Reset()
	as.NoError(report.NewPrinter(buf, true).Print("src/app.py", n))
	as.Equal("TODO handle the empty case\nsrc/app.py:12\n\n", buf.String())
}

func TestSummary(t *testing.T) {
	as := require.New(t)

	buf := bytes.NewBuffer(nil)
	printer := report.NewPrinter(buf, true)

	as.NoError(printer.Summary(7, 0))
	as.Equal("Found 7 notes\n", buf.String())

	buf.Reset()
	as.NoError(printer.Summary(7, 3))
	as.Equal("Found 7 notes (3 ignored)\n", buf.String())

	buf.Reset()
	as.NoError(printer.Summary(0, 0))
	as.Equal("Found 0 notes\n", buf.String())

	buf.Reset()
	as.NoError(report.NewPrinter(buf, false).Summary(7, 3))
	as.Equal("ℹ️ Found 7 notes (3 ignored)\n", buf.String())
}
