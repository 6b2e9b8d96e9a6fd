package init_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	_init "github.com/numtide/notes/cmd/init"
	"github.com/numtide/notes/matcher"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	as := require.New(t)

	dir := t.TempDir()
	out := bytes.NewBuffer(nil)

	as.NoError(_init.Run(dir, out))
	as.Equal("Generated .noteignore. Now it's your turn to edit it.\n", out.String())

	contents, err := os.ReadFile(filepath.Join(dir, ".noteignore"))
	as.NoError(err)
	as.Equal(matcher.DefaultFileContents(), contents)

	// never overwrite
	as.NoError(os.WriteFile(filepath.Join(dir, ".noteignore"), []byte("build/\n"), 0o644))

	err = _init.Run(dir, out)
	as.ErrorIs(err, _init.ErrExists)

	contents, err = os.ReadFile(filepath.Join(dir, ".noteignore"))
	as.NoError(err)
	as.Equal("build/\n", string(contents))
}
