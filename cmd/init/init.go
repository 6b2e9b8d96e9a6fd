package init

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/numtide/notes/config"
	"github.com/numtide/notes/matcher"
)

var ErrExists = errors.New("ignore file already exists")

// Run writes an ignore file containing the default patterns into dir. An existing file is never overwritten.
func Run(dir string, out io.Writer) error {
	path := filepath.Join(dir, config.DefaultIgnoreFile)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrExists, path)
	} else if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err = f.Write(matcher.DefaultFileContents()); err != nil {
		_ = f.Close()

		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(out, "Generated %s. Now it's your turn to edit it.\n", config.DefaultIgnoreFile)

	return nil
}
