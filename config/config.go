package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/numtide/notes/note"
	"github.com/numtide/notes/walk"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultIgnoreFile is the project local file ignore patterns are read from.
const DefaultIgnoreFile = ".noteignore"

// FileNames are searched for, in order, when looking for a config file.
//
//nolint:gochecknoglobals
var FileNames = []string{"notes.toml", ".notes.toml"}

// Config holds the settings for a scan, merged from flags, env and an optional config file.
type Config struct {
	ClearCache       bool     `mapstructure:"clear-cache" toml:"-"` // not allowed in config
	Ignore           []string `mapstructure:"ignore" toml:"ignore,omitempty"`
	IgnoreFile       string   `mapstructure:"ignore-file" toml:"ignore-file,omitempty"`
	NoCache          bool     `mapstructure:"no-cache" toml:"no-cache,omitempty"`
	NoColor          bool     `mapstructure:"no-color" toml:"no-color,omitempty"`
	Only             []string `mapstructure:"only" toml:"only,omitempty"`
	Quiet            bool     `mapstructure:"quiet" toml:"quiet,omitempty"`
	Verbose          uint8    `mapstructure:"verbose" toml:"verbose,omitempty"`
	Walk             string   `mapstructure:"walk" toml:"walk,omitempty"`
	WorkingDirectory string   `mapstructure:"working-dir" toml:"-"`
}

// SetFlags appends our flags to the provided flag set.
// We have a flag matching each entry in Config, taking care to ensure the name matches the field name defined in the
// mapstructure tag.
func SetFlags(fs *pflag.FlagSet) {
	fs.BoolP(
		"clear-cache", "c", false,
		"Reset the scan cache. Use in case the cache is not precise enough. (env $NOTES_CLEAR_CACHE)",
	)
	fs.StringSliceP(
		"ignore", "i", nil,
		"Ignore files or directories matching the given pattern. Can be set multiple times. When set, neither "+
			"the ignore file nor the default patterns are used. (env $NOTES_IGNORE)",
	)
	fs.String(
		"ignore-file", DefaultIgnoreFile,
		"File to read ignore patterns from, one per line, when no --ignore patterns are given. "+
			"(env $NOTES_IGNORE_FILE)",
	)
	fs.Bool(
		"no-cache", false,
		"Ignore the scan cache entirely. (env $NOTES_NO_CACHE)",
	)
	fs.Bool(
		"no-color", false,
		"Disable color. (env $NOTES_NO_COLOR)",
	)
	fs.StringSliceP(
		"only", "o", nil,
		"Only report the given markers, e.g. --only TODO,FIXME. Defaults to all markers: "+
			strings.Join(note.Markers, ", ")+". (env $NOTES_ONLY)",
	)
	fs.BoolP(
		"quiet", "q", false,
		"Only log errors. (env $NOTES_QUIET)",
	)
	fs.CountP(
		"verbose", "v",
		"Set the verbosity of logs e.g. -vv. (env $NOTES_VERBOSE)",
	)
	fs.String(
		"walk", walk.Filesystem.String(),
		"The method used to traverse the files within the working directory. Currently supports "+
			"<auto|git|filesystem>. (env $NOTES_WALK)",
	)
	fs.StringP(
		"working-dir", "C", ".",
		"Run as if notes was started in the specified working directory instead of the current working "+
			"directory. (env $NOTES_WORKING_DIR)",
	)
}

// NewViper creates a Viper instance pre-configured with the following options:
// * TOML config type
// * automatic env enabled
// * `NOTES_` env prefix for environment variables
// * replacement of `-` and `.` with `_` when mapping flags to env e.g. `ignore-file` => `NOTES_IGNORE_FILE`.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetConfigType("toml")

	v.SetEnvPrefix("notes")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	return v
}

// FromViper takes a viper instance and produces a Config instance.
func FromViper(v *viper.Viper) (*Config, error) {
	configReset := map[string]any{
		"clear-cache": false,
		"working-dir": ".",
	}

	// reset certain values which are not allowed to be specified in the config file
	if err := v.MergeConfigMap(configReset); err != nil {
		return nil, fmt.Errorf("failed to overwrite config values: %w", err)
	}

	var err error

	cfg := &Config{}

	if err = v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.WorkingDirectory, err = filepath.Abs(cfg.WorkingDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for working directory: %w", err)
	}

	if cfg.Walk == "" {
		cfg.Walk = walk.Filesystem.String()
	}

	if _, err = walk.TypeString(cfg.Walk); err != nil {
		return nil, fmt.Errorf("invalid walk type: %w", err)
	}

	if cfg.Only, err = note.ParseMarkers(cfg.Only); err != nil {
		return nil, fmt.Errorf("invalid only value: %w", err)
	} else if len(cfg.Only) == 0 {
		cfg.Only = note.Markers
	}

	// an ignore file given as a relative path is resolved against the working directory
	if cfg.IgnoreFile != "" && !filepath.IsAbs(cfg.IgnoreFile) {
		cfg.IgnoreFile = filepath.Join(cfg.WorkingDirectory, cfg.IgnoreFile)
	}

	l := log.WithPrefix("config")
	l.Debugf("walk = %s, only = %v", cfg.Walk, cfg.Only)

	return cfg, nil
}

// FindUp searches searchDir and each of its parents for the first of fileNames which exists, returning its path and
// the directory it was found in.
func FindUp(searchDir string, fileNames ...string) (path string, dir string, err error) {
	for _, dir := range eachDir(searchDir) {
		for _, f := range fileNames {
			path := filepath.Join(dir, f)
			if fileExists(path) {
				return path, dir, nil
			}
		}
	}

	return "", "", fmt.Errorf("could not find %s in %s", fileNames, searchDir)
}

func eachDir(path string) (paths []string) {
	path, err := filepath.Abs(path)
	if err != nil {
		return
	}

	paths = []string{path}

	if path == "/" {
		return
	}

	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == os.PathSeparator {
			path = path[:i]
			if path == "" {
				path = "/"
			}

			paths = append(paths, path)
		}
	}

	return
}

func fileExists(path string) bool {
	// Some broken filesystems like SSHFS return file information on stat() but
	// then cannot open the file. So we use os.Open.
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	// Next, check that the file is a regular file.
	fi, err := f.Stat()
	if err != nil {
		return false
	}

	return fi.Mode().IsRegular()
}
