// Package config handles stackjs.toml runtime configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by FindAndLoad
const FileName = "stackjs.toml"

// Config represents a stackjs.toml configuration.
type Config struct {
	Modules Modules           `toml:"modules"`
	Memory  map[string]string `toml:"memory"`
	SQLite  SQLite            `toml:"sqlite"`
	Log     Log               `toml:"log"`

	// Dir is the directory containing the stackjs.toml file (set at load time).
	Dir string `toml:"-"`
}

// Modules configures module resolution.
type Modules struct {
	// Cwd is where top-level relative requires start. Relative values are
	// taken from Dir.
	Cwd        string   `toml:"cwd"`
	Extensions []string `toml:"extensions"`
	// Data enables the yaml, toml, cbor and cue loaders.
	Data bool `toml:"data"`
}

// SQLite configures the db:// resolver. An empty path disables it.
type SQLite struct {
	Path string `toml:"path"`
}

// Log configures logging.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no stackjs.toml exists.
func Default() *Config {
	wd, _ := os.Getwd()
	return &Config{
		Modules: Modules{Cwd: wd, Extensions: []string{"js", "json"}, Data: true},
		Memory:  map[string]string{},
		Dir:     wd,
	}
}

// Parse decodes configuration text. dir is used to resolve relative paths.
func Parse(data []byte, dir string) (*Config, error) {
	c := Default()
	c.Modules.Cwd = ""
	c.Modules.Extensions = nil

	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	c.Dir = dir
	if c.Modules.Cwd == "" {
		c.Modules.Cwd = dir
	} else if !filepath.IsAbs(c.Modules.Cwd) {
		c.Modules.Cwd = filepath.Join(dir, c.Modules.Cwd)
	}
	if len(c.Modules.Extensions) == 0 {
		c.Modules.Extensions = []string{"js", "json"}
	}
	for i, ext := range c.Modules.Extensions {
		c.Modules.Extensions[i] = strings.TrimPrefix(ext, ".")
	}
	if c.SQLite.Path != "" && c.SQLite.Path != ":memory:" && !filepath.IsAbs(c.SQLite.Path) {
		c.SQLite.Path = filepath.Join(dir, c.SQLite.Path)
	}
	if c.Log.File != "" && !filepath.IsAbs(c.Log.File) {
		c.Log.File = filepath.Join(dir, c.Log.File)
	}
	if c.Memory == nil {
		c.Memory = map[string]string{}
	}
	return c, nil
}

// Load parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	c, err := Parse(data, dir)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir to find a stackjs.toml file,
// then loads and returns it. Returns Default() if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return Default(), nil
		}
		dir = parent
	}
}
