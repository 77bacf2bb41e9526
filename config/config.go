// Package config handles ember.toml code-generation configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/arctany/ember/asm"
)

// FileName is the configuration file looked up in a project directory.
const FileName = "ember.toml"

// Config represents an ember.toml file.
type Config struct {
	Codegen Codegen `toml:"codegen"`
	Cache   Cache   `toml:"cache"`

	// Dir is the directory containing the ember.toml file (set at load time).
	Dir string `toml:"-"`
}

// Codegen configures emission behavior.
type Codegen struct {
	// CodeComments includes comments into code and disassembly.
	CodeComments bool `toml:"code-comments"`

	// CheckCodePointer verifies finalized code artifacts against their
	// recorded content hash.
	CheckCodePointer bool `toml:"check-code-pointer"`
}

// Cache configures the artifact cache.
type Cache struct {
	Path string `toml:"path"`
}

// Default returns the configuration used when no ember.toml exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Cache.Path == "" {
		c.Cache.Path = "ember-cache.db"
	}
}

// Load parses an ember.toml file from the given directory. A missing
// file is not an error: the defaults are returned.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		c := Default()
		c.Dir = dir
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	c.applyDefaults()
	return &c, nil
}

// AssemblerOptions converts the codegen section into assembler options.
func (c *Config) AssemblerOptions() asm.Options {
	return asm.Options{
		EmitComments:      c.Codegen.CodeComments,
		VerifyCodePointer: c.Codegen.CheckCodePointer,
	}
}

// CachePath returns the artifact cache location, resolved against the
// config directory when relative.
func (c *Config) CachePath() string {
	if filepath.IsAbs(c.Cache.Path) || c.Dir == "" {
		return c.Cache.Path
	}
	return filepath.Join(c.Dir, c.Cache.Path)
}
