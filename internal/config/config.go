// Package config implements the compiler's TOML-based configuration, loaded
// from an optional file and overridable by pflag-parsed CLI flags in the
// cmd/ entry points, grounded on the teacher's internal/tqw world-file
// loading (github.com/BurntSushi/toml, `toml:"..."` struct tags).
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the full set of compiler-wide settings not dictated by a single
// source file.
type Config struct {
	// Target is an informational LLVM target triple. The compile pipeline
	// does not read it: the emitted module carries no `target triple` line
	// whatever its value (left to the downstream backend's default).
	Target string `toml:"target"`

	// OptHint is an advisory optimization level (0-3). The pipeline does not
	// read it and it is not written into the emitted module; the core never
	// runs LLVM optimization passes itself (spec §1 scope).
	OptHint int `toml:"opt_hint"`

	// DefaultIntWidth resolves spec §9's Open Question over the default
	// width of an unsuffixed integer literal: sema.Check infers i32 for any
	// unsuffixed int literal unless this names another integer type, in
	// which case that width is used instead.
	DefaultIntWidth string `toml:"default_int_width"`

	// JITSymbols lists the optional runtime-ABI names (beyond abi.Core) that
	// the JIT engine lets a module reference; a module declaring any other
	// optional ABI extern is rejected before execution. The engine does not
	// bind these names itself (spec §4.5, §9).
	JITSymbols []string `toml:"jit_symbols"`

	Cache CacheConfig `toml:"cache"`
}

// CacheConfig controls the compiled-module cache (§C).
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Default returns the configuration used when no file is loaded and no
// flags override it.
func Default() Config {
	return Config{
		OptHint:         0,
		DefaultIntWidth: "i32",
		Cache: CacheConfig{
			Enabled: true,
			Path:    "eac-cache.db",
		},
	}
}

// Load reads a TOML configuration file at path, starting from Default() so
// an omitted field keeps its default rather than zeroing out.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}
