package fst

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config holds the process-level tunables the library consults. It is
// an explicit structure rather than ambient flag state so tests and
// embedders can swap it wholesale.
type Config struct {
	// ReadMode is the default materialization mode for mappable
	// encodings: "read" (in-memory copy) or "map" (memory-mapped).
	ReadMode string `yaml:"read_mode"`

	// VerifyProperties forces property queries to recompute unknown
	// predicates instead of trusting the cached mask.
	VerifyProperties bool `yaml:"verify_properties"`

	// CacheGCLimit is the byte threshold handed to the lazy-evaluation
	// cache collector. The collector lives outside this package; the
	// value is only carried here.
	CacheGCLimit int64 `yaml:"cache_gc_limit"`

	// AlignWrites pads fixed-width encoding bodies to an aligned
	// offset so they can be memory-mapped without copying.
	AlignWrites bool `yaml:"align_writes"`

	// Verbosity is the logging level: 0 warn and up, 1 info, 2+ debug.
	Verbosity int `yaml:"verbosity"`
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() Config {
	return Config{
		ReadMode:     "read",
		CacheGCLimit: 1 << 20,
	}
}

var (
	configMu      sync.RWMutex
	processConfig = DefaultConfig()
)

// ProcessConfig returns the current process-level configuration.
func ProcessConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return processConfig
}

// SetProcessConfig replaces the process-level configuration.
func SetProcessConfig(c Config) {
	configMu.Lock()
	defer configMu.Unlock()
	processConfig = c
}

// LoadConfig reads a YAML configuration file, layering it over the
// defaults.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("load config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

// LogLevel maps the numeric verbosity to a slog level.
func (c Config) LogLevel() slog.Level {
	switch {
	case c.Verbosity >= 2:
		return slog.LevelDebug
	case c.Verbosity == 1:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}
