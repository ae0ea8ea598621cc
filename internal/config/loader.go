package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"gnconf/internal/genargs"
)

// FileName is the config file looked up in the base directory.
const FileName = "gnconf.yaml"

// EnvConfig names an explicit config file path.
const EnvConfig = "GNCONF_CONFIG"

// Environment overrides applied by ApplyEnv.
const (
	EnvBaseDir   = "GNCONF_BASE_DIR"
	EnvOutDir    = "GNCONF_OUT_DIR"
	EnvHost      = "GNCONF_HOST"
	EnvLogLevel  = "GNCONF_LOG_LEVEL"
	EnvLogFormat = "GNCONF_LOG_FORMAT"
)

// DefaultOutDir is used when neither a flag nor the config names one.
const DefaultOutDir = "build/"

// Config is the on-disk shape of gnconf.yaml.
type Config struct {
	BaseDir   string            `yaml:"base_dir,omitempty"`
	OutDir    string            `yaml:"out_dir,omitempty"`
	Host      string            `yaml:"host,omitempty"`
	LogLevel  string            `yaml:"log_level,omitempty"`
	LogFormat string            `yaml:"log_format,omitempty"`
	Options   genargs.OptionSet `yaml:"options,omitempty"`
	Watch     WatchConfig       `yaml:"watch,omitempty"`
}

// WatchConfig tunes the watch subcommand.
type WatchConfig struct {
	DebounceMS int      `yaml:"debounce_ms,omitempty"`
	Extensions []string `yaml:"extensions,omitempty"`
	Ignore     []string `yaml:"ignore,omitempty"`
}

// marshalFunc and writeFile are used by WriteDefault; tests may replace them to force errors.
var (
	marshalFunc = yaml.Marshal
	writeFile   = os.WriteFile
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		OutDir:    DefaultOutDir,
		LogLevel:  "info",
		LogFormat: "text",
		Options:   genargs.DefaultOptions(),
		Watch: WatchConfig{
			DebounceMS: 200,
			Extensions: []string{".gn", ".gni"},
		},
	}
}

// WriteDefault writes Default() to path as YAML.
func WriteDefault(path string) error {
	data, err := marshalFunc(Default())
	if err != nil {
		return fmt.Errorf("config marshal: %w", err)
	}
	if err := writeFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config write: %w", err)
	}
	return nil
}

// Load reads path strictly (unknown keys are errors) and layers it over
// Default(). A relative base_dir is resolved against the file's directory.
// A missing file returns an error wrapping os.ErrNotExist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	cfg := Default()
	var file Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config parse %s: %w", path, err)
	}
	merge(cfg, &file)
	if cfg.BaseDir != "" && !filepath.IsAbs(cfg.BaseDir) {
		cfg.BaseDir = filepath.Join(filepath.Dir(path), cfg.BaseDir)
	}
	CleanPaths(cfg)
	return cfg, nil
}

func merge(dst, src *Config) {
	if src.BaseDir != "" {
		dst.BaseDir = src.BaseDir
	}
	if src.OutDir != "" {
		dst.OutDir = src.OutDir
	}
	if src.Host != "" {
		dst.Host = src.Host
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.LogFormat != "" {
		dst.LogFormat = src.LogFormat
	}
	// Options replace the defaults wholesale so a file can turn the export off.
	if src.Options != nil {
		dst.Options = src.Options
	}
	if src.Watch.DebounceMS > 0 {
		dst.Watch.DebounceMS = src.Watch.DebounceMS
	}
	if len(src.Watch.Extensions) > 0 {
		dst.Watch.Extensions = src.Watch.Extensions
	}
	if len(src.Watch.Ignore) > 0 {
		dst.Watch.Ignore = src.Watch.Ignore
	}
}

// ApplyEnv overlays GNCONF_* variables on cfg. getenv is usually os.Getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if cfg == nil || getenv == nil {
		return
	}
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.BaseDir, EnvBaseDir)
	set(&cfg.OutDir, EnvOutDir)
	set(&cfg.Host, EnvHost)
	set(&cfg.LogLevel, EnvLogLevel)
	set(&cfg.LogFormat, EnvLogFormat)
}

// CleanPaths applies filepath.Clean to the base dir. The output dir is left
// exactly as written since it is handed to gn verbatim.
func CleanPaths(cfg *Config) {
	if cfg == nil || cfg.BaseDir == "" {
		return
	}
	cfg.BaseDir = filepath.Clean(cfg.BaseDir)
}
