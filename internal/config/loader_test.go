package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gnconf/internal/genargs"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, FileName)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_WhenMissing_ShouldWrapErrNotExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), FileName))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestLoad_WhenEmpty_ShouldReturnDefaults(t *testing.T) {
	p := writeConfig(t, t.TempDir(), "")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_ShouldLayerFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	p := writeConfig(t, dir, `
out_dir: out dir/
base_dir: third_party
log_level: debug
options:
  ide: json
  check: true
watch:
  debounce_ms: 50
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutDir != "out dir/" {
		t.Errorf("OutDir = %q", cfg.OutDir)
	}
	if cfg.BaseDir != filepath.Join(dir, "third_party") {
		t.Errorf("relative base_dir should resolve against the config dir, got %q", cfg.BaseDir)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "text" {
		t.Errorf("log settings = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if diff := cmp.Diff(genargs.OptionSet{"ide": "json", "check": true}, cfg.Options); diff != "" {
		t.Errorf("Options mismatch (-want +got):\n%s", diff)
	}
	if cfg.Watch.DebounceMS != 50 {
		t.Errorf("DebounceMS = %d", cfg.Watch.DebounceMS)
	}
	if diff := cmp.Diff([]string{".gn", ".gni"}, cfg.Watch.Extensions); diff != "" {
		t.Errorf("Extensions should keep defaults (-want +got):\n%s", diff)
	}
}

func TestLoad_WhenUnknownKey_ShouldFail(t *testing.T) {
	p := writeConfig(t, t.TempDir(), "outdir: build/\n")
	_, err := Load(p)
	if err == nil || !strings.Contains(err.Error(), "config parse") {
		t.Errorf("expected parse error for unknown key, got %v", err)
	}
}

func TestLoad_WhenInvalidYAML_ShouldFail(t *testing.T) {
	p := writeConfig(t, t.TempDir(), "out_dir: [unterminated\n")
	if _, err := Load(p); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestWriteDefault_ShouldRoundTripThroughLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), FileName)
	if err := WriteDefault(p); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteDefault_WhenWriteFails_ShouldReturnError(t *testing.T) {
	prev := writeFile
	defer func() { writeFile = prev }()
	writeFile = func(string, []byte, os.FileMode) error { return errors.New("disk full") }

	if err := WriteDefault(filepath.Join(t.TempDir(), FileName)); err == nil {
		t.Error("expected error")
	}
}

func TestWriteDefault_WhenMarshalFails_ShouldReturnError(t *testing.T) {
	prev := marshalFunc
	defer func() { marshalFunc = prev }()
	marshalFunc = func(any) ([]byte, error) { return nil, errors.New("boom") }

	if err := WriteDefault(filepath.Join(t.TempDir(), FileName)); err == nil {
		t.Error("expected error")
	}
}

func TestApplyEnv_ShouldOverrideNonEmptyValues(t *testing.T) {
	cfg := Default()
	env := map[string]string{
		EnvOutDir:    "out/",
		EnvHost:      "windows",
		EnvLogFormat: "json",
	}
	ApplyEnv(cfg, func(k string) string { return env[k] })
	if cfg.OutDir != "out/" || cfg.Host != "windows" || cfg.LogFormat != "json" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("unset variables must not clear values, LogLevel = %q", cfg.LogLevel)
	}
}

func TestApplyEnv_WhenNil_ShouldNotPanic(t *testing.T) {
	ApplyEnv(nil, os.Getenv)
	ApplyEnv(Default(), nil)
}

func TestCleanPaths_ShouldLeaveOutDirVerbatim(t *testing.T) {
	cfg := &Config{BaseDir: "a/../b/", OutDir: "build/"}
	CleanPaths(cfg)
	if cfg.BaseDir != "b" {
		t.Errorf("BaseDir = %q", cfg.BaseDir)
	}
	if cfg.OutDir != "build/" {
		t.Errorf("OutDir = %q, trailing slash must survive", cfg.OutDir)
	}
}
