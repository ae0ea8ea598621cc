package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// isolate points the working directory at a fresh temp dir and clears GNCONF_* lookups.
func isolate(t *testing.T, env map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	prevWd, prevEnv := getwd, getenv
	getwd = func() (string, error) { return dir, nil }
	getenv = func(k string) string { return env[k] }
	t.Cleanup(func() { getwd, getenv = prevWd, prevEnv })
	return dir
}

func installStub(t *testing.T, base, code string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stubs require a unix shell")
	}
	p := filepath.Join(base, "gn", "bin", "linux", "gn")
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	body := "#!/bin/sh\nfor a in \"$@\"; do printf '[%s]\\n' \"$a\"; done\nexit " + code + "\n"
	if err := os.WriteFile(p, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return p
}

func run(args ...string) (int, string, string) {
	var out, errOut bytes.Buffer
	code := runApp(append([]string{"gnconf"}, args...), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRootCommand_WhenVersionFlag_ShouldPrintBuildMetadata(t *testing.T) {
	out := &bytes.Buffer{}
	root := newRootCommand(newBuildMeta("1.0.8", "linux", "amd64"))
	root.SetOut(out)
	root.SetArgs([]string{"--version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := out.String(); got != "gnconf 1.0.8 linux/amd64\n" {
		t.Errorf("unexpected version output %q", got)
	}
}

func TestBuildMeta_WhenEmpty_ShouldUseRuntime(t *testing.T) {
	bm := newBuildMeta("dev", "", "")
	if bm.GoOS != runtime.GOOS || bm.GoArch != runtime.GOARCH {
		t.Errorf("newBuildMeta defaults = %+v", bm)
	}
}

func TestRunApp_WhenStubExits_ShouldPassThroughExitCode(t *testing.T) {
	base := isolate(t, nil)
	installStub(t, base, "3")

	code, out, errOut := run("--host", "linux", "--base-dir", base)
	if code != 3 {
		t.Errorf("exit code = %d, want 3; stderr %q", code, errOut)
	}
	if out != "[gen]\n[build/]\n[--add-export-compile-commands=//*]\n" {
		t.Errorf("unexpected stub output %q", out)
	}
}

func TestRunApp_WhenOutFlag_ShouldOverrideDefault(t *testing.T) {
	base := isolate(t, nil)
	installStub(t, base, "0")

	code, out, _ := run("gen", "-o", "out dir/", "--host", "linux", "--base-dir", base)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out, "[out dir/]\n") {
		t.Errorf("out dir should be one token: %q", out)
	}
}

func TestRunApp_WhenDryRun_ShouldPrintCommandLine(t *testing.T) {
	base := isolate(t, nil)
	stub := installStub(t, base, "9")

	code, out, _ := run("--dry-run", "--host", "linux", "--base-dir", base, "--option", "ide=json")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	want := stub + " gen build/ --ide=json '--add-export-compile-commands=//*'\n"
	if out != want {
		t.Errorf("dry run = %q, want %q", out, want)
	}
}

func TestRunApp_WhenConfigFilePresent_ShouldUseIt(t *testing.T) {
	base := isolate(t, nil)
	installStub(t, base, "0")
	cfg := "out_dir: from-config/\noptions:\n  export_compile_commands: false\n  check: true\n"
	if err := os.WriteFile(filepath.Join(base, "gnconf.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	code, out, _ := run("--host", "linux", "--base-dir", base)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if out != "[gen]\n[from-config/]\n[--check]\n" {
		t.Errorf("config not applied: %q", out)
	}

	code, out, _ = run("--host", "linux", "--base-dir", base, "-o", "flag/")
	if code != 0 || !strings.Contains(out, "[flag/]") {
		t.Errorf("flag should win over config: code %d, %q", code, out)
	}
}

func TestRunApp_WhenEnvSetsOutDir_ShouldApply(t *testing.T) {
	base := isolate(t, map[string]string{"GNCONF_OUT_DIR": "env-out/", "GNCONF_HOST": "linux"})
	installStub(t, base, "0")

	code, out, _ := run("--base-dir", base)
	if code != 0 || !strings.Contains(out, "[env-out/]") {
		t.Errorf("env not applied: code %d, %q", code, out)
	}
}

func TestRunApp_WhenUnknownOption_ShouldExitOne(t *testing.T) {
	base := isolate(t, nil)
	installStub(t, base, "0")

	code, out, errOut := run("--host", "linux", "--base-dir", base, "--option", "turbo=true")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if out != "" {
		t.Errorf("generator must not run, got output %q", out)
	}
	if !strings.Contains(errOut, "turbo") {
		t.Errorf("stderr should name the option: %q", errOut)
	}
}

func TestRunApp_WhenBinaryMissing_ShouldExitOne(t *testing.T) {
	base := isolate(t, nil)
	code, _, errOut := run("--host", "windows", "--base-dir", base)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(errOut, "gn.exe") {
		t.Errorf("stderr should name gn.exe: %q", errOut)
	}
}

func TestRunApp_WhenBadFlag_ShouldExitTwo(t *testing.T) {
	isolate(t, nil)
	code, _, errOut := run("--no-such-flag")
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(errOut, "--help") {
		t.Errorf("expected usage hint, got %q", errOut)
	}
}

func TestRunApp_WhenUnexpectedArgument_ShouldExitTwo(t *testing.T) {
	isolate(t, nil)
	if code, _, _ := run("gen", "extra"); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if code, _, _ := run("frobnicate"); code != 2 {
		t.Errorf("unknown command: exit code = %d, want 2", code)
	}
}

func TestRunApp_WhenExplicitConfigMissing_ShouldExitOne(t *testing.T) {
	base := isolate(t, nil)
	code, _, errOut := run("--config", filepath.Join(base, "nope.yaml"), "--base-dir", base)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(errOut, "nope.yaml") {
		t.Errorf("stderr should name the file: %q", errOut)
	}
}

func TestRunApp_WhenHostInvalid_ShouldExitOne(t *testing.T) {
	base := isolate(t, nil)
	if code, _, _ := run("--host", "beos", "--base-dir", base); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestRunApp_WhenLogLevelInvalid_ShouldExitOne(t *testing.T) {
	base := isolate(t, nil)
	if code, _, _ := run("--log-level", "chatty", "--base-dir", base); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestRunApp_Locate_ShouldPrintPath(t *testing.T) {
	base := isolate(t, nil)
	stub := installStub(t, base, "0")

	code, out, _ := run("locate", "--host", "linux", "--base-dir", base)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if strings.TrimSpace(out) != stub {
		t.Errorf("locate printed %q, want %q", out, stub)
	}
}

func TestRunApp_Init_ShouldWriteConfigIntoBaseDir(t *testing.T) {
	base := isolate(t, nil)

	code, out, _ := run("init", "--base-dir", base)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if _, err := os.Stat(filepath.Join(base, "gnconf.yaml")); err != nil {
		t.Errorf("config not written: %v (%s)", err, out)
	}
}

func TestRunApp_Doctor_WhenMissingBinary_ShouldExitOne(t *testing.T) {
	base := isolate(t, nil)
	code, out, _ := run("doctor", "--host", "linux", "--base-dir", base)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(out, "Generator") {
		t.Errorf("doctor output missing generator check: %s", out)
	}
}

func TestRunApp_Options_ShouldPrintSchema(t *testing.T) {
	isolate(t, nil)
	code, out, _ := run("options")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out, "export_compile_commands") {
		t.Errorf("schema should list export_compile_commands: %s", out)
	}
}
