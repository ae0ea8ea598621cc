package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gnconf/internal/genargs"
	"gnconf/internal/invoker"
	"gnconf/internal/locator"
	"gnconf/internal/platform"
)

// Exit codes used before or instead of the generator's own code.
const (
	ExitOK      = 0
	ExitFailure = 1 // resolution, configuration or spawn failure; also a signal-killed child
	ExitUsage   = 2 // bad command line
)

// Request is everything one pipeline run needs. Host is resolved once by
// the caller and never re-read from the environment.
type Request struct {
	Host    platform.Host
	BaseDir string
	OutDir  string
	Options genargs.OptionSet
}

// Streams are handed to the generator unchanged.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Prepare runs the locator and the argument builder. No process is started.
func Prepare(req Request) (genargs.Invocation, error) {
	tool, err := locateFn(req.Host, req.BaseDir)
	if err != nil {
		return genargs.Invocation{}, err
	}
	inv, err := genargs.NewInvocation(tool, req.OutDir, req.Options)
	if err != nil {
		return genargs.Invocation{}, err
	}
	return inv, nil
}

// GenOptions control RunGen.
type GenOptions struct {
	DryRun bool // print the command line instead of running it
	Logger *slog.Logger
}

// RunGen locates gn, builds its arguments and runs it from the base
// directory, so a relative OutDir lands beneath it. The returned code is
// the generator's exit code, or ExitFailure if it never ran.
func RunGen(req Request, s Streams, opts GenOptions) int {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	inv, err := Prepare(req)
	if err != nil {
		reportError(s.Err, err)
		logger.Debug("generation aborted before spawn", "error", err)
		return ExitFailure
	}
	logger.Debug("generating build files", "host", req.Host.String(), "tool", inv.Tool.String(), "out", req.OutDir)

	if opts.DryRun {
		fmt.Fprintln(s.Out, CommandLine(inv))
		return ExitOK
	}

	res, err := newInvoker(
		invoker.WithStreams(s.In, s.Out, s.Err),
		invoker.WithDir(req.BaseDir),
		invoker.WithLogger(logger),
	).Invoke(inv)
	if err != nil {
		reportError(s.Err, err)
		return ExitFailure
	}
	return exitCode(res, logger)
}

func exitCode(res invoker.Result, logger *slog.Logger) int {
	if res.ExitCode < 0 {
		logger.Warn("generator terminated by signal")
		return ExitFailure
	}
	if res.ExitCode != 0 {
		logger.Debug("generator reported failure", "exit_code", res.ExitCode)
	}
	return res.ExitCode
}

// reportError writes a one-line diagnosis with a hint for the known kinds.
func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "gnconf: %v\n", err)
	var le *locator.LocateError
	switch {
	case errors.Is(err, locator.ErrUnsupportedPlatform):
		fmt.Fprintln(w, "  hint: pass --host linux|windows|macos to pick a binary layout explicitly")
	case errors.As(err, &le) && le.Kind == locator.NotFound:
		fmt.Fprintln(w, "  hint: set --base-dir to the directory containing gn/bin/")
	case errors.As(err, &le) && le.Kind == locator.NotExecutable:
		fmt.Fprintf(w, "  hint: chmod +x %s\n", le.Path)
	case errors.Is(err, genargs.ErrConfiguration):
		fmt.Fprintf(w, "  hint: recognized options are %s\n", strings.Join(genargs.Keys(), ", "))
	}
}

// CommandLine renders inv as a POSIX shell command line. Tokens holding
// anything beyond a conservative safe set are single-quoted, so the output
// can be pasted into sh. gnconf itself never runs it through a shell.
func CommandLine(inv genargs.Invocation) string {
	parts := make([]string, 0, len(inv.Args)+1)
	for _, a := range append([]string{inv.Tool.String()}, inv.Args...) {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, unsafeShellRune) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// unsafeShellRune reports runes outside [A-Za-z0-9@%+=:,./_-]. The '*' of
// gn label patterns is unsafe too since sh would glob it.
func unsafeShellRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("@%+=:,./_-", r)
}

// RunLocate prints the located tool path.
func RunLocate(req Request, stdout, stderr io.Writer) int {
	tool, err := locateFn(req.Host, req.BaseDir)
	if err != nil {
		reportError(stderr, err)
		return ExitFailure
	}
	fmt.Fprintln(stdout, tool.String())
	return ExitOK
}
