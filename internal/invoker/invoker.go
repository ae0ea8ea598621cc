// Package invoker runs the located generator as a child process with the
// caller's standard streams attached.
package invoker

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"gnconf/internal/genargs"
	"gnconf/internal/locator"
)

// ErrSpawnFailed is matched by every SpawnError.
var ErrSpawnFailed = errors.New("spawn failed")

// SpawnError reports that the operating system refused to start the child.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

func (e *SpawnError) Is(target error) bool { return target == ErrSpawnFailed }

// Result is the outcome of a started child. A non-zero ExitCode is the
// child's own verdict, not an error of the invoker. ExitCode is -1 when the
// child was terminated by a signal.
type Result struct {
	ExitCode int
	Started  bool
}

// State is the lifecycle of a single invocation.
type State int

const (
	NotStarted State = iota
	Spawning
	Running
	Exited
	SpawnFailed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Spawning:
		return "spawning"
	case Running:
		return "running"
	case Exited:
		return "exited"
	case SpawnFailed:
		return "spawn-failed"
	default:
		return "unknown"
	}
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithLogger sets a structured logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(i *Invoker) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithStreams overrides the streams handed to the child. Nil readers or
// writers keep the process defaults.
func WithStreams(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(i *Invoker) {
		if stdin != nil {
			i.stdin = stdin
		}
		if stdout != nil {
			i.stdout = stdout
		}
		if stderr != nil {
			i.stderr = stderr
		}
	}
}

// WithDir sets the child's working directory. Empty keeps the caller's.
func WithDir(dir string) Option {
	return func(i *Invoker) { i.dir = dir }
}

// WithStateHook registers a callback receiving every state transition.
func WithStateHook(fn func(State)) Option {
	return func(i *Invoker) { i.onState = fn }
}

// Invoker spawns one child per Run call and never retries.
type Invoker struct {
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	dir     string
	logger  *slog.Logger
	onState func(State)
}

// New returns an Invoker wired to os.Stdin, os.Stdout and os.Stderr.
func New(opts ...Option) *Invoker {
	i := &Invoker{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Invoker) log() *slog.Logger {
	if i.logger != nil {
		return i.logger
	}
	return slog.Default()
}

func (i *Invoker) transition(s State) {
	if i.onState != nil {
		i.onState(s)
	}
}

// errUnlocated rejects the zero ToolPath before anything is spawned.
var errUnlocated = errors.New("tool path has not been located")

// Run starts tool with args as discrete argv entries (no shell), waits for
// it to exit, and reports its exit code. It blocks for as long as the child
// runs; there is no timeout.
func (i *Invoker) Run(tool locator.ToolPath, args []string) (Result, error) {
	i.transition(NotStarted)
	path := tool.String()
	if tool.IsZero() {
		i.transition(SpawnFailed)
		return Result{}, &SpawnError{Path: path, Err: errUnlocated}
	}
	cmd := exec.Command(path, args...)
	cmd.Stdin = i.stdin
	cmd.Stdout = i.stdout
	cmd.Stderr = i.stderr
	cmd.Dir = i.dir

	i.transition(Spawning)
	i.log().Debug("spawning generator", "path", path, "args", args)
	start := time.Now()
	if err := cmd.Start(); err != nil {
		i.transition(SpawnFailed)
		return Result{}, &SpawnError{Path: path, Err: err}
	}
	i.transition(Running)

	err := cmd.Wait()
	i.transition(Exited)
	res := Result{Started: true, ExitCode: -1}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// Stream copy failures after a successful start; the exit code is still authoritative.
		i.log().Warn("generator stream error", "path", path, "error", err)
	}
	i.log().Debug("generator exited", "path", path, "exit_code", res.ExitCode, "elapsed", time.Since(start))
	return res, nil
}

// Invoke runs a prepared invocation.
func (i *Invoker) Invoke(inv genargs.Invocation) (Result, error) {
	return i.Run(inv.Tool, inv.Args)
}

// Run is shorthand for New().Run using the process's own streams.
func Run(tool locator.ToolPath, args []string) (Result, error) {
	return New().Run(tool, args)
}
