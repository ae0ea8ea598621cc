// Package locator turns a host platform and a base directory into an
// invocation-ready path to the generator binary.
package locator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gnconf/internal/platform"
)

// Kind classifies a LocateError.
type Kind int

const (
	UnsupportedPlatform Kind = iota + 1
	NotFound
	NotExecutable
)

func (k Kind) String() string {
	switch k {
	case UnsupportedPlatform:
		return "unsupported platform"
	case NotFound:
		return "not found"
	case NotExecutable:
		return "not executable"
	default:
		return "unknown"
	}
}

// Sentinel errors matched by LocateError.Is.
var (
	ErrUnsupportedPlatform = errors.New("locate: unsupported platform")
	ErrNotFound            = errors.New("locate: generator not found")
	ErrNotExecutable       = errors.New("locate: generator not executable")
)

// LocateError reports why no ToolPath could be produced. Path is the
// attempted location and is empty for UnsupportedPlatform.
type LocateError struct {
	Kind Kind
	Host platform.Host
	Path string
	Err  error
}

func (e *LocateError) Error() string {
	switch e.Kind {
	case UnsupportedPlatform:
		return fmt.Sprintf("locate gn: host %q has no known binary layout", e.Host)
	case NotFound:
		return fmt.Sprintf("locate gn: %s does not exist", e.Path)
	case NotExecutable:
		if e.Err != nil {
			return fmt.Sprintf("locate gn: %s is not executable: %v", e.Path, e.Err)
		}
		return fmt.Sprintf("locate gn: %s is not executable", e.Path)
	}
	return "locate gn: " + e.Kind.String()
}

func (e *LocateError) Unwrap() error { return e.Err }

// Is lets errors.Is match a LocateError against the Kind sentinels.
func (e *LocateError) Is(target error) bool {
	switch target {
	case ErrUnsupportedPlatform:
		return e.Kind == UnsupportedPlatform
	case ErrNotFound:
		return e.Kind == NotFound
	case ErrNotExecutable:
		return e.Kind == NotExecutable
	}
	return false
}

// ToolPath is an absolute path that was checked to exist and be executable.
// The zero value is not valid.
type ToolPath struct {
	path string
}

func (p ToolPath) String() string { return p.path }

// IsZero reports whether p was never produced by Locate.
func (p ToolPath) IsZero() bool { return p.path == "" }

// statFunc is used to inspect candidates; tests may replace it.
var statFunc = os.Stat

// Locate resolves the generator for host beneath baseDir. It never modifies
// the filesystem.
func Locate(host platform.Host, baseDir string) (ToolPath, error) {
	rel, err := host.ToolRelPath()
	if err != nil {
		return ToolPath{}, &LocateError{Kind: UnsupportedPlatform, Host: host}
	}
	candidate, err := filepath.Abs(filepath.Join(baseDir, filepath.FromSlash(rel)))
	if err != nil {
		return ToolPath{}, &LocateError{Kind: NotFound, Host: host, Path: filepath.Join(baseDir, rel), Err: err}
	}

	info, err := statFunc(candidate)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ToolPath{}, &LocateError{Kind: NotFound, Host: host, Path: candidate}
		}
		return ToolPath{}, &LocateError{Kind: NotExecutable, Host: host, Path: candidate, Err: err}
	}
	if info.IsDir() {
		return ToolPath{}, &LocateError{Kind: NotExecutable, Host: host, Path: candidate, Err: errors.New("is a directory")}
	}
	if !executable(host, candidate, info.Mode()) {
		return ToolPath{}, &LocateError{Kind: NotExecutable, Host: host, Path: candidate}
	}
	return ToolPath{path: candidate}, nil
}

// executable applies the host's notion of "runnable". Windows has no
// execute bit, so the extension decides there.
func executable(host platform.Host, path string, mode os.FileMode) bool {
	if !mode.IsRegular() {
		return false
	}
	if host == platform.Windows || runtime.GOOS == "windows" {
		return strings.EqualFold(filepath.Ext(path), ".exe") || mode&0o111 != 0
	}
	return mode&0o111 != 0
}
