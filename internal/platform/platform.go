// Package platform identifies the host the generator runs on and maps it to
// the tool layout under the base directory.
package platform

import (
	"errors"
	"fmt"
	"path"
	"runtime"
	"strings"
)

// Host is the closed set of platforms gnconf knows a tool layout for.
type Host int

const (
	Unsupported Host = iota
	Linux
	Windows
	MacOS
)

// ErrUnsupported is returned for any host outside the supported set.
var ErrUnsupported = errors.New("unsupported platform")

// toolDir is the root of the per-platform binary layout, relative to the base dir.
const toolDir = "gn/bin"

// Resolve maps a GOOS value to a Host. It has no side effects.
func Resolve(goos string) Host {
	switch goos {
	case "linux":
		return Linux
	case "windows":
		return Windows
	case "darwin":
		return MacOS
	default:
		return Unsupported
	}
}

// ResolveHost resolves the platform of the running process. Call it once per
// run and pass the result down.
func ResolveHost() Host {
	return Resolve(runtime.GOOS)
}

// Parse accepts the names used on the command line and in gnconf.yaml.
func Parse(name string) (Host, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linux":
		return Linux, nil
	case "windows", "win":
		return Windows, nil
	case "macos", "mac", "darwin":
		return MacOS, nil
	default:
		return Unsupported, fmt.Errorf("%w: %q", ErrUnsupported, name)
	}
}

func (h Host) String() string {
	switch h {
	case Linux:
		return "linux"
	case Windows:
		return "windows"
	case MacOS:
		return "macos"
	default:
		return "unsupported"
	}
}

// Supported reports whether h has a tool layout.
func (h Host) Supported() bool {
	return h == Linux || h == Windows || h == MacOS
}

// Segment is the directory under gn/bin holding the host's binary.
func (h Host) Segment() string {
	switch h {
	case Linux:
		return "linux"
	case Windows:
		return "win"
	case MacOS:
		return "mac"
	default:
		return ""
	}
}

// BinaryName is the file name of the generator on h. Only windows carries an
// extension.
func (h Host) BinaryName() string {
	if h == Windows {
		return "gn.exe"
	}
	return "gn"
}

// ToolRelPath returns the slash-separated path of the generator relative to
// the base directory, e.g. "gn/bin/win/gn.exe".
func (h Host) ToolRelPath() (string, error) {
	if !h.Supported() {
		return "", ErrUnsupported
	}
	return path.Join(toolDir, h.Segment(), h.BinaryName()), nil
}
