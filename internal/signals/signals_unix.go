//go:build unix

package signals

import (
	"os"
	"syscall"
)

// Stop returns the signals that end a watch session, including SIGTERM
// from process managers.
func Stop() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}
