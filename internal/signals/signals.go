//go:build !unix

package signals

import "os"

// Stop returns the signals that end a watch session. Windows only delivers
// Interrupt.
func Stop() []os.Signal {
	return []os.Signal{os.Interrupt}
}
