package cli

import (
	"fmt"
	"io"
	"os"
)

// RunInit writes a default gnconf.yaml to path. An existing file is kept
// unless force is set.
func RunInit(path string, force bool, stdout, stderr io.Writer) int {
	if _, err := osStat(path); err == nil && !force {
		fmt.Fprintf(stdout, "  [Config] %s already exists; use --force to overwrite.\n", path)
		return ExitOK
	} else if err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(stderr, "  failed to check %s: %v\n", path, err)
		return ExitFailure
	}
	if err := configWriteDefault(path); err != nil {
		fmt.Fprintf(stderr, "  failed to write default config: %v\n", err)
		return ExitFailure
	}
	fmt.Fprintf(stdout, "  [Config] Wrote default config to %s.\n", path)
	return ExitOK
}
