package cli

import (
	"os"

	"gnconf/internal/config"
	"gnconf/internal/invoker"
	"gnconf/internal/locator"
)

// Function variables for dependency injection in tests.
// Default values are the real implementations; tests may temporarily swap them.
var (
	osStat             = os.Stat
	locateFn           = locator.Locate
	inspectFn          = locator.Inspect
	configWriteDefault = config.WriteDefault
	newInvoker         = invoker.New
)
