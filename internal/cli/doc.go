// Package cli composes the platform, locator, genargs and invoker packages
// into the gnconf subcommands and maps their outcomes to process exit codes.
// It owns no flag parsing; cmd/gnconf resolves a Request and calls in here.
package cli
