// Package config loads gnconf.yaml and layers GNCONF_* environment
// overrides on top of it. Command-line flags are applied last by the caller.
package config
