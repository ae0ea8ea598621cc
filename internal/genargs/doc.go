// Package genargs builds the argument vector passed to "gn gen".
//
// Options arrive as a loosely typed OptionSet (from gnconf.yaml or repeated
// --option flags). They are checked against a JSON schema reflected from
// Options so that unknown keys and wrong types are rejected before any
// process is started. Recognized options render as single --name=value
// tokens in the order documented on Options.
package genargs
