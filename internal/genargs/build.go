package genargs

import (
	"errors"

	"gnconf/internal/locator"
)

// Subcommand is always the first token of the argument vector.
const Subcommand = "gen"

// Build renders the argument vector for "gn gen". outDir is passed through
// as a single token exactly as given. Build performs no I/O and returns the
// same vector for the same input.
func Build(outDir string, set OptionSet) ([]string, error) {
	if outDir == "" {
		return nil, &ConfigurationError{Err: errors.New("output directory must not be empty")}
	}
	opts, err := Decode(set)
	if err != nil {
		return nil, err
	}
	return opts.render(outDir), nil
}

func (o Options) render(outDir string) []string {
	args := []string{Subcommand, outDir}
	if o.Root != "" {
		args = append(args, "--root="+o.Root)
	}
	if o.Dotfile != "" {
		args = append(args, "--dotfile="+o.Dotfile)
	}
	if o.Args != "" {
		args = append(args, "--args="+o.Args)
	}
	if o.IDE != "" {
		args = append(args, "--ide="+o.IDE)
	}
	if o.ExportCompileCommands {
		pattern := o.ExportCompileCommandsPattern
		if pattern == "" {
			pattern = DefaultCompileCommandsPattern
		}
		args = append(args, "--add-export-compile-commands="+pattern)
	}
	if o.Check {
		args = append(args, "--check")
	}
	return args
}

// Invocation pairs a located tool with the arguments it will receive.
type Invocation struct {
	Tool locator.ToolPath
	Args []string
}

// NewInvocation builds the argument vector and binds it to tool.
func NewInvocation(tool locator.ToolPath, outDir string, set OptionSet) (Invocation, error) {
	if tool.IsZero() {
		return Invocation{}, &ConfigurationError{Err: errors.New("tool path has not been located")}
	}
	args, err := Build(outDir, set)
	if err != nil {
		return Invocation{}, err
	}
	return Invocation{Tool: tool, Args: args}, nil
}
