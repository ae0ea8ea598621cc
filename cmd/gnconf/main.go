package main

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"gnconf/internal/cli"
	"gnconf/internal/genargs"
	"gnconf/internal/signals"
)

// buildMeta holds version and build metadata (injectable via ldflags).
type buildMeta struct {
	Version string
	GoOS    string
	GoArch  string
}

func newBuildMeta(version, goos, goarch string) buildMeta {
	if goos == "" {
		goos = runtime.GOOS
	}
	if goarch == "" {
		goarch = runtime.GOARCH
	}
	return buildMeta{Version: version, GoOS: goos, GoArch: goarch}
}

func (m buildMeta) String() string {
	return fmt.Sprintf("gnconf %s %s/%s", m.Version, m.GoOS, m.GoArch)
}

// version is set at build time via ldflags, e.g.:
//
//	go build -ldflags "-X main.version=1.2.0" -o gnconf ./cmd/gnconf
var version string

func getVersion() string {
	if version != "" {
		return version
	}
	return "dev"
}

// exitCodeErr carries an exit code for the process. When returned from a command, runApp exits with that code.
type exitCodeErr int

func (e exitCodeErr) Error() string { return fmt.Sprintf("exit %d", int(e)) }
func (e exitCodeErr) ExitCode() int { return int(e) }

// codeErr turns a subcommand's exit code into a RunE result.
func codeErr(code int) error {
	if code == cli.ExitOK {
		return nil
	}
	return exitCodeErr(code)
}

// usageErr marks a command-line mistake; runApp maps it to cli.ExitUsage.
type usageErr struct{ err error }

func (e usageErr) Error() string { return e.err.Error() }
func (e usageErr) Unwrap() error { return e.err }

func streamsOf(cmd *cobra.Command) cli.Streams {
	return cli.Streams{In: cmd.InOrStdin(), Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()}
}

func newRootCommand(bm buildMeta) *cobra.Command {
	var dryRun bool
	genRun := func(cmd *cobra.Command, args []string) error {
		st, err := resolveSettings(cmd)
		if err != nil {
			return err
		}
		return codeErr(cli.RunGen(st.Request, streamsOf(cmd), cli.GenOptions{DryRun: dryRun, Logger: st.Logger}))
	}

	root := &cobra.Command{
		Use:   "gnconf",
		Short: "Generate build files with the bundled gn",
		Long: "gnconf locates the gn binary for this host under <base>/gn/bin/ and runs\n" +
			"  gn gen <out> --add-export-compile-commands=//*\n" +
			"passing gn's exit code through as its own.",
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), bm.String())
				return nil
			}
			return genRun(cmd, args)
		},
	}
	root.Flags().BoolP("version", "V", false, "print version and build metadata")
	root.Flags().BoolVar(&dryRun, "dry-run", false, "print the gn command line without running it")
	addSettingsFlags(root.PersistentFlags())
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageErr{err} })

	genCmd := &cobra.Command{
		Use:   "gen",
		Short: "Run gn gen (the default action)",
		Args:  usageArgs(cobra.NoArgs),
		RunE:  genRun,
	}
	genCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the gn command line without running it")
	root.AddCommand(genCmd)

	locateCmd := &cobra.Command{
		Use:   "locate",
		Short: "Print the path of the gn binary for the host",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := resolveSettings(cmd)
			if err != nil {
				return err
			}
			return codeErr(cli.RunLocate(st.Request, cmd.OutOrStdout(), cmd.ErrOrStderr()))
		},
	}
	root.AddCommand(locateCmd)

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check host, binary layout, options and output directory",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := resolveSettings(cmd)
			if err != nil {
				return err
			}
			return codeErr(cli.RunDoctor(st.Request, cmd.OutOrStdout(), cmd.ErrOrStderr()))
		},
	}
	root.AddCommand(doctorCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default gnconf.yaml",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			path, err := initPath(cmd)
			if err != nil {
				return err
			}
			return codeErr(cli.RunInit(path, force, cmd.OutOrStdout(), cmd.ErrOrStderr()))
		},
	}
	initCmd.Flags().Bool("force", false, "overwrite an existing config file")
	root.AddCommand(initCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Generate, then regenerate whenever .gn/.gni files change",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := resolveSettings(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signals.NotifyContext(cmd.Context())
			defer stop()
			return codeErr(cli.RunWatch(ctx, st.Request, st.Watch, streamsOf(cmd), cli.GenOptions{Logger: st.Logger}))
		},
	}
	root.AddCommand(watchCmd)

	optionsCmd := &cobra.Command{
		Use:   "options",
		Short: "Print the recognized gn options as a JSON schema",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := genargs.Schema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}
	root.AddCommand(optionsCmd)

	return root
}

// usageArgs wraps a positional-args validator so its errors map to ExitUsage.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return usageErr{err}
		}
		return nil
	}
}

// runApp runs the root command with the given args and returns the exit code.
func runApp(args []string, stdout, stderr io.Writer) int {
	bm := newBuildMeta(getVersion(), "", "")
	root := newRootCommand(bm)
	root.SetArgs(args[1:])
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		if ec, ok := err.(interface{ ExitCode() int }); ok {
			return ec.ExitCode()
		}
		fmt.Fprintf(stderr, "gnconf: %v\n", err)
		if _, ok := err.(usageErr); ok || strings.HasPrefix(err.Error(), "unknown command") {
			fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", root.CommandPath())
			return cli.ExitUsage
		}
		return cli.ExitFailure
	}
	return cli.ExitOK
}
