package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"gnconf/internal/cli"
	"gnconf/internal/config"
	"gnconf/internal/genargs"
	"gnconf/internal/logging"
	"gnconf/internal/platform"
	"gnconf/internal/workspace"
)

// settings is the fully resolved input for one subcommand.
type settings struct {
	Request cli.Request
	Watch   config.WatchConfig
	Logger  *slog.Logger
}

// getwd and getenv are swapped by tests.
var (
	getwd  = os.Getwd
	getenv = os.Getenv
)

func addSettingsFlags(fs *pflag.FlagSet) {
	fs.StringP("out", "o", config.DefaultOutDir, "output destination directory")
	fs.String("base-dir", "", "directory containing gn/bin/ (default: git worktree root, else the working directory)")
	fs.StringP("config", "c", "", "config file (default: <base-dir>/"+config.FileName+", or $"+config.EnvConfig+")")
	fs.String("host", "", "platform layout to use: linux, windows or macos (default: this host)")
	fs.StringArray("option", nil, "gn option as key=value; repeatable (see 'gnconf options')")
	fs.String("log-level", "", "log level: debug, info, warn or error")
	fs.String("log-format", "", "log format: text or json")
}

// guessBaseDir applies --base-dir, then $GNCONF_BASE_DIR, then the worktree root.
func guessBaseDir(flags *pflag.FlagSet) (string, error) {
	cwd, err := getwd()
	if err != nil {
		return "", fmt.Errorf("working directory: %w", err)
	}
	explicit, _ := flags.GetString("base-dir")
	if explicit == "" {
		explicit = getenv(config.EnvBaseDir)
	}
	return workspace.BaseDir(explicit, cwd)
}

// configPath returns the config file to read and whether the user named it.
func configPath(flags *pflag.FlagSet, base string) (string, bool) {
	if p, _ := flags.GetString("config"); p != "" {
		return p, true
	}
	if p := getenv(config.EnvConfig); p != "" {
		return p, true
	}
	return filepath.Join(base, config.FileName), false
}

func initPath(cmd *cobra.Command) (string, error) {
	base, err := guessBaseDir(cmd.Flags())
	if err != nil {
		return "", err
	}
	p, _ := configPath(cmd.Flags(), base)
	return p, nil
}

// resolveSettings layers flags over GNCONF_* over gnconf.yaml over defaults,
// resolves the host exactly once and installs the logger.
func resolveSettings(cmd *cobra.Command) (*settings, error) {
	flags := cmd.Flags()
	base, err := guessBaseDir(flags)
	if err != nil {
		return nil, err
	}

	path, explicit := configPath(flags, base)
	cfg, err := config.Load(path)
	if err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = config.Default()
	}
	config.ApplyEnv(cfg, getenv)

	for name, dst := range map[string]*string{
		"out":        &cfg.OutDir,
		"base-dir":   &cfg.BaseDir,
		"host":       &cfg.Host,
		"log-level":  &cfg.LogLevel,
		"log-format": &cfg.LogFormat,
	} {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	host := platform.ResolveHost()
	if cfg.Host != "" {
		if host, err = platform.Parse(cfg.Host); err != nil {
			return nil, fmt.Errorf("--host: %w", err)
		}
	}

	baseDir := base
	if cfg.BaseDir != "" {
		if baseDir, err = filepath.Abs(cfg.BaseDir); err != nil {
			return nil, fmt.Errorf("base dir: %w", err)
		}
	}

	pairs, _ := flags.GetStringArray("option")
	overrides, err := genargs.ParseOptionFlags(pairs)
	if err != nil {
		return nil, err
	}

	logger.Debug("settings resolved", "config", path, "host", host.String(), "base_dir", baseDir, "out", cfg.OutDir)
	return &settings{
		Request: cli.Request{
			Host:    host,
			BaseDir: baseDir,
			OutDir:  cfg.OutDir,
			Options: genargs.Merge(cfg.Options, overrides),
		},
		Watch:  cfg.Watch,
		Logger: logger,
	}, nil
}
