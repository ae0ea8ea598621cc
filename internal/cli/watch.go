package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"gnconf/internal/config"
	"gnconf/internal/watch"
)

// RunWatch generates once, then again after every batch of build file
// changes until ctx is cancelled. Runs never overlap. The exit code is that
// of the last run, or ExitFailure if the watcher could not start.
func RunWatch(ctx context.Context, req Request, wc config.WatchConfig, s Streams, opts GenOptions) int {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	last := RunGen(req, s, opts)

	w := watch.New(req.BaseDir, watchOptions(req, wc, logger)...)
	err := w.Run(ctx, func(_ context.Context, changed []string) {
		logger.Info("regenerating", "changed", strings.Join(changed, ", "))
		last = RunGen(req, s, opts)
	})
	if err != nil {
		reportError(s.Err, err)
		return ExitFailure
	}
	return last
}

func watchOptions(req Request, wc config.WatchConfig, logger *slog.Logger) []watch.Option {
	opts := []watch.Option{watch.WithLogger(logger)}
	if wc.DebounceMS > 0 {
		opts = append(opts, watch.WithDebounce(time.Duration(wc.DebounceMS)*time.Millisecond))
	}
	if len(wc.Extensions) > 0 {
		opts = append(opts, watch.WithExtensions(wc.Extensions...))
	}
	ignore := append([]string{}, wc.Ignore...)
	// gn writes args.gn and toolchain files into the out dir; never react to them.
	if rel := outDirPattern(req); rel != "" {
		ignore = append(ignore, rel)
	}
	return append(opts, watch.WithIgnore(ignore...))
}

// outDirPattern returns the out dir as a root-anchored gitignore pattern,
// or "" when it lies outside the base dir.
func outDirPattern(req Request) string {
	out := req.OutDir
	if !filepath.IsAbs(out) {
		out = filepath.Join(req.BaseDir, out)
	}
	rel, err := filepath.Rel(req.BaseDir, out)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return "/" + filepath.ToSlash(rel) + "/"
}
