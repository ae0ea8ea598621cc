// Package watch re-runs generation when build files under the base
// directory change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultDebounce coalesces an editor's burst of writes into one run.
const DefaultDebounce = 200 * time.Millisecond

// DefaultExtensions are the gn build and import files.
var DefaultExtensions = []string{".gn", ".gni"}

// newWatcherFunc creates an fsnotify watcher; tests may replace it to inject errors.
type newWatcherFunc func() (*fsnotify.Watcher, error)

// Handler receives the sorted, de-duplicated paths (relative to the root)
// that changed since the previous call. A watched directory that was moved
// away or removed is reported with a trailing slash. Handlers run one at a time on the
// watch loop, so a slow handler delays the next batch instead of overlapping it.
type Handler func(ctx context.Context, changed []string)

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a structured logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets the quiet period before the handler runs.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExtensions replaces the watched file extensions.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		if len(exts) == 0 {
			return
		}
		w.extensions = make(map[string]bool, len(exts))
		for _, e := range exts {
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			w.extensions[strings.ToLower(e)] = true
		}
	}
}

// WithIgnore adds gitignore-style patterns on top of the root .gitignore.
func WithIgnore(patterns ...string) Option {
	return func(w *Watcher) { w.extraIgnore = append(w.extraIgnore, patterns...) }
}

// Watcher watches a directory tree. fsnotify is not recursive, so every
// non-ignored directory is added individually, including ones created later.
type Watcher struct {
	root         string
	debounce     time.Duration
	extensions   map[string]bool
	extraIgnore  []string
	ignore       *ignore.GitIgnore
	logger       *slog.Logger
	newWatcherFn newWatcherFunc // nil means use fsnotify.NewWatcher
	onReady      func()         // called once the initial tree is registered
	watched      map[string]bool
}

// New creates a Watcher for root.
func New(root string, opts ...Option) *Watcher {
	w := &Watcher{root: root, debounce: DefaultDebounce, watched: map[string]bool{}}
	WithExtensions(DefaultExtensions...)(w)
	for _, opt := range opts {
		opt(w)
	}
	w.ignore = w.compileIgnore()
	return w
}

func (w *Watcher) log() *slog.Logger {
	if w.logger != nil {
		return w.logger
	}
	return slog.Default()
}

func (w *Watcher) compileIgnore() *ignore.GitIgnore {
	lines := []string{".git/"}
	if data, err := os.ReadFile(filepath.Join(w.root, ".gitignore")); err == nil {
		lines = append(lines, strings.Split(string(data), "\n")...)
	}
	lines = append(lines, w.extraIgnore...)
	return ignore.CompileIgnoreLines(lines...)
}

// rel returns path relative to the root in slash form, or "" if outside it.
func (w *Watcher) rel(path string) string {
	r, err := filepath.Rel(w.root, path)
	if err != nil || r == "." || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.ToSlash(r)
}

// Ignored reports whether rel (slash-separated, relative to the root) is
// excluded by .gitignore or the extra patterns.
func (w *Watcher) Ignored(rel string) bool {
	return w.ignore.MatchesPath(rel)
}

// Relevant reports whether a change to rel should trigger a run.
func (w *Watcher) Relevant(rel string) bool {
	if rel == "" || w.Ignored(rel) {
		return false
	}
	base := filepath.Base(rel)
	// The dotfile is named ".gn" with no stem.
	if w.extensions[strings.ToLower(base)] {
		return true
	}
	return w.extensions[strings.ToLower(filepath.Ext(base))]
}

// addTree registers dir and every non-ignored directory beneath it. When
// found is non-nil it also receives each relevant file already present.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string, found func(rel string)) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		r := w.rel(path)
		if !d.IsDir() {
			if found != nil && w.Relevant(r) {
				found(r)
			}
			return nil
		}
		if r != "" && w.Ignored(r+"/") {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		w.watched[path] = true
		return nil
	})
}

// forget drops dir and everything below it from the watched set. It reports
// whether dir was being watched.
func (w *Watcher) forget(fw *fsnotify.Watcher, dir string) bool {
	if !w.watched[dir] {
		return false
	}
	prefix := dir + string(filepath.Separator)
	for p := range w.watched {
		if p == dir || strings.HasPrefix(p, prefix) {
			delete(w.watched, p)
			// The kernel may have dropped the watch already.
			_ = fw.Remove(p)
		}
	}
	return true
}

// Run blocks until ctx is done, calling handler after each debounced batch
// of relevant changes. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context, handler Handler) error {
	if handler == nil {
		return errors.New("watch: handler must not be nil")
	}
	newWatcher := fsnotify.NewWatcher
	if w.newWatcherFn != nil {
		newWatcher = w.newWatcherFn
	}
	fw, err := newWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()
	if err := w.addTree(fw, w.root, nil); err != nil {
		return err
	}
	w.log().Info("watching for build file changes", "root", w.root, "debounce", w.debounce)
	if w.onReady != nil {
		w.onReady()
	}

	pending := map[string]bool{}
	queue := func(rel string) { pending[rel] = true }
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			r := w.rel(event.Name)
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if r != "" && w.Ignored(r+"/") {
						continue
					}
					before := len(pending)
					if err := w.addTree(fw, event.Name, queue); err != nil {
						w.log().Warn("watch: cannot add directory", "path", event.Name, "error", err)
					}
					if len(pending) > before {
						timer.Reset(w.debounce)
					}
					continue
				}
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				if w.forget(fw, event.Name) {
					if r != "" {
						queue(r + "/")
						timer.Reset(w.debounce)
					}
					continue
				}
			}
			if !w.Relevant(r) {
				continue
			}
			queue(r)
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = map[string]bool{}
			w.log().Debug("build files changed", "paths", changed)
			handler(ctx, changed)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log().Warn("watch: fsnotify error", "error", err)
		}
	}
}
