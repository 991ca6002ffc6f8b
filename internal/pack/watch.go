package pack

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/promptpack/internal/foundation/errors"
	"git.home.luguber.info/inful/promptpack/internal/logfields"
	"git.home.luguber.info/inful/promptpack/internal/observability"
	"git.home.luguber.info/inful/promptpack/internal/retry"
)

// DefaultDebounce is how long changes must settle before a rebuild.
const DefaultDebounce = 300 * time.Millisecond

// WatchOptions tunes Watch.
type WatchOptions struct {
	Debounce time.Duration
	// Ignore lists absolute paths whose changes never trigger a rebuild,
	// typically the pack and manifest being written.
	Ignore []string
	// Retry governs rebuilds that fail reading files mid-save;
	// nil uses retry.DefaultPolicy.
	Retry *retry.Policy
}

// Watch builds once and then again after every settled change under paths,
// handing each outcome to onResult. It returns when ctx is done.
func (p *Pipeline) Watch(ctx context.Context, paths []string, opts WatchOptions, onResult func(*Result, error)) error {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	backoff := retry.DefaultPolicy()
	if opts.Retry != nil {
		backoff = *opts.Retry
	}
	ignored := make(map[string]bool, len(opts.Ignore))
	for _, path := range opts.Ignore {
		if abs, err := filepath.Abs(path); err == nil {
			ignored[abs] = true
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to start file watcher").Build()
	}
	defer func() { _ = watcher.Close() }()

	for _, root := range paths {
		if err := watchRoot(ctx, watcher, root); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to watch path").
				WithContext("path", root).
				Build()
		}
	}

	onResult(p.Build(ctx, paths))

	rebuild := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	trigger := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, func() {
			select {
			case rebuild <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ignored[ev.Name] || shouldIgnoreEvent(ev.Name) {
				continue
			}
			if ev.Op&fsnotify.Create == fsnotify.Create {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = addDirsRecursive(ctx, watcher, ev.Name)
				}
			}
			observability.DebugContext(ctx, "File change detected", logfields.Path(ev.Name))
			trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			observability.WarnContext(ctx, "Watcher error", logfields.Error(err))
		case <-rebuild:
			var res *Result
			err := backoff.Do(ctx, isTransient, func() error {
				var berr error
				res, berr = p.Build(ctx, paths)
				return berr
			})
			if ctx.Err() != nil {
				return nil
			}
			onResult(res, err)
		}
	}
}

func watchRoot(ctx context.Context, w *fsnotify.Watcher, root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.Add(filepath.Dir(abs))
	}
	return addDirsRecursive(ctx, w, abs)
}

func addDirsRecursive(ctx context.Context, w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			observability.WarnContext(ctx, "Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for editor swap files and OS metadata.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, ".#") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == ".DS_Store" || base == "Thumbs.db"
}

// isTransient reports whether a rebuild failed reading files, which happens
// while editors replace them.
func isTransient(err error) bool {
	return ferrors.HasCategory(err, ferrors.CategoryFileSystem)
}
