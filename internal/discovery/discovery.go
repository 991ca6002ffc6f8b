// Package discovery finds the files to pack under a set of roots.
package discovery

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"git.home.luguber.info/inful/promptpack/internal/logfields"
)

const gitignoreFile = ".gitignore"

// File is a discovered regular file.
type File struct {
	Abs  string // Absolute, cleaned path
	Rel  string // Slash separated path relative to Root
	Root string // Absolute directory the file was found under
}

// DisplayPath is the path shown to readers: relative to the file's root.
func (f File) DisplayPath() string {
	if f.Rel == "" {
		return filepath.ToSlash(f.Abs)
	}
	return f.Rel
}

// Options controls which files are returned.
type Options struct {
	Includes         []string // Globs relative to each root; empty means "**/*"
	Excludes         []string // Globs on the relative slash path
	RespectGitignore bool
}

// Discover walks roots and returns matching files sorted by absolute path.
// A root that names a file is returned as is, regardless of the globs.
func Discover(roots []string, opts Options) ([]File, error) {
	includes := opts.Includes
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	for _, p := range append(slices.Clone(includes), opts.Excludes...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, p)
		}
	}

	seen := make(map[string]struct{})
	var files []File
	add := func(f File) {
		if _, dup := seen[f.Abs]; dup {
			return
		}
		seen[f.Abs] = struct{}{}
		files = append(files, f)
	}

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRootNotFound, root, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRootNotFound, root, err)
		}

		if !info.IsDir() {
			add(File{Abs: abs, Rel: filepath.Base(abs), Root: filepath.Dir(abs)})
			continue
		}

		w := &walker{root: abs, includes: includes, excludes: opts.Excludes, gitignore: opts.RespectGitignore}
		found, err := w.walk()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrWalkFailed, root, err)
		}
		for _, f := range found {
			add(f)
		}
		slog.Debug("Discovered files", logfields.Path(abs), logfields.Count(len(found)))
	}

	slices.SortFunc(files, func(a, b File) int {
		return strings.Compare(filepath.ToSlash(a.Abs), filepath.ToSlash(b.Abs))
	})
	return files, nil
}

type walker struct {
	root      string
	includes  []string
	excludes  []string
	gitignore bool

	patterns []gitignore.Pattern
	matcher  gitignore.Matcher
}

func (w *walker) walk() ([]File, error) {
	var files []File

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return w.loadIgnore(path, nil)
			}
			if d.Name() == ".git" || w.ignored(rel, true) || matchAny(w.excludes, rel) {
				return filepath.SkipDir
			}
			return w.loadIgnore(path, strings.Split(rel, "/"))
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if w.ignored(rel, false) || !matchAny(w.includes, rel) || matchAny(w.excludes, rel) {
			return nil
		}

		files = append(files, File{Abs: path, Rel: rel, Root: w.root})
		return nil
	})

	return files, err
}

// loadIgnore reads dir/.gitignore with patterns scoped to domain.
func (w *walker) loadIgnore(dir string, domain []string) error {
	if !w.gitignore {
		return nil
	}

	data, err := os.ReadFile(filepath.Join(dir, gitignoreFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	added := 0
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		w.patterns = append(w.patterns, gitignore.ParsePattern(line, domain))
		added++
	}
	if added > 0 {
		w.matcher = gitignore.NewMatcher(w.patterns)
	}
	return scanner.Err()
}

func (w *walker) ignored(rel string, isDir bool) bool {
	if w.matcher == nil {
		return false
	}
	return w.matcher.Match(strings.Split(rel, "/"), isDir)
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
