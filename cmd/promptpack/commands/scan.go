package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/promptpack/internal/discovery"
	"git.home.luguber.info/inful/promptpack/internal/engine/builtin"
	"git.home.luguber.info/inful/promptpack/internal/foundation/errors"
)

// DefaultScanIncludes is used when scan is given no -I pattern.
var DefaultScanIncludes = []string{"**/*.py", "**/*.md", "**/*.toml"}

// ScanCmd implements the 'scan' command.
type ScanCmd struct {
	Paths    []string `arg:"" name:"path" help:"Files or directories to scan" type:"path"`
	Includes []string `short:"I" name:"include" help:"Include glob relative to each root (repeatable)"`
	Excludes []string `short:"X" name:"exclude" help:"Exclude glob added to the configured excludes (repeatable)"`
	Abs      bool     `help:"Print absolute paths"`
	Engines  bool     `help:"Also print the engine that would handle each file"`
}

func (s *ScanCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig("")
	if err != nil {
		return err
	}

	includes := s.Includes
	if len(includes) == 0 {
		includes = DefaultScanIncludes
	}
	excludes := append(append([]string(nil), cfg.Excludes...), s.Excludes...)

	files, err := discovery.Discover(s.Paths, discovery.Options{
		Includes:         includes,
		Excludes:         excludes,
		RespectGitignore: cfg.RespectGitignore,
	})
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "file discovery failed").
			WithContext("paths", s.Paths).
			Build()
	}
	slog.Debug("Scan finished", "roots", s.Paths, "includes", includes, "excludes", excludes, "files", len(files))

	out := g.stdout()
	if len(files) == 0 {
		_, _ = fmt.Fprintln(out, "(no files found)")
		return nil
	}

	registry := builtin.Registry()
	for _, f := range files {
		display := f.DisplayPath()
		if s.Abs {
			display = filepath.ToSlash(f.Abs)
		}
		if !s.Engines {
			_, _ = fmt.Fprintln(out, display)
			continue
		}
		tag := "-"
		if eng, ok := registry.Lookup(f.Abs); ok {
			tag = eng.Name()
		}
		_, _ = fmt.Fprintf(out, "%s\t[%s]\n", display, tag)
	}
	_, _ = fmt.Fprintf(g.stderr(), "# total: %d\n", len(files))
	return nil
}
