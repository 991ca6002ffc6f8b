package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/promptpack/internal/foundation/errors"
	"git.home.luguber.info/inful/promptpack/internal/metrics"
	"git.home.luguber.info/inful/promptpack/internal/pack"
)

// RenderCmd implements the default 'render' command.
type RenderCmd struct {
	Paths       []string `arg:"" name:"path" help:"Files or directories to pack" type:"path"`
	Default     string   `help:"Mode when no rule matches and the config sets none" placeholder:"MODE"`
	Out         string   `short:"o" help:"Write the pack to a file instead of stdout" type:"path"`
	Manifest    string   `help:"Write a YAML manifest of the packed documents" type:"path"`
	MetricsFile string   `name:"metrics-file" help:"Write Prometheus metrics in text format after each run" type:"path"`
	Watch       bool     `short:"w" help:"Re-render when files change (requires --out)"`
}

func (r *RenderCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(r.Default)
	if err != nil {
		return err
	}
	out := firstNonEmpty(r.Out, cfg.Output.Path)
	manifest := firstNonEmpty(r.Manifest, cfg.Output.Manifest)

	p, err := NewPipeline(cfg)
	if err != nil {
		return err
	}
	var recorder *metrics.PrometheusRecorder
	if r.MetricsFile != "" {
		recorder = metrics.NewPrometheusRecorder(nil)
		p.WithRecorder(recorder)
	}

	ctx, stop := signalContext()
	defer stop()

	if r.Watch {
		if out == "" {
			return errors.ValidationError("--watch requires --out").Build()
		}
		return r.watch(ctx, p, out, manifest, recorder)
	}

	res, err := p.Build(ctx, r.Paths)
	if merr := r.writeMetrics(recorder); merr != nil && err == nil {
		err = merr
	}
	if err != nil {
		return err
	}
	return r.emit(g.stdout(), res, out, manifest)
}

func (r *RenderCmd) watch(ctx context.Context, p *pack.Pipeline, out, manifest string, recorder *metrics.PrometheusRecorder) error {
	opts := pack.WatchOptions{Ignore: []string{out}}
	if manifest != "" {
		opts.Ignore = append(opts.Ignore, manifest)
	}
	if r.MetricsFile != "" {
		opts.Ignore = append(opts.Ignore, r.MetricsFile)
	}

	slog.Info("Watching for changes", "paths", r.Paths, "out", out)
	return p.Watch(ctx, r.Paths, opts, func(res *pack.Result, err error) {
		if merr := r.writeMetrics(recorder); merr != nil {
			slog.Warn("Failed to write metrics", "error", merr)
		}
		if err != nil {
			slog.Error("Render failed; keeping previous output", "error", err)
			return
		}
		if err := r.emit(io.Discard, res, out, manifest); err != nil {
			slog.Error("Failed to write output", "error", err)
			return
		}
		slog.Info("Pack updated", "documents", len(res.Documents), "edits", res.Edits.Kept, "duration", res.Duration)
	})
}

// emit writes the pack to out, or to w when out is empty, and the manifest if requested.
func (r *RenderCmd) emit(w io.Writer, res *pack.Result, out, manifest string) error {
	text := res.Text
	if strings.TrimSpace(text) == "" {
		text = pack.EmptyPack
	}

	if out != "" {
		if err := writeFile(out, text); err != nil {
			return err
		}
		slog.Info("Pack written", "path", out, "documents", len(res.Documents), "bytes", len(text))
	} else if _, err := fmt.Fprint(w, text); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write pack").Build()
	}

	if manifest != "" {
		return pack.WriteManifest(manifest, res.Manifest())
	}
	return nil
}

func (r *RenderCmd) writeMetrics(recorder *metrics.PrometheusRecorder) error {
	if recorder == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.MetricsFile), 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create metrics directory").
			WithContext("path", r.MetricsFile).
			Build()
	}
	if err := recorder.WriteTextfile(r.MetricsFile); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write metrics file").
			WithContext("path", r.MetricsFile).
			Build()
	}
	return nil
}
