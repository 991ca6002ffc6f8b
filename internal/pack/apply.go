package pack

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/promptpack/internal/edits"
	"git.home.luguber.info/inful/promptpack/internal/logfields"
	"git.home.luguber.info/inful/promptpack/internal/observability"
)

// ApplyResult is the outcome of ApplyInPlace or DryRun.
type ApplyResult struct {
	RunID string
	// Changed lists documents whose text differs after patching.
	Changed []DocumentReport
	Edits   Stats
	DryRun  bool
}

// ApplyInPlace abbreviates the discovered files and writes them back through
// the pipeline's store. Documents are written in canonical order; the first
// failure stops the pass and documents already written stay written.
func (p *Pipeline) ApplyInPlace(ctx context.Context, paths []string) (*ApplyResult, error) {
	return p.apply(ctx, paths, false)
}

// DryRun reports what ApplyInPlace would change without writing.
func (p *Pipeline) DryRun(ctx context.Context, paths []string) (*ApplyResult, error) {
	return p.apply(ctx, paths, true)
}

func (p *Pipeline) apply(ctx context.Context, paths []string, dryRun bool) (*ApplyResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = p.runContext(ctx, runID)
	observability.InfoContext(ctx, "Applying abbreviations", slog.Any("paths", paths), slog.Bool("dry_run", dryRun))

	pl, err := p.plan(ctx, paths)
	if err != nil {
		p.finish(ctx, start, err)
		return nil, err
	}

	res := &ApplyResult{RunID: runID, Edits: pl.stats, DryRun: dryRun}
	patcher := edits.NewPatcher(p.store)

	err = p.stage(ctx, stagePatch, func(ctx context.Context) error {
		previews, perr := edits.PreviewTexts(pl.resolved, pl.texts)
		if perr != nil {
			return classifyEditError(perr)
		}
		for _, s := range pl.sources {
			text, ok := previews[s.doc]
			if !ok || text == s.text {
				continue
			}
			res.Changed = append(res.Changed, p.report(s, text, true, pl.perDoc[s.doc]))
		}
		if dryRun {
			return nil
		}
		if perr := patcher.Persist(ctx, pl.resolved); perr != nil {
			return classifyEditError(perr)
		}
		for _, c := range res.Changed {
			observability.InfoContext(ctx, "Document rewritten", logfields.Path(c.Path), logfields.Edits(c.Edits))
		}
		return nil
	})
	if err != nil {
		p.finish(ctx, start, err)
		return nil, err
	}

	p.finish(ctx, start, nil)
	return res, nil
}
