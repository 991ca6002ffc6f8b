// Package pack runs the render pipeline: discover files, parse them with
// their engine, decide an action per node, resolve all candidate edits
// together and assemble the patched texts into one prompt pack.
package pack

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/promptpack/internal/config"
	"git.home.luguber.info/inful/promptpack/internal/discovery"
	"git.home.luguber.info/inful/promptpack/internal/edits"
	"git.home.luguber.info/inful/promptpack/internal/engine"
	ferrors "git.home.luguber.info/inful/promptpack/internal/foundation/errors"
	"git.home.luguber.info/inful/promptpack/internal/logfields"
	"git.home.luguber.info/inful/promptpack/internal/metrics"
	"git.home.luguber.info/inful/promptpack/internal/observability"
	"git.home.luguber.info/inful/promptpack/internal/policy"
	"git.home.luguber.info/inful/promptpack/internal/storage"
)

const (
	stageDiscover = "discover"
	stageAnalyze  = "analyze"
	stageResolve  = "resolve"
	stagePatch    = "patch"
	stageAssemble = "assemble"
)

// Pipeline renders prompt packs. It is safe to reuse across runs but not
// for concurrent runs against the same FSStore documents.
type Pipeline struct {
	cfg      *config.Config
	registry *engine.Registry
	store    storage.DocumentStore
	decider  *policy.Decider
	recorder metrics.Recorder
	logger   *slog.Logger
}

// New validates cfg and returns a pipeline reading documents from store.
func New(cfg *config.Config, registry *engine.Registry, store storage.DocumentStore) (*Pipeline, error) {
	if cfg == nil {
		return nil, ferrors.ConfigError("config required").Build()
	}
	if registry == nil {
		return nil, ferrors.InternalError("engine registry required").Build()
	}
	if store == nil {
		return nil, ferrors.InternalError("document store required").Build()
	}

	decider, err := cfg.Decider()
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:      cfg,
		registry: registry,
		store:    store,
		decider:  decider,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}, nil
}

// WithRecorder sets the metrics recorder.
func (p *Pipeline) WithRecorder(r metrics.Recorder) *Pipeline {
	if r != nil {
		p.recorder = r
	}
	return p
}

// WithLogger sets the logger used for run logs.
func (p *Pipeline) WithLogger(l *slog.Logger) *Pipeline {
	if l != nil {
		p.logger = l
	}
	return p
}

// Stats counts candidate edits before and after resolution.
type Stats struct {
	Proposed int `yaml:"proposed"`
	Kept     int `yaml:"kept"`
	Dropped  int `yaml:"dropped"`
}

// DocumentReport describes one packed document.
type DocumentReport struct {
	Path          string `yaml:"path"`
	Abs           string `yaml:"-"`
	Engine        string `yaml:"engine"`
	Abbreviated   bool   `yaml:"abbreviated"`
	SyntaxError   bool   `yaml:"syntax_error,omitempty"`
	Edits         int    `yaml:"edits"`
	OriginalBytes int    `yaml:"original_bytes"`
	RenderedBytes int    `yaml:"rendered_bytes"`
	Fingerprint   string `yaml:"fingerprint"`
}

// Result is the outcome of Build.
type Result struct {
	RunID     string
	Text      string
	Documents []DocumentReport
	Edits     Stats
	Duration  time.Duration
}

// source is a document read and analyzed during a run.
type source struct {
	file    discovery.File
	doc     edits.DocID
	engine  string
	text    string
	invalid bool
}

// plan holds everything decided before any text is patched.
type plan struct {
	sources  []*source
	texts    map[edits.DocID]string
	resolved []edits.Edit
	perDoc   map[edits.DocID]int
	stats    Stats
}

// Build renders the pack for paths without touching any file.
func (p *Pipeline) Build(ctx context.Context, paths []string) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = p.runContext(ctx, runID)
	observability.InfoContext(ctx, "Building prompt pack", slog.Any("paths", paths))

	pl, err := p.plan(ctx, paths)
	if err != nil {
		p.finish(ctx, start, err)
		return nil, err
	}

	var previews map[edits.DocID]string
	err = p.stage(ctx, stagePatch, func(context.Context) error {
		var perr error
		previews, perr = edits.PreviewTexts(pl.resolved, pl.texts)
		if perr != nil {
			return classifyEditError(perr)
		}
		return nil
	})
	if err != nil {
		p.finish(ctx, start, err)
		return nil, err
	}

	res := &Result{RunID: runID, Edits: pl.stats}
	_ = p.stage(ctx, stageAssemble, func(context.Context) error {
		shown := make([]Shown, 0, len(pl.sources))
		for _, s := range pl.sources {
			text, abbreviated := previews[s.doc]
			if !abbreviated {
				text = s.text
			}
			shown = append(shown, Shown{Path: s.file.DisplayPath(), Text: text})
			res.Documents = append(res.Documents, p.report(s, text, abbreviated, pl.perDoc[s.doc]))
			p.recorder.IncDocument(s.engine, abbreviated)
		}
		res.Text = Assemble(shown)
		return nil
	})

	res.Duration = time.Since(start)
	p.finish(ctx, start, nil)
	return res, nil
}

func (p *Pipeline) runContext(ctx context.Context, runID string) context.Context {
	ctx = observability.WithLogger(ctx, p.logger)
	return observability.WithRunID(ctx, runID)
}

// plan discovers, analyzes and resolves. No document text is changed.
func (p *Pipeline) plan(ctx context.Context, paths []string) (*plan, error) {
	var files []discovery.File
	err := p.stage(ctx, stageDiscover, func(ctx context.Context) error {
		var derr error
		files, derr = discovery.Discover(paths, discovery.Options{
			Includes:         p.cfg.Includes,
			Excludes:         p.cfg.Excludes,
			RespectGitignore: p.cfg.RespectGitignore,
		})
		if derr != nil {
			return ferrors.WrapError(derr, ferrors.CategoryFileSystem, "file discovery failed").
				WithContext("paths", paths).
				Build()
		}
		observability.DebugContext(ctx, "Discovered files", logfields.Count(len(files)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	pl := &plan{texts: make(map[edits.DocID]string), perDoc: make(map[edits.DocID]int)}
	var candidates []edits.Edit
	err = p.stage(ctx, stageAnalyze, func(ctx context.Context) error {
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			eng, ok := p.registry.Lookup(f.Abs)
			if !ok {
				continue
			}
			src, proposed, err := p.analyze(ctx, f, eng)
			if err != nil {
				return err
			}
			if src == nil {
				continue
			}
			pl.sources = append(pl.sources, src)
			pl.texts[src.doc] = src.text
			candidates = append(candidates, proposed...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, stageResolve, func(ctx context.Context) error {
		resolved, rerr := edits.Resolve(candidates)
		if rerr != nil {
			var conflict *edits.ConflictError
			if errors.As(rerr, &conflict) {
				p.recorder.IncConflict()
			}
			return classifyEditError(rerr)
		}
		pl.resolved = resolved
		for _, e := range resolved {
			pl.perDoc[e.Doc]++
		}
		pl.stats = Stats{Proposed: len(candidates), Kept: len(resolved), Dropped: len(candidates) - len(resolved)}
		p.recorder.AddEdits(pl.stats.Proposed, pl.stats.Kept)
		observability.DebugContext(ctx, "Resolved edits",
			logfields.Edits(pl.stats.Kept),
			slog.Int("proposed", pl.stats.Proposed))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pl, nil
}

// analyze reads, parses and renders candidate edits for one file. A nil
// source means the file is skipped.
func (p *Pipeline) analyze(ctx context.Context, f discovery.File, eng engine.Engine) (*source, []edits.Edit, error) {
	doc := edits.NewDocID(f.Abs)
	ctx = observability.WithDoc(ctx, f.DisplayPath())

	text, err := p.store.Read(ctx, doc)
	if err != nil {
		var binary storage.ErrBinary
		if errors.As(err, &binary) {
			observability.WarnContext(ctx, "Skipping binary file", logfields.Engine(eng.Name()))
			return nil, nil, nil
		}
		return nil, nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read document").
			WithContext("document", doc.String()).
			Build()
	}

	parsed, err := eng.Parse(ctx, engine.Source{Doc: doc, Rel: f.Rel, Root: f.Root, Text: text})
	if err != nil {
		return nil, nil, ferrors.WrapError(err, ferrors.CategoryParse, "failed to parse document").
			WithContext("document", doc.String()).
			WithContext("engine", eng.Name()).
			Build()
	}

	src := &source{file: f, doc: doc, engine: eng.Name(), text: text}
	if parsed.HasSyntaxError() {
		src.invalid = true
		observability.WarnContext(ctx, "Document has syntax errors; packing it unabridged", logfields.Engine(eng.Name()))
		return src, nil, nil
	}

	abs := filepath.ToSlash(f.Abs)
	var decisions []engine.Decision
	for _, n := range parsed.Flatten() {
		action := p.decider.Decide(n.Qual, f.Rel, abs)
		if action.IsFull() || !eng.Supports(action) {
			continue
		}
		decisions = append(decisions, engine.Decision{Node: n, Action: action})
		observability.DebugContext(ctx, "Node decided", logfields.Qual(n.Qual), logfields.Mode(action.String()))
	}

	proposed, err := eng.Render(parsed, decisions)
	if err != nil {
		return nil, nil, ferrors.WrapError(err, ferrors.CategoryRender, "engine failed to render edits").
			WithContext("document", doc.String()).
			WithContext("engine", eng.Name()).
			Build()
	}
	return src, proposed, nil
}

func (p *Pipeline) report(s *source, text string, abbreviated bool, kept int) DocumentReport {
	return DocumentReport{
		Path:          s.file.DisplayPath(),
		Abs:           s.file.Abs,
		Engine:        s.engine,
		Abbreviated:   abbreviated,
		SyntaxError:   s.invalid,
		Edits:         kept,
		OriginalBytes: len(s.text),
		RenderedBytes: len(text),
		Fingerprint:   fingerprint(text),
	}
}

// stage runs fn with the stage name in the logging context and records
// its duration and result.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	ctx = observability.WithStage(ctx, name)

	err := fn(ctx)

	elapsed := time.Since(start)
	p.recorder.ObserveStageDuration(name, elapsed)
	p.recorder.IncStageResult(name, stageResult(err))
	observability.DebugContext(ctx, "Stage finished", logfields.DurationMS(float64(elapsed.Microseconds())/1000))
	return err
}

func stageResult(err error) metrics.ResultLabel {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.ResultCanceled
	default:
		return metrics.ResultFatal
	}
}

func (p *Pipeline) finish(ctx context.Context, start time.Time, err error) {
	elapsed := time.Since(start)
	p.recorder.ObserveRunDuration(elapsed)

	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = metrics.OutcomeCanceled
	case isEditError(err):
		outcome = metrics.OutcomeConflict
	default:
		outcome = metrics.OutcomeFailed
	}
	p.recorder.IncRunOutcome(outcome)

	if err != nil {
		observability.ErrorContext(ctx, "Run failed", slog.String("outcome", string(outcome)), logfields.Error(err))
		return
	}
	observability.InfoContext(ctx, "Run finished", logfields.DurationMS(float64(elapsed.Microseconds())/1000))
}
