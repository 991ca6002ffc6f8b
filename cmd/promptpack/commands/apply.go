package commands

import (
	"fmt"

	"git.home.luguber.info/inful/promptpack/internal/foundation/errors"
)

// ApplyCmd implements the 'apply' command.
type ApplyCmd struct {
	Paths   []string `arg:"" name:"path" help:"Files or directories to abbreviate in place" type:"path"`
	Default string   `help:"Mode when no rule matches and the config sets none" placeholder:"MODE"`
	DryRun  bool     `name:"dry-run" help:"Report which files would change without writing"`
	Yes     bool     `short:"y" help:"Confirm rewriting files in place"`
}

func (a *ApplyCmd) Run(g *Global, root *CLI) error {
	if !a.DryRun && !a.Yes {
		return errors.ValidationError("apply rewrites files in place; pass --yes to confirm or --dry-run to preview").Build()
	}

	cfg, err := root.loadConfig(a.Default)
	if err != nil {
		return err
	}
	p, err := NewPipeline(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	run := p.ApplyInPlace
	verb := "abbreviated"
	if a.DryRun {
		run = p.DryRun
		verb = "would abbreviate"
	}

	res, err := run(ctx, a.Paths)
	if err != nil {
		return err
	}

	out := g.stdout()
	for _, d := range res.Changed {
		_, _ = fmt.Fprintf(out, "%s\t%d -> %d bytes\n", d.Path, d.OriginalBytes, d.RenderedBytes)
	}
	_, _ = fmt.Fprintf(g.stderr(), "# %s: %d file(s), %d edit(s)\n", verb, len(res.Changed), res.Edits.Kept)
	return nil
}
