package python

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/promptpack/internal/docmodel"
	"git.home.luguber.info/inful/promptpack/internal/edits"
	"git.home.luguber.info/inful/promptpack/internal/engine"
	"git.home.luguber.info/inful/promptpack/internal/policy"
)

// DocPlaceholder stands in for a missing docstring in sig+doc mode.
const DocPlaceholder = `"""…"""`

// Render translates decisions into candidate edits.
func (e *Engine) Render(doc *docmodel.Document, decisions []engine.Decision) ([]edits.Edit, error) {
	r := renderer{doc: doc, lines: docmodel.NewLines(doc.Text)}

	var out []edits.Edit
	for _, d := range decisions {
		n := d.Node
		if n.Path != doc.Path {
			return nil, fmt.Errorf("node %s belongs to %s, not %s", n.Qual, n.Path, doc.Path)
		}

		switch d.Action.Kind {
		case policy.KindHide:
			out = append(out, edits.Delete(doc.Path, n.Span.Start, n.Span.End))
		case policy.KindNoImports:
			spans, _ := n.Meta[metaImports].([]edits.Span)
			for _, s := range spans {
				out = append(out, edits.Delete(doc.Path, s.Start, s.End))
			}
		case policy.KindSig, policy.KindSigDoc, policy.KindLevels:
			if n.Kind != docmodel.KindPyFunction && n.Kind != docmodel.KindPyMethod {
				continue
			}
			info, ok := n.Meta[metaDef].(*defInfo)
			if !ok || info.body == (edits.Span{}) {
				continue
			}
			out = append(out, r.body(info, d.Action)...)
		}
	}
	return out, nil
}

type renderer struct {
	doc   *docmodel.Document
	lines *docmodel.Lines
}

func (r renderer) body(info *defInfo, action policy.Action) []edits.Edit {
	switch action.Kind {
	case policy.KindSig:
		return r.sig(info, false)
	case policy.KindSigDoc:
		return r.sig(info, true)
	case policy.KindLevels:
		return r.levels(info, action.Levels)
	}
	return nil
}

func (r renderer) sig(info *defInfo, keepDoc bool) []edits.Edit {
	if info.inline {
		return []edits.Edit{edits.Replace(r.doc.Path, info.body.Start, info.body.End, "...")}
	}

	first, last := r.lines.LinesIn(info.body)
	span := edits.Span{Start: r.lines.Start(first), End: r.lines.End(last)}
	indent := r.lines.Indent(info.body.Start)

	var repl string
	switch {
	case keepDoc && info.hasDoc:
		_, docLast := r.lines.LinesIn(info.doc)
		if docLast >= last {
			return nil
		}
		span.Start = r.lines.End(docLast)
		repl = indent + "...\n"
	case keepDoc:
		repl = indent + DocPlaceholder + "\n" + indent + "...\n"
	default:
		repl = fmt.Sprintf("%s# … body omitted (%s)\n%s...\n", indent, plural(last-first+1, "line"), indent)
	}
	return []edits.Edit{r.replace(span, repl)}
}

// levels collapses every suite nested deeper than k below the function body.
// Outer collapsed suites subsume inner ones during resolution.
func (r renderer) levels(info *defInfo, k int) []edits.Edit {
	var out []edits.Edit
	for _, blk := range info.blocks {
		if blk.depth <= k || blk.inline {
			continue
		}
		first, last := r.lines.LinesIn(blk.span)
		span := edits.Span{Start: r.lines.Start(first), End: r.lines.End(last)}
		repl := fmt.Sprintf("%s...  # … %s omitted\n", r.lines.Indent(blk.span.Start), docmodel.LineRange(first, last))
		out = append(out, r.replace(span, repl))
	}
	return out
}

// replace writes repl with the line endings of the replaced span and keeps
// a missing final newline missing.
func (r renderer) replace(span edits.Span, repl string) edits.Edit {
	nl := r.lines.Newline(span)
	if nl != "\n" {
		repl = strings.ReplaceAll(repl, "\n", nl)
	}
	if span.End == len(r.doc.Text) && !strings.HasSuffix(r.doc.Text, "\n") {
		repl = strings.TrimSuffix(repl, nl)
	}
	return edits.Replace(r.doc.Path, span.Start, span.End, repl)
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
