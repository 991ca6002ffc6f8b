package golang

import (
	"fmt"

	"git.home.luguber.info/inful/promptpack/internal/docmodel"
	"git.home.luguber.info/inful/promptpack/internal/edits"
	"git.home.luguber.info/inful/promptpack/internal/engine"
	"git.home.luguber.info/inful/promptpack/internal/policy"
)

// Render translates decisions into candidate edits.
func (e *Engine) Render(doc *docmodel.Document, decisions []engine.Decision) ([]edits.Edit, error) {
	lines := docmodel.NewLines(doc.Text)

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
		case policy.KindSig, policy.KindSigDoc:
			info, ok := n.Meta[metaFunc].(*funcInfo)
			if !ok {
				continue
			}
			out = append(out, sig(doc, lines, n, info, d.Action.Kind == policy.KindSigDoc))
		case policy.KindLevels:
			info, ok := n.Meta[metaFunc].(*funcInfo)
			if !ok {
				continue
			}
			out = append(out, levels(doc, lines, info, d.Action.Levels)...)
		}
	}
	return out, nil
}

// sig collapses the body to a single marker comment. Without keepDoc the doc
// comment goes too.
func sig(doc *docmodel.Document, lines *docmodel.Lines, n *docmodel.Node, info *funcInfo, keepDoc bool) edits.Edit {
	indent := lines.Indent(info.sigStart)
	body := "{}"
	if !info.empty {
		count := lines.Line(info.rbrace) - lines.Line(info.lbrace) - 1
		if count < 1 {
			count = 1
		}
		nl := lines.Newline(edits.Span{Start: info.lbrace, End: info.rbrace + 1})
		body = fmt.Sprintf("{%s%s\t// … body omitted (%s)%s%s}", nl, indent, plural(count, "line"), nl, indent)
	}

	if keepDoc {
		return edits.Replace(doc.Path, info.lbrace, info.rbrace+1, body)
	}
	header := doc.Text[lines.LineStart(info.sigStart):info.lbrace]
	return edits.Replace(doc.Path, n.Span.Start, info.rbrace+1, header+body)
}

// levels blanks the inner lines of every block nested deeper than k.
func levels(doc *docmodel.Document, lines *docmodel.Lines, info *funcInfo, k int) []edits.Edit {
	var out []edits.Edit
	for _, blk := range info.blocks {
		if blk.depth <= k {
			continue
		}
		open, closing := lines.Line(blk.lbrace), lines.Line(blk.rbrace)
		if closing-open < 2 {
			continue
		}
		start, end := lines.End(open), lines.Start(closing)
		nl := lines.Newline(edits.Span{Start: start, End: end})
		repl := fmt.Sprintf("%s\t// … %s omitted%s", lines.Indent(blk.rbrace), docmodel.LineRange(open+1, closing-1), nl)
		out = append(out, edits.Replace(doc.Path, start, end, repl))
	}
	return out
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
