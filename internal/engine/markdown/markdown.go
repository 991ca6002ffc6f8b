// Package markdown is the goldmark based engine for Markdown documents.
// Documents are split into a frontmatter node and flat heading sections.
package markdown

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/promptpack/internal/docmodel"
	"git.home.luguber.info/inful/promptpack/internal/edits"
	"git.home.luguber.info/inful/promptpack/internal/engine"
	"git.home.luguber.info/inful/promptpack/internal/frontmatter"
	"git.home.luguber.info/inful/promptpack/internal/policy"
)

const (
	metaLevel = "level"
	metaSlug  = "slug"
	metaTitle = "title"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Engine parses Markdown into sections.
type Engine struct {
	md goldmark.Markdown
}

var _ engine.Engine = (*Engine)(nil)

// New returns the Markdown engine.
func New() *Engine {
	return &Engine{md: goldmark.New()}
}

func (e *Engine) Name() string { return "markdown" }

func (e *Engine) FileTypes() []string { return []string{"md", "markdown"} }

type heading struct {
	level int
	start int
	title string
}

// Parse builds a document root with a frontmatter child (when present) and
// one child per top-level heading. A section runs until the next heading of
// the same or a higher level.
func (e *Engine) Parse(ctx context.Context, src engine.Source) (*docmodel.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base := src.Rel
	if base == "" {
		base = src.Doc.String()
	}
	root := &docmodel.Node{
		Kind: docmodel.KindMDDocument,
		Path: src.Doc,
		Span: edits.Span{Start: 0, End: len(src.Text)},
		Name: base,
		Qual: base,
	}
	doc := &docmodel.Document{Path: src.Doc, Rel: src.Rel, Text: src.Text, Roots: []*docmodel.Node{root}}

	seen := make(map[string]bool)
	bodyStart := 0
	if block, ok, err := frontmatter.Split(src.Text); err == nil && ok {
		fm := &docmodel.Node{
			Kind: docmodel.KindMDFrontmatter,
			Path: src.Doc,
			Span: edits.Span{Start: 0, End: block.End},
			Name: "frontmatter",
			Qual: base + ":frontmatter",
		}
		if fields, err := frontmatter.ParseYAML(block.Raw); err == nil {
			if title := frontmatter.Title(fields); title != "" {
				fm.Meta = map[string]any{metaTitle: title}
			}
		}
		root.Children = append(root.Children, fm)
		seen["frontmatter"] = true
		bodyStart = block.End
	}

	lines := docmodel.NewLines(src.Text)
	headings := e.headings([]byte(src.Text[bodyStart:]), bodyStart, lines)

	for i, h := range headings {
		end := len(src.Text)
		for _, next := range headings[i+1:] {
			if next.level <= h.level {
				end = next.start
				break
			}
		}

		slug := uniqueSlug(Slugify(h.title), seen)

		root.Children = append(root.Children, &docmodel.Node{
			Kind: docmodel.KindMDHeading,
			Path: src.Doc,
			Span: edits.Span{Start: h.start, End: end},
			Name: h.title,
			Qual: fmt.Sprintf("%s:%s", base, slug),
			Meta: map[string]any{metaLevel: h.level, metaSlug: slug},
		})
	}

	doc.AssignIDs()
	return doc, nil
}

func (e *Engine) headings(source []byte, offset int, lines *docmodel.Lines) []heading {
	tree := e.md.Parser().Parse(text.NewReader(source))

	var out []heading
	for n := tree.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*gmast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		out = append(out, heading{
			level: h.Level,
			start: lines.LineStart(offset + h.Lines().At(0).Start),
			title: plainText(h, source),
		})
	}
	return out
}

func plainText(n gmast.Node, source []byte) string {
	var b strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *gmast.String:
			b.Write(t.Value)
		case *gmast.AutoLink:
			b.Write(t.Label(source))
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// uniqueSlug suffixes slug with -1, -2, ... until it is unused and marks the
// result as used.
func uniqueSlug(slug string, seen map[string]bool) string {
	candidate := slug
	for n := 1; seen[candidate]; n++ {
		candidate = slug + "-" + strconv.Itoa(n)
	}
	seen[candidate] = true
	return candidate
}

// Slugify lowercases title to ASCII words joined by hyphens, dropping accents.
// Titles without any letters or digits become "section".
func Slugify(title string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	s, _, err := transform.String(t, title)
	if err != nil {
		s = title
	}
	s = strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if s == "" {
		return "section"
	}
	return s
}

// Level returns the heading level of a section node, or 0.
func Level(n *docmodel.Node) int {
	v, _ := n.MetaInt(metaLevel)
	return v
}

func (e *Engine) Supports(action policy.Action) bool {
	return action.Kind == policy.KindHide || action.Kind == policy.KindFull
}

// Render removes hidden documents, frontmatter blocks and sections.
func (e *Engine) Render(doc *docmodel.Document, decisions []engine.Decision) ([]edits.Edit, error) {
	var out []edits.Edit
	for _, d := range decisions {
		if d.Node.Path != doc.Path {
			return nil, fmt.Errorf("node %s belongs to %s, not %s", d.Node.Qual, d.Node.Path, doc.Path)
		}
		if d.Action.Kind != policy.KindHide {
			continue
		}
		out = append(out, edits.Delete(doc.Path, d.Node.Span.Start, d.Node.Span.End))
	}
	return out, nil
}
