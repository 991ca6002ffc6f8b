// Package python is the tree-sitter based engine for Python sources.
package python

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tspython "github.com/smacker/go-tree-sitter/python"

	"git.home.luguber.info/inful/promptpack/internal/docmodel"
	"git.home.luguber.info/inful/promptpack/internal/edits"
	"git.home.luguber.info/inful/promptpack/internal/engine"
	"git.home.luguber.info/inful/promptpack/internal/policy"
)

const (
	metaDef     = "py.def"
	metaImports = "py.imports"
)

// Statements whose blocks are searched for definitions without opening a new scope.
var transparent = map[string]bool{
	"block":               true,
	"if_statement":        true,
	"elif_clause":         true,
	"else_clause":         true,
	"try_statement":       true,
	"except_clause":       true,
	"except_group_clause": true,
	"finally_clause":      true,
	"with_statement":      true,
	"for_statement":       true,
	"while_statement":     true,
	"match_statement":     true,
	"case_clause":         true,
}

// defInfo holds the spans of a class or function definition.
type defInfo struct {
	body   edits.Span
	inline bool
	doc    edits.Span
	hasDoc bool
	blocks []nestedBlock
}

// nestedBlock is a suite inside a function body. Depth 1 is a block directly
// under a statement of the function body.
type nestedBlock struct {
	span   edits.Span
	depth  int
	inline bool
}

// Engine parses Python modules into module, class and function nodes.
type Engine struct{}

var _ engine.Engine = (*Engine)(nil)

// New returns the Python engine.
func New() *Engine {
	return &Engine{}
}

func (e *Engine) Name() string { return "python" }

func (e *Engine) FileTypes() []string { return []string{"py", "pyi"} }

// Parse builds the node tree. Sources with syntax errors yield a module node
// only, flagged with the "syntax_error" meta attribute.
func (e *Engine) Parse(ctx context.Context, src engine.Source) (*docmodel.Document, error) {
	content := []byte(src.Text)

	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(tspython.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src.Doc, err)
	}
	defer tree.Close()

	module := ModuleName(src.Rel)
	root := &docmodel.Node{
		Kind: docmodel.KindPyModule,
		Path: src.Doc,
		Span: edits.Span{Start: 0, End: len(src.Text)},
		Name: module,
		Qual: module,
		Meta: map[string]any{},
	}
	doc := &docmodel.Document{Path: src.Doc, Rel: src.Rel, Text: src.Text, Roots: []*docmodel.Node{root}}

	top := tree.RootNode()
	if top.HasError() {
		root.Meta[docmodel.MetaSyntaxError] = true
		doc.AssignIDs()
		return doc, nil
	}

	b := &builder{src: content, text: src.Text, lines: docmodel.NewLines(src.Text), doc: src.Doc, module: module}
	root.Meta[metaImports] = b.imports(top)
	b.collect(top, root, nil, false)

	doc.AssignIDs()
	return doc, nil
}

// ModuleName derives the dotted module name from a root relative path.
// A trailing __init__ names its package.
func ModuleName(rel string) string {
	rel = path.Clean(strings.ReplaceAll(rel, "\\", "/"))
	rel = strings.TrimSuffix(rel, path.Ext(rel))

	var parts []string
	for _, p := range strings.Split(rel, "/") {
		if p == "" || p == "." || p == ".." {
			continue
		}
		parts = append(parts, p)
	}
	if len(parts) > 1 && parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, ".")
}

type builder struct {
	src    []byte
	text   string
	lines  *docmodel.Lines
	doc    edits.DocID
	module string
}

func (b *builder) span(n *sitter.Node) edits.Span {
	return edits.Span{Start: int(n.StartByte()), End: b.trimEnd(int(n.EndByte()))}
}

// trimEnd moves end back over trailing whitespace the grammar may attach to a suite.
func (b *builder) trimEnd(end int) int {
	for end > 0 && strings.ContainsRune(" \t\r\n", rune(b.text[end-1])) {
		end--
	}
	return end
}

// inline reports whether offset is preceded by non-blank text on its line.
func (b *builder) inline(offset int) bool {
	return strings.TrimSpace(b.text[b.lines.LineStart(offset):offset]) != ""
}

func (b *builder) collect(n *sitter.Node, parent *docmodel.Node, scope []string, inClass bool) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		outer := n.NamedChild(i)
		def := outer
		if outer.Type() == "decorated_definition" {
			def = outer.ChildByFieldName("definition")
			if def == nil {
				continue
			}
		}

		switch def.Type() {
		case "class_definition":
			node, name := b.define(outer, def, docmodel.KindPyClass, parent, scope)
			if body := def.ChildByFieldName("body"); body != nil {
				b.collect(body, node, append(slices.Clone(scope), name), true)
			}
		case "function_definition":
			kind := docmodel.KindPyFunction
			if inClass {
				kind = docmodel.KindPyMethod
			}
			node, name := b.define(outer, def, kind, parent, scope)
			if body := def.ChildByFieldName("body"); body != nil {
				b.collect(body, node, append(slices.Clone(scope), name), false)
			}
		default:
			if transparent[def.Type()] {
				b.collect(def, parent, scope, inClass)
			}
		}
	}
}

func (b *builder) define(outer, def *sitter.Node, kind docmodel.Kind, parent *docmodel.Node, scope []string) (*docmodel.Node, string) {
	name := ""
	if id := def.ChildByFieldName("name"); id != nil {
		name = id.Content(b.src)
	}
	local := strings.Join(append(slices.Clone(scope), name), ".")

	full := edits.Span{Start: int(outer.StartByte()), End: b.trimEnd(int(def.EndByte()))}
	node := &docmodel.Node{
		Kind: kind,
		Path: b.doc,
		Span: b.lines.Expand(full),
		Name: name,
		Qual: b.module + ":" + local,
	}

	info := &defInfo{}
	if body := def.ChildByFieldName("body"); body != nil {
		info.body = b.span(body)
		info.inline = b.inline(info.body.Start)
		if doc := docstring(body); doc != nil {
			info.doc = b.span(doc)
			info.hasDoc = true
		}
		if kind != docmodel.KindPyClass {
			info.blocks = b.nestedBlocks(body, 0)
		}
	}
	node.Meta = map[string]any{metaDef: info}

	parent.Children = append(parent.Children, node)
	return node, name
}

func docstring(body *sitter.Node) *sitter.Node {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() == "comment" {
			continue
		}
		if stmt.Type() == "expression_statement" && stmt.NamedChildCount() > 0 && stmt.NamedChild(0).Type() == "string" {
			return stmt
		}
		return nil
	}
	return nil
}

func (b *builder) nestedBlocks(suite *sitter.Node, depth int) []nestedBlock {
	var out []nestedBlock
	for i := 0; i < int(suite.NamedChildCount()); i++ {
		b.subBlocks(suite.NamedChild(i), func(blk *sitter.Node) {
			s := b.span(blk)
			out = append(out, nestedBlock{span: s, depth: depth + 1, inline: b.inline(s.Start)})
			out = append(out, b.nestedBlocks(blk, depth+1)...)
		})
	}
	return out
}

// subBlocks calls fn for each block under n without descending into blocks.
func (b *builder) subBlocks(n *sitter.Node, fn func(*sitter.Node)) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "block" {
			fn(c)
			continue
		}
		b.subBlocks(c, fn)
	}
}

// imports returns whole-line spans of top-level imports, excluding __future__ imports.
func (b *builder) imports(module *sitter.Node) []edits.Span {
	var out []edits.Span
	for i := 0; i < int(module.NamedChildCount()); i++ {
		stmt := module.NamedChild(i)
		switch stmt.Type() {
		case "import_statement", "import_from_statement":
		default:
			continue
		}
		if strings.HasPrefix(stmt.Content(b.src), "from __future__") {
			continue
		}
		out = append(out, b.wholeLines(b.span(stmt)))
	}
	return out
}

// wholeLines widens s to full lines when nothing else shares them.
func (b *builder) wholeLines(s edits.Span) edits.Span {
	lineStart := b.lines.LineStart(s.Start)
	lineEnd := b.lines.LineEnd(s.End)
	before := b.text[lineStart:s.Start]
	after := b.text[s.End:lineEnd]
	if strings.TrimSpace(before) != "" || strings.TrimSpace(after) != "" {
		return s
	}
	return edits.Span{Start: lineStart, End: lineEnd}
}

// Supports reports every mode; modes that do not apply to a node kind render nothing.
func (e *Engine) Supports(action policy.Action) bool {
	switch action.Kind {
	case policy.KindFull, policy.KindHide, policy.KindSig, policy.KindSigDoc, policy.KindLevels, policy.KindNoImports:
		return true
	default:
		return false
	}
}
