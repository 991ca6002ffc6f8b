// Package golang is the go/ast based engine for Go sources.
package golang

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"strings"

	"git.home.luguber.info/inful/promptpack/internal/docmodel"
	"git.home.luguber.info/inful/promptpack/internal/edits"
	"git.home.luguber.info/inful/promptpack/internal/engine"
	"git.home.luguber.info/inful/promptpack/internal/policy"
)

const (
	metaFunc    = "go.func"
	metaImports = "go.imports"
)

// funcInfo holds offsets of a function declaration with a body.
type funcInfo struct {
	sigStart int
	lbrace   int
	rbrace   int
	empty    bool
	blocks   []block
}

// block is a nested brace pair inside a function body. Depth 1 is a block
// directly inside the body.
type block struct {
	lbrace int
	rbrace int
	depth  int
}

// Engine parses Go files into file, type, function and method nodes.
type Engine struct{}

var _ engine.Engine = (*Engine)(nil)

// New returns the Go engine.
func New() *Engine {
	return &Engine{}
}

func (e *Engine) Name() string { return "go" }

func (e *Engine) FileTypes() []string { return []string{"go"} }

// Parse builds the node tree. Files that fail to parse yield a file node only,
// flagged with the "syntax_error" meta attribute.
func (e *Engine) Parse(ctx context.Context, src engine.Source) (*docmodel.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, src.Rel, src.Text, parser.ParseComments|parser.SkipObjectResolution)

	pkgName := ""
	if file != nil && file.Name != nil {
		pkgName = file.Name.Name
	}
	pkg := PackagePath(src.Rel, pkgName)

	root := &docmodel.Node{
		Kind: docmodel.KindGoFile,
		Path: src.Doc,
		Span: edits.Span{Start: 0, End: len(src.Text)},
		Name: pkg,
		Qual: pkg,
		Meta: map[string]any{},
	}
	doc := &docmodel.Document{Path: src.Doc, Rel: src.Rel, Text: src.Text, Roots: []*docmodel.Node{root}}

	if err != nil {
		root.Meta[docmodel.MetaSyntaxError] = true
		doc.AssignIDs()
		return doc, nil
	}

	b := &builder{
		tf:    fset.File(file.Pos()),
		text:  src.Text,
		lines: docmodel.NewLines(src.Text),
		doc:   src.Doc,
		pkg:   pkg,
		root:  root,
	}
	b.file(file)

	doc.AssignIDs()
	return doc, nil
}

// PackagePath is the qualifier for declarations of a file: its directory
// relative to the root, or the package name for files at the root.
func PackagePath(rel, pkgName string) string {
	dir := path.Dir(path.Clean(strings.ReplaceAll(rel, "\\", "/")))
	if dir != "." && dir != "/" && !strings.HasPrefix(dir, "..") {
		return strings.TrimPrefix(dir, "./")
	}
	if pkgName != "" {
		return pkgName
	}
	return strings.TrimSuffix(path.Base(rel), path.Ext(rel))
}

type builder struct {
	tf    *token.File
	text  string
	lines *docmodel.Lines
	doc   edits.DocID
	pkg   string
	root  *docmodel.Node
}

func (b *builder) off(p token.Pos) int {
	return b.tf.Offset(p)
}

func (b *builder) span(from, to token.Pos) edits.Span {
	return b.lines.Expand(edits.Span{Start: b.off(from), End: b.off(to)})
}

func (b *builder) file(f *ast.File) {
	var imports []edits.Span
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			b.function(d)
		case *ast.GenDecl:
			switch d.Tok {
			case token.IMPORT:
				imports = append(imports, b.span(startOf(d.Doc, d.Pos()), d.End()))
			case token.TYPE:
				b.types(d)
			}
		}
	}
	b.root.Meta[metaImports] = imports
}

func (b *builder) function(fd *ast.FuncDecl) {
	name := fd.Name.Name
	kind := docmodel.KindGoFunction
	if fd.Recv != nil && len(fd.Recv.List) > 0 {
		if recv := receiverType(fd.Recv.List[0].Type); recv != "" {
			name = recv + "." + name
		}
		kind = docmodel.KindGoMethod
	}

	node := &docmodel.Node{
		Kind: kind,
		Path: b.doc,
		Span: b.span(startOf(fd.Doc, fd.Pos()), fd.End()),
		Name: fd.Name.Name,
		Qual: b.pkg + ":" + name,
	}
	if fd.Body != nil {
		node.Meta = map[string]any{metaFunc: &funcInfo{
			sigStart: b.off(fd.Pos()),
			lbrace:   b.off(fd.Body.Lbrace),
			rbrace:   b.off(fd.Body.Rbrace),
			empty:    len(fd.Body.List) == 0,
			blocks:   b.nested(fd.Body, 0),
		}}
	}
	b.root.Children = append(b.root.Children, node)
}

func (b *builder) types(gd *ast.GenDecl) {
	for _, spec := range gd.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}
		var s edits.Span
		if gd.Lparen.IsValid() {
			s = b.span(startOf(ts.Doc, ts.Pos()), ts.End())
		} else {
			s = b.span(startOf(gd.Doc, gd.Pos()), gd.End())
		}
		b.root.Children = append(b.root.Children, &docmodel.Node{
			Kind: docmodel.KindGoType,
			Path: b.doc,
			Span: s,
			Name: ts.Name.Name,
			Qual: b.pkg + ":" + ts.Name.Name,
		})
	}
}

func (b *builder) nested(n ast.Node, depth int) []block {
	var out []block
	ast.Inspect(n, func(c ast.Node) bool {
		if c == nil || c == n {
			return true
		}
		if blk, ok := c.(*ast.BlockStmt); ok {
			out = append(out, block{lbrace: b.off(blk.Lbrace), rbrace: b.off(blk.Rbrace), depth: depth + 1})
			out = append(out, b.nested(blk, depth+1)...)
			return false
		}
		return true
	})
	return out
}

func startOf(doc *ast.CommentGroup, pos token.Pos) token.Pos {
	if doc != nil {
		return doc.Pos()
	}
	return pos
}

func receiverType(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverType(t.X)
	case *ast.ParenExpr:
		return receiverType(t.X)
	case *ast.IndexExpr:
		return receiverType(t.X)
	case *ast.IndexListExpr:
		return receiverType(t.X)
	case *ast.Ident:
		return t.Name
	}
	return ""
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
