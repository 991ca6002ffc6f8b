// Package docmodel is the parsed view of a source document that language
// engines produce and the policy layer decides on: a tree of addressable
// nodes, each covering a byte span of the original text.
package docmodel

import (
	"git.home.luguber.info/inful/promptpack/internal/edits"
)

// Kind identifies the construct a node represents.
type Kind string

const (
	KindPyModule      Kind = "py.module"
	KindPyClass       Kind = "py.class"
	KindPyFunction    Kind = "py.function"
	KindPyMethod      Kind = "py.method"
	KindGoFile        Kind = "go.file"
	KindGoType        Kind = "go.type"
	KindGoFunction    Kind = "go.function"
	KindGoMethod      Kind = "go.method"
	KindMDDocument    Kind = "md.document"
	KindMDHeading     Kind = "md.heading"
	KindMDFrontmatter Kind = "md.frontmatter"
)

// IsFile reports whether the kind is a whole-document root.
func (k Kind) IsFile() bool {
	switch k {
	case KindPyModule, KindGoFile, KindMDDocument:
		return true
	default:
		return false
	}
}

// Node is one addressable construct of a document.
type Node struct {
	ID   int
	Kind Kind
	Path edits.DocID
	// Span covers the whole construct, including decorators or doc comments
	// that engines attach to it.
	Span edits.Span
	Name string
	// Qual is the qualified name rules match against, e.g. "pkg.mod:Class.method".
	Qual string
	// Meta holds engine specific spans and attributes.
	Meta     map[string]any
	Children []*Node
}

// SetSpan stores an auxiliary span under key.
func (n *Node) SetSpan(key string, s edits.Span) {
	if n.Meta == nil {
		n.Meta = make(map[string]any)
	}
	n.Meta[key] = s
}

// MetaSpan returns the auxiliary span stored under key.
func (n *Node) MetaSpan(key string) (edits.Span, bool) {
	s, ok := n.Meta[key].(edits.Span)
	return s, ok
}

// SetInt stores an integer attribute under key.
func (n *Node) SetInt(key string, v int) {
	if n.Meta == nil {
		n.Meta = make(map[string]any)
	}
	n.Meta[key] = v
}

// MetaInt returns the integer attribute stored under key.
func (n *Node) MetaInt(key string) (int, bool) {
	v, ok := n.Meta[key].(int)
	return v, ok
}

// MetaSyntaxError flags the root of a document whose source did not parse.
// Such documents carry no child nodes.
const MetaSyntaxError = "syntax_error"

// Document is a parsed source file.
type Document struct {
	Path edits.DocID
	// Rel is the slash separated path relative to the discovery root.
	Rel   string
	Text  string
	Roots []*Node
}

// HasSyntaxError reports whether the document was parsed from invalid source.
func (d *Document) HasSyntaxError() bool {
	if len(d.Roots) == 0 {
		return false
	}
	v, _ := d.Roots[0].Meta[MetaSyntaxError].(bool)
	return v
}

// AssignIDs numbers every node in pre-order starting at 1.
func (d *Document) AssignIDs() {
	id := 0
	d.Walk(func(n *Node) bool {
		id++
		n.ID = id
		return true
	})
}

// Walk visits nodes in pre-order. Returning false skips the node's children.
func (d *Document) Walk(fn func(*Node) bool) {
	var visit func([]*Node)
	visit = func(nodes []*Node) {
		for _, n := range nodes {
			if fn(n) {
				visit(n.Children)
			}
		}
	}
	visit(d.Roots)
}

// Flatten returns all nodes in pre-order.
func (d *Document) Flatten() []*Node {
	var out []*Node
	d.Walk(func(n *Node) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Find returns the first node with the given qualified name.
func (d *Document) Find(qual string) *Node {
	var found *Node
	d.Walk(func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.Qual == qual {
			found = n
			return false
		}
		return true
	})
	return found
}
