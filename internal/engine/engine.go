// Package engine defines the contract between the render pipeline and the
// per-language engines that parse documents and translate decisions into edits.
package engine

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/promptpack/internal/docmodel"
	"git.home.luguber.info/inful/promptpack/internal/edits"
	"git.home.luguber.info/inful/promptpack/internal/policy"
)

// Source is one document handed to an engine.
type Source struct {
	Doc edits.DocID
	// Rel is the slash separated path relative to Root. Engines derive
	// qualified names from it.
	Rel  string
	Root string
	Text string
}

// Decision pairs a node with the action chosen for it.
type Decision struct {
	Node   *docmodel.Node
	Action policy.Action
}

// Engine handles one family of file types.
//
// Render must only return edits targeting doc.Path. Edits may nest or repeat;
// the resolver reconciles them.
type Engine interface {
	Name() string
	FileTypes() []string
	Parse(ctx context.Context, src Source) (*docmodel.Document, error)
	Supports(action policy.Action) bool
	Render(doc *docmodel.Document, decisions []Decision) ([]edits.Edit, error)
}

// Registry maps file extensions to engines.
type Registry struct {
	byExt   map[string]Engine
	engines []Engine
}

// NewRegistry returns a registry holding engines. Later engines win on
// extension clashes.
func NewRegistry(engines ...Engine) *Registry {
	r := &Registry{byExt: make(map[string]Engine)}
	for _, e := range engines {
		r.Register(e)
	}
	return r
}

// Register adds e for each of its file types.
func (r *Registry) Register(e Engine) {
	r.engines = append(r.engines, e)
	for _, ext := range e.FileTypes() {
		r.byExt[normalizeExt(ext)] = e
	}
}

// Lookup returns the engine for path by its lower-cased extension.
func (r *Registry) Lookup(path string) (Engine, bool) {
	ext := normalizeExt(filepath.Ext(path))
	if ext == "" {
		return nil, false
	}
	e, ok := r.byExt[ext]
	return e, ok
}

// Engines returns registered engines in registration order.
func (r *Registry) Engines() []Engine {
	return slices.Clone(r.engines)
}

// Extensions returns the handled extensions, sorted.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	slices.Sort(out)
	return out
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
