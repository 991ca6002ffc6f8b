// Package builtin assembles the engines shipped with promptpack.
package builtin

import (
	"git.home.luguber.info/inful/promptpack/internal/engine"
	"git.home.luguber.info/inful/promptpack/internal/engine/golang"
	"git.home.luguber.info/inful/promptpack/internal/engine/markdown"
	"git.home.luguber.info/inful/promptpack/internal/engine/python"
)

// Registry returns a registry with the Python, Go and Markdown engines.
func Registry() *engine.Registry {
	return engine.NewRegistry(python.New(), golang.New(), markdown.New())
}
