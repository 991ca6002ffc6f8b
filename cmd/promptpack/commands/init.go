package commands

import (
	"fmt"

	"git.home.luguber.info/inful/promptpack/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	path := firstNonEmpty(root.Config, DefaultConfigFile)
	if err := config.Init(path, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.stdout(), "Wrote example configuration to %s\n", path)
	return nil
}
