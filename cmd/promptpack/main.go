package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/promptpack/cmd/promptpack/commands"
	"git.home.luguber.info/inful/promptpack/internal/foundation/errors"
	"git.home.luguber.info/inful/promptpack/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("promptpack"),
		kong.Description("Render source trees into one LLM-ready text file, abbreviating what the rules say."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	if err := parser.Run(&commands.Global{}, cli); err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
