// Command folio tracks stock portfolios: lots, valuation, dollar cost
// averaging and performance charts.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/stockfolio/cmd"
	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	// exits when invoked by the shell for completion
	completion(commander).Complete("folio")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
