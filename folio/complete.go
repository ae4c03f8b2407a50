package main

import (
	"flag"
	"strings"

	"github.com/etnz/stockfolio/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// portfolios predicts the portfolio names of the ledger.
var portfolios = complete.PredictFunc(func(prefix string) []string {
	var names []string
	for _, n := range cmd.PortfolioNames() {
		if strings.HasPrefix(n, strings.ToUpper(prefix)) {
			names = append(names, n)
		}
	}
	return names
})

// predictors by flag name, other flags take any value.
var predictors = map[string]complete.Predictor{
	"config": predict.Files("*.yaml"),
	"ledger": predict.Files("*"),
	"prices": predict.Files("*"),
	"format": predict.Set{"term", "md", "html"},
	"k":      predict.Set{"flexible", "inflexible"},
	"p":      portfolios,
}

type boolFlag interface{ IsBoolFlag() bool }

func flagPredictors(fs *flag.FlagSet) map[string]complete.Predictor {
	m := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		if b, ok := f.Value.(boolFlag); ok && b.IsBoolFlag() {
			m[f.Name] = nil
			return
		}
		if p, ok := predictors[f.Name]; ok {
			m[f.Name] = p
			return
		}
		m[f.Name] = predict.Something
	})
	return m
}

// completion describes the commands and flags of the commander for shell
// completion.
func completion(cdr *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: flagPredictors(flag.CommandLine),
	}
	cdr.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		sub := &complete.Command{Flags: flagPredictors(fs)}
		switch c.Name() {
		case "import-prices":
			sub.Args = predict.Files("*.csv")
		case "help":
			sub.Args = predict.Set(commandNames(cdr))
		}
		root.Sub[c.Name()] = sub
	})
	return root
}

func commandNames(cdr *subcommands.Commander) []string {
	var names []string
	cdr.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		names = append(names, c.Name())
	})
	return names
}
