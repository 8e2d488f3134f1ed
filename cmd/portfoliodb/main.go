// Package main is the command-line interface for the portfolio tracker.
// Every command opens the SQLite store configured via the environment,
// performs one operation, and exits.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	commander.Register(commander.HelpCommand(), "")
	commander.Register(&initDBCmd{}, "database")
	commander.Register(&createPortfolioCmd{}, "portfolios")
	commander.Register(&listPortfoliosCmd{}, "portfolios")
	commander.Register(&buyCmd{}, "transactions")
	commander.Register(&sellCmd{}, "transactions")
	commander.Register(&holdingsCmd{}, "reports")
	commander.Register(&valuationCmd{}, "reports")
	commander.Register(&returnsCmd{}, "reports")
	commander.Register(&exportCmd{}, "reports")
	commander.Register(&updatePricesCmd{}, "prices")
	commander.Register(&statsCmd{}, "prices")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
