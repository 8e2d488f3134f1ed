package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/dkaratzas/portfoliodb/internal/modules/reports"
)

type initDBCmd struct{}

func (*initDBCmd) Name() string     { return "init-db" }
func (*initDBCmd) Synopsis() string { return "create the database file and schema" }
func (*initDBCmd) Usage() string {
	return `portfoliodb init-db

  Creates the SQLite database and all tables. Safe to run repeatedly.
`
}
func (*initDBCmd) SetFlags(f *flag.FlagSet) {}

func (*initDBCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	fmt.Printf("Database ready at %s\n", a.db.Path())
	return subcommands.ExitSuccess
}

type createPortfolioCmd struct {
	name string
}

func (*createPortfolioCmd) Name() string     { return "create-portfolio" }
func (*createPortfolioCmd) Synopsis() string { return "create a new named portfolio" }
func (*createPortfolioCmd) Usage() string {
	return `portfoliodb create-portfolio -name <name>

  Creates an empty portfolio. Names are unique.
`
}

func (p *createPortfolioCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.name, "name", "", "Portfolio name (required).")
}

func (p *createPortfolioCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.name == "" {
		fmt.Fprintln(os.Stderr, "Error: -name is required.")
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	created, err := a.portfolios.Create(p.name)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Created portfolio %q (id %d)\n", created.Name, created.ID)
	return subcommands.ExitSuccess
}

type listPortfoliosCmd struct{}

func (*listPortfoliosCmd) Name() string     { return "list-portfolios" }
func (*listPortfoliosCmd) Synopsis() string { return "list all portfolios" }
func (*listPortfoliosCmd) Usage() string {
	return `portfoliodb list-portfolios

  Lists all portfolios ordered by name.
`
}
func (*listPortfoliosCmd) SetFlags(f *flag.FlagSet) {}

func (*listPortfoliosCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	portfolios, err := a.portfolios.List()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	rows := make([][]string, 0, len(portfolios))
	for _, p := range portfolios {
		rows = append(rows, []string{fmt.Sprintf("%d", p.ID), p.Name, p.CreatedDate})
	}
	reports.Table(os.Stdout, "Portfolios", []string{"ID", "Name", "Created"}, rows)
	return subcommands.ExitSuccess
}
