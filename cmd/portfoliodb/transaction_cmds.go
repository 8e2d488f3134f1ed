package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/dkaratzas/portfoliodb/internal/domain"
	"github.com/dkaratzas/portfoliodb/internal/modules/reports"
)

// tradeCmd carries the shared flags and execution path of buy and sell.
type tradeCmd struct {
	kind domain.TransactionKind

	portfolio   string
	ticker      string
	quantity    float64
	price       float64
	date        string
	companyName string
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "Portfolio name (required).")
	f.StringVar(&c.ticker, "ticker", "", "Stock ticker (required).")
	f.Float64Var(&c.quantity, "quantity", 0, "Number of shares (required, > 0).")
	f.Float64Var(&c.price, "price", 0, "Price per share (required, > 0).")
	f.StringVar(&c.date, "date", "", "Transaction date YYYY-MM-DD (default: today).")
	f.StringVar(&c.companyName, "name", "", "Company name, stored when the stock is first seen.")
}

func (c *tradeCmd) execute() subcommands.ExitStatus {
	if c.portfolio == "" || c.ticker == "" {
		fmt.Fprintln(os.Stderr, "Error: -portfolio and -ticker are required.")
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	portfolioID, err := a.portfolios.ResolveID(c.portfolio)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	stockID, err := a.stocks.GetOrCreate(c.ticker, c.companyName, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	txn, err := a.ledger.Record(portfolioID, stockID, c.kind, c.quantity, c.price, c.date)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Recorded %s %s x %s @ %s on %s (transaction %d)\n",
		txn.Kind, c.ticker, reports.Float(txn.Quantity), reports.Float(txn.Price), txn.Date, txn.ID)
	return subcommands.ExitSuccess
}

type buyCmd struct{ tradeCmd }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record a buy transaction" }
func (*buyCmd) Usage() string {
	return `portfoliodb buy -portfolio <name> -ticker <ticker> -quantity <n> -price <p> [-date YYYY-MM-DD] [-name <company>]

  Records a buy and folds it into the holding's weighted average cost.
`
}

func (c *buyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	c.kind = domain.Buy
	return c.execute()
}

type sellCmd struct{ tradeCmd }

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record a sell transaction" }
func (*sellCmd) Usage() string {
	return `portfoliodb sell -portfolio <name> -ticker <ticker> -quantity <n> -price <p> [-date YYYY-MM-DD]

  Records a sell. Selling more than the held quantity is rejected and
  nothing is written.
`
}

func (c *sellCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	c.kind = domain.Sell
	return c.execute()
}

type holdingsCmd struct {
	portfolio string
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "show current holdings for a portfolio" }
func (*holdingsCmd) Usage() string {
	return `portfoliodb holdings -portfolio <name>

  Shows each open position with its weighted average cost and the latest
  stored close.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "Portfolio name (required).")
}

func (c *holdingsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolio == "" {
		fmt.Fprintln(os.Stderr, "Error: -portfolio is required.")
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	portfolioID, err := a.portfolios.ResolveID(c.portfolio)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	holdings, err := a.holdings.ListByPortfolio(portfolioID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	rows := make([][]string, 0, len(holdings))
	for _, h := range holdings {
		lastClose := "-"
		if h.LastClose != nil {
			lastClose = reports.Float(*h.LastClose)
		}
		rows = append(rows, []string{
			h.Ticker,
			h.CompanyName,
			reports.Float(h.TotalQuantity),
			reports.Float(h.AverageCost),
			lastClose,
		})
	}
	reports.Table(os.Stdout, fmt.Sprintf("Holdings: %s", c.portfolio),
		[]string{"Ticker", "Company", "Quantity", "Avg Cost", "Last Close"}, rows)
	return subcommands.ExitSuccess
}
