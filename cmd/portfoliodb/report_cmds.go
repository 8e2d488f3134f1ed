package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/dkaratzas/portfoliodb/internal/modules/analytics"
	"github.com/dkaratzas/portfoliodb/internal/modules/reports"
)

var valuationHeaders = []string{"Ticker", "Quantity", "Avg Cost", "Last Price", "Cost Basis", "Market Value", "Unrealized P/L"}

func valuationRows(rows []analytics.ValuationRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, v := range rows {
		out = append(out, []string{
			v.Ticker,
			reports.Float(v.TotalQuantity),
			reports.Float(v.AverageCost),
			reports.Float(v.LastPrice),
			reports.Float(v.CostBasis),
			reports.Float(v.MarketValue),
			reports.Float(v.UnrealizedPL),
		})
	}
	return out
}

var returnsHeaders = []string{"Ticker", "Bought", "Sold", "Cost", "Proceeds", "Last Price", "Remaining", "Value", "Realized P/L", "Unrealized P/L"}

func returnsRows(rows []analytics.ReturnsRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, v := range rows {
		out = append(out, []string{
			v.Ticker,
			reports.Float(v.QtyBought),
			reports.Float(v.QtySold),
			reports.Float(v.TotalCost),
			reports.Float(v.TotalProceeds),
			reports.Float(v.LastPrice),
			reports.Float(v.QtyRemaining),
			reports.Float(v.RemainingValue),
			reports.Float(v.RealizedPL),
			reports.Float(v.UnrealizedPL),
		})
	}
	return out
}

type valuationCmd struct {
	portfolio string
	csvPath   string
}

func (*valuationCmd) Name() string     { return "valuation" }
func (*valuationCmd) Synopsis() string { return "value holdings at the latest stored closes" }
func (*valuationCmd) Usage() string {
	return `portfoliodb valuation -portfolio <name> [-csv <path>]

  Shows cost basis, market value, and unrealized P/L per holding. Holdings
  without any stored price value at zero.
`
}

func (c *valuationCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "Portfolio name (required).")
	f.StringVar(&c.csvPath, "csv", "", "Write the report to this CSV file instead of stdout.")
}

func (c *valuationCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	rows, err := a.analytics.Valuation(c.portfolio)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	if c.csvPath != "" {
		if err := reports.WriteCSV(c.csvPath, valuationHeaders, valuationRows(rows)); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Wrote %d rows to %s\n", len(rows), c.csvPath)
		return subcommands.ExitSuccess
	}

	reports.Table(os.Stdout, fmt.Sprintf("Valuation: %s", c.portfolio), valuationHeaders, valuationRows(rows))
	return subcommands.ExitSuccess
}

type returnsCmd struct {
	portfolio string
	csvPath   string
}

func (*returnsCmd) Name() string     { return "returns" }
func (*returnsCmd) Synopsis() string { return "show realized and unrealized P/L per stock" }
func (*returnsCmd) Usage() string {
	return `portfoliodb returns -portfolio <name> [-csv <path>]

  Shows realized and unrealized P/L for every stock ever traded in the
  portfolio, including closed positions.
`
}

func (c *returnsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "Portfolio name (required).")
	f.StringVar(&c.csvPath, "csv", "", "Write the report to this CSV file instead of stdout.")
}

func (c *returnsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	rows, err := a.analytics.Returns(c.portfolio)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	if c.csvPath != "" {
		if err := reports.WriteCSV(c.csvPath, returnsHeaders, returnsRows(rows)); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Wrote %d rows to %s\n", len(rows), c.csvPath)
		return subcommands.ExitSuccess
	}

	reports.Table(os.Stdout, fmt.Sprintf("Returns: %s", c.portfolio), returnsHeaders, returnsRows(rows))
	return subcommands.ExitSuccess
}

type exportCmd struct {
	portfolio string
	dir       string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export valuation and returns reports as CSV" }
func (*exportCmd) Usage() string {
	return `portfoliodb export -portfolio <name> [-dir <directory>]

  Writes <name>_valuation.csv and <name>_returns.csv into the target
  directory (default: current directory).
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "Portfolio name (required).")
	f.StringVar(&c.dir, "dir", ".", "Directory to write the CSV files into.")
}

func (c *exportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	valuation, err := a.analytics.Valuation(c.portfolio)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	returns, err := a.analytics.Returns(c.portfolio)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	valuationPath := filepath.Join(c.dir, fmt.Sprintf("%s_valuation.csv", c.portfolio))
	if err := reports.WriteCSV(valuationPath, valuationHeaders, valuationRows(valuation)); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	returnsPath := filepath.Join(c.dir, fmt.Sprintf("%s_returns.csv", c.portfolio))
	if err := reports.WriteCSV(returnsPath, returnsHeaders, returnsRows(returns)); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Wrote %s and %s\n", valuationPath, returnsPath)
	return subcommands.ExitSuccess
}
