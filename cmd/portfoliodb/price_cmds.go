package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/dkaratzas/portfoliodb/internal/modules/reports"
)

type updatePricesCmd struct {
	ticker string
	start  string
	end    string
}

func (*updatePricesCmd) Name() string     { return "update-prices" }
func (*updatePricesCmd) Synopsis() string { return "fetch closing prices from the feed" }
func (*updatePricesCmd) Usage() string {
	return `portfoliodb update-prices [-ticker <ticker>] [-start YYYY-MM-DD] [-end YYYY-MM-DD]

  With -ticker and -start, fetches the daily close history for that range
  and stores it. With -ticker alone, fetches just the latest close. With no
  flags, refreshes the latest close for every held stock.
`
}

func (c *updatePricesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "ticker", "", "Stock ticker to update.")
	f.StringVar(&c.start, "start", "", "History start date YYYY-MM-DD.")
	f.StringVar(&c.end, "end", "", "History end date YYYY-MM-DD (default: today).")
}

func (c *updatePricesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	switch {
	case c.ticker != "" && c.start != "":
		result, err := a.sync.SyncHistory(c.ticker, c.start, c.end)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		if result.Status == "empty" {
			fmt.Printf("No prices available for %s\n", result.Ticker)
			return subcommands.ExitSuccess
		}
		fmt.Printf("Stored %d closes for %s\n", result.RowsStored, result.Ticker)

	case c.ticker != "":
		quote, err := a.sync.SyncLatest(c.ticker)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		if quote == nil {
			fmt.Printf("No price available for %s\n", c.ticker)
			return subcommands.ExitSuccess
		}
		fmt.Printf("Stored close %s @ %s\n", reports.Float(quote.Close), quote.Date)

	default:
		updated, err := a.sync.RefreshHeld()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Refreshed prices for %d held stocks\n", updated)
	}

	return subcommands.ExitSuccess
}

type statsCmd struct {
	ticker string
}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "show price-series statistics for a stock" }
func (*statsCmd) Usage() string {
	return `portfoliodb stats -ticker <ticker>

  Shows return and volatility statistics over the stored close history.
  Needs at least two observations.
`
}

func (c *statsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "ticker", "", "Stock ticker (required).")
}

func (c *statsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" {
		fmt.Fprintln(os.Stderr, "Error: -ticker is required.")
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	stats, err := a.stats.PriceStats(c.ticker)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("\n=== Price stats: %s ===\n", stats.Ticker)
	fmt.Printf("Observations:      %d (%s to %s)\n", stats.Observations, stats.FirstDate, stats.LastDate)
	fmt.Printf("Last close:        %s\n", reports.Float(stats.LastClose))
	fmt.Printf("Mean daily return: %.4f%%\n", stats.MeanDailyReturn*100)
	fmt.Printf("Daily volatility:  %.4f%%\n", stats.DailyVolatility*100)
	fmt.Printf("Annual volatility: %.2f%%\n", stats.AnnualVolatility*100)
	fmt.Printf("Max drawdown:      %.2f%%\n", stats.MaxDrawdown*100)
	return subcommands.ExitSuccess
}
