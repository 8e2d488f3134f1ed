// Package reports renders query results as console tables and CSV files.
// Reports are consumed as uniform records: the same columns for every row,
// floats formatted to two decimals, dates as YYYY-MM-DD strings.
package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
)

// Table writes rows as an aligned text table with a title line. An empty
// result set renders an explicit "No data." indication, never a bare table.
func Table(w io.Writer, title string, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintf(w, "%s: No data.\n", title)
		return
	}

	fmt.Fprintf(w, "\n=== %s ===\n", title)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	printRow(tw, headers)

	separators := make([]string, len(headers))
	for i, h := range headers {
		separators[i] = dashes(len(h))
	}
	printRow(tw, separators)

	for _, row := range rows {
		printRow(tw, row)
	}
	tw.Flush()
}

// WriteCSV writes a header-plus-rows CSV file, creating parent directories
// as needed. An empty result set produces an empty file.
func WriteCSV(path string, headers []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer f.Close()

	if len(rows) == 0 {
		return nil
	}

	return CSV(f, headers, rows)
}

// CSV streams header-plus-rows CSV to a writer.
func CSV(w io.Writer, headers []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// Float formats a numeric cell to two decimals.
func Float(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func printRow(w io.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}

func dashes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '-'
	}
	return string(b)
}
