package reports

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_RendersHeadersAndRows(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, "Holdings: growth",
		[]string{"Ticker", "Quantity"},
		[][]string{
			{"AAPL", "15.00"},
			{"MSFT", "3.00"},
		})

	out := buf.String()
	assert.Contains(t, out, "=== Holdings: growth ===")
	assert.Contains(t, out, "Ticker")
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "15.00")
}

func TestTable_EmptyRendersNoData(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, "Valuation: growth", []string{"Ticker"}, nil)

	assert.Equal(t, "Valuation: growth: No data.\n", buf.String())
}

func TestCSV_WritesHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	err := CSV(&buf, []string{"ticker", "close"}, [][]string{
		{"AAPL", "190.00"},
		{"MSFT", "402.50"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ticker,close", lines[0])
	assert.Equal(t, "AAPL,190.00", lines[1])
}

func TestWriteCSV_CreatesDirectoriesAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "report.csv")

	err := WriteCSV(path, []string{"a"}, [][]string{{"1"}})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "a\n1")
}

func TestWriteCSV_EmptyRowsWritesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	err := WriteCSV(path, []string{"a"}, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestFloat(t *testing.T) {
	assert.Equal(t, "166.67", Float(166.6666667))
	assert.Equal(t, "0.00", Float(0))
	assert.Equal(t, "-12.50", Float(-12.5))
}
