// Package yahoo provides the external price feed client against the Yahoo
// Finance v8 chart API. Feed failures are never fatal to the core: after the
// retry budget is spent the client reports an empty result and the caller
// decides what to surface.
package yahoo

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Quote is one (date, close) sample from the feed.
type Quote struct {
	Date  string  // YYYY-MM-DD
	Close float64
}

// RetryPolicy bounds how hard the client tries before giving up. The
// fallback range is used for a final period-based query when the date-ranged
// request keeps failing or returns nothing.
type RetryPolicy struct {
	Attempts      int
	Delay         time.Duration
	FallbackRange string // e.g. "1y"
}

// DefaultRetryPolicy mirrors the ingestion default: three attempts, one
// second apart, then a one-year period fallback.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Delay: time.Second, FallbackRange: "1y"}
}

// Client for the Yahoo Finance v8 chart API
type Client struct {
	baseURL string
	client  *http.Client
	policy  RetryPolicy
	log     zerolog.Logger
}

// NewClient creates a new Yahoo chart API client
func NewClient(baseURL string, policy RetryPolicy, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://query2.finance.yahoo.com"
	}
	if policy.Attempts < 1 {
		policy = DefaultRetryPolicy()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		policy:  policy,
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

// chartResponse is the subset of the v8 chart payload this client reads.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// FetchHistory fetches daily closes for [start, end] (YYYY-MM-DD, end
// exclusive). Retries the date-ranged query per the policy; if it still
// fails or comes back empty, falls back to one period-based query. Returns
// an empty slice when the feed cannot be reached at all.
func (c *Client) FetchHistory(ticker, start, end string) ([]Quote, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if end == "" {
		end = time.Now().UTC().Format("2006-01-02")
	}

	params, err := rangeParams(start, end)
	if err != nil {
		return nil, err
	}

	quotes := c.fetchWithRetry(symbol, params)
	if len(quotes) == 0 {
		// Date-ranged query failed or empty: one period-based fallback
		fallback := url.Values{"interval": {"1d"}, "range": {c.policy.FallbackRange}}
		quotes = c.fetchWithRetry(symbol, fallback)
	}

	return quotes, nil
}

// FetchLatest fetches the most recent close for a ticker. Returns (nil, nil)
// when the feed has nothing usable; network errors are degraded to that same
// empty result after the retry budget.
func (c *Client) FetchLatest(ticker string) (*Quote, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))

	params := url.Values{"interval": {"1d"}, "range": {"5d"}}
	var resp *chartResponse
	for attempt := 1; attempt <= c.policy.Attempts; attempt++ {
		r, err := c.fetchChart(symbol, params)
		if err == nil {
			resp = r
			break
		}
		c.log.Warn().Err(err).Str("ticker", symbol).Int("attempt", attempt).Msg("Latest price fetch failed")
		if attempt < c.policy.Attempts {
			time.Sleep(c.policy.Delay)
		}
	}
	if resp == nil || len(resp.Chart.Result) == 0 {
		return nil, nil
	}

	result := resp.Chart.Result[0]
	if result.Meta.RegularMarketPrice > 0 && result.Meta.RegularMarketTime > 0 {
		return &Quote{
			Date:  time.Unix(result.Meta.RegularMarketTime, 0).UTC().Format("2006-01-02"),
			Close: result.Meta.RegularMarketPrice,
		}, nil
	}

	// Meta missing: last non-zero close from the series
	quotes := quotesFromResult(result.Timestamp, result.Indicators.Quote)
	if len(quotes) == 0 {
		return nil, nil
	}
	last := quotes[len(quotes)-1]
	return &last, nil
}

// fetchWithRetry runs the chart query up to Attempts times with a fixed
// delay and returns whatever closes the first successful response held.
func (c *Client) fetchWithRetry(symbol string, params url.Values) []Quote {
	for attempt := 1; attempt <= c.policy.Attempts; attempt++ {
		resp, err := c.fetchChart(symbol, params)
		if err != nil {
			c.log.Warn().Err(err).Str("ticker", symbol).Int("attempt", attempt).Msg("History fetch failed")
			if attempt < c.policy.Attempts {
				time.Sleep(c.policy.Delay)
			}
			continue
		}
		if len(resp.Chart.Result) == 0 {
			return nil
		}
		r := resp.Chart.Result[0]
		return quotesFromResult(r.Timestamp, r.Indicators.Quote)
	}
	return nil
}

func (c *Client) fetchChart(symbol string, params url.Values) (*chartResponse, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "portfoliodb/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var parsed chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &parsed, nil
}

// quotesFromResult pairs timestamps with closes, dropping gaps and
// non-positive values the chart API pads series with.
func quotesFromResult(timestamps []int64, quoteSeries []struct {
	Close []float64 `json:"close"`
}) []Quote {
	if len(quoteSeries) == 0 || len(quoteSeries[0].Close) != len(timestamps) {
		return nil
	}

	closes := quoteSeries[0].Close
	quotes := make([]Quote, 0, len(timestamps))
	for i, ts := range timestamps {
		if closes[i] > 0 {
			quotes = append(quotes, Quote{
				Date:  time.Unix(ts, 0).UTC().Format("2006-01-02"),
				Close: closes[i],
			})
		}
	}
	return quotes
}

// rangeParams converts YYYY-MM-DD bounds to the epoch parameters the chart
// API expects.
func rangeParams(start, end string) (url.Values, error) {
	startTime, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q (expected YYYY-MM-DD): %w", start, err)
	}
	endTime, err := time.Parse("2006-01-02", end)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q (expected YYYY-MM-DD): %w", end, err)
	}

	return url.Values{
		"interval": {"1d"},
		"period1":  {fmt.Sprintf("%d", startTime.Unix())},
		"period2":  {fmt.Sprintf("%d", endTime.Unix())},
	}, nil
}
