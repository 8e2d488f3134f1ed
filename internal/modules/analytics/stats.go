package analytics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/dkaratzas/portfoliodb/internal/domain"
	"github.com/dkaratzas/portfoliodb/internal/modules/prices"
	"github.com/dkaratzas/portfoliodb/internal/modules/universe"
)

// TradingDaysPerYear is used to annualize daily volatility.
const TradingDaysPerYear = 252

// PriceStats summarizes the stored close series for one stock. These are
// descriptive statistics over observed closes, not a performance measure of
// any portfolio.
type PriceStats struct {
	Ticker           string  `json:"ticker"`
	Observations     int     `json:"observations"`
	FirstDate        string  `json:"first_date"`
	LastDate         string  `json:"last_date"`
	LastClose        float64 `json:"last_close"`
	MeanDailyReturn  float64 `json:"mean_daily_return"`
	DailyVolatility  float64 `json:"daily_volatility"`
	AnnualVolatility float64 `json:"annual_volatility"`
	MaxDrawdown      float64 `json:"max_drawdown"` // Fraction, 0.25 = -25% peak to trough
}

// StatsService computes price-series statistics from stored observations.
type StatsService struct {
	stocks *universe.StockRepository
	prices *prices.Repository
}

// NewStatsService creates a new stats service
func NewStatsService(stocks *universe.StockRepository, priceRepo *prices.Repository) *StatsService {
	return &StatsService{stocks: stocks, prices: priceRepo}
}

// PriceStats computes mean daily return, volatility, and max drawdown over
// the stored history of a ticker. Requires at least two observations.
func (s *StatsService) PriceStats(ticker string) (*PriceStats, error) {
	stock, err := s.stocks.GetByTicker(ticker)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, fmt.Errorf("no stored prices for %s", universe.NormalizeTicker(ticker))
	}

	history, err := s.prices.History(stock.ID, 0)
	if err != nil {
		return nil, err
	}
	if len(history) < 2 {
		return nil, fmt.Errorf("need at least 2 observations for %s, have %d", stock.Ticker, len(history))
	}

	returns := dailyReturns(history)
	mean := stat.Mean(returns, nil)
	std := math.Sqrt(stat.Variance(returns, nil))

	return &PriceStats{
		Ticker:           stock.Ticker,
		Observations:     len(history),
		FirstDate:        history[0].Date,
		LastDate:         history[len(history)-1].Date,
		LastClose:        history[len(history)-1].ClosePrice,
		MeanDailyReturn:  mean,
		DailyVolatility:  std,
		AnnualVolatility: std * math.Sqrt(TradingDaysPerYear),
		MaxDrawdown:      maxDrawdown(history),
	}, nil
}

// dailyReturns converts a close series into simple day-over-day returns.
func dailyReturns(history []domain.PriceObservation) []float64 {
	returns := make([]float64, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		prev := history[i-1].ClosePrice
		if prev > 0 {
			returns = append(returns, history[i].ClosePrice/prev-1)
		}
	}
	return returns
}

// maxDrawdown returns the largest peak-to-trough decline as a positive
// fraction of the peak.
func maxDrawdown(history []domain.PriceObservation) float64 {
	peak := history[0].ClosePrice
	maxDD := 0.0
	for _, p := range history {
		if p.ClosePrice > peak {
			peak = p.ClosePrice
		}
		if peak > 0 {
			dd := (peak - p.ClosePrice) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
