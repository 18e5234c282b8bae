package providers

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"stockdata/market"
)

// MockProvider generates a deterministic random walk per symbol. It
// backs tests and the demo config; symbols listed in NotFound answer
// with DataUnavailable so callers can exercise that path.
type MockProvider struct {
	Market   market.Market
	NotFound map[string]bool
	Base     float64
}

func NewMockProvider(m market.Market) *MockProvider {
	return &MockProvider{Market: m, NotFound: make(map[string]bool), Base: 100.0}
}

func (mp *MockProvider) Name() string { return "mock" }

func (mp *MockProvider) FetchBars(ctx context.Context, symbol string, period market.Period) ([]market.Bar, error) {
	if mp.NotFound[symbol] {
		return nil, fmt.Errorf("%w: mock: %s", market.ErrDataUnavailable, symbol)
	}

	days, err := period.Days()
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed(symbol)))
	price := mp.Base + rng.Float64()*50

	end := time.Now().UTC().Truncate(24 * time.Hour)
	bars := make([]market.Bar, 0, days)
	for d := days - 1; d >= 0; d-- {
		date := end.AddDate(0, 0, -d)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		open := price
		price *= 1 + (rng.Float64()-0.5)*0.04
		high := maxf(open, price) * (1 + rng.Float64()*0.01)
		low := minf(open, price) * (1 - rng.Float64()*0.01)
		bars = append(bars, market.Bar{
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  price,
			Volume: int64(1e6 + rng.Float64()*9e6),
		})
	}
	return bars, nil
}

func (mp *MockProvider) FetchQuote(ctx context.Context, symbol string) (*market.Quote, error) {
	bars, err := mp.FetchBars(ctx, symbol, market.Period5D)
	if err != nil {
		return nil, err
	}
	last := bars[len(bars)-1]
	prev := bars[len(bars)-2]
	change := last.Close - prev.Close
	return &market.Quote{
		Symbol:    symbol,
		Market:    mp.Market,
		Currency:  mp.Market.Currency(),
		Price:     last.Close,
		Change:    change,
		ChangePct: change / prev.Close * 100,
		Open:      last.Open,
		High:      last.High,
		Low:       last.Low,
		PrevClose: prev.Close,
		Volume:    last.Volume,
		Time:      last.Date,
	}, nil
}

func (mp *MockProvider) HealthCheck() error { return nil }

func seed(symbol string) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return int64(h.Sum64())
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
