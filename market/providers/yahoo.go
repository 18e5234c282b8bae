package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stockdata/market"
)

// YahooProvider serves the US market from the Yahoo Finance chart API.
// Bars arrive as parallel arrays keyed by epoch timestamps; holiday
// slots come back null and are skipped.
type YahooProvider struct {
	client  *http.Client
	baseURL string
}

func NewYahooProvider() *YahooProvider {
	return &YahooProvider{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://query1.finance.yahoo.com",
	}
}

func (yp *YahooProvider) Name() string { return "yahoo" }

// yahooChart is the subset of the chart API response we read.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				ShortName          string  `json:"shortName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (yp *YahooProvider) FetchBars(ctx context.Context, symbol string, period market.Period) ([]market.Bar, error) {
	// Range tokens map 1:1 to period tokens; reject unknown ones here
	// instead of letting the upstream guess.
	if _, err := period.Days(); err != nil {
		return nil, err
	}

	chart, err := yp.fetchChart(ctx, symbol, string(period))
	if err != nil {
		return nil, err
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: yahoo: no quote block for %s", market.ErrUpstream, symbol)
	}
	quote := result.Indicators.Quote[0]

	bars := make([]market.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue // null slot, market holiday
		}
		bars = append(bars, market.Bar{
			Date:   time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:   deref(quote.Open, i),
			High:   deref(quote.High, i),
			Low:    deref(quote.Low, i),
			Close:  *quote.Close[i],
			Volume: derefInt(quote.Volume, i),
		})
	}
	return bars, nil
}

func (yp *YahooProvider) FetchQuote(ctx context.Context, symbol string) (*market.Quote, error) {
	chart, err := yp.fetchChart(ctx, symbol, "1d")
	if err != nil {
		return nil, err
	}

	meta := chart.Chart.Result[0].Meta
	change := meta.RegularMarketPrice - meta.PreviousClose
	changePct := 0.0
	if meta.PreviousClose > 0 {
		changePct = change / meta.PreviousClose * 100
	}

	q := &market.Quote{
		Symbol:    strings.ToUpper(symbol),
		Name:      meta.ShortName,
		Market:    market.US,
		Currency:  meta.Currency,
		Price:     meta.RegularMarketPrice,
		Change:    change,
		ChangePct: changePct,
		PrevClose: meta.PreviousClose,
		Time:      time.Now(),
	}
	if q.Currency == "" {
		q.Currency = market.US.Currency()
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) > 0 && len(result.Timestamp) > 0 {
		quote := result.Indicators.Quote[0]
		last := len(result.Timestamp) - 1
		q.Open = deref(quote.Open, last)
		q.High = deref(quote.High, last)
		q.Low = deref(quote.Low, last)
		q.Volume = derefInt(quote.Volume, last)
	}
	return q, nil
}

func (yp *YahooProvider) fetchChart(ctx context.Context, symbol, rng string) (*yahooChart, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		yp.baseURL, url.PathEscape(symbol), rng)

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", market.ErrUpstream, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := yp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo fetch: %v", market.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo read body: %v", market.ErrUpstream, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: yahoo: %s", market.ErrDataUnavailable, symbol)
	}

	return parseYahooChart(body, symbol)
}

func parseYahooChart(body []byte, symbol string) (*yahooChart, error) {
	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("%w: yahoo decode: %v", market.ErrUpstream, err)
	}
	if e := chart.Chart.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, fmt.Errorf("%w: yahoo: %s", market.ErrDataUnavailable, symbol)
		}
		return nil, fmt.Errorf("%w: yahoo api error: %s", market.ErrUpstream, e.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: yahoo: %s", market.ErrDataUnavailable, symbol)
	}
	return &chart, nil
}

func (yp *YahooProvider) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := yp.FetchQuote(ctx, "SPY")
	if err != nil && !errors.Is(err, market.ErrDataUnavailable) {
		return err
	}
	return nil
}

func deref(vs []*float64, i int) float64 {
	if i >= len(vs) || vs[i] == nil {
		return 0
	}
	return *vs[i]
}

func derefInt(vs []*int64, i int) int64 {
	if i >= len(vs) || vs[i] == nil {
		return 0
	}
	return *vs[i]
}
