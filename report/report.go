// Package report assembles the analysis result a consumer reads: the
// latest bar, the full aligned indicator arrays and request metadata.
package report

import (
	"time"

	"stockdata/indicator"
	"stockdata/market"
	"stockdata/pipeline"
)

// Change is a price move against an earlier session's close.
type Change struct {
	Abs float64 `json:"abs"`
	Pct float64 `json:"pct"`
}

// Report is the result record for one analysis request. Partial
// indicator coverage is represented in the columns (null entries),
// never reported as an error.
type Report struct {
	Symbol      string             `json:"symbol"`
	Market      market.Market      `json:"market"`
	Currency    string             `json:"currency"`
	Period      market.Period      `json:"period"`
	DataPoints  int                `json:"data_points"`
	LatestBar   market.Bar         `json:"latest_bar"`
	LatestPrice float64            `json:"latest_price"`
	Changes     map[string]*Change `json:"changes"` // "1d","7d","30d"; null where history is short
	Indicators  *indicator.Set     `json:"indicators"`
	Series      market.Series      `json:"series"`
	Issues      []pipeline.Issue   `json:"issues,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// Assemble builds the report from a normalized series and its
// indicator set. It fails only when there is nothing at all to
// report on.
func Assemble(series market.Series, set *indicator.Set, period market.Period, issues []pipeline.Issue) (*Report, error) {
	last, ok := series.Last()
	if !ok {
		return nil, market.ErrInsufficientHistory
	}

	return &Report{
		Symbol:      series.Symbol,
		Market:      series.Market,
		Currency:    series.Market.Currency(),
		Period:      period,
		DataPoints:  series.Len(),
		LatestBar:   last,
		LatestPrice: last.Close,
		Changes: map[string]*Change{
			"1d":  changeOver(series, 1),
			"7d":  changeOver(series, 7),
			"30d": changeOver(series, 30),
		},
		Indicators:  set,
		Series:      series,
		Issues:      issues,
		GeneratedAt: time.Now(),
	}, nil
}

// changeOver measures the move from the latest close back to the last
// valid session at least `days` calendar days earlier. For 1d that is
// simply the previous session, so a Monday compares against Friday.
// nil means the history does not reach back that far.
func changeOver(series market.Series, days int) *Change {
	bars := series.Bars
	if len(bars) < 2 {
		return nil
	}
	last := bars[len(bars)-1]

	var base *market.Bar
	if days == 1 {
		for i := len(bars) - 2; i >= 0; i-- {
			if !bars[i].Invalid {
				base = &bars[i]
				break
			}
		}
	} else {
		cutoff := last.Date.AddDate(0, 0, -days)
		for i := len(bars) - 2; i >= 0; i-- {
			if bars[i].Invalid {
				continue
			}
			if !bars[i].Date.After(cutoff) {
				base = &bars[i]
				break
			}
		}
	}

	if base == nil || base.Close == 0 {
		return nil
	}
	abs := last.Close - base.Close
	return &Change{Abs: abs, Pct: abs / base.Close * 100}
}
