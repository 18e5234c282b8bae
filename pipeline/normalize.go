// Package pipeline turns raw adapter output into the canonical series
// the indicator engine consumes.
package pipeline

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"stockdata/market"
)

// longestWarmup is the deepest indicator window downstream (MA50).
// Shorter series still normalize; the engine leaves the deep
// indicators undefined.
const longestWarmup = 50

// Issue records a data-quality finding. Issues never abort the
// request; invalid bars are flagged in place and duplicates are
// collapsed, and the consumer decides what to surface.
type Issue struct {
	Type     string    `json:"type"`
	Severity string    `json:"severity"` // low, medium, high
	Message  string    `json:"message"`
	Date     time.Time `json:"date"`
	Symbol   string    `json:"symbol"`
}

// Normalizer enforces the series invariants: ascending dates, one bar
// per session, OHLC relationship checked per bar.
type Normalizer struct {
	log *zap.SugaredLogger
}

func NewNormalizer(log *zap.SugaredLogger) *Normalizer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Normalizer{log: log}
}

// Normalize sorts, de-duplicates and validates raw bars into a
// canonical Series. It fails only with EmptySeries; everything else
// is reported as issues alongside the result.
func (n *Normalizer) Normalize(symbol string, m market.Market, bars []market.Bar) (market.Series, []Issue, error) {
	if len(bars) == 0 {
		return market.Series{}, nil, fmt.Errorf("%w: %s", market.ErrEmptySeries, symbol)
	}

	var issues []Issue

	// Stable sort keeps received order within a date, which the
	// duplicate tie-break below relies on.
	sorted := make([]market.Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	deduped := make([]market.Bar, 0, len(sorted))
	for _, b := range sorted {
		if len(deduped) == 0 || dayKey(deduped[len(deduped)-1].Date) != dayKey(b.Date) {
			deduped = append(deduped, b)
			continue
		}
		// Same session twice: prefer the bar with traded volume,
		// otherwise the later-received one wins.
		prev := deduped[len(deduped)-1]
		if b.Volume > 0 || prev.Volume == 0 {
			deduped[len(deduped)-1] = b
		}
		issues = append(issues, Issue{
			Type:     "duplicate_date",
			Severity: "medium",
			Message:  fmt.Sprintf("two bars for %s, kept one", dayKey(b.Date)),
			Date:     b.Date,
			Symbol:   symbol,
		})
	}

	for i := range deduped {
		if !deduped[i].CheckOHLC() {
			deduped[i].Invalid = true
			issues = append(issues, Issue{
				Type:     "ohlc_violation",
				Severity: "high",
				Message: fmt.Sprintf("bar %s violates low<=open,close<=high (o=%.4f h=%.4f l=%.4f c=%.4f)",
					dayKey(deduped[i].Date), deduped[i].Open, deduped[i].High, deduped[i].Low, deduped[i].Close),
				Date:   deduped[i].Date,
				Symbol: symbol,
			})
		}
	}

	issues = append(issues, n.flagGaps(symbol, deduped)...)

	if len(deduped) < longestWarmup {
		n.log.Warnw("short history, deep indicators will stay undefined",
			"symbol", symbol, "market", m, "bars", len(deduped), "warmup", longestWarmup)
	}

	return market.Series{Symbol: symbol, Market: m, Bars: deduped}, issues, nil
}

// flagGaps reports holes longer than a weekend between consecutive
// sessions. Gaps are flagged, never filled with synthetic bars, so
// exchange holidays show up as low-severity noise at worst.
func (n *Normalizer) flagGaps(symbol string, bars []market.Bar) []Issue {
	var issues []Issue
	for i := 1; i < len(bars); i++ {
		days := int(bars[i].Date.Sub(bars[i-1].Date).Hours() / 24)
		if days > 3 {
			issues = append(issues, Issue{
				Type:     "calendar_gap",
				Severity: "low",
				Message:  fmt.Sprintf("%d days between %s and %s", days, dayKey(bars[i-1].Date), dayKey(bars[i].Date)),
				Date:     bars[i].Date,
				Symbol:   symbol,
			})
		}
	}
	return issues
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }
