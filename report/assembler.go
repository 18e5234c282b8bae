package report

import (
	"context"

	"go.uber.org/zap"

	"stockdata/cache"
	"stockdata/indicator"
	"stockdata/market"
	"stockdata/market/providers"
	"stockdata/pipeline"
)

// Recorder receives every normalized series the assembler produces.
// Persistence failures are logged, never surfaced to the caller.
type Recorder interface {
	SaveSeries(market.Series) error
}

// Assembler runs the full request pipeline: resolve adapter, fetch,
// normalize, compute indicators, assemble the report. It holds no
// per-request state, so one instance serves concurrent requests.
type Assembler struct {
	registry   *providers.Registry
	normalizer *pipeline.Normalizer
	log        *zap.SugaredLogger

	// Cache and Recorder are optional collaborators set by the host.
	Cache    *cache.Bars
	Recorder Recorder
}

func NewAssembler(registry *providers.Registry, log *zap.SugaredLogger) *Assembler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Assembler{
		registry:   registry,
		normalizer: pipeline.NewNormalizer(log),
		log:        log,
	}
}

// Analyze fetches history for (symbol, market, period) and returns
// the assembled report. Adapter failures propagate unchanged; short
// history shows up as null indicator entries, not as an error.
func (a *Assembler) Analyze(ctx context.Context, symbol string, m market.Market, p market.Period) (*Report, error) {
	series, issues, err := a.FetchSeries(ctx, symbol, m, p)
	if err != nil {
		return nil, err
	}

	set := indicator.Compute(series)
	return Assemble(series, set, p, issues)
}

// FetchSeries resolves the adapter once, fetches raw bars (through
// the cache when one is wired) and normalizes them.
func (a *Assembler) FetchSeries(ctx context.Context, symbol string, m market.Market, p market.Period) (market.Series, []pipeline.Issue, error) {
	provider, err := a.registry.ForMarket(m)
	if err != nil {
		return market.Series{}, nil, err
	}

	var bars []market.Bar
	cached := false
	if a.Cache != nil {
		bars, cached = a.Cache.Get(m, symbol, p)
	}
	if !cached {
		bars, err = provider.FetchBars(ctx, symbol, p)
		if err != nil {
			return market.Series{}, nil, err
		}
		if a.Cache != nil {
			a.Cache.Add(m, symbol, p, bars)
		}
	}

	series, issues, err := a.normalizer.Normalize(symbol, m, bars)
	if err != nil {
		return market.Series{}, nil, err
	}
	if len(issues) > 0 {
		a.log.Infow("normalizer flagged issues", "symbol", symbol, "count", len(issues))
	}

	if a.Recorder != nil && !cached {
		if err := a.Recorder.SaveSeries(series); err != nil {
			a.log.Warnw("failed to record series", "symbol", symbol, "error", err)
		}
	}
	return series, issues, nil
}

// Health reports per-adapter upstream health for the health endpoint.
func (a *Assembler) Health() map[string]string {
	return a.registry.Health()
}

// Quote returns the realtime snapshot from the market's adapter.
func (a *Assembler) Quote(ctx context.Context, symbol string, m market.Market) (*market.Quote, error) {
	provider, err := a.registry.ForMarket(m)
	if err != nil {
		return nil, err
	}
	q, err := provider.FetchQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if q.Currency == "" {
		q.Currency = m.Currency()
	}
	return q, nil
}
